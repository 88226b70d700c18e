package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/limbo/journal/internal/pipeline"
	"github.com/limbo/journal/pkg/entity"
)

type JWTServiceI interface {
	GenerateToken(user *entity.User) (string, error)
	ParseToken(tokenString string) (*JWTClaims, error)
}

type JWTClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// EditorI is implemented by pipeline.Editor. Calls must happen on the loop.
type EditorI interface {
	StartNew()
	StartEdit(entry entity.Entry)
	OpenToday(now time.Time) error
	Reset()
	State() pipeline.EditorState
	Submit(content string, done func(*entity.Entry, error)) error
}
