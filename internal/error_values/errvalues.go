package errorvalues

import (
	"errors"
	"fmt"
)

var (
	ErrUserExists       = errors.New("user with such email already exists")
	ErrUserNotFound     = errors.New("user doesn't exists")
	ErrWrongCredentials = errors.New("wrong email or password")
	ErrInvalidToken     = errors.New("invalid token")
	ErrNotAuthenticated = errors.New("no active user")
	ErrValidation       = errors.New("validation error")
)

var (
	ErrEmptyContent     = fmt.Errorf("%w: entry content is empty", ErrValidation)
	ErrEntryNotFound    = errors.New("entry doesn't exists")
	ErrSubmitInProgress = errors.New("entry is already being saved")
)
