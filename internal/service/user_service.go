package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	errorvalues "github.com/limbo/journal/internal/error_values"
	"github.com/limbo/journal/internal/repository"
	"github.com/limbo/journal/internal/session"
	"github.com/limbo/journal/pkg/entity"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	repo    repository.UsersRepositoryI
	journal JournalServiceI
}

// NewUserService needs journal to fill the session cache after login.
func NewUserService(usersRepo repository.UsersRepositoryI, journal JournalServiceI) *UserService {
	return &UserService{
		repo:    usersRepo,
		journal: journal,
	}
}

func Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (us *UserService) Signup(ctx context.Context, sess *session.Session, req *SignupRequest) (*entity.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(*req); err != nil {
		return nil, err
	}
	passwordHash, err := Hash(req.Password)
	if err != nil {
		return nil, errors.New("hashing password error: " + err.Error())
	}
	user := entity.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: passwordHash,
	}
	err = us.repo.Create(ctx, &user)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserExists) {
			return nil, err
		}
		return nil, errors.New("repository creating error: " + err.Error())
	}
	sess.Begin(&user)
	return &user, nil
}

func (us *UserService) Login(ctx context.Context, sess *session.Session, email, password string) (*entity.User, error) {
	user, err := us.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, errorvalues.ErrWrongCredentials
		}
		return nil, errors.New("repository searching error: " + err.Error())
	}
	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, errorvalues.ErrWrongCredentials
	}
	sess.Begin(user)
	if err = us.journal.Refresh(ctx, sess); err != nil {
		sess.End()
		return nil, fmt.Errorf("loading entries after login: %w", err)
	}
	return user, nil
}

func (us *UserService) Logout(sess *session.Session) {
	sess.End()
}

func (us *UserService) CurrentUser(sess *session.Session) (*entity.User, error) {
	return sess.User()
}

func (us *UserService) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := us.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, errorvalues.ErrUserNotFound) {
			return nil, err
		}
		return nil, errors.New("repository searching error: " + err.Error())
	}
	return user, nil
}
