package service

import (
	"context"
	"errors"
	"time"

	"github.com/nmanikumar5/Swappio-BE/internal/auth"
	"github.com/nmanikumar5/Swappio-BE/internal/model"
	"github.com/nmanikumar5/Swappio-BE/internal/repo"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// UserService handles account registration and login, issuing the HS256
// tokens the socket layer verifies.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
}

type userService struct {
	users     repo.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewUserService(users repo.UserRepository, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) UserService {
	return &userService{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

func (s *userService) Register(ctx context.Context, name, email, password string) (*model.User, string, error) {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, repo.ErrUserNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user, err := s.users.Create(ctx, &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, "", err
	}

	token, err := auth.NewToken(s.jwtSecret, user.ID.Hex(), s.tokenTTL)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID.Hex()))
	return user, token, nil
}

func (s *userService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.NewToken(s.jwtSecret, user.ID.Hex(), s.tokenTTL)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}
