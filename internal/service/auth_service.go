package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"alumniportal/internal/config"
	"alumniportal/internal/dto"
	"alumniportal/internal/model"
	"alumniportal/internal/repository"
	"alumniportal/pkg/apperror"
)

type AuthService interface {
	// Register creates a pending user and their registration request as one
	// unit; the account stays locked until an admin approves.
	Register(ctx context.Context, input dto.RegisterInput) (*model.User, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.LoginResponse, error)
}

type authService struct {
	users    repository.UserRepository
	requests RequestService
	txm      repository.TxManager
	cfg      *config.Config
}

func NewAuthService(users repository.UserRepository, requests RequestService, txm repository.TxManager, cfg *config.Config) AuthService {
	return &authService{users: users, requests: requests, txm: txm, cfg: cfg}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        input.Email,
		PasswordHash: string(hash),
		FullName:     input.FullName,
		Role:         model.RoleMember,
		Status:       model.UserPending,
	}

	err = s.txm.Transact(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		_, err := s.requests.SubmitRegistrationRequest(ctx, user.ID, optional(input.Message))
		return err
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, input.Email)
	if errors.Is(err, apperror.ErrNotFound) {
		return nil, apperror.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperror.ErrUnauthorized
	}

	switch user.Status {
	case model.UserPending:
		return nil, apperror.New(http.StatusForbidden, "registration is still under review", apperror.ErrForbidden)
	case model.UserInactive:
		return nil, apperror.New(http.StatusForbidden, "account is not active", apperror.ErrForbidden)
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{Token: token}, nil
}

func (s *authService) issueToken(user *model.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
