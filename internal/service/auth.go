package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/repository"
	"github.com/folio/folio/internal/validation"
)

// AdminStore persists admin accounts.
type AdminStore interface {
	UpsertAdminUser(ctx context.Context, u *model.AdminUser) (*model.AdminUser, error)
	GetAdminByEmail(ctx context.Context, email string) (*model.AdminUser, error)
	GetAdminByID(ctx context.Context, id primitive.ObjectID) (*model.AdminUser, error)
	TouchAdminLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

// TokenIssuer signs admin tokens.
type TokenIssuer interface {
	Issue(user *model.AdminUser) (string, time.Time, error)
}

// LoginInput is the admin login body.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expiresAt"`
	User      *model.AdminUser `json:"user"`
}

// AuthService authenticates admins.
type AuthService struct {
	store  AdminStore
	tokens TokenIssuer
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthService creates an AuthService.
func NewAuthService(store AdminStore, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
		logger: logger.With("component", "service.auth"),
		now:    time.Now,
	}
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords return the same error after the same amount of hashing work.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if err := validation.Struct(&in); err != nil {
		return nil, err
	}

	user, err := s.store.GetAdminByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			auth.BurnVerify(in.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}

	ok, err := auth.VerifyPassword(in.Password, user.PasswordHash)
	if err != nil {
		s.logger.Error("stored password hash is unreadable", "admin_id", user.ID.Hex(), "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		s.logger.Warn("failed admin login", "admin_id", user.ID.Hex())
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	now := s.now().UTC()
	if err := s.store.TouchAdminLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("failed to record login time", "admin_id", user.ID.Hex(), "error", err)
	} else {
		user.LastLoginAt = &now
	}

	s.logger.Info("admin logged in", "admin_id", user.ID.Hex())
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Me returns the admin behind a verified token.
func (s *AuthService) Me(ctx context.Context, id primitive.ObjectID) (*model.AdminUser, error) {
	if id.IsZero() {
		return nil, ErrInvalidCredentials
	}
	user, err := s.store.GetAdminByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return user, nil
}

// EnsureAdmin creates the admin or resets its password.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, name, password string) (*model.AdminUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.Validator().Var(email, "required,email"); err != nil {
		return nil, validation.NewError("email", "email", "email must be a valid email address")
	}
	hash, err := auth.HashAdminPassword(password)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		name = email
	}
	return s.store.UpsertAdminUser(ctx, &model.AdminUser{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	})
}
