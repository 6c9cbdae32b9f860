package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

const invalidCredentials = "Invalid username or password"

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	hasher     *auth.PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates requirements for the auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Hasher     *auth.PasswordHasher
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		hasher:     deps.Hasher,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// RegisterInput is the registration form payload.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// Register creates a user or agent account. Username uniqueness is checked
// before email so the caller sees the username conflict first.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if username == "" || email == "" || in.Password == "" || in.Role == "" {
		return nil, apperrors.NewValidationError("All fields are required", nil)
	}
	role, ok := domain.ParseRole(in.Role)
	if !ok || !role.Registrable() {
		return nil, apperrors.NewValidationError("Invalid role selected", map[string]any{"role": in.Role})
	}
	if utf8.RuneCountInString(username) > domain.MaxUsernameLength {
		return nil, apperrors.NewValidationError("Username is too long", map[string]any{"max": domain.MaxUsernameLength})
	}
	if utf8.RuneCountInString(email) > domain.MaxEmailLength {
		return nil, apperrors.NewValidationError("Email is too long", map[string]any{"max": domain.MaxEmailLength})
	}

	if err := s.ensureAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	user, err := s.create(ctx, username, email, in.Password, role)
	if err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:  events.EventUserRegistered,
		Actor: events.Actor{UserID: user.ID, Role: user.Role},
		Payload: events.UserRegisteredPayload{
			Username: user.Username,
			Role:     user.Role,
		},
	})
	return user, nil
}

// Login verifies credentials. Every failure yields the same
// AuthenticationError.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		s.hasher.VerifyNothing(password)
		return nil, apperrors.NewAuthenticationError(invalidCredentials)
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if apperrors.IsNotFound(err) {
			s.hasher.VerifyNothing(password)
			return nil, apperrors.NewAuthenticationError(invalidCredentials)
		}
		return nil, err
	}
	if !s.hasher.Verify(user.PasswordHash, password) {
		return nil, apperrors.NewAuthenticationError(invalidCredentials)
	}
	return user, nil
}

// EnsureAdmin provisions the bootstrap admin account when configured. An
// existing account with the same username is left untouched.
func (s *AuthService) EnsureAdmin(ctx context.Context, cfg config.AuthConfig) error {
	if !cfg.HasBootstrapAdmin() {
		return nil
	}
	if _, err := s.users.GetByUsername(ctx, cfg.AdminUsername); err == nil {
		return nil
	} else if !apperrors.IsNotFound(err) {
		return err
	}

	user, err := s.create(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword, domain.RoleAdmin)
	if err != nil {
		if apperrors.IsConflict(err) {
			s.logger.Warn("bootstrap admin conflicts with an existing account", zap.String("username", cfg.AdminUsername))
			return nil
		}
		return err
	}
	s.logger.Info("bootstrap admin created", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return nil
}

func (s *AuthService) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return apperrors.NewConflict("Username already exists", map[string]any{"field": "username"})
	} else if !apperrors.IsNotFound(err) {
		return err
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return apperrors.NewConflict("Email already exists", map[string]any{"field": "email"})
	} else if !apperrors.IsNotFound(err) {
		return err
	}
	return nil
}

func (s *AuthService) create(ctx context.Context, username, email, password string, role domain.Role) (*domain.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
