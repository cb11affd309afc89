package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/observability"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

// IdentityVerifier verifies an external (Google) credential.
type IdentityVerifier interface {
	Verify(ctx context.Context, rawToken string) (*auth.GoogleIdentity, error)
}

// LoginLimiter throttles repeated failed logins for the same account.
type LoginLimiter interface {
	Allowed(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

// AuthResult is returned by successful logins.
type AuthResult struct {
	User  *domain.User
	Token domain.Token
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	google     IdentityVerifier
	limiter    LoginLimiter
	logger     *zap.Logger
	bcryptCost int
	adminEmail string
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	Google       IdentityVerifier
	LoginLimiter LoginLimiter
	Logger       *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:      deps.UserRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		google:     deps.Google,
		limiter:    deps.LoginLimiter,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		adminEmail: normalizeEmail(cfg.Auth.AdminEmail),
	}
}

// Signup creates an account. The role is admin only when the email matches the configured
// administrator address.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*domain.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, apperrors.NewValidationError("name, email, password required", nil)
	}
	if !strings.Contains(email, "@") {
		return nil, apperrors.NewValidationError("invalid email", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("user already exists", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperrors.NewValidationError("password too long", nil)
		}
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         s.roleFor(email),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("user already exists", nil)
		}
		return nil, err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login authenticates with email and password and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allowed(ctx, email)
		if err != nil {
			s.logger.Warn("login throttle unavailable", zap.Error(err))
		}
		if !allowed {
			observability.ObserveLogin("password", "throttled")
			return nil, apperrors.NewTooManyRequests("too many failed login attempts, try again later")
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, s.loginFailed(ctx, email)
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, s.loginFailed(ctx, email)
	}

	if s.limiter != nil {
		if err := s.limiter.Reset(ctx, email); err != nil {
			s.logger.Warn("login throttle reset failed", zap.Error(err))
		}
	}
	observability.ObserveLogin("password", "success")
	return s.issue(user)
}

// GoogleLogin verifies a Google ID token, creating the account on first sight.
func (s *AuthService) GoogleLogin(ctx context.Context, idToken string) (*AuthResult, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, apperrors.NewValidationError("google token is required", nil)
	}
	if s.google == nil {
		return nil, apperrors.NewUnauthorized("google sign-in is not configured")
	}

	identity, err := s.google.Verify(ctx, idToken)
	if err != nil {
		observability.ObserveLogin("google", "failure")
		if errors.Is(err, auth.ErrGoogleEmailMissing) {
			return nil, apperrors.NewValidationError("email not found in google token", nil)
		}
		if errors.Is(err, auth.ErrGoogleEmailUnverified) {
			return nil, apperrors.NewUnauthorized("google email is not verified")
		}
		s.logger.Info("google token rejected", zap.Error(err))
		return nil, apperrors.NewUnauthorized("google authentication failed")
	}

	email := normalizeEmail(identity.Email)
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		user, err = s.createGoogleUser(ctx, identity.Name, email)
	}
	if err != nil {
		return nil, err
	}

	observability.ObserveLogin("google", "success")
	return s.issue(user)
}

func (s *AuthService) createGoogleUser(ctx context.Context, name, email string) (*domain.User, error) {
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	// The account never signs in with a password; the hash only fills the column.
	hash, err := auth.HashPassword("google-"+uuid.NewString(), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         s.roleFor(email),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return s.users.GetByEmail(ctx, email)
		}
		return nil, err
	}
	s.logger.Info("user registered via google", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

func (s *AuthService) loginFailed(ctx context.Context, email string) error {
	observability.ObserveLogin("password", "failure")
	if s.limiter != nil {
		if err := s.limiter.RecordFailure(ctx, email); err != nil {
			s.logger.Warn("login throttle record failed", zap.Error(err))
		}
	}
	return apperrors.NewUnauthorized("invalid credentials")
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) roleFor(email string) domain.Role {
	if s.adminEmail != "" && email == s.adminEmail {
		return domain.RoleAdmin
	}
	return domain.RoleUser
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
