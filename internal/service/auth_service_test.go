package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/grievance-service/internal/auth"
	"github.com/spec-kit/grievance-service/internal/config"
	"github.com/spec-kit/grievance-service/internal/domain"
	"github.com/spec-kit/grievance-service/internal/repository"
	apperrors "github.com/spec-kit/grievance-service/pkg/util"
)

type fakeLimiter struct {
	max      int
	failures map[string]int
}

func newFakeLimiter(max int) *fakeLimiter {
	return &fakeLimiter{max: max, failures: map[string]int{}}
}

func (f *fakeLimiter) Allowed(_ context.Context, key string) (bool, error) {
	return f.failures[key] < f.max, nil
}

func (f *fakeLimiter) RecordFailure(_ context.Context, key string) error {
	f.failures[key]++
	return nil
}

func (f *fakeLimiter) Reset(_ context.Context, key string) error {
	delete(f.failures, key)
	return nil
}

type fakeVerifier struct {
	identity *auth.GoogleIdentity
	err      error
}

func (f fakeVerifier) Verify(context.Context, string) (*auth.GoogleIdentity, error) {
	return f.identity, f.err
}

func testAuthConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            4,
		AdminEmail:            "Warden@Example.com",
	}}
}

func newAuthService(t *testing.T, deps AuthDependencies) (*AuthService, repository.UserRepository) {
	t.Helper()
	if deps.UserRepo == nil {
		deps.UserRepo = repository.NewMemoryStore().Users()
	}
	return NewAuthService(testAuthConfig(), deps), deps.UserRepo
}

func TestSignup_AssignsRoleFromAdminEmail(t *testing.T) {
	svc, _ := newAuthService(t, AuthDependencies{})

	user, err := svc.Signup(context.Background(), "Asha", "asha@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.NotEqual(t, "s3cret", user.PasswordHash)

	admin, err := svc.Signup(context.Background(), "Warden", " warden@EXAMPLE.com ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)
	assert.Equal(t, "warden@example.com", admin.Email)
}

func TestSignup_Rejections(t *testing.T) {
	svc, _ := newAuthService(t, AuthDependencies{})
	_, err := svc.Signup(context.Background(), "Asha", "asha@example.com", "s3cret")
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), "Other", "ASHA@example.com", "another")
	assertCode(t, err, apperrors.CodeConflict)

	_, err = svc.Signup(context.Background(), "", "x@example.com", "pw")
	assertCode(t, err, apperrors.CodeValidation)

	_, err = svc.Signup(context.Background(), "Bad", "not-an-email", "pw")
	assertCode(t, err, apperrors.CodeValidation)
}

func TestLogin_IssuesTokenCarryingRole(t *testing.T) {
	svc, _ := newAuthService(t, AuthDependencies{})
	user, err := svc.Signup(context.Background(), "Warden", "warden@example.com", "s3cret")
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "Warden@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.Equal(t, domain.RoleAdmin, result.Token.Role)

	claims, err := svc.TokenManager().ParseToken(result.Token.Value)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Subject)
	assert.Equal(t, domain.RoleAdmin, claims.Role)
}

func TestLogin_FailuresAreUnauthorized(t *testing.T) {
	svc, _ := newAuthService(t, AuthDependencies{})
	_, err := svc.Signup(context.Background(), "Asha", "asha@example.com", "s3cret")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "asha@example.com", "wrong")
	assertCode(t, err, apperrors.CodeUnauthorized)

	_, err = svc.Login(context.Background(), "nobody@example.com", "s3cret")
	assertCode(t, err, apperrors.CodeUnauthorized)
	assert.Equal(t, "invalid credentials", apperrors.ToDomainError(err).Message)

	_, err = svc.Login(context.Background(), "", "")
	assertCode(t, err, apperrors.CodeValidation)
}

func TestLogin_ThrottlesRepeatedFailures(t *testing.T) {
	limiter := newFakeLimiter(2)
	svc, _ := newAuthService(t, AuthDependencies{LoginLimiter: limiter})
	_, err := svc.Signup(context.Background(), "Asha", "asha@example.com", "s3cret")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = svc.Login(context.Background(), "asha@example.com", "wrong")
		assertCode(t, err, apperrors.CodeUnauthorized)
	}

	_, err = svc.Login(context.Background(), "asha@example.com", "s3cret")
	assertCode(t, err, apperrors.CodeTooManyRequests)

	limiter.failures = map[string]int{"asha@example.com": 1}
	_, err = svc.Login(context.Background(), "asha@example.com", "s3cret")
	require.NoError(t, err)
	assert.Empty(t, limiter.failures)
}

func TestGoogleLogin_CreatesThenReusesAccount(t *testing.T) {
	verifier := fakeVerifier{identity: &auth.GoogleIdentity{Subject: "g-1", Email: "Student@Example.com", Name: "Student"}}
	svc, users := newAuthService(t, AuthDependencies{Google: verifier})

	first, err := svc.GoogleLogin(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, "student@example.com", first.User.Email)
	assert.Equal(t, domain.RoleUser, first.User.Role)

	second, err := svc.GoogleLogin(context.Background(), "id-token")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	stored, err := users.GetByEmail(context.Background(), "student@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, stored.ID)
}

func TestGoogleLogin_Rejections(t *testing.T) {
	svc, _ := newAuthService(t, AuthDependencies{})
	_, err := svc.GoogleLogin(context.Background(), "id-token")
	assertCode(t, err, apperrors.CodeUnauthorized)

	_, err = svc.GoogleLogin(context.Background(), " ")
	assertCode(t, err, apperrors.CodeValidation)

	svc, _ = newAuthService(t, AuthDependencies{Google: fakeVerifier{err: errors.New("audience mismatch")}})
	_, err = svc.GoogleLogin(context.Background(), "id-token")
	assertCode(t, err, apperrors.CodeUnauthorized)

	svc, _ = newAuthService(t, AuthDependencies{Google: fakeVerifier{err: auth.ErrGoogleEmailMissing}})
	_, err = svc.GoogleLogin(context.Background(), "id-token")
	assertCode(t, err, apperrors.CodeValidation)
}

func TestGoogleLogin_UnverifiedEmailGetsNoAccount(t *testing.T) {
	svc, users := newAuthService(t, AuthDependencies{Google: fakeVerifier{err: auth.ErrGoogleEmailUnverified}})

	result, err := svc.GoogleLogin(context.Background(), "id-token")

	assertCode(t, err, apperrors.CodeUnauthorized)
	assert.Nil(t, result)
	_, err = users.GetByEmail(context.Background(), "warden@example.com")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
}
