package auth

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/api/idtoken"
)

// ErrGoogleEmailMissing is returned when a verified Google token carries no email claim.
var ErrGoogleEmailMissing = errors.New("email not found in google token")

// ErrGoogleEmailUnverified is returned when Google has not verified the token's email.
var ErrGoogleEmailUnverified = errors.New("google email is not verified")

// GoogleIdentity is the subset of a verified Google ID token the service relies on.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
}

// GoogleVerifier verifies Google ID tokens issued for this application's client id.
type GoogleVerifier struct {
	clientID string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

// NewGoogleVerifier returns a verifier bound to clientID.
func NewGoogleVerifier(clientID string) *GoogleVerifier {
	return &GoogleVerifier{clientID: clientID, validate: idtoken.Validate}
}

// Verify checks the token signature, audience, and expiry and extracts the identity.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (*GoogleIdentity, error) {
	if v.clientID == "" {
		return nil, errors.New("google sign-in is not configured")
	}
	payload, err := v.validate(ctx, rawToken, v.clientID)
	if err != nil {
		return nil, err
	}
	identity := &GoogleIdentity{
		Subject: payload.Subject,
		Email:   claimString(payload.Claims, "email"),
		Name:    claimString(payload.Claims, "name"),
	}
	if identity.Email == "" {
		return nil, ErrGoogleEmailMissing
	}
	// The email decides account linking and the admin role, so it must be Google-verified.
	if !claimTrue(payload.Claims, "email_verified") {
		return nil, ErrGoogleEmailUnverified
	}
	return identity, nil
}

func claimTrue(claims map[string]interface{}, key string) bool {
	switch val := claims[key].(type) {
	case bool:
		return val
	case string:
		return strings.EqualFold(val, "true")
	}
	return false
}

func claimString(claims map[string]interface{}, key string) string {
	val, _ := claims[key].(string)
	return strings.TrimSpace(val)
}
