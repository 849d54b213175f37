package adapter

import (
	"context"

	"saas-starter-billing/internal/domain/model"
)

// OAuthRequest describes a redirect-based social sign-in.
type OAuthRequest struct {
	Strategy            string // e.g. "oauth_google"
	RedirectURL         string // where the provider returns mid-flow
	RedirectURLComplete string // where the browser lands once signed in
}

// IdentityProvider is the hex port for the hosted authentication service.
// Errors carrying a user-facing message implement ProviderError.
type IdentityProvider interface {
	CreateSignIn(ctx context.Context, identifier, password string) (*model.SignInAttempt, error)
	ActivateSession(ctx context.Context, clientToken, sessionID string) error
	EndSession(ctx context.Context, clientToken, sessionID string) error
	OAuthRedirectURL(ctx context.Context, req OAuthRequest) (string, error)
}

// ProviderError is implemented by identity-provider errors that carry a
// message safe to show to the end user.
type ProviderError interface {
	error
	UserMessage() string
}
