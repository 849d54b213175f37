// File: internal/usecase/signin_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"saas-starter-billing/internal/domain"
	"saas-starter-billing/internal/domain/model"
	"saas-starter-billing/internal/domain/ports/adapter"
	"saas-starter-billing/internal/domain/ports/repository"
	"saas-starter-billing/internal/infra/logging"
)

var _ SignInUseCase = (*signInUC)(nil)

// SignInForm is the credential pair submitted by the browser.
type SignInForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

var fieldMessages = map[string]string{
	"Email":    "Invalid email address",
	"Password": "Password must be at least 8 characters",
}

// ValidationError lists the form fields that failed, keyed by json name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return domain.ErrInvalidArgument }

// SignInError carries the notification shown when the provider refuses.
type SignInError struct {
	Toast model.Toast
	Err   error
}

func (e *SignInError) Error() string { return e.Err.Error() }
func (e *SignInError) Unwrap() error { return e.Err }

// SignInOutcome describes a submission the provider accepted. Session is empty
// while the provider still expects more steps.
type SignInOutcome struct {
	Status      model.SignInStatus
	SessionID   string
	ClientToken string
	UserID      string
	Email     string
	Redirect  string
	Toast     *model.Toast
}

func (o *SignInOutcome) Complete() bool { return o != nil && o.SessionID != "" }

type SignInUseCase interface {
	SignIn(ctx context.Context, form SignInForm) (*SignInOutcome, error)
	OAuthRedirect(ctx context.Context, provider string) (string, error)
	SignOut(ctx context.Context, clientToken, sessionID string) error
}

type signInUC struct {
	idp           adapter.IdentityProvider
	users         repository.UserRepository
	validate      *validator.Validate
	afterSignIn   string
	oauthCallback string
	log           *zerolog.Logger
	dev           bool
}

func NewSignInUseCase(idp adapter.IdentityProvider, users repository.UserRepository, afterSignIn, oauthCallback string, logger *zerolog.Logger, dev bool) *signInUC {
	return &signInUC{
		idp:           idp,
		users:         users,
		validate:      validator.New(),
		afterSignIn:   afterSignIn,
		oauthCallback: oauthCallback,
		log:           logger,
		dev:           dev,
	}
}

// Validate checks the form the same way the browser does before submitting.
func (u *signInUC) Validate(form SignInForm) error {
	err := u.validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: map[string]string{}}
	for _, fe := range verrs {
		out.Fields[strings.ToLower(fe.Field())] = fieldMessages[fe.Field()]
	}
	return out
}

func (u *signInUC) SignIn(ctx context.Context, form SignInForm) (*SignInOutcome, error) {
	defer logging.TraceDuration(u.log, "SignInUC.SignIn")()

	form.Email = strings.TrimSpace(form.Email)
	if err := u.Validate(form); err != nil {
		return nil, err
	}
	if u.idp == nil {
		return nil, domain.ErrIdentityProvider
	}

	l := u.log.With().Str("email", logging.Redact(form.Email, u.dev)).Logger()

	attempt, err := u.idp.CreateSignIn(ctx, form.Email, form.Password)
	if err != nil {
		l.Info().Err(err).Msg("sign-in refused")
		return nil, &SignInError{Toast: errorToast(err, "Something went wrong. Please try again."), Err: err}
	}
	if attempt == nil {
		l.Error().Msg("identity provider returned no sign-in attempt")
		perr := fmt.Errorf("%w: empty sign-in answer", domain.ErrIdentityProvider)
		return nil, &SignInError{Toast: errorToast(nil, "Something went wrong. Please try again."), Err: perr}
	}

	if !attempt.IsComplete() {
		l.Info().Str("status", string(attempt.Status)).Msg("sign-in needs further steps")
		return &SignInOutcome{Status: attempt.Status}, nil
	}

	if err := u.idp.ActivateSession(ctx, attempt.ClientToken, attempt.CreatedSessionID); err != nil {
		l.Warn().Err(err).Msg("session activation failed")
		return nil, &SignInError{Toast: errorToast(err, "Something went wrong. Please try again."), Err: err}
	}

	email := attempt.Email
	if email == "" {
		email = form.Email
	}
	if attempt.UserID != "" {
		if usr, err := model.NewUser(attempt.UserID, email); err == nil {
			usr.FirstName, usr.LastName = attempt.FirstName, attempt.LastName
			if err := u.users.Save(ctx, repository.NoTX, usr); err != nil {
				l.Warn().Err(err).Str("user_id", attempt.UserID).Msg("local user upsert failed")
			}
		}
	}

	l.Info().Str("user_id", attempt.UserID).Msg("signed in")
	return &SignInOutcome{
		Status:      attempt.Status,
		SessionID:   attempt.CreatedSessionID,
		ClientToken: attempt.ClientToken,
		UserID:      attempt.UserID,
		Email:       email,
		Redirect:    u.afterSignIn,
		Toast: &model.Toast{
			Title:       "Welcome back!",
			Description: "Successfully signed in to your account.",
		},
	}, nil
}

var oauthStrategies = map[string]string{
	"google": "oauth_google",
	"github": "oauth_github",
}

func (u *signInUC) OAuthRedirect(ctx context.Context, provider string) (string, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	strategy, known := oauthStrategies[provider]
	if !known {
		return "", domain.ErrInvalidArgument
	}
	fallback := fmt.Sprintf("Failed to sign in with %s", strings.ToUpper(provider[:1])+provider[1:])
	if u.idp == nil {
		return "", &SignInError{Toast: errorToast(nil, fallback), Err: domain.ErrIdentityProvider}
	}

	target, err := u.idp.OAuthRedirectURL(ctx, adapter.OAuthRequest{
		Strategy:            strategy,
		RedirectURL:         u.oauthCallback,
		RedirectURLComplete: u.afterSignIn,
	})
	if err != nil {
		u.log.Info().Err(err).Str("strategy", strategy).Msg("oauth redirect refused")
		return "", &SignInError{Toast: errorToast(err, fallback), Err: err}
	}
	return target, nil
}

// SignOut ends the provider session behind a local one. Sessions minted
// without a provider client are only cleared locally.
func (u *signInUC) SignOut(ctx context.Context, clientToken, sessionID string) error {
	if sessionID == "" || clientToken == "" || u.idp == nil {
		return nil
	}
	if err := u.idp.EndSession(ctx, clientToken, sessionID); err != nil {
		return fmt.Errorf("end session %s: %w", sessionID, err)
	}
	return nil
}

// errorToast surfaces the provider's own message when it has one.
func errorToast(err error, fallback string) model.Toast {
	msg := fallback
	var pe adapter.ProviderError
	if errors.As(err, &pe) && pe.UserMessage() != "" {
		msg = pe.UserMessage()
	}
	return model.Toast{Variant: "destructive", Title: "Error", Description: msg}
}
