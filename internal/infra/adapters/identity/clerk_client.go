// File: internal/infra/adapters/identity/clerk_client.go
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"saas-starter-billing/internal/domain"
	"saas-starter-billing/internal/domain/model"
	"saas-starter-billing/internal/domain/ports/adapter"
)

var _ adapter.IdentityProvider = (*ClerkClient)(nil)

const clientCookie = "__client"

// ClerkClient talks to a Clerk instance's Frontend API.
type ClerkClient struct {
	baseURL        string
	publishableKey string
	client         *http.Client
	log            *zerolog.Logger
}

func NewClerkClient(frontendAPI, publishableKey string, timeout time.Duration, logger *zerolog.Logger) (*ClerkClient, error) {
	if frontendAPI == "" {
		return nil, errors.New("clerk frontend api empty")
	}
	u, err := url.Parse(frontendAPI)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid clerk frontend api %q", frontendAPI)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ClerkClient{
		baseURL:        strings.TrimRight(frontendAPI, "/"),
		publishableKey: publishableKey,
		client:         &http.Client{Timeout: timeout},
		log:            logger,
	}, nil
}

// ClerkError is an error answer from the Frontend API.
type ClerkError struct {
	Status      int
	Code        string
	Message     string
	LongMessage string
}

func (e *ClerkError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("clerk: %d %s: %s", e.Status, e.Code, msg)
}

// UserMessage prefers the long form, which is what the hosted widgets show.
func (e *ClerkError) UserMessage() string {
	if e.LongMessage != "" {
		return e.LongMessage
	}
	return e.Message
}

func (e *ClerkError) Unwrap() error {
	if e.Status == http.StatusUnprocessableEntity || e.Status == http.StatusUnauthorized {
		return domain.ErrInvalidCredentials
	}
	return domain.ErrIdentityProvider
}

type signInResponse struct {
	Response struct {
		ID                      string `json:"id"`
		Status                  string `json:"status"`
		CreatedSessionID        string `json:"created_session_id"`
		FirstFactorVerification *struct {
			Status                          string `json:"status"`
			ExternalVerificationRedirectURL string `json:"external_verification_redirect_url"`
		} `json:"first_factor_verification"`
	} `json:"response"`
	Client *struct {
		Sessions []struct {
			ID   string     `json:"id"`
			User *clerkUser `json:"user"`
		} `json:"sessions"`
	} `json:"client"`
}

type clerkUser struct {
	ID                    string `json:"id"`
	FirstName             string `json:"first_name"`
	LastName              string `json:"last_name"`
	PrimaryEmailAddressID string `json:"primary_email_address_id"`
	EmailAddresses        []struct {
		ID           string `json:"id"`
		EmailAddress string `json:"email_address"`
	} `json:"email_addresses"`
}

func (u *clerkUser) primaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return e.EmailAddress
		}
	}
	if len(u.EmailAddresses) > 0 {
		return u.EmailAddresses[0].EmailAddress
	}
	return ""
}

// CreateSignIn submits an identifier/password pair with the password strategy.
func (c *ClerkClient) CreateSignIn(ctx context.Context, identifier, password string) (*model.SignInAttempt, error) {
	form := url.Values{}
	form.Set("identifier", identifier)
	form.Set("password", password)
	form.Set("strategy", "password")

	var out signInResponse
	token, err := c.post(ctx, "/v1/client/sign_ins", "", form, &out)
	if err != nil {
		return nil, err
	}

	attempt := &model.SignInAttempt{
		ID:               out.Response.ID,
		Status:           model.SignInStatus(out.Response.Status),
		CreatedSessionID: out.Response.CreatedSessionID,
		ClientToken:      token,
	}
	if out.Client != nil {
		for _, s := range out.Client.Sessions {
			if s.ID != attempt.CreatedSessionID || s.User == nil {
				continue
			}
			attempt.UserID = s.User.ID
			attempt.Email = s.User.primaryEmail()
			attempt.FirstName = s.User.FirstName
			attempt.LastName = s.User.LastName
		}
	}
	return attempt, nil
}

// ActivateSession marks sessionID as the active session of the client that
// created it.
func (c *ClerkClient) ActivateSession(ctx context.Context, clientToken, sessionID string) error {
	if sessionID == "" || clientToken == "" {
		return domain.ErrInvalidArgument
	}
	_, err := c.post(ctx, "/v1/client/sessions/"+url.PathEscape(sessionID)+"/touch", clientToken, url.Values{}, nil)
	return err
}

// EndSession signs sessionID out on the provider.
func (c *ClerkClient) EndSession(ctx context.Context, clientToken, sessionID string) error {
	if sessionID == "" || clientToken == "" {
		return domain.ErrInvalidArgument
	}
	_, err := c.post(ctx, "/v1/client/sessions/"+url.PathEscape(sessionID)+"/end", clientToken, url.Values{}, nil)
	return err
}

// OAuthRedirectURL starts a social sign-in and returns the provider's consent URL.
func (c *ClerkClient) OAuthRedirectURL(ctx context.Context, req adapter.OAuthRequest) (string, error) {
	form := url.Values{}
	form.Set("strategy", req.Strategy)
	form.Set("redirect_url", req.RedirectURL)
	form.Set("action_complete_redirect_url", req.RedirectURLComplete)

	var out signInResponse
	if _, err := c.post(ctx, "/v1/client/sign_ins", "", form, &out); err != nil {
		return "", err
	}
	ffv := out.Response.FirstFactorVerification
	if ffv == nil || ffv.ExternalVerificationRedirectURL == "" {
		return "", fmt.Errorf("%w: no external verification url", domain.ErrIdentityProvider)
	}
	return ffv.ExternalVerificationRedirectURL, nil
}

// post sends a form to the Frontend API as the client identified by
// clientToken (a fresh client when empty) and returns the client token the
// response carries, falling back to the one sent.
func (c *ClerkClient) post(ctx context.Context, path, clientToken string, form url.Values, out any) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path+"?_is_native=1", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrIdentityProvider, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if c.publishableKey != "" {
		req.Header.Set("X-Clerk-Publishable-Key", c.publishableKey)
	}
	if clientToken != "" {
		req.Header.Set("Authorization", clientToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("path", path).Msg("clerk request failed")
		return "", fmt.Errorf("%w: %v", domain.ErrIdentityProvider, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", domain.ErrIdentityProvider, err)
	}

	if resp.StatusCode >= 300 {
		return "", decodeError(resp.StatusCode, body)
	}
	token := responseClientToken(resp)
	if token == "" {
		token = clientToken
	}
	if out == nil {
		return token, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return "", fmt.Errorf("%w: decode: %v", domain.ErrIdentityProvider, err)
	}
	return token, nil
}

// responseClientToken reads the client token from the Authorization header
// (native flow) or the __client cookie (browser flow).
func responseClientToken(resp *http.Response) string {
	if v := strings.TrimSpace(resp.Header.Get("Authorization")); v != "" {
		return v
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == clientCookie && ck.Value != "" {
			return ck.Value
		}
	}
	return ""
}

func decodeError(status int, body []byte) error {
	var env struct {
		Errors []struct {
			Message     string `json:"message"`
			LongMessage string `json:"long_message"`
			Code        string `json:"code"`
		} `json:"errors"`
	}
	ce := &ClerkError{Status: status}
	if json.Unmarshal(body, &env) == nil && len(env.Errors) > 0 {
		ce.Code = env.Errors[0].Code
		ce.Message = env.Errors[0].Message
		ce.LongMessage = env.Errors[0].LongMessage
	}
	return ce
}
