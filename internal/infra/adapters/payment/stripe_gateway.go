package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"saas-starter-billing/internal/domain"
	"saas-starter-billing/internal/domain/ports/adapter"
)

var _ adapter.BillingProvider = (*StripeGateway)(nil)

// StripeGateway implements adapter.BillingProvider on the Stripe REST API.
type StripeGateway struct {
	sc  *client.API
	log *zerolog.Logger
}

type StripeOption func(*stripe.BackendConfig)

// WithAPIBase points the client at another API host (used by tests).
func WithAPIBase(url string) StripeOption {
	return func(c *stripe.BackendConfig) { c.URL = stripe.String(url) }
}

func NewStripeGateway(secretKey string, logger *zerolog.Logger, opts ...StripeOption) (*StripeGateway, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key empty")
	}
	cfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: 15 * time.Second},
		MaxNetworkRetries: stripe.Int64(1),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
	}
	for _, o := range opts {
		o(cfg)
	}
	sc := &client.API{}
	sc.Init(secretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, cfg),
	})
	return &StripeGateway{sc: sc, log: logger}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

// CustomerEmail retrieves the customer's billing email. Deleted customers and
// customers without an email yield domain.ErrCustomerEmail.
func (g *StripeGateway) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	if customerID == "" {
		return "", domain.ErrCustomerEmail
	}
	c, err := g.sc.Customers.Get(customerID, &stripe.CustomerParams{Params: stripe.Params{Context: ctx}})
	if err != nil {
		g.logError(err, "customer lookup failed", customerID)
		return "", fmt.Errorf("%w: %w", domain.ErrCustomerEmail, wrapStripe(err))
	}
	if c.Deleted || c.Email == "" {
		return "", domain.ErrCustomerEmail
	}
	return c.Email, nil
}

// UpdateSubscriptionMetadata merges metadata into the subscription's metadata.
func (g *StripeGateway) UpdateSubscriptionMetadata(ctx context.Context, subscriptionID string, metadata map[string]string) error {
	if subscriptionID == "" {
		return fmt.Errorf("%w: subscription id empty", domain.ErrInvalidArgument)
	}
	params := &stripe.SubscriptionParams{Params: stripe.Params{Context: ctx}}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if _, err := g.sc.Subscriptions.Update(subscriptionID, params); err != nil {
		g.logError(err, "subscription metadata update failed", subscriptionID)
		return wrapStripe(err)
	}
	return nil
}

func (g *StripeGateway) logError(err error, msg, id string) {
	ev := g.log.Error().Err(err).Str("object_id", id)
	var se *stripe.Error
	if errors.As(err, &se) {
		ev = ev.Int("http_status", se.HTTPStatusCode).Str("stripe_code", string(se.Code)).Str("request_id", se.RequestID)
	}
	ev.Msg(msg)
}

func wrapStripe(err error) error {
	var se *stripe.Error
	if errors.As(err, &se) {
		return fmt.Errorf("%w: stripe %d %s: %s", domain.ErrProviderCall, se.HTTPStatusCode, se.Type, se.Msg)
	}
	return fmt.Errorf("%w: %v", domain.ErrProviderCall, err)
}
