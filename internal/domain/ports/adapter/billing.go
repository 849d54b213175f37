package adapter

import (
	"context"

	"saas-starter-billing/internal/domain/model"
)

// EventVerifier authenticates a raw webhook delivery and decodes it into one
// of the model.Event variants. It returns domain.ErrInvalidSignature when the
// signature does not match the shared secret.
type EventVerifier interface {
	Verify(payload []byte, signatureHeader string) (model.Event, error)
}

// BillingProvider is the hex port for outbound payment-provider calls.
type BillingProvider interface {
	Name() string
	// CustomerEmail returns the billing email of a provider customer.
	// An empty email is reported as domain.ErrCustomerEmail.
	CustomerEmail(ctx context.Context, customerID string) (string, error)
	// UpdateSubscriptionMetadata copies metadata onto the provider subscription.
	UpdateSubscriptionMetadata(ctx context.Context, subscriptionID string, metadata map[string]string) error
}
