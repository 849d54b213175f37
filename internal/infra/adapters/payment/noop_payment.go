package payment

import (
	"context"
	"strings"
	"sync"

	"saas-starter-billing/internal/domain"
	"saas-starter-billing/internal/domain/ports/adapter"
)

var _ adapter.BillingProvider = (*NoopBillingProvider)(nil)

// NoopBillingProvider is an in-memory provider for local development
// without Stripe credentials. Customers not seeded resolve to
// <customer id>@<emailDomain> unless emailDomain is empty.
type NoopBillingProvider struct {
	mu          sync.Mutex
	emails      map[string]string            // customer id -> email
	metadata    map[string]map[string]string // subscription id -> metadata
	emailDomain string
}

func NewNoopBillingProvider(customers map[string]string, emailDomain string) *NoopBillingProvider {
	emails := make(map[string]string, len(customers))
	for id, email := range customers {
		emails[id] = email
	}
	return &NoopBillingProvider{
		emails:      emails,
		metadata:    make(map[string]map[string]string),
		emailDomain: strings.TrimPrefix(emailDomain, "@"),
	}
}

func (g *NoopBillingProvider) Name() string { return "noop" }

// SetCustomer registers the email returned for customerID.
func (g *NoopBillingProvider) SetCustomer(customerID, email string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.emails[customerID] = email
}

func (g *NoopBillingProvider) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if email := g.emails[customerID]; email != "" {
		return email, nil
	}
	if customerID == "" || g.emailDomain == "" {
		return "", domain.ErrCustomerEmail
	}
	return strings.ToLower(customerID) + "@" + g.emailDomain, nil
}

func (g *NoopBillingProvider) UpdateSubscriptionMetadata(ctx context.Context, subscriptionID string, metadata map[string]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	md, ok := g.metadata[subscriptionID]
	if !ok {
		md = make(map[string]string, len(metadata))
		g.metadata[subscriptionID] = md
	}
	for k, v := range metadata {
		md[k] = v
	}
	return nil
}

// Metadata returns a copy of what was stored for subscriptionID.
func (g *NoopBillingProvider) Metadata(subscriptionID string) map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]string, len(g.metadata[subscriptionID]))
	for k, v := range g.metadata[subscriptionID] {
		out[k] = v
	}
	return out
}
