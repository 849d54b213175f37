//go:build !integration

package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"saas-starter-billing/internal/config"
	"saas-starter-billing/internal/infra/adapters/payment"
)

func loadDevConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	for _, k := range []string{"DATABASE_URL", "STRIPE_SECRET_KEY", "STRIPE_WEBHOOK_SECRET", "SESSION_SECRET"} {
		t.Setenv(k, "")
	}
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.LoadConfig(p, true)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	return cfg
}

func TestNewBillingProvider(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()

	t.Run("should resolve customer emails in dev without a stripe key", func(t *testing.T) {
		cfg := loadDevConfig(t, `
database:
  url: postgres://localhost/app
payment:
  stripe:
    webhook_secret: whsec_1
  dev:
    customers:
      cus_owner: owner@example.com
auth:
  session_secret: 0123456789abcdef0123456789abcdef
`)
		billing, err := newBillingProvider(cfg, &logger)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := billing.(*payment.NoopBillingProvider); !ok {
			t.Fatalf("expected the in-memory provider, got %T", billing)
		}
		if email, err := billing.CustomerEmail(ctx, "cus_owner"); err != nil || email != "owner@example.com" {
			t.Errorf("unexpected seeded email %q (%v)", email, err)
		}
		if email, err := billing.CustomerEmail(ctx, "cus_other"); err != nil || email != "cus_other@dev.invalid" {
			t.Errorf("unexpected derived email %q (%v)", email, err)
		}
	})

	t.Run("should use stripe when a key is configured", func(t *testing.T) {
		cfg := loadDevConfig(t, `
database:
  url: postgres://localhost/app
payment:
  stripe:
    secret_key: sk_test_123
    webhook_secret: whsec_1
auth:
  session_secret: 0123456789abcdef0123456789abcdef
`)
		billing, err := newBillingProvider(cfg, &logger)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, ok := billing.(*payment.StripeGateway); !ok {
			t.Errorf("expected the stripe gateway, got %T", billing)
		}
	})
}
