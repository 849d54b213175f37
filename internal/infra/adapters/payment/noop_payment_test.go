//go:build !integration

package payment

import (
	"context"
	"errors"
	"testing"

	"saas-starter-billing/internal/domain"
)

func TestNoopBillingProvider(t *testing.T) {
	ctx := context.Background()
	p := NewNoopBillingProvider(nil, "")

	t.Run("should fail for unknown customers without a fallback domain", func(t *testing.T) {
		if _, err := p.CustomerEmail(ctx, "cus_x"); !errors.Is(err, domain.ErrCustomerEmail) {
			t.Errorf("expected ErrCustomerEmail, got %v", err)
		}
	})

	t.Run("should prefer seeded customers over the fallback domain", func(t *testing.T) {
		seeded := NewNoopBillingProvider(map[string]string{"cus_seed": "owner@example.com"}, "@dev.invalid")
		if email, err := seeded.CustomerEmail(ctx, "cus_seed"); err != nil || email != "owner@example.com" {
			t.Errorf("unexpected seeded email %q (%v)", email, err)
		}
		if email, err := seeded.CustomerEmail(ctx, "cus_ABC"); err != nil || email != "cus_abc@dev.invalid" {
			t.Errorf("unexpected derived email %q (%v)", email, err)
		}
		if _, err := seeded.CustomerEmail(ctx, ""); !errors.Is(err, domain.ErrCustomerEmail) {
			t.Errorf("expected ErrCustomerEmail for an empty id, got %v", err)
		}
	})

	t.Run("should merge metadata updates", func(t *testing.T) {
		p.SetCustomer("cus_1", "a@example.com")
		if email, _ := p.CustomerEmail(ctx, "cus_1"); email != "a@example.com" {
			t.Errorf("unexpected email %q", email)
		}
		_ = p.UpdateSubscriptionMetadata(ctx, "sub_1", map[string]string{"userId": "u1"})
		_ = p.UpdateSubscriptionMetadata(ctx, "sub_1", map[string]string{"subscription": "true"})
		md := p.Metadata("sub_1")
		if md["userId"] != "u1" || md["subscription"] != "true" {
			t.Errorf("unexpected metadata %v", md)
		}
	})
}
