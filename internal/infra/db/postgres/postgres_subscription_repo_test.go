//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"saas-starter-billing/internal/domain"
	"saas-starter-billing/internal/domain/model"
)

func TestSubscriptionRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewSubscriptionRepo(testPool)
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC).Unix()

	t.Run("should create and upsert by provider id", func(t *testing.T) {
		cleanup(t)
		s, _ := model.NewSubscription("sub_1", "cus_1", model.SubscriptionStatusActive, created, "price_1", "user_1", "a@example.com")
		saved, err := repo.Create(ctx, nil, s)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if saved.ID != s.ID || saved.StartDate != "2024-03-01T12:00:00Z" {
			t.Errorf("unexpected stored row: %+v", saved)
		}

		again, _ := model.NewSubscription("sub_1", "cus_1", model.SubscriptionStatusTrialing, created, "price_2", "user_1", "a@example.com")
		upserted, err := repo.Create(ctx, nil, again)
		if err != nil {
			t.Fatalf("second Create failed: %v", err)
		}
		if upserted.ID != s.ID {
			t.Error("expected the original local id to survive the upsert")
		}
		if upserted.Status != model.SubscriptionStatusTrialing || upserted.PlanID != "price_2" {
			t.Errorf("expected the upsert to overwrite fields, got %+v", upserted)
		}
	})

	t.Run("should update and keep an unset plan", func(t *testing.T) {
		cleanup(t)
		s, _ := model.NewSubscription("sub_2", "cus_1", model.SubscriptionStatusActive, created, "price_1", "user_1", "a@example.com")
		if _, err := repo.Create(ctx, nil, s); err != nil {
			t.Fatalf("Create failed: %v", err)
		}

		upd, _ := model.NewSubscription("sub_2", "cus_1", model.SubscriptionStatusPastDue, created, "", "", "a@example.com")
		got, err := repo.Update(ctx, nil, upd)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if got.Status != model.SubscriptionStatusPastDue {
			t.Errorf("expected past_due, got %s", got.Status)
		}
		if got.PlanID != "price_1" {
			t.Errorf("expected the plan to be kept, got %+v", got)
		}
		if got.UserID != "" {
			t.Errorf("expected the user id to follow the event metadata, got %q", got.UserID)
		}
	})

	t.Run("should fail to update an unknown subscription", func(t *testing.T) {
		cleanup(t)
		upd, _ := model.NewSubscription("sub_missing", "cus_1", model.SubscriptionStatusActive, created, "", "", "a@example.com")
		if _, err := repo.Update(ctx, nil, upd); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should mark cancelled and count by status", func(t *testing.T) {
		cleanup(t)
		for _, id := range []string{"sub_a", "sub_b", "sub_c"} {
			s, _ := model.NewSubscription(id, "cus_1", model.SubscriptionStatusActive, created, "", "", "a@example.com")
			if _, err := repo.Create(ctx, nil, s); err != nil {
				t.Fatalf("Create %s failed: %v", id, err)
			}
		}
		if err := repo.MarkCancelled(ctx, nil, "sub_b", "new@example.com"); err != nil {
			t.Fatalf("MarkCancelled failed: %v", err)
		}
		if err := repo.MarkCancelled(ctx, nil, "sub_zzz", "x@example.com"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound for an unknown id, got %v", err)
		}

		got, err := repo.FindBySubscriptionID(ctx, nil, "sub_b")
		if err != nil {
			t.Fatalf("FindBySubscriptionID failed: %v", err)
		}
		if !got.IsCancelled() || got.Email != "new@example.com" {
			t.Errorf("unexpected cancelled row: %+v", got)
		}

		counts, err := repo.CountByStatus(ctx, nil)
		if err != nil {
			t.Fatalf("CountByStatus failed: %v", err)
		}
		if counts[model.SubscriptionStatusActive] != 2 || counts[model.SubscriptionStatusCancelled] != 1 {
			t.Errorf("unexpected counts: %v", counts)
		}
	})
}
