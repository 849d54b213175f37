package repository

import (
	"context"

	"saas-starter-billing/internal/domain/model"
)

// SubscriptionRepository is the port for provider-mirrored subscriptions.
// Rows are keyed by the provider subscription id.
type SubscriptionRepository interface {
	// Create inserts the record, or overwrites the row with the same provider id.
	Create(ctx context.Context, tx Tx, s *model.Subscription) (*model.Subscription, error)
	// Update overwrites the row with the same provider id; ErrNotFound when absent.
	Update(ctx context.Context, tx Tx, s *model.Subscription) (*model.Subscription, error)
	// MarkCancelled flips the status to cancelled; the row is never deleted.
	MarkCancelled(ctx context.Context, tx Tx, subscriptionID, email string) error
	FindBySubscriptionID(ctx context.Context, tx Tx, subscriptionID string) (*model.Subscription, error)
	CountByStatus(ctx context.Context, tx Tx) (map[model.SubscriptionStatus]int, error)
}
