package repository

import (
	"context"

	"saas-starter-billing/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	// Save upserts by user id; the subscription reference is left untouched.
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, userID string) (*model.User, error)
	FindByEmail(ctx context.Context, tx Tx, email string) (*model.User, error)
	// LinkSubscription points the user at a provider object; ErrNotFound when the user is absent.
	LinkSubscription(ctx context.Context, tx Tx, userID, subscription string) error
	// ClearSubscription unlinks the user billed to email (case-insensitive);
	// ErrNotFound when no user has that email.
	ClearSubscription(ctx context.Context, tx Tx, email string) error
}
