package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"saas-starter-billing/internal/domain"
	"saas-starter-billing/internal/domain/model"
	"saas-starter-billing/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

const subscriptionCols = `id, subscription_id, stripe_user_id, status, start_date, plan_id, user_id, email, created_time`

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

func (r *subscriptionRepo) Create(ctx context.Context, tx repository.Tx, s *model.Subscription) (*model.Subscription, error) {
	const q = `
INSERT INTO subscriptions (` + subscriptionCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
ON CONFLICT (subscription_id) DO UPDATE SET
  stripe_user_id=EXCLUDED.stripe_user_id, status=EXCLUDED.status, start_date=EXCLUDED.start_date,
  plan_id=EXCLUDED.plan_id, user_id=EXCLUDED.user_id, email=EXCLUDED.email
RETURNING ` + subscriptionCols + `;`
	return r.queryOne(ctx, tx, q, s.ID, s.SubscriptionID, s.StripeUserID, s.Status, s.StartDate, s.PlanID, s.UserID, s.Email, s.CreatedTime)
}

// Update leaves plan_id untouched when the subscription carries no items.
func (r *subscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.Subscription) (*model.Subscription, error) {
	const q = `
UPDATE subscriptions SET
  stripe_user_id=$2, status=$3, start_date=$4,
  plan_id=COALESCE(NULLIF($5,''), plan_id),
  user_id=$6,
  email=$7
 WHERE subscription_id=$1
RETURNING ` + subscriptionCols + `;`
	return r.queryOne(ctx, tx, q, s.SubscriptionID, s.StripeUserID, s.Status, s.StartDate, s.PlanID, s.UserID, s.Email)
}

func (r *subscriptionRepo) MarkCancelled(ctx context.Context, tx repository.Tx, subscriptionID, email string) error {
	const q = `UPDATE subscriptions SET status=$2, email=$3 WHERE subscription_id=$1;`
	tag, err := execSQL(ctx, r.pool, tx, q, subscriptionID, model.SubscriptionStatusCancelled, email)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepo) FindBySubscriptionID(ctx context.Context, tx repository.Tx, subscriptionID string) (*model.Subscription, error) {
	const q = `SELECT ` + subscriptionCols + ` FROM subscriptions WHERE subscription_id=$1;`
	return r.queryOne(ctx, tx, q, subscriptionID)
}

func (r *subscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	const q = `SELECT status, COUNT(*) FROM subscriptions GROUP BY status;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	counts := make(map[model.SubscriptionStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		counts[model.SubscriptionStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return counts, nil
}

func (r *subscriptionRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.Subscription, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}

	s := &model.Subscription{}
	var status string
	if err := row.Scan(&s.ID, &s.SubscriptionID, &s.StripeUserID, &status, &s.StartDate, &s.PlanID, &s.UserID, &s.Email, &s.CreatedTime); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, mapErr(err)
	}
	s.Status = model.SubscriptionStatus(status)
	return s, nil
}
