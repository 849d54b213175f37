package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"saas-starter-billing/internal/domain"
	"saas-starter-billing/internal/domain/model"
	"saas-starter-billing/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

const userCols = `user_id, email, first_name, last_name, subscription, created_time`

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (user_id, email, first_name, last_name, created_time)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (user_id) DO UPDATE SET
  email=EXCLUDED.email,
  first_name=COALESCE(NULLIF(EXCLUDED.first_name,''), users.first_name),
  last_name=COALESCE(NULLIF(EXCLUDED.last_name,''), users.last_name);`
	_, err := execSQL(ctx, r.pool, tx, q, u.UserID, u.Email, u.FirstName, u.LastName, u.CreatedTime)
	return mapErr(err)
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, userID string) (*model.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE user_id=$1;`
	return r.queryOne(ctx, tx, q, userID)
}

func (r *userRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(email)=lower($1);`
	return r.queryOne(ctx, tx, q, email)
}

func (r *userRepo) LinkSubscription(ctx context.Context, tx repository.Tx, userID, subscription string) error {
	const q = `UPDATE users SET subscription=$2 WHERE user_id=$1;`
	return r.updateOne(ctx, tx, q, userID, subscription)
}

func (r *userRepo) ClearSubscription(ctx context.Context, tx repository.Tx, email string) error {
	const q = `UPDATE users SET subscription=NULL WHERE lower(email)=lower($1);`
	return r.updateOne(ctx, tx, q, email)
}

func (r *userRepo) updateOne(ctx context.Context, tx repository.Tx, q string, args ...any) error {
	tag, err := execSQL(ctx, r.pool, tx, q, args...)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *userRepo) queryOne(ctx context.Context, tx repository.Tx, sql string, args ...any) (*model.User, error) {
	row, err := pickRow(ctx, r.pool, tx, sql, args...)
	if err != nil {
		return nil, err
	}
	u := &model.User{}
	if err := row.Scan(&u.UserID, &u.Email, &u.FirstName, &u.LastName, &u.Subscription, &u.CreatedTime); err != nil {
		return nil, mapErr(err)
	}
	return u, nil
}
