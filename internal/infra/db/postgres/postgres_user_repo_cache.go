package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"saas-starter-billing/internal/domain/model"
	"saas-starter-billing/internal/domain/ports/repository"
	"saas-starter-billing/internal/infra/metrics"
	red "saas-starter-billing/internal/infra/redis"
)

var _ repository.UserRepository = (*userRepoCacheDecorator)(nil)

// userRepoCacheDecorator caches users by id. Lookups by email always hit the
// database; every write drops the cached entry.
type userRepoCacheDecorator struct {
	inner repository.UserRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewUserRepoCacheDecorator(inner repository.UserRepository, cache red.RedisClient, ttl time.Duration) repository.UserRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &userRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func userKey(id string) string { return fmt.Sprintf("user:id:%s", id) }

func (d *userRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	err := d.inner.Save(ctx, tx, u)
	_ = d.cache.Del(ctx, userKey(u.UserID))
	return err
}

func (d *userRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	key := userKey(id)
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		var user model.User
		if json.Unmarshal([]byte(val), &user) == nil {
			metrics.IncCacheRequest("user", "hit")
			return &user, nil
		}
	case !errors.Is(err, red.Nil):
		metrics.IncCacheRequest("user", "error")
	}

	metrics.IncCacheRequest("user", "miss")
	user, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(user); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return user, nil
}

// Pass-through methods that don't need caching
func (d *userRepoCacheDecorator) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	return d.inner.FindByEmail(ctx, tx, email)
}

func (d *userRepoCacheDecorator) LinkSubscription(ctx context.Context, tx repository.Tx, userID, subscription string) error {
	err := d.inner.LinkSubscription(ctx, tx, userID, subscription)
	_ = d.cache.Del(ctx, userKey(userID))
	return err
}

func (d *userRepoCacheDecorator) ClearSubscription(ctx context.Context, tx repository.Tx, email string) error {
	if err := d.inner.ClearSubscription(ctx, tx, email); err != nil {
		return err
	}
	if u, err := d.inner.FindByEmail(ctx, tx, email); err == nil {
		_ = d.cache.Del(ctx, userKey(u.UserID))
	}
	return nil
}
