//go:build !integration

package api

import (
	"context"

	"saas-starter-billing/internal/domain"
	"saas-starter-billing/internal/domain/model"
	"saas-starter-billing/internal/domain/ports/repository"
	"saas-starter-billing/internal/usecase"
)

type mockWebhookUC struct {
	HandleFunc func(ctx context.Context, payload []byte, signatureHeader string) usecase.WebhookResult
}

func (m *mockWebhookUC) Handle(ctx context.Context, payload []byte, signatureHeader string) usecase.WebhookResult {
	return m.HandleFunc(ctx, payload, signatureHeader)
}

type mockSignInUC struct {
	SignInFunc        func(ctx context.Context, form usecase.SignInForm) (*usecase.SignInOutcome, error)
	OAuthRedirectFunc func(ctx context.Context, provider string) (string, error)
	SignOutFunc       func(ctx context.Context, clientToken, sessionID string) error
}

func (m *mockSignInUC) SignIn(ctx context.Context, form usecase.SignInForm) (*usecase.SignInOutcome, error) {
	return m.SignInFunc(ctx, form)
}

func (m *mockSignInUC) OAuthRedirect(ctx context.Context, provider string) (string, error) {
	return m.OAuthRedirectFunc(ctx, provider)
}

func (m *mockSignInUC) SignOut(ctx context.Context, clientToken, sessionID string) error {
	if m.SignOutFunc != nil {
		return m.SignOutFunc(ctx, clientToken, sessionID)
	}
	return nil
}

type mockUserRepo struct {
	FindByIDFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.User, error)
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func (m *mockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error { return nil }

func (m *mockUserRepo) FindByID(ctx context.Context, tx repository.Tx, userID string) (*model.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, userID)
	}
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	return nil, domain.ErrNotFound
}

func (m *mockUserRepo) LinkSubscription(ctx context.Context, tx repository.Tx, userID, subscription string) error {
	return nil
}

func (m *mockUserRepo) ClearSubscription(ctx context.Context, tx repository.Tx, email string) error {
	return nil
}

// mockLimiter answers allowed/err, or counts hits per key when limit > 0.
type mockLimiter struct {
	allowed bool
	err     error
	limit   int
	keys    []string
	hits    map[string]int
}

func (m *mockLimiter) Allow(ctx context.Context, key string) (bool, error) {
	m.keys = append(m.keys, key)
	if m.err != nil || m.limit == 0 {
		return m.allowed, m.err
	}
	if m.hits == nil {
		m.hits = map[string]int{}
	}
	m.hits[key]++
	return m.hits[key] <= m.limit, nil
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }
