//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"saas-starter-billing/internal/domain"
	"saas-starter-billing/internal/domain/model"
	"saas-starter-billing/internal/domain/ports/adapter"
	"saas-starter-billing/internal/domain/ports/repository"
)

// =============================
// Adapters
// =============================

// ---- Mock EventVerifier ----

type MockVerifier struct {
	Event model.Event
	Err   error
	Calls int
}

var _ adapter.EventVerifier = (*MockVerifier)(nil)

func (m *MockVerifier) Verify(payload []byte, signatureHeader string) (model.Event, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Event, nil
}

// ---- Mock BillingProvider ----

type MockBilling struct {
	mu sync.Mutex

	Emails         map[string]string // customer id -> email
	EmailErr       error
	UpdateErr      error
	EmailLookups   []string
	MetadataUpdate []metadataUpdate
}

type metadataUpdate struct {
	SubscriptionID string
	Metadata       map[string]string
}

var _ adapter.BillingProvider = (*MockBilling)(nil)

func NewMockBilling() *MockBilling {
	return &MockBilling{Emails: map[string]string{}}
}

func (m *MockBilling) Name() string { return "mock" }

func (m *MockBilling) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EmailLookups = append(m.EmailLookups, customerID)
	if m.EmailErr != nil {
		return "", m.EmailErr
	}
	email, ok := m.Emails[customerID]
	if !ok || email == "" {
		return "", domain.ErrCustomerEmail
	}
	return email, nil
}

func (m *MockBilling) UpdateSubscriptionMetadata(ctx context.Context, subscriptionID string, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.MetadataUpdate = append(m.MetadataUpdate, metadataUpdate{SubscriptionID: subscriptionID, Metadata: metadata})
	return nil
}

// ---- Mock IdentityProvider ----

type MockIdentity struct {
	CreateSignInFunc     func(ctx context.Context, identifier, password string) (*model.SignInAttempt, error)
	ActivateSessionFunc  func(ctx context.Context, clientToken, sessionID string) error
	EndSessionFunc       func(ctx context.Context, clientToken, sessionID string) error
	OAuthRedirectURLFunc func(ctx context.Context, req adapter.OAuthRequest) (string, error)

	SignInCalls  int
	Activated    []string
	ActivatedFor []string // client tokens, parallel to Activated
	Ended        []string
	OAuthReqs    []adapter.OAuthRequest
}

var _ adapter.IdentityProvider = (*MockIdentity)(nil)

func (m *MockIdentity) CreateSignIn(ctx context.Context, identifier, password string) (*model.SignInAttempt, error) {
	m.SignInCalls++
	if m.CreateSignInFunc != nil {
		return m.CreateSignInFunc(ctx, identifier, password)
	}
	return &model.SignInAttempt{ID: "sia_1", Status: model.SignInStatusComplete, CreatedSessionID: "sess_1", ClientToken: "client_1", UserID: "user_1", Email: identifier}, nil
}

func (m *MockIdentity) ActivateSession(ctx context.Context, clientToken, sessionID string) error {
	m.Activated = append(m.Activated, sessionID)
	m.ActivatedFor = append(m.ActivatedFor, clientToken)
	if m.ActivateSessionFunc != nil {
		return m.ActivateSessionFunc(ctx, clientToken, sessionID)
	}
	return nil
}

func (m *MockIdentity) EndSession(ctx context.Context, clientToken, sessionID string) error {
	m.Ended = append(m.Ended, sessionID)
	if m.EndSessionFunc != nil {
		return m.EndSessionFunc(ctx, clientToken, sessionID)
	}
	return nil
}

func (m *MockIdentity) OAuthRedirectURL(ctx context.Context, req adapter.OAuthRequest) (string, error) {
	m.OAuthReqs = append(m.OAuthReqs, req)
	if m.OAuthRedirectURLFunc != nil {
		return m.OAuthRedirectURLFunc(ctx, req)
	}
	return "https://accounts.google.test/o/oauth2?state=x", nil
}

// providerErr is an identity-provider error carrying a user-facing message.
type providerErr struct{ msg string }

func (e providerErr) Error() string       { return "provider: " + e.msg }
func (e providerErr) UserMessage() string { return e.msg }

// =============================
// Repositories
// =============================

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]*model.Subscription // provider id -> row

	CreateErr error
	UpdateErr error
	CancelErr error

	Writes int
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{subs: map[string]*model.Subscription{}}
}

func (m *MockSubscriptionRepo) Create(ctx context.Context, tx repository.Tx, s *model.Subscription) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.Writes++
	cp := *s
	if prev, ok := m.subs[s.SubscriptionID]; ok {
		cp.ID = prev.ID
	}
	m.subs[s.SubscriptionID] = &cp
	out := cp
	return &out, nil
}

func (m *MockSubscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.Subscription) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	prev, ok := m.subs[s.SubscriptionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	m.Writes++
	cp := *s
	cp.ID, cp.CreatedTime = prev.ID, prev.CreatedTime
	m.subs[s.SubscriptionID] = &cp
	out := cp
	return &out, nil
}

func (m *MockSubscriptionRepo) MarkCancelled(ctx context.Context, tx repository.Tx, subscriptionID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CancelErr != nil {
		return m.CancelErr
	}
	s, ok := m.subs[subscriptionID]
	if !ok {
		return domain.ErrNotFound
	}
	m.Writes++
	s.Status = model.SubscriptionStatusCancelled
	s.Email = email
	return nil
}

func (m *MockSubscriptionRepo) FindBySubscriptionID(ctx context.Context, tx repository.Tx, subscriptionID string) (*model.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[subscriptionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.SubscriptionStatus]int{}
	for _, s := range m.subs {
		out[s.Status]++
	}
	return out, nil
}

// ---- Mock InvoiceRepository ----

type MockInvoiceRepo struct {
	mu       sync.Mutex
	Invoices []*model.Invoice

	InsertErr error
	AssignErr error
	Assigned  []struct{ Email, UserID string }
}

var _ repository.InvoiceRepository = (*MockInvoiceRepo)(nil)

func (m *MockInvoiceRepo) Insert(ctx context.Context, tx repository.Tx, inv *model.Invoice) (*model.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertErr != nil {
		return nil, m.InsertErr
	}
	cp := *inv
	m.Invoices = append(m.Invoices, &cp)
	out := cp
	return &out, nil
}

func (m *MockInvoiceRepo) AssignUserByEmail(ctx context.Context, tx repository.Tx, email, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AssignErr != nil {
		return 0, m.AssignErr
	}
	m.Assigned = append(m.Assigned, struct{ Email, UserID string }{email, userID})
	var n int64
	for _, inv := range m.Invoices {
		if inv.Email == email {
			uid := userID
			inv.UserID = &uid
			n++
		}
	}
	return n, nil
}

func (m *MockInvoiceRepo) ListByInvoiceID(ctx context.Context, tx repository.Tx, invoiceID string) ([]*model.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Invoice
	for _, inv := range m.Invoices {
		if inv.InvoiceID == invoiceID {
			out = append(out, inv)
		}
	}
	return out, nil
}

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User // user id -> row

	SaveErr  error
	LinkErr  error
	ClearErr error
	Writes   int
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo(users ...*model.User) *MockUserRepo {
	m := &MockUserRepo{users: map[string]*model.User{}}
	for _, u := range users {
		m.users[u.UserID] = u
	}
	return m
}

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Writes++
	cp := *u
	if prev, ok := m.users[u.UserID]; ok {
		cp.Subscription = prev.Subscription
	}
	m.users[u.UserID] = &cp
	return nil
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, userID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) LinkSubscription(ctx context.Context, tx repository.Tx, userID, subscription string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LinkErr != nil {
		return m.LinkErr
	}
	u, ok := m.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	m.Writes++
	s := subscription
	u.Subscription = &s
	return nil
}

func (m *MockUserRepo) ClearSubscription(ctx context.Context, tx repository.Tx, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			m.Writes++
			u.Subscription = nil
			return nil
		}
	}
	return domain.ErrNotFound
}

// =============================
// Misc
// =============================

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func strPtr(s string) *string { return &s }
