// File: internal/usecase/webhook_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"saas-starter-billing/internal/domain"
	"saas-starter-billing/internal/domain/model"
	"saas-starter-billing/internal/domain/ports/adapter"
	"saas-starter-billing/internal/domain/ports/repository"
	"saas-starter-billing/internal/infra/logging"
)

// Compile-time check
var _ WebhookUseCase = (*webhookUC)(nil)

// WebhookResult is the acknowledgment returned to the provider. Status is
// echoed in the body; whether it is also the transport status is decided by
// the HTTP layer.
type WebhookResult struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`

	EventID   string `json:"-"`
	EventType string `json:"-"`
}

func (r WebhookResult) OK() bool { return r.Status >= 200 && r.Status < 300 }

type WebhookUseCase interface {
	// Handle verifies, classifies and applies one provider delivery.
	// It never retries and never panics; every failure becomes a result.
	Handle(ctx context.Context, payload []byte, signatureHeader string) WebhookResult
}

type webhookUC struct {
	verifier adapter.EventVerifier
	billing  adapter.BillingProvider
	subs     repository.SubscriptionRepository
	invoices repository.InvoiceRepository
	users    repository.UserRepository
	log      *zerolog.Logger
	dev      bool
}

func NewWebhookUseCase(
	verifier adapter.EventVerifier,
	billing adapter.BillingProvider,
	subs repository.SubscriptionRepository,
	invoices repository.InvoiceRepository,
	users repository.UserRepository,
	logger *zerolog.Logger,
	dev bool,
) *webhookUC {
	return &webhookUC{
		verifier: verifier,
		billing:  billing,
		subs:     subs,
		invoices: invoices,
		users:    users,
		log:      logger,
		dev:      dev,
	}
}

func ack(msg string, data any) WebhookResult {
	return WebhookResult{Status: http.StatusOK, Message: msg, Data: data}
}

func nack(status int, msg string) WebhookResult {
	return WebhookResult{Status: status, Error: msg}
}

func (u *webhookUC) Handle(ctx context.Context, payload []byte, signatureHeader string) WebhookResult {
	defer logging.TraceDuration(u.log, "WebhookUC.Handle")()

	ev, err := u.verifier.Verify(payload, signatureHeader)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedEvent) {
			u.log.Warn().Err(err).Msg("webhook payload could not be decoded")
			return nack(http.StatusBadRequest, "Webhook Error: Malformed event")
		}
		u.log.Warn().Err(err).Bool("signature_present", signatureHeader != "").Msg("webhook signature rejected")
		return nack(http.StatusUnauthorized, "Webhook Error: Invalid Signature")
	}

	meta := ev.Meta()
	ctx = logging.WithEventID(ctx, meta.ID)
	l := logging.With(ctx, u.log)
	l.Info().Str("type", meta.Type).Str("api_version", meta.APIVersion).Msg("webhook event verified")

	res := u.dispatch(ctx, ev)
	res.EventID, res.EventType = meta.ID, meta.Type
	return res
}

// dispatch routes each variant to exactly one handler.
func (u *webhookUC) dispatch(ctx context.Context, ev model.Event) WebhookResult {
	switch e := ev.(type) {
	case model.SubscriptionCreated:
		return u.onSubscription(ctx, subscriptionCreated, e.Subscription)
	case model.SubscriptionUpdated:
		return u.onSubscription(ctx, subscriptionUpdated, e.Subscription)
	case model.SubscriptionDeleted:
		return u.onSubscription(ctx, subscriptionDeleted, e.Subscription)
	case model.InvoiceSucceeded:
		return u.onInvoice(ctx, model.InvoiceStatusSucceeded, e.Invoice)
	case model.InvoiceFailed:
		return u.onInvoice(ctx, model.InvoiceStatusFailed, e.Invoice)
	case model.CheckoutCompleted:
		return u.onCheckoutCompleted(ctx, e.Session)
	case model.Unhandled:
		logging.With(ctx, u.log).Debug().Str("type", e.Type).Msg("unhandled webhook event")
		return nack(http.StatusBadRequest, "Unhandled event type")
	default:
		return nack(http.StatusBadRequest, "Unhandled event type")
	}
}

type subscriptionChange string

const (
	subscriptionCreated subscriptionChange = "created"
	subscriptionUpdated subscriptionChange = "updated"
	subscriptionDeleted subscriptionChange = "deleted"
)

func (u *webhookUC) onSubscription(ctx context.Context, kind subscriptionChange, p model.SubscriptionPayload) WebhookResult {
	l := logging.With(ctx, u.log)

	email, res, fetched := u.customerEmail(ctx, p.CustomerID)
	if !fetched {
		return res
	}

	rec, err := model.NewSubscription(p.ID, p.CustomerID, p.Status, p.Created, p.PlanID, p.UserID(), email)
	if err != nil {
		l.Error().Err(err).Str("subscription_id", p.ID).Msg("invalid subscription payload")
		return nack(http.StatusInternalServerError, fmt.Sprintf("Error during subscription %s", kind))
	}
	l.Debug().
		Str("subscription_id", rec.SubscriptionID).
		Str("status", string(rec.Status)).
		Str("plan_id", rec.PlanID).
		Str("email", logging.Redact(email, u.dev)).
		Msg("subscription data")

	switch kind {
	case subscriptionCreated:
		saved, err := u.subs.Create(ctx, repository.NoTX, rec)
		if err != nil {
			l.Error().Err(err).Str("subscription_id", rec.SubscriptionID).Msg("subscription create failed")
			return nack(http.StatusInternalServerError, "Error during subscription created")
		}
		return ack("Subscription created successfully", saved)

	case subscriptionUpdated:
		saved, err := u.subs.Update(ctx, repository.NoTX, rec)
		if err != nil {
			l.Error().Err(err).Str("subscription_id", rec.SubscriptionID).Msg("subscription update failed")
			return nack(http.StatusInternalServerError, "Error during subscription updated")
		}
		return ack("Subscription updated successfully", saved)

	default:
		// Two independent writes; a failed unlink leaves the status flip in place.
		if err := u.subs.MarkCancelled(ctx, repository.NoTX, rec.SubscriptionID, email); err != nil {
			l.Error().Err(err).Str("subscription_id", rec.SubscriptionID).Msg("subscription cancel failed")
			return nack(http.StatusInternalServerError, "Error during subscription deleted")
		}
		if err := u.users.ClearSubscription(ctx, repository.NoTX, email); err != nil {
			l.Error().Err(err).Str("subscription_id", rec.SubscriptionID).Msg("user unlink failed")
			return nack(http.StatusInternalServerError, "Error during subscription deleted")
		}
		return ack("Subscription deleted success", nil)
	}
}

func (u *webhookUC) onInvoice(ctx context.Context, status model.InvoiceStatus, p model.InvoicePayload) WebhookResult {
	l := logging.With(ctx, u.log)

	email, res, fetched := u.customerEmail(ctx, p.CustomerID)
	l.Debug().
		Str("invoice_id", p.ID).
		Str("email", logging.Redact(email, u.dev)).
		Int64("amount_paid", p.AmountPaid).
		Str("currency", p.Currency).
		Msg("invoice details")
	if !fetched {
		return res
	}

	failMsg := fmt.Sprintf("Error inserting invoice (payment %s)", status)
	inv, err := model.NewInvoice(p.ID, p.SubscriptionID, status, p.AmountPaid, p.AmountDue, p.Currency, p.UserID(), email)
	if err != nil {
		l.Error().Err(err).Str("invoice_id", p.ID).Msg("invalid invoice payload")
		return nack(http.StatusInternalServerError, failMsg)
	}

	saved, err := u.invoices.Insert(ctx, repository.NoTX, inv)
	if err != nil {
		l.Error().Err(err).Str("invoice_id", p.ID).Msg("invoice insert failed")
		return nack(http.StatusInternalServerError, failMsg)
	}
	return ack(fmt.Sprintf("Invoice payment %s", status), saved)
}

func (u *webhookUC) onCheckoutCompleted(ctx context.Context, s model.CheckoutSessionPayload) WebhookResult {
	l := logging.With(ctx, u.log)
	l.Debug().Str("session_id", s.ID).Interface("metadata", s.Metadata).Msg("checkout session metadata")

	if !s.IsSubscription() {
		return ack("Payment and credits updated successfully", nil)
	}

	const failMsg = "Error updating subscription metadata"
	if err := u.billing.UpdateSubscriptionMetadata(ctx, s.SubscriptionID, s.Metadata); err != nil {
		l.Error().Err(err).Str("subscription_id", s.SubscriptionID).Msg("provider metadata update failed")
		return nack(http.StatusInternalServerError, failMsg)
	}
	n, err := u.invoices.AssignUserByEmail(ctx, repository.NoTX, s.Email(), s.UserID())
	if err != nil {
		l.Error().Err(err).Msg("invoice user backfill failed")
		return nack(http.StatusInternalServerError, failMsg)
	}
	if err := u.users.LinkSubscription(ctx, repository.NoTX, s.UserID(), s.ID); err != nil {
		l.Error().Err(err).Str("user_id", s.UserID()).Msg("user subscription link failed")
		return nack(http.StatusInternalServerError, failMsg)
	}
	l.Info().Int64("invoices_backfilled", n).Str("user_id", s.UserID()).Msg("subscription checkout linked")
	return ack("Subscription metadata updated successfully", nil)
}

// customerEmail performs the single provider lookup an event is allowed.
// fetched is false when the caller must abort with res.
func (u *webhookUC) customerEmail(ctx context.Context, customerID string) (email string, res WebhookResult, fetched bool) {
	email, err := u.billing.CustomerEmail(ctx, customerID)
	if err != nil || email == "" {
		logging.With(ctx, u.log).Error().Err(err).Str("customer_id", customerID).Msg("error fetching customer")
		return "", nack(http.StatusInternalServerError, "Customer email could not be fetched"), false
	}
	return email, WebhookResult{}, true
}
