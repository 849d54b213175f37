package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"saas-starter-billing/internal/domain/model"
	"saas-starter-billing/internal/infra/logging"
	"saas-starter-billing/internal/infra/metrics"
	"saas-starter-billing/internal/usecase"
)

// Stripe caps event payloads well below this.
const maxWebhookBody = 64 << 10

const signatureHeader = "Stripe-Signature"

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var res usecase.WebhookResult
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			res = usecase.WebhookResult{Status: http.StatusRequestEntityTooLarge, Error: "Webhook Error: Payload too large"}
		} else {
			res = usecase.WebhookResult{Status: http.StatusBadRequest, Error: "Webhook Error: Unreadable body"}
		}
	} else {
		res = s.webhooks.Handle(r.Context(), body, r.Header.Get(signatureHeader))
	}

	recordWebhook(res, time.Since(start))
	if !res.OK() {
		logging.With(r.Context(), s.log).Info().
			Str("event_id", res.EventID).
			Str("type", res.EventType).
			Int("status", res.Status).
			Str("error", res.Error).
			Msg("webhook not applied")
	}

	status := http.StatusOK
	if s.opts.MirrorWebhookStatus {
		status = res.Status
	}
	writeJSON(w, status, res)
}

var subscriptionEventKinds = map[string]string{
	model.EventTypeSubscriptionCreated: "created",
	model.EventTypeSubscriptionUpdated: "updated",
	model.EventTypeSubscriptionDeleted: "deleted",
	model.EventTypeCheckoutCompleted:   "checkout",
}

func recordWebhook(res usecase.WebhookResult, elapsed time.Duration) {
	metrics.ObserveWebhook(res.EventType, res.Status, elapsed)
	if !res.OK() {
		return
	}
	if inv, ok := res.Data.(*model.Invoice); ok && inv != nil {
		metrics.IncInvoice(string(inv.Status), inv.Currency)
		if inv.AmountPaid != nil {
			metrics.AddInvoiceAmount(inv.Currency, *inv.AmountPaid)
		}
		return
	}
	if kind, ok := subscriptionEventKinds[res.EventType]; ok {
		metrics.IncSubscriptionEvent(kind)
	}
}
