package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"

	"saas-starter-billing/internal/domain"
	"saas-starter-billing/internal/domain/model"
	"saas-starter-billing/internal/domain/ports/adapter"
)

var _ adapter.EventVerifier = (*StripeEventVerifier)(nil)

// StripeEventVerifier checks the Stripe-Signature header and decodes the
// event into one of the model.Event variants.
type StripeEventVerifier struct {
	secret    string
	tolerance time.Duration
}

func NewStripeEventVerifier(webhookSecret string) *StripeEventVerifier {
	return &StripeEventVerifier{secret: webhookSecret, tolerance: webhook.DefaultTolerance}
}

func (v *StripeEventVerifier) Verify(payload []byte, signatureHeader string) (model.Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signatureHeader, v.secret, webhook.ConstructEventOptions{
		Tolerance:                v.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		if isSignatureError(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}

	meta := model.EventMeta{
		ID:         ev.ID,
		Type:       string(ev.Type),
		APIVersion: ev.APIVersion,
		Created:    ev.Created,
		Livemode:   ev.Livemode,
	}
	return decodeEvent(meta, ev.Data)
}

func isSignatureError(err error) bool {
	return errors.Is(err, webhook.ErrNotSigned) ||
		errors.Is(err, webhook.ErrInvalidHeader) ||
		errors.Is(err, webhook.ErrNoValidSignature) ||
		errors.Is(err, webhook.ErrTooOld)
}

func decodeEvent(meta model.EventMeta, data *stripe.EventData) (model.Event, error) {
	switch meta.Type {
	case model.EventTypeSubscriptionCreated, model.EventTypeSubscriptionUpdated, model.EventTypeSubscriptionDeleted:
		var s subscriptionObject
		if err := decodeObject(data, &s); err != nil {
			return nil, err
		}
		p := s.payload()
		switch meta.Type {
		case model.EventTypeSubscriptionCreated:
			return model.SubscriptionCreated{EventMeta: meta, Subscription: p}, nil
		case model.EventTypeSubscriptionUpdated:
			return model.SubscriptionUpdated{EventMeta: meta, Subscription: p}, nil
		default:
			return model.SubscriptionDeleted{EventMeta: meta, Subscription: p}, nil
		}

	case model.EventTypeInvoiceSucceeded, model.EventTypeInvoiceFailed:
		var inv invoiceObject
		if err := decodeObject(data, &inv); err != nil {
			return nil, err
		}
		if meta.Type == model.EventTypeInvoiceSucceeded {
			return model.InvoiceSucceeded{EventMeta: meta, Invoice: inv.payload()}, nil
		}
		return model.InvoiceFailed{EventMeta: meta, Invoice: inv.payload()}, nil

	case model.EventTypeCheckoutCompleted:
		var cs checkoutSessionObject
		if err := decodeObject(data, &cs); err != nil {
			return nil, err
		}
		return model.CheckoutCompleted{EventMeta: meta, Session: cs.payload()}, nil

	default:
		return model.Unhandled{EventMeta: meta}, nil
	}
}

func decodeObject(data *stripe.EventData, dst any) error {
	if data == nil || len(data.Raw) == 0 {
		return fmt.Errorf("%w: event carries no data object", domain.ErrMalformedEvent)
	}
	if err := json.Unmarshal(data.Raw, dst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrMalformedEvent, err)
	}
	return nil
}

// ---- wire shapes of the data objects we read ----

// objectRef is an id that Stripe sends either bare or as an expanded object.
type objectRef string

func (r *objectRef) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		*r = ""
		return nil
	}
	if b[0] == '{' {
		var obj struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		*r = objectRef(obj.ID)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*r = objectRef(s)
	return nil
}

type subscriptionObject struct {
	ID       string            `json:"id"`
	Customer objectRef         `json:"customer"`
	Status   string            `json:"status"`
	Created  int64             `json:"created"`
	Metadata map[string]string `json:"metadata"`
	Items    struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

func (s subscriptionObject) payload() model.SubscriptionPayload {
	p := model.SubscriptionPayload{
		ID:         s.ID,
		CustomerID: string(s.Customer),
		Status:     model.SubscriptionStatus(s.Status),
		Created:    s.Created,
		Metadata:   s.Metadata,
	}
	if len(s.Items.Data) > 0 {
		p.PlanID = s.Items.Data[0].Price.ID
	}
	return p
}

type invoiceObject struct {
	ID           string            `json:"id"`
	Customer     objectRef         `json:"customer"`
	Subscription objectRef         `json:"subscription"`
	AmountPaid   int64             `json:"amount_paid"`
	AmountDue    int64             `json:"amount_due"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
	// Newer API versions moved the subscription under parent.
	Parent *struct {
		SubscriptionDetails *struct {
			Subscription objectRef `json:"subscription"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

func (i invoiceObject) payload() model.InvoicePayload {
	sub := string(i.Subscription)
	if sub == "" && i.Parent != nil && i.Parent.SubscriptionDetails != nil {
		sub = string(i.Parent.SubscriptionDetails.Subscription)
	}
	return model.InvoicePayload{
		ID:             i.ID,
		CustomerID:     string(i.Customer),
		SubscriptionID: sub,
		AmountPaid:     i.AmountPaid,
		AmountDue:      i.AmountDue,
		Currency:       i.Currency,
		Metadata:       i.Metadata,
	}
}

type checkoutSessionObject struct {
	ID           string            `json:"id"`
	Customer     objectRef         `json:"customer"`
	Subscription objectRef         `json:"subscription"`
	Mode         string            `json:"mode"`
	Metadata     map[string]string `json:"metadata"`
}

func (c checkoutSessionObject) payload() model.CheckoutSessionPayload {
	return model.CheckoutSessionPayload{
		ID:             c.ID,
		CustomerID:     string(c.Customer),
		SubscriptionID: string(c.Subscription),
		Mode:           c.Mode,
		Metadata:       c.Metadata,
	}
}
