package model

// Provider event types the dispatcher understands.
const (
	EventTypeSubscriptionCreated = "customer.subscription.created"
	EventTypeSubscriptionUpdated = "customer.subscription.updated"
	EventTypeSubscriptionDeleted = "customer.subscription.deleted"
	EventTypeInvoiceSucceeded    = "invoice.payment_succeeded"
	EventTypeInvoiceFailed       = "invoice.payment_failed"
	EventTypeCheckoutCompleted   = "checkout.session.completed"
)

// Event is a verified provider notification. Implementations are the
// variants declared in this file; the set is closed by the unexported method.
type Event interface {
	Meta() EventMeta
	isEvent()
}

// EventMeta carries the envelope fields shared by every variant.
type EventMeta struct {
	ID         string
	Type       string
	APIVersion string
	Created    int64
	Livemode   bool
}

func (m EventMeta) Meta() EventMeta { return m }
func (EventMeta) isEvent()          {}

type SubscriptionPayload struct {
	ID         string
	CustomerID string
	Status     SubscriptionStatus
	Created    int64
	PlanID     string // price id of the first item
	Metadata   map[string]string
}

func (p SubscriptionPayload) UserID() string { return p.Metadata["userId"] }

type InvoicePayload struct {
	ID             string
	CustomerID     string
	SubscriptionID string
	AmountPaid     int64 // minor units
	AmountDue      int64 // minor units
	Currency       string
	Metadata       map[string]string
}

func (p InvoicePayload) UserID() string { return p.Metadata["userId"] }

type CheckoutSessionPayload struct {
	ID             string
	CustomerID     string
	SubscriptionID string
	Mode           string
	Metadata       map[string]string
}

// IsSubscription reports whether the checkout was started for a recurring plan.
func (p CheckoutSessionPayload) IsSubscription() bool { return p.Metadata["subscription"] == "true" }
func (p CheckoutSessionPayload) UserID() string       { return p.Metadata["userId"] }
func (p CheckoutSessionPayload) Email() string        { return p.Metadata["email"] }

type SubscriptionCreated struct {
	EventMeta
	Subscription SubscriptionPayload
}

type SubscriptionUpdated struct {
	EventMeta
	Subscription SubscriptionPayload
}

type SubscriptionDeleted struct {
	EventMeta
	Subscription SubscriptionPayload
}

type InvoiceSucceeded struct {
	EventMeta
	Invoice InvoicePayload
}

type InvoiceFailed struct {
	EventMeta
	Invoice InvoicePayload
}

type CheckoutCompleted struct {
	EventMeta
	Session CheckoutSessionPayload
}

// Unhandled is any verified event whose type has no handler.
type Unhandled struct {
	EventMeta
}
