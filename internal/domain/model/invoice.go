package model

import (
	"strconv"
	"strings"
	"time"

	"saas-starter-billing/internal/domain"

	"github.com/oklog/ulid/v2"
)

type InvoiceStatus string

const (
	InvoiceStatusSucceeded InvoiceStatus = "succeeded"
	InvoiceStatusFailed    InvoiceStatus = "failed"
)

// Invoice records one payment outcome reported by the provider.
// InvoiceID is not unique: redelivered events produce additional rows.
type Invoice struct {
	ID             string        `json:"id"` // local ULID
	InvoiceID      string        `json:"invoiceId"`
	SubscriptionID string        `json:"subscriptionId"`
	AmountPaid     *string       `json:"amountPaid"` // set only when succeeded
	AmountDue      *string       `json:"amountDue"`  // set only when failed
	Currency       string        `json:"currency"`
	Status         InvoiceStatus `json:"status"`
	UserID         *string       `json:"userId"`
	Email          string        `json:"email"`
	CreatedTime    time.Time     `json:"createdTime"`
}

// NewInvoice normalizes a provider invoice. Amounts are minor units; only the
// amount matching status is kept.
func NewInvoice(invoiceID, subscriptionID string, status InvoiceStatus, amountPaid, amountDue int64, currency, userID, email string) (*Invoice, error) {
	if strings.TrimSpace(invoiceID) == "" || strings.TrimSpace(email) == "" {
		return nil, domain.ErrInvalidArgument
	}
	inv := &Invoice{
		ID:             ulid.Make().String(),
		InvoiceID:      invoiceID,
		SubscriptionID: subscriptionID,
		Currency:       currency,
		Status:         status,
		Email:          email,
		CreatedTime:    time.Now().UTC(),
	}
	switch status {
	case InvoiceStatusSucceeded:
		v := FormatMinorUnits(amountPaid)
		inv.AmountPaid = &v
	case InvoiceStatusFailed:
		v := FormatMinorUnits(amountDue)
		inv.AmountDue = &v
	default:
		return nil, domain.ErrInvalidArgument
	}
	if userID != "" {
		inv.UserID = &userID
	}
	return inv, nil
}

// FormatMinorUnits renders cents as a decimal major-unit string without
// trailing zeros: 2000 -> "20", 1950 -> "19.5", 5 -> "0.05".
func FormatMinorUnits(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole, frac := cents/100, cents%100
	out := sign + strconv.FormatInt(whole, 10)
	if frac == 0 {
		return out
	}
	f := strconv.FormatInt(frac, 10)
	if frac < 10 {
		f = "0" + f
	}
	return out + "." + strings.TrimRight(f, "0")
}
