package model

import (
	"strings"
	"time"

	"saas-starter-billing/internal/domain"

	"github.com/google/uuid"
)

type SubscriptionStatus string

// Provider statuses are stored verbatim. SubscriptionStatusCancelled is the
// value written locally when the provider reports a deletion.
const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusCancelled         SubscriptionStatus = "cancelled"
)

// Subscription mirrors a provider subscription for a billing account.
type Subscription struct {
	ID             string             `json:"id"`             // local UUID
	SubscriptionID string             `json:"subscriptionId"` // provider id, unique
	StripeUserID   string             `json:"stripeUserId"`   // provider customer id
	Status         SubscriptionStatus `json:"status"`
	StartDate      string             `json:"startDate"` // RFC3339, from provider "created"
	PlanID         string             `json:"planId"`
	UserID         string             `json:"userId"`
	Email          string             `json:"email"`
	CreatedTime    time.Time          `json:"createdTime"`
}

// NewSubscription builds the normalized record for a provider subscription.
// created is the provider's unix timestamp.
func NewSubscription(subscriptionID, customerID string, status SubscriptionStatus, created int64, planID, userID, email string) (*Subscription, error) {
	if strings.TrimSpace(subscriptionID) == "" || strings.TrimSpace(email) == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:             uuid.NewString(),
		SubscriptionID: subscriptionID,
		StripeUserID:   customerID,
		Status:         status,
		StartDate:      time.Unix(created, 0).UTC().Format(time.RFC3339),
		PlanID:         planID,
		UserID:         userID,
		Email:          email,
		CreatedTime:    time.Now().UTC(),
	}, nil
}

func (s *Subscription) IsCancelled() bool {
	return s.Status == SubscriptionStatusCancelled || s.Status == SubscriptionStatusCanceled
}
