package model

import (
	"strings"
	"time"

	"saas-starter-billing/internal/domain"
)

// User is the local projection of an identity-provider account.
// Subscription points at the provider object that currently entitles the user.
type User struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Subscription *string   `json:"subscription"`
	CreatedTime  time.Time `json:"createdTime"`
}

func NewUser(userID, email string) (*User, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(email) == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &User{
		UserID:      userID,
		Email:       strings.ToLower(strings.TrimSpace(email)),
		CreatedTime: time.Now().UTC(),
	}, nil
}

func (u *User) IsZero() bool          { return u == nil || u.UserID == "" }
func (u *User) HasSubscription() bool { return u != nil && u.Subscription != nil && *u.Subscription != "" }
