package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidExecContext = errors.New("invalid execution context")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")

	// Billing
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrMalformedEvent   = errors.New("malformed webhook event")
	ErrCustomerEmail    = errors.New("customer email could not be fetched")
	ErrProviderCall     = errors.New("payment provider call failed")

	// Identity
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIdentityProvider   = errors.New("identity provider call failed")
	ErrRateLimited        = errors.New("too many attempts")
	ErrUnauthenticated    = errors.New("not signed in")
)
