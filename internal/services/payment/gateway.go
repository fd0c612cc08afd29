package payment

import (
	"context"

	"github.com/shopspring/decimal"

	"ride-booking/models"
)

// Provider identifies a payment gateway implementation.
type Provider string

const (
	ProviderSandbox Provider = "sandbox"
	ProviderStripe  Provider = "stripe"
)

// ChargeStatus is the gateway's verdict on a charge.
type ChargeStatus string

const (
	// StatusSucceeded means the charge cleared synchronously.
	StatusSucceeded ChargeStatus = "succeeded"
	// StatusPending means the provider will confirm asynchronously; the
	// booking stays Pending until the notification arrives.
	StatusPending ChargeStatus = "pending"
	// StatusDeclined means the provider rejected the charge.
	StatusDeclined ChargeStatus = "declined"
)

// ChargeRequest carries everything a provider needs to attempt a charge.
type ChargeRequest struct {
	Amount    decimal.Decimal
	Currency  string
	Reference string // booking or session reference for reconciliation
	Details   models.PaymentDetails
}

// ChargeResult is the provider's response to a charge attempt.
type ChargeResult struct {
	Status        ChargeStatus
	TransactionID string
}

// Gateway is the common interface for all payment providers.
type Gateway interface {
	// GetProvider returns the provider type.
	GetProvider() Provider

	// Charge attempts the payment. A declined charge is returned as a
	// result, not an error; errors mean the attempt itself failed.
	Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error)

	// Close gracefully closes any connections.
	Close(ctx context.Context) error
}
