package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"go.uber.org/zap"

	"ride-booking/models"
)

// Stripe charges tokenized cards through PaymentIntents.
type Stripe struct {
	logger *zap.Logger
}

func NewStripe(apiKey string, logger *zap.Logger) *Stripe {
	stripe.Key = apiKey
	return &Stripe{logger: logger}
}

func (s *Stripe) GetProvider() Provider {
	return ProviderStripe
}

func (s *Stripe) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	if req.Details.Method != models.PaymentCard {
		return nil, fmt.Errorf("stripe: unsupported method %s", req.Details.Method)
	}
	if req.Details.CardToken == "" {
		return nil, errors.New("stripe: card token required")
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(req.Amount.Mul(decimal.NewFromInt(100)).IntPart()),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod: stripe.String(req.Details.CardToken),
		Confirm:       stripe.Bool(true),
		Description:   stripe.String("booking " + req.Reference),
	}
	params.Context = ctx

	pi, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			s.logger.Info("stripe charge declined",
				zap.String("reference", req.Reference),
				zap.String("decline_code", string(stripeErr.DeclineCode)))
			return &ChargeResult{Status: StatusDeclined}, nil
		}
		return nil, fmt.Errorf("stripe charge: %w", err)
	}

	result := &ChargeResult{TransactionID: pi.ID}
	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		result.Status = StatusSucceeded
	case stripe.PaymentIntentStatusProcessing:
		result.Status = StatusPending
	default:
		result.Status = StatusDeclined
	}
	return result, nil
}

func (s *Stripe) Close(ctx context.Context) error {
	return nil
}
