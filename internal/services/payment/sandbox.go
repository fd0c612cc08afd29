package payment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ride-booking/models"
)

// declinePANSuffix mirrors the common test-card convention: any PAN ending
// in 0002 is declined.
const declinePANSuffix = "0002"

// Sandbox is a deterministic in-process gateway for development and tests.
type Sandbox struct {
	logger *zap.Logger

	// Latency imitates a round trip to a real provider. Zero in tests.
	Latency time.Duration
}

func NewSandbox(logger *zap.Logger) *Sandbox {
	return &Sandbox{logger: logger, Latency: 150 * time.Millisecond}
}

func (s *Sandbox) GetProvider() Provider {
	return ProviderSandbox
}

func (s *Sandbox) Charge(ctx context.Context, req *ChargeRequest) (*ChargeResult, error) {
	if s.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.Latency):
		}
	}

	if req.Details.Method == models.PaymentCard && strings.HasSuffix(digitsOnly(req.Details.CardNumber), declinePANSuffix) {
		s.logger.Info("sandbox charge declined",
			zap.String("reference", req.Reference))
		return &ChargeResult{Status: StatusDeclined}, nil
	}

	txID := "sbx_" + uuid.New().String()
	s.logger.Info("sandbox charge succeeded",
		zap.String("reference", req.Reference),
		zap.String("transaction_id", txID),
		zap.String("amount", req.Amount.StringFixed(2)))

	return &ChargeResult{Status: StatusSucceeded, TransactionID: txID}, nil
}

func (s *Sandbox) Close(ctx context.Context) error {
	return nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
