package notify

import (
	"context"
	"encoding/base64"
	"fmt"

	pubnub "github.com/pubnub/go/v7"
	"go.uber.org/zap"

	"ride-booking/models"
)

// PubNub publishes per-passenger channels. Email delivery attaches the
// rendered e-ticket PDF; SMS and in-app get the plain payload.
type PubNub struct {
	client *pubnub.PubNub
	logger *zap.Logger
}

func NewPubNub(publishKey, subscribeKey string, logger *zap.Logger) *PubNub {
	cfg := pubnub.NewConfigWithUserId(pubnub.UserId("ride-booking-engine"))
	cfg.PublishKey = publishKey
	cfg.SubscribeKey = subscribeKey

	return &PubNub{
		client: pubnub.NewPubNub(cfg),
		logger: logger,
	}
}

func passengerChannel(recipient string) string {
	return fmt.Sprintf("passenger-%s", recipient)
}

func (p *PubNub) Deliver(ctx context.Context, method models.DeliveryMethod, recipient string, ticket *Ticket) error {
	message := map[string]any{
		"type":   "ticket",
		"method": string(method),
		"ticket": ticket,
	}

	if method == models.DeliveryEmail {
		pdf, err := BuildETicketPDF(ticket)
		if err != nil {
			return fmt.Errorf("render e-ticket: %w", err)
		}
		message["attachment"] = base64.StdEncoding.EncodeToString(pdf)
	}

	_, pnStatus, err := p.client.Publish().
		Channel(passengerChannel(recipient)).
		Message(message).
		Execute()
	if err != nil {
		return fmt.Errorf("deliver ticket: %w", err)
	}
	if pnStatus.Error != nil {
		return fmt.Errorf("deliver ticket: pubnub status %d: %w", pnStatus.StatusCode, pnStatus.Error)
	}

	p.logger.Info("ticket delivered",
		zap.String("booking_id", ticket.BookingID),
		zap.String("method", string(method)))
	return nil
}

func (p *PubNub) BookingEvent(ctx context.Context, recipient, bookingID string, bookingStatus models.BookingStatus) error {
	_, pnStatus, err := p.client.Publish().
		Channel(passengerChannel(recipient)).
		Message(map[string]any{
			"type":       "booking_status",
			"booking_id": bookingID,
			"status":     string(bookingStatus),
		}).
		Execute()
	if err != nil {
		return err
	}
	if pnStatus.Error != nil {
		return fmt.Errorf("booking event: pubnub status %d: %w", pnStatus.StatusCode, pnStatus.Error)
	}
	return nil
}
