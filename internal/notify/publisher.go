// README: Fire-and-forget booking notifications over RabbitMQ. Publish
// failures are logged, never returned; bookings do not fail because the
// broker is down.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"vahan/internal/modules/booking"
)

const exchange = "booking_events"

// Publisher implements the booking service's Notifier against a RabbitMQ
// topic exchange.
type Publisher struct {
	ch  *amqp091.Channel
	log *slog.Logger
}

// Connect dials the broker, opens a channel and declares the exchange.
func Connect(url string, log *slog.Logger) (*Publisher, *amqp091.Connection, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return &Publisher{ch: ch, log: log}, conn, nil
}

type bookingEvent struct {
	BookingID     string `json:"booking_id"`
	BookingNumber string `json:"booking_number"`
	CustomerID    string `json:"customer_id"`
	DriverID      string `json:"driver_id"`
	Status        string `json:"status"`
	TotalAmount   int64  `json:"total_amount"`
	OccurredAt    string `json:"occurred_at"`
}

func (p *Publisher) BookingConfirmed(ctx context.Context, b *booking.Booking) {
	p.publish(ctx, "booking.confirmed", b)
}

func (p *Publisher) BookingCancelled(ctx context.Context, b *booking.Booking) {
	p.publish(ctx, "booking.cancelled", b)
}

func (p *Publisher) SettlementCompleted(ctx context.Context, b *booking.Booking) {
	p.publish(ctx, "booking.settlement.completed", b)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, b *booking.Booking) {
	body, err := json.Marshal(bookingEvent{
		BookingID:     string(b.ID),
		BookingNumber: b.Number,
		CustomerID:    string(b.CustomerID),
		DriverID:      string(b.DriverID),
		Status:        string(b.Status),
		TotalAmount:   b.Pricing.TotalAmount,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		p.log.Error("marshal booking event failed", "routing_key", routingKey, "err", err)
		return
	}
	err = p.ch.PublishWithContext(ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		p.log.Error("publish booking event failed", "routing_key", routingKey, "booking_id", b.ID, "err", err)
	}
}

// Noop is the notifier used when no broker is configured.
type Noop struct{}

func (Noop) BookingConfirmed(context.Context, *booking.Booking)    {}
func (Noop) BookingCancelled(context.Context, *booking.Booking)    {}
func (Noop) SettlementCompleted(context.Context, *booking.Booking) {}
