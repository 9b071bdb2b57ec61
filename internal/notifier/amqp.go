package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gdg-garage/workshop-booking-api/internal/models"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher publishes booking domain events to a topic exchange so other
// services (reporting, staff tooling) can follow admissions.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

type bookingPayload struct {
	EventID    string               `json:"event_id"`
	Type       BookingEvent         `json:"type"`
	BookingID  uint                 `json:"booking_id"`
	ChildID    uint                 `json:"child_id"`
	WorkshopID uint                 `json:"workshop_id"`
	Status     models.BookingStatus `json:"status"`
	OccurredAt time.Time            `json:"occurred_at"`
}

type auditPayload struct {
	EventID    string               `json:"event_id"`
	Type       string               `json:"type"`
	RunID      string               `json:"run_id"`
	Changes    []models.AuditChange `json:"changes"`
	OccurredAt time.Time            `json:"occurred_at"`
}

func newBookingPayload(event BookingEvent, booking models.Booking, now time.Time) bookingPayload {
	return bookingPayload{
		EventID:    uuid.NewString(),
		Type:       event,
		BookingID:  booking.ID,
		ChildID:    booking.ChildID,
		WorkshopID: booking.WorkshopID,
		Status:     booking.Status,
		OccurredAt: now.UTC(),
	}
}

func (p *AMQPPublisher) NotifyBooking(ctx context.Context, event BookingEvent, child models.Child, workshop models.Workshop, booking models.Booking) error {
	return p.publishJSON(ctx, string(event), newBookingPayload(event, booking, time.Now()))
}

func (p *AMQPPublisher) NotifyAudit(ctx context.Context, runID string, changes []models.AuditChange) error {
	return p.publishJSON(ctx, AuditCompleted, newAuditPayload(runID, changes, time.Now()))
}

func newAuditPayload(runID string, changes []models.AuditChange, now time.Time) auditPayload {
	return auditPayload{
		EventID:    uuid.NewString(),
		Type:       AuditCompleted,
		RunID:      runID,
		Changes:    changes,
		OccurredAt: now.UTC(),
	}
}

func (p *AMQPPublisher) publishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         b,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
