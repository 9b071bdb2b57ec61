package notifier

import (
	"context"
	"errors"
	"log"

	"github.com/gdg-garage/workshop-booking-api/internal/config"
	"github.com/gdg-garage/workshop-booking-api/internal/models"
)

type BookingEvent string

const (
	BookingCreated   BookingEvent = "booking.created"
	BookingCancelled BookingEvent = "booking.cancelled"
)

// AuditCompleted is the routing key of the event sent after a consistency sweep.
const AuditCompleted = "audit.completed"

// Notifier informs staff about booking activity. Parents are never contacted
// from here.
type Notifier interface {
	NotifyBooking(ctx context.Context, event BookingEvent, child models.Child, workshop models.Workshop, booking models.Booking) error
	NotifyAudit(ctx context.Context, runID string, changes []models.AuditChange) error
}

// Multi fans out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) NotifyBooking(ctx context.Context, event BookingEvent, child models.Child, workshop models.Workshop, booking models.Booking) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyBooking(ctx, event, child, workshop, booking); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) NotifyAudit(ctx context.Context, runID string, changes []models.AuditChange) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyAudit(ctx, runID, changes); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FromConfig builds the notifiers that cfg enables. A notifier that fails to
// start is logged and left out. The returned close function releases the
// broker connection.
func FromConfig(cfg *config.Config) (Multi, func()) {
	var (
		multi   Multi
		closers []func() error
	)

	if cfg.DiscordBotToken != "" {
		discord, err := NewDiscordNotifierFromConfig(cfg)
		if err != nil {
			log.Printf("Discord notifier not initialized: %v", err)
		} else {
			multi = append(multi, discord)
		}
	}

	if cfg.AMQPURL != "" {
		publisher, err := NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Printf("AMQP publisher not initialized: %v", err)
		} else {
			multi = append(multi, publisher)
			closers = append(closers, publisher.Close)
		}
	}

	return multi, func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Printf("Failed to close notifier: %v", err)
			}
		}
	}
}
