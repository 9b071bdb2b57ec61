package admission

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gdg-garage/workshop-booking-api/internal/database"
	"github.com/gdg-garage/workshop-booking-api/internal/models"
	"github.com/gdg-garage/workshop-booking-api/internal/notifier"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/gdg-garage/workshop-booking-api/internal/admission"

// Engine admits and cancels bookings. It holds no mutable state of its own;
// everything shared lives in the store.
type Engine struct {
	store       Store
	notifier    notifier.Notifier
	maxAttempts int
	tracer      trace.Tracer
}

type Option func(*Engine)

// WithNotifier sets where committed bookings are announced.
func WithNotifier(n notifier.Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithMaxAttempts bounds how many times a transaction is run when the store
// reports a transient failure.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:       store,
		maxAttempts: 3,
		tracer:      otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CreateBooking admits child into workshop. An empty requested status means
// CONFIRMED. The returned booking carries the final status, which is WAITLIST
// when the workshop is already full.
func (e *Engine) CreateBooking(ctx context.Context, childID, workshopID uint, requested models.BookingStatus) (*models.Booking, error) {
	ctx, span := e.tracer.Start(ctx, "admission.CreateBooking", trace.WithAttributes(
		attribute.Int64("child.id", int64(childID)),
		attribute.Int64("workshop.id", int64(workshopID)),
	))
	defer span.End()

	if requested == "" {
		requested = models.BookingConfirmed
	}
	if requested != models.BookingConfirmed && requested != models.BookingWaitlist {
		err := fmt.Errorf("%w: cannot create a booking as %q", ErrInvalidStatus, requested)
		recordError(span, err)
		return nil, err
	}

	var (
		booking  *models.Booking
		child    *models.Child
		workshop *models.Workshop
	)
	err := e.inTransaction(ctx, func(tx Tx) error {
		var err error
		workshop, err = tx.GetWorkshop(workshopID)
		if err != nil {
			return fmt.Errorf("load workshop: %w", err)
		}
		if workshop == nil {
			return fmt.Errorf("workshop %d: %w", workshopID, ErrNotFound)
		}

		child, err = tx.GetChildWithActiveBookings(childID)
		if err != nil {
			return fmt.Errorf("load child: %w", err)
		}
		if child == nil {
			return fmt.Errorf("child %d: %w", childID, ErrNotFound)
		}

		booking, err = admit(tx, child, workshop, requested)
		return err
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	span.SetAttributes(attribute.String("booking.status", booking.Status.String()))
	log.Printf("Booking %d: %s in %q -> %s", booking.ID, child.FullName(), workshop.Name, booking.Status)
	e.notify(ctx, notifier.BookingCreated, *child, *workshop, *booking)
	return booking, nil
}

// admit runs the rule checks in order and inserts the booking. Nothing is
// written unless every check passes.
func admit(tx Tx, child *models.Child, workshop *models.Workshop, requested models.BookingStatus) (*models.Booking, error) {
	age, ok := Eligible(child.Born(), workshop.StartTime, workshop.MinAge, workshop.MaxAge)
	if !ok {
		return nil, &AgeRangeError{Age: age, MinAge: workshop.MinAge, MaxAge: workshop.MaxAge}
	}

	existing := make([]Interval, 0, len(child.Bookings))
	for _, b := range child.Bookings {
		if !b.Status.Active() {
			continue
		}
		if b.WorkshopID == workshop.ID {
			return nil, fmt.Errorf("booking %d: %w", b.ID, ErrConflict)
		}
		if b.Workshop == nil {
			return nil, fmt.Errorf("booking %d loaded without its workshop", b.ID)
		}
		existing = append(existing, Interval{Start: b.Workshop.StartTime, End: b.Workshop.EndTime})
	}
	if AnyOverlap(Interval{Start: workshop.StartTime, End: workshop.EndTime}, existing) {
		return nil, ErrOverlap
	}

	confirmed, err := tx.CountConfirmedBookings(workshop.ID)
	if err != nil {
		return nil, fmt.Errorf("count confirmed bookings: %w", err)
	}
	status := Arbitrate(requested, workshop.Capacity, confirmed)

	booking, err := tx.InsertBooking(child.ID, workshop.ID, status)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("insert booking: %w", ErrConflict)
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return booking, nil
}

// CancelBooking marks a booking CANCELLED. Cancelling an already cancelled
// booking succeeds without writing. Waitlisted bookings on the same workshop
// are left untouched.
func (e *Engine) CancelBooking(ctx context.Context, bookingID uint) (*models.Booking, error) {
	ctx, span := e.tracer.Start(ctx, "admission.CancelBooking", trace.WithAttributes(
		attribute.Int64("booking.id", int64(bookingID)),
	))
	defer span.End()

	var (
		booking *models.Booking
		changed bool
	)
	err := e.inTransaction(ctx, func(tx Tx) error {
		var err error
		changed = false
		booking, err = tx.GetBooking(bookingID)
		if err != nil {
			return fmt.Errorf("load booking: %w", err)
		}
		if booking == nil {
			return fmt.Errorf("booking %d: %w", bookingID, ErrNotFound)
		}
		if booking.Status == models.BookingCancelled {
			return nil
		}
		if !booking.Status.CanTransitionTo(models.BookingCancelled) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatus, booking.Status, models.BookingCancelled)
		}
		if err := tx.UpdateBookingStatus(booking.ID, models.BookingCancelled); err != nil {
			return fmt.Errorf("cancel booking: %w", err)
		}
		booking.Status = models.BookingCancelled
		changed = true
		return nil
	})
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	if changed {
		log.Printf("Booking %d cancelled", booking.ID)
		if booking.Child != nil && booking.Workshop != nil {
			e.notify(ctx, notifier.BookingCancelled, *booking.Child, *booking.Workshop, *booking)
		}
	}
	return booking, nil
}

// Availability summarises the seats of a workshop.
type Availability struct {
	WorkshopID uint                  `json:"workshop_id"`
	Capacity   int                   `json:"capacity"`
	Confirmed  int64                 `json:"confirmed"`
	Waitlisted int64                 `json:"waitlisted"`
	Remaining  int                   `json:"remaining"`
	Status     models.WorkshopStatus `json:"status"`
}

func (e *Engine) Availability(ctx context.Context, workshopID uint) (*Availability, error) {
	var a *Availability
	err := e.inTransaction(ctx, func(tx Tx) error {
		workshop, err := tx.GetWorkshop(workshopID)
		if err != nil {
			return fmt.Errorf("load workshop: %w", err)
		}
		if workshop == nil {
			return fmt.Errorf("workshop %d: %w", workshopID, ErrNotFound)
		}
		confirmed, err := tx.CountConfirmedBookings(workshopID)
		if err != nil {
			return err
		}
		waitlisted, err := tx.CountBookings(workshopID, models.BookingWaitlist)
		if err != nil {
			return err
		}

		a = &Availability{
			WorkshopID: workshopID,
			Capacity:   workshop.Capacity,
			Confirmed:  confirmed,
			Waitlisted: waitlisted,
			Remaining:  max(workshop.Capacity-int(confirmed), 0),
			Status:     models.WorkshopActive,
		}
		switch {
		case workshop.Status == models.WorkshopCancelled:
			a.Status = models.WorkshopCancelled
		case a.Remaining == 0:
			a.Status = models.WorkshopFull
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// inTransaction runs fn in a store transaction, running it again with
// exponential backoff while the store reports serialization or lock failures.
// Any other error ends the attempts immediately.
func (e *Engine) inTransaction(ctx context.Context, fn func(tx Tx) error) error {
	operation := func() (struct{}, error) {
		err := e.store.Transaction(ctx, fn)
		if err != nil && !database.IsTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 25 * time.Millisecond
	b.MaxInterval = 500 * time.Millisecond

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(e.maxAttempts)),
	)
	if err != nil && database.IsTransient(err) {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return err
}

func (e *Engine) notify(ctx context.Context, event notifier.BookingEvent, child models.Child, workshop models.Workshop, booking models.Booking) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.NotifyBooking(ctx, event, child, workshop, booking); err != nil {
		log.Printf("Failed to send %s notification for booking %d: %v", event, booking.ID, err)
	}
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
