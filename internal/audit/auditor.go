// Package audit re-validates stored bookings against the admission rules and
// repairs the ones that drifted.
package audit

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gdg-garage/workshop-booking-api/internal/admission"
	"github.com/gdg-garage/workshop-booking-api/internal/models"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Rule names recorded as the reason of a change.
const (
	RuleAgeRange = "age_range"
	RuleOverlap  = "overlap"
	RuleCapacity = "capacity"
	RuleOrphaned = "orphaned"
)

type Auditor struct {
	db     *gorm.DB
	dryRun bool
	now    func() time.Time
	tracer trace.Tracer
}

type Option func(*Auditor)

// WithDryRun computes the changes without writing them or recording the run.
func WithDryRun(dryRun bool) Option {
	return func(a *Auditor) {
		a.dryRun = dryRun
	}
}

func New(db *gorm.DB, opts ...Option) *Auditor {
	a := &Auditor{
		db:     db,
		now:    func() time.Time { return time.Now().UTC() },
		tracer: otel.Tracer("github.com/gdg-garage/workshop-booking-api/internal/audit"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run sweeps every active booking in a single transaction. The workshop and
// child rows are locked first, in the same order the admission engine locks
// them, so live bookings wait for the sweep to commit.
func (a *Auditor) Run(ctx context.Context) (*Report, error) {
	ctx, span := a.tracer.Start(ctx, "audit.Run", trace.WithAttributes(attribute.Bool("audit.dry_run", a.dryRun)))
	defer span.End()

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: a.now(),
		DryRun:    a.dryRun,
	}

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRows(tx); err != nil {
			return err
		}

		var bookings []models.Booking
		err := tx.Preload("Child", unscoped).Preload("Workshop", unscoped).
			Where("status <> ?", models.BookingCancelled).
			Order("created_at").Order("id").
			Find(&bookings).Error
		if err != nil {
			return fmt.Errorf("load bookings: %w", err)
		}
		report.Checked = len(bookings)

		changes := Plan(bookings)
		report.Changes = changes

		for _, c := range changes {
			log.Printf("Audit %s: booking %d (%s in %q) %s -> %s, rule %s",
				report.RunID, c.BookingID, c.ChildName, c.WorkshopName, c.From, c.To, c.Reason)
		}
		if a.dryRun {
			return nil
		}

		for _, c := range changes {
			res := tx.Model(&models.Booking{}).Where("id = ? AND status = ?", c.BookingID, c.From).Update("status", c.To)
			if res.Error != nil {
				return fmt.Errorf("update booking %d: %w", c.BookingID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("booking %d changed during the sweep", c.BookingID)
			}
		}

		report.FinishedAt = a.now()
		run := report.Record()
		if err := tx.Create(&run).Error; err != nil {
			return fmt.Errorf("record audit run: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if report.FinishedAt.IsZero() {
		report.FinishedAt = a.now()
	}
	span.SetAttributes(attribute.Int("audit.changes", len(report.Changes)))
	log.Printf("Audit %s finished: %d bookings checked, %d changes", report.RunID, report.Checked, len(report.Changes))
	return report, nil
}

// unscoped keeps soft-deleted children and workshops visible to the sweep.
func unscoped(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

func lockRows(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	var workshopIDs, childIDs []uint
	if err := tx.Model(&models.Workshop{}).Clauses(clause.Locking{Strength: "UPDATE"}).Order("id").Pluck("id", &workshopIDs).Error; err != nil {
		return fmt.Errorf("lock workshops: %w", err)
	}
	if err := tx.Model(&models.Child{}).Clauses(clause.Locking{Strength: "UPDATE"}).Order("id").Pluck("id", &childIDs).Error; err != nil {
		return fmt.Errorf("lock children: %w", err)
	}
	return nil
}

// Plan decides the repairs for bookings, which must be the non-cancelled
// bookings in creation order with Child and Workshop loaded, deleted rows
// included. A booking changes at most once. Bookings whose child or workshop
// is gone are cancelled first. The passes then run eligibility, overlap and
// capacity in that order, so a second pass over the repaired set finds
// nothing to do.
func Plan(bookings []models.Booking) []models.AuditChange {
	status := make(map[uint]models.BookingStatus, len(bookings))
	for _, b := range bookings {
		status[b.ID] = b.Status
	}

	var changes []models.AuditChange
	change := func(b models.Booking, to models.BookingStatus, rule string) {
		changes = append(changes, models.AuditChange{
			BookingID:    b.ID,
			ChildName:    childName(b),
			WorkshopName: workshopName(b),
			From:         b.Status,
			To:           to,
			Reason:       rule,
		})
		status[b.ID] = to
	}

	for _, b := range bookings {
		if orphaned(b) {
			change(b, models.BookingCancelled, RuleOrphaned)
		}
	}

	for _, b := range bookings {
		if status[b.ID] == models.BookingCancelled {
			continue
		}
		if _, ok := admission.Eligible(b.Child.Born(), b.Workshop.StartTime, b.Workshop.MinAge, b.Workshop.MaxAge); !ok {
			change(b, models.BookingCancelled, RuleAgeRange)
		}
	}

	kept := make(map[uint][]admission.Interval)
	for _, b := range bookings {
		if status[b.ID] != models.BookingConfirmed {
			continue
		}
		slot := admission.Interval{Start: b.Workshop.StartTime, End: b.Workshop.EndTime}
		if admission.AnyOverlap(slot, kept[b.ChildID]) {
			change(b, models.BookingWaitlist, RuleOverlap)
			continue
		}
		kept[b.ChildID] = append(kept[b.ChildID], slot)
	}

	seats := make(map[uint]int)
	for _, b := range bookings {
		if status[b.ID] != models.BookingConfirmed {
			continue
		}
		if seats[b.WorkshopID] >= b.Workshop.Capacity {
			change(b, models.BookingWaitlist, RuleCapacity)
			continue
		}
		seats[b.WorkshopID]++
	}

	return changes
}

func orphaned(b models.Booking) bool {
	return b.Child == nil || b.Workshop == nil || b.Child.DeletedAt.Valid || b.Workshop.DeletedAt.Valid
}

func childName(b models.Booking) string {
	if b.Child == nil {
		return fmt.Sprintf("child %d", b.ChildID)
	}
	return b.Child.FullName()
}

func workshopName(b models.Booking) string {
	if b.Workshop == nil {
		return fmt.Sprintf("workshop %d", b.WorkshopID)
	}
	return b.Workshop.Name
}
