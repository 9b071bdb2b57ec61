// Package store is the gorm-backed entity store used by the admission engine
// and the HTTP handlers.
package store

import (
	"context"
	"errors"

	"github.com/gdg-garage/workshop-booking-api/internal/admission"
	"github.com/gdg-garage/workshop-booking-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Transaction implements admission.Store. gorm commits when fn returns nil and
// rolls back on error or panic.
func (s *Store) Transaction(ctx context.Context, fn func(tx admission.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Tx{db: tx})
	})
}

// Tx implements admission.Tx on top of an open gorm transaction.
type Tx struct {
	db *gorm.DB
}

// locked adds FOR UPDATE where the dialect has row locks. SQLite serialises
// write transactions at BEGIN instead (see database.SQLiteDSN).
func (t *Tx) locked() *gorm.DB {
	if t.db.Dialector.Name() == "postgres" {
		return t.db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return t.db
}

func (t *Tx) GetWorkshop(id uint) (*models.Workshop, error) {
	var w models.Workshop
	if err := t.locked().First(&w, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &w, nil
}

func (t *Tx) GetChildWithActiveBookings(id uint) (*models.Child, error) {
	var c models.Child
	err := t.locked().
		Preload("Bookings", "status <> ?", models.BookingCancelled).
		Preload("Bookings.Workshop").
		First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (t *Tx) CountConfirmedBookings(workshopID uint) (int64, error) {
	return t.CountBookings(workshopID, models.BookingConfirmed)
}

func (t *Tx) CountBookings(workshopID uint, status models.BookingStatus) (int64, error) {
	var count int64
	err := t.db.Model(&models.Booking{}).
		Where("workshop_id = ? AND status = ?", workshopID, status).
		Count(&count).Error
	return count, err
}

func (t *Tx) InsertBooking(childID, workshopID uint, status models.BookingStatus) (*models.Booking, error) {
	b := models.Booking{
		ChildID:    childID,
		WorkshopID: workshopID,
		Status:     status,
	}
	if err := t.db.Create(&b).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *Tx) GetBooking(id uint) (*models.Booking, error) {
	var b models.Booking
	err := t.locked().
		Preload("Child").
		Preload("Workshop").
		First(&b, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (t *Tx) UpdateBookingStatus(id uint, status models.BookingStatus) error {
	res := t.db.Model(&models.Booking{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
