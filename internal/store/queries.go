package store

import (
	"context"
	"errors"

	"github.com/gdg-garage/workshop-booking-api/internal/models"
	"gorm.io/gorm"
)

// ErrNotFound is returned by the lookups below when no row matches.
var ErrNotFound = errors.New("record not found")

type BookingFilter struct {
	ParentID   uint
	ChildID    uint
	WorkshopID uint
}

// ListBookings returns bookings with their child and workshop, newest first.
func (s *Store) ListBookings(ctx context.Context, filter BookingFilter) ([]models.Booking, error) {
	q := s.db.WithContext(ctx).Model(&models.Booking{}).
		Preload("Child").
		Preload("Workshop")
	if filter.ParentID != 0 {
		q = q.Where("child_id IN (?)", s.db.Model(&models.Child{}).Select("id").Where("parent_id = ?", filter.ParentID))
	}
	if filter.ChildID != 0 {
		q = q.Where("child_id = ?", filter.ChildID)
	}
	if filter.WorkshopID != 0 {
		q = q.Where("workshop_id = ?", filter.WorkshopID)
	}

	var bookings []models.Booking
	if err := q.Order("created_at DESC").Order("id DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindBooking loads a booking with its child and workshop, outside any
// admission transaction.
func (s *Store) FindBooking(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := s.db.WithContext(ctx).Preload("Child").Preload("Workshop").First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *Store) FindChild(ctx context.Context, id uint) (*models.Child, error) {
	var c models.Child
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) CreateParent(ctx context.Context, p *models.Parent) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *Store) CreateChild(ctx context.Context, c *models.Child) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *Store) CreateWorkshop(ctx context.Context, w *models.Workshop) error {
	return s.db.WithContext(ctx).Create(w).Error
}

func (s *Store) DeleteParent(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Delete(&models.Parent{Model: gorm.Model{ID: id}}).Error
}
