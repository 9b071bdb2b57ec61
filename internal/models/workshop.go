package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// WorkshopStatus is informational; admission never consults it.
type WorkshopStatus string

const (
	WorkshopActive    WorkshopStatus = "ACTIVE"
	WorkshopCancelled WorkshopStatus = "CANCELLED"
	WorkshopFull      WorkshopStatus = "FULL"
)

var ErrInvalidWorkshop = errors.New("invalid workshop")

type Workshop struct {
	gorm.Model
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description" gorm:"type:text"`
	StartTime   time.Time      `json:"start_time" gorm:"not null;index"`
	EndTime     time.Time      `json:"end_time" gorm:"not null"`
	MinAge      int            `json:"min_age" gorm:"not null"`
	MaxAge      int            `json:"max_age" gorm:"not null"`
	Capacity    int            `json:"capacity" gorm:"not null"`
	Location    string         `json:"location"`
	Status      WorkshopStatus `json:"status" gorm:"type:varchar(16);not null;default:'ACTIVE'"`
	Bookings    []Booking      `json:"bookings,omitempty"`
}

func (w *Workshop) Validate() error {
	if !w.EndTime.After(w.StartTime) {
		return fmt.Errorf("%w: end time must be after start time", ErrInvalidWorkshop)
	}
	if w.MinAge < 0 || w.MinAge > w.MaxAge {
		return fmt.Errorf("%w: age band [%d, %d]", ErrInvalidWorkshop, w.MinAge, w.MaxAge)
	}
	if w.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidWorkshop)
	}
	switch w.Status {
	case "", WorkshopActive, WorkshopCancelled, WorkshopFull:
	default:
		return fmt.Errorf("%w: status %q", ErrInvalidWorkshop, w.Status)
	}
	return nil
}

func (w *Workshop) BeforeSave(tx *gorm.DB) error {
	return w.Validate()
}
