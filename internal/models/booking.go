package models

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// BookingStatus is a closed enumeration. Any other value is rejected when parsed,
// read from the database or written to it.
type BookingStatus string

const (
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingWaitlist  BookingStatus = "WAITLIST"
	BookingCancelled BookingStatus = "CANCELLED"
)

var ErrUnknownBookingStatus = errors.New("unknown booking status")

func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownBookingStatus, s)
	}
	return status, nil
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingConfirmed, BookingWaitlist, BookingCancelled:
		return true
	}
	return false
}

// Active reports whether the booking still holds (or queues for) a seat.
func (s BookingStatus) Active() bool {
	return s == BookingConfirmed || s == BookingWaitlist
}

// CanTransitionTo lists every status change a stored booking may go through.
// CANCELLED is terminal and WAITLIST is never promoted.
func (s BookingStatus) CanTransitionTo(to BookingStatus) bool {
	switch s {
	case BookingConfirmed:
		return to == BookingWaitlist || to == BookingCancelled
	case BookingWaitlist:
		return to == BookingCancelled
	}
	return false
}

func (s BookingStatus) String() string {
	return string(s)
}

func (s *BookingStatus) Scan(value any) error {
	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrUnknownBookingStatus, value)
	}
	parsed, err := ParseBookingStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s BookingStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBookingStatus, string(s))
	}
	return string(s), nil
}

type Booking struct {
	gorm.Model
	ChildID    uint          `json:"child_id" gorm:"not null;index"`
	Child      *Child        `json:"child,omitempty" gorm:"foreignKey:ChildID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	WorkshopID uint          `json:"workshop_id" gorm:"not null;index"`
	Workshop   *Workshop     `json:"workshop,omitempty" gorm:"foreignKey:WorkshopID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Status     BookingStatus `json:"status" gorm:"type:varchar(16);not null;index"`
}
