package admission

import (
	"context"

	"github.com/gdg-garage/workshop-booking-api/internal/models"
)

// Tx is the view of the entity store available inside one transaction. Getters
// return (nil, nil) when the record does not exist.
type Tx interface {
	// GetWorkshop loads and locks the workshop row.
	GetWorkshop(id uint) (*models.Workshop, error)
	// GetChildWithActiveBookings loads and locks the child, with its
	// non-cancelled bookings and their workshops.
	GetChildWithActiveBookings(id uint) (*models.Child, error)
	CountConfirmedBookings(workshopID uint) (int64, error)
	CountBookings(workshopID uint, status models.BookingStatus) (int64, error)
	// InsertBooking must fail when the pair already has a non-cancelled booking.
	InsertBooking(childID, workshopID uint, status models.BookingStatus) (*models.Booking, error)
	GetBooking(id uint) (*models.Booking, error)
	UpdateBookingStatus(id uint, status models.BookingStatus) error
}

// Store runs fn inside a single isolated transaction, committing when fn returns
// nil and rolling back on error or panic.
type Store interface {
	Transaction(ctx context.Context, fn func(tx Tx) error) error
}
