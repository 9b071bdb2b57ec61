package admission

import "github.com/gdg-garage/workshop-booking-api/internal/models"

// Arbitrate decides the stored status of a new booking. A CONFIRMED request on a
// full workshop is queued instead of rejected; other statuses pass through.
func Arbitrate(requested models.BookingStatus, capacity int, confirmed int64) models.BookingStatus {
	if requested == models.BookingConfirmed && confirmed >= int64(capacity) {
		return models.BookingWaitlist
	}
	return requested
}
