package models

import "gorm.io/gorm"

// activeBookingIndex allows a single non-cancelled booking per (child, workshop)
// while keeping cancelled rows around so a child can book again.
const activeBookingIndex = `CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_child_workshop
	ON bookings (child_id, workshop_id) WHERE status <> 'CANCELLED'`

// AutoMigrate creates or updates every table used by the booking core.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&Parent{},
		&Child{},
		&Workshop{},
		&Booking{},
		&AuditRun{},
	); err != nil {
		return err
	}
	return db.Exec(activeBookingIndex).Error
}
