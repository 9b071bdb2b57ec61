package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditChange is one status transition forced by a consistency sweep.
type AuditChange struct {
	BookingID    uint          `json:"booking_id"`
	ChildName    string        `json:"child_name"`
	WorkshopName string        `json:"workshop_name"`
	From         BookingStatus `json:"from_status"`
	To           BookingStatus `json:"to_status"`
	Reason       string        `json:"reason"`
}

type AuditRun struct {
	gorm.Model
	RunID      string                           `json:"run_id" gorm:"uniqueIndex;size:36;not null"`
	StartedAt  time.Time                        `json:"started_at"`
	FinishedAt time.Time                        `json:"finished_at"`
	DryRun     bool                             `json:"dry_run"`
	Changes    datatypes.JSONSlice[AuditChange] `json:"changes"`
}
