package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Child struct {
	gorm.Model
	FirstName   string         `json:"first_name" gorm:"not null"`
	LastName    string         `json:"last_name" gorm:"not null"`
	BirthDate   datatypes.Date `json:"birth_date" gorm:"not null"`
	Allergies   *string        `json:"allergies"`
	MedicalNote *string        `json:"medical_note"`
	ParentID    uint           `json:"parent_id" gorm:"not null;index"`
	Parent      *Parent        `json:"parent,omitempty" gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Bookings    []Booking      `json:"bookings,omitempty"`
}

func (c Child) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Born returns the birth date as a time.Time at midnight UTC.
func (c Child) Born() time.Time {
	t := time.Time(c.BirthDate)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
