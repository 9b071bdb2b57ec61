package models

import (
	"errors"

	"gorm.io/gorm"
)

// ErrParentHasChildren is returned when deleting a parent that still owns children.
var ErrParentHasChildren = errors.New("parent still has registered children")

type Parent struct {
	gorm.Model
	FirstName   string  `json:"first_name" gorm:"not null"`
	LastName    string  `json:"last_name" gorm:"not null"`
	Email       string  `json:"email" gorm:"uniqueIndex;not null"`
	Phone       string  `json:"phone"`
	Password    string  `json:"-"`
	DiscordID   *string `json:"-" gorm:"uniqueIndex"`
	NotifyEmail bool    `json:"notify_email"`
	NotifySMS   bool    `json:"notify_sms"`
}

func (p Parent) FullName() string {
	return p.FirstName + " " + p.LastName
}

// BeforeDelete blocks the (soft) delete while children reference the parent;
// the foreign key alone does not catch soft deletes.
func (p *Parent) BeforeDelete(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&Child{}).Where("parent_id = ?", p.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrParentHasChildren
	}
	return nil
}
