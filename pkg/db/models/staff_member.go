package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StaffMember is a counter operator allowed to authorize compensations with a PIN.
type StaffMember struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	DisplayName string    `gorm:"column:display_name;not null"`
	PinHash     string    `gorm:"column:pin_hash;not null"`
	Active      bool      `gorm:"column:active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (s *StaffMember) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
