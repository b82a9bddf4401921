package types

import (
	"time"

	"github.com/google/uuid"
)

type Employee struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ExternalID  string    `gorm:"uniqueIndex;not null;column:external_id" json:"external_id"`
	DisplayName string    `gorm:"not null;column:display_name" json:"display_name"`
	Notes       string    `gorm:"type:text;column:notes" json:"notes,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Employee) TableName() string {
	return "employees"
}
