package types

import (
	"time"

	"github.com/google/uuid"
)

// CustomerPreference is a structured like/dislike style record. No vector.
type CustomerPreference struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CustomerID      uuid.UUID  `gorm:"type:uuid;not null;index;column:customer_id" json:"customer_id"`
	Kind            string     `gorm:"not null;column:kind" json:"kind"`
	Category        string     `gorm:"column:category" json:"category,omitempty"`
	Value           string     `gorm:"type:text;not null;column:value" json:"value"`
	SourceSessionID *uuid.UUID `gorm:"type:uuid;column:source_session_id" json:"source_session_id,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (CustomerPreference) TableName() string {
	return "customer_preferences"
}
