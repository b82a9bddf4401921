package types

import (
	"time"

	"github.com/google/uuid"
)

// Customer owns its face embeddings, memories, and preferences; deleting a
// customer cascades to all three. Sessions only reference a customer and keep
// their rows (customer_id set NULL) when the customer is erased.
type Customer struct {
	ID                   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ExternalID           string    `gorm:"uniqueIndex;not null;column:external_id" json:"external_id"`
	DisplayName          string    `gorm:"not null;column:display_name" json:"display_name"`
	Notes                string    `gorm:"type:text;column:notes" json:"notes,omitempty"`
	ConsentForBiometrics bool      `gorm:"not null;default:false;column:consent_for_biometrics" json:"consent_for_biometrics"`
	CreatedAt            time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt            time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}
