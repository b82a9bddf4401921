package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Session records one employee/customer interaction. CustomerID is nullable:
// opt-out clears it and the session row stays for analytics.
type Session struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EmployeeID uuid.UUID      `gorm:"type:uuid;not null;index;column:employee_id" json:"employee_id"`
	CustomerID *uuid.UUID     `gorm:"type:uuid;index;column:customer_id" json:"customer_id,omitempty"`
	SessionKey string         `gorm:"uniqueIndex;not null;column:session_key" json:"session_key"`
	Metadata   datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Session) TableName() string {
	return "sessions"
}
