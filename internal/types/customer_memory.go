package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// TextEmbeddingDim is the width of the memory embedding vector column.
const TextEmbeddingDim = 1536

// CustomerMemory is a short natural-language nugget plus its text embedding.
// Memories are modeled as non-biometric derived data; memory search is not
// consent-gated, face search is.
type CustomerMemory struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index;column:customer_id" json:"customer_id"`
	Nugget          string          `gorm:"type:text;not null;column:nugget" json:"nugget"`
	ModelName       string          `gorm:"not null;column:model_name" json:"model_name"`
	SourceSessionID *uuid.UUID      `gorm:"type:uuid;index;column:source_session_id" json:"source_session_id,omitempty"`
	IdempotencyHash *string         `gorm:"uniqueIndex;column:idempotency_hash" json:"-"`
	Embedding       pgvector.Vector `gorm:"type:vector(1536);not null;column:embedding" json:"embedding"`
	CreatedAt       time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;default:now()" json:"updated_at"`
}

func (CustomerMemory) TableName() string {
	return "customer_memory"
}
