package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// FaceEmbeddingDim is the width of the face embedding vector column. The
// configured dimension must match it; the column width is fixed at migration
// time.
const FaceEmbeddingDim = 512

// CustomerFaceEmbedding is biometric data. It is only ever returned through
// the consent-gated search path and is cascade-deleted with its customer.
type CustomerFaceEmbedding struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index;column:customer_id" json:"customer_id"`
	SourceSessionID *uuid.UUID      `gorm:"type:uuid;index;column:source_session_id" json:"source_session_id,omitempty"`
	ModelName       string          `gorm:"not null;column:model_name" json:"model_name"`
	IdempotencyHash *string         `gorm:"uniqueIndex;column:idempotency_hash" json:"-"`
	Embedding       pgvector.Vector `gorm:"type:vector(512);not null;column:embedding" json:"embedding"`
	CreatedAt       time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;default:now()" json:"updated_at"`
}

func (CustomerFaceEmbedding) TableName() string {
	return "customer_face_embeddings"
}
