package types

import (
	"time"

	"github.com/google/uuid"
)

// FaceMatch is one row of a consent-gated face nearest-neighbor search.
// Distance is cosine distance (lower is more similar).
type FaceMatch struct {
	CustomerID  uuid.UUID `json:"customer_id"`
	ExternalID  string    `json:"external_id"`
	DisplayName string    `json:"display_name"`
	EmbeddingID uuid.UUID `json:"embedding_id"`
	Distance    float64   `json:"distance"`
}

// MemoryMatch is one row of a memory nearest-neighbor search.
type MemoryMatch struct {
	ID              uuid.UUID  `json:"id"`
	CustomerID      uuid.UUID  `json:"customer_id"`
	Nugget          string     `json:"nugget"`
	ModelName       string     `json:"model_name"`
	SourceSessionID *uuid.UUID `json:"source_session_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	Distance        float64    `json:"distance"`
}

// CustomerContext is the consolidated read view of one customer, assembled at
// a single snapshot.
type CustomerContext struct {
	Profile        *Customer            `json:"profile"`
	Preferences    []CustomerPreference `json:"preferences"`
	RecentSessions []Session            `json:"recent_sessions"`
}

// ErasureReport acknowledges an opt-out. RemainingOwnedRows comes from the
// post-commit audit and must be zero.
type ErasureReport struct {
	CustomerID         uuid.UUID `json:"customer_id"`
	CustomerExisted    bool      `json:"customer_existed"`
	SessionsDetached   int64     `json:"sessions_detached"`
	RemainingOwnedRows int64     `json:"remaining_owned_rows"`
}
