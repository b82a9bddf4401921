package types

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptChunk is an ordered text fragment of one session. Ordering is by
// ChunkIndex, not creation time.
type TranscriptChunk struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SessionID  uuid.UUID `gorm:"type:uuid;not null;index;column:session_id" json:"session_id"`
	ChunkIndex int       `gorm:"not null;column:chunk_index" json:"chunk_index"`
	Content    string    `gorm:"type:text;not null;column:content" json:"content"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (TranscriptChunk) TableName() string {
	return "transcript_chunks"
}
