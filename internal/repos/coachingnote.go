package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/types"
)

type CoachingNoteRepo interface {
	Create(ctx context.Context, tx *gorm.DB, note *types.CoachingNote) (*types.CoachingNote, error)
	GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]types.CoachingNote, error)
}

type coachingNoteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCoachingNoteRepo(db *gorm.DB, baseLog *logger.Logger) CoachingNoteRepo {
	repoLog := baseLog.With("repo", "CoachingNoteRepo")
	return &coachingNoteRepo{db: db, log: repoLog}
}

func (r *coachingNoteRepo) Create(ctx context.Context, tx *gorm.DB, note *types.CoachingNote) (*types.CoachingNote, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(note).Error; err != nil {
		return nil, err
	}
	return note, nil
}

func (r *coachingNoteRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]types.CoachingNote, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []types.CoachingNote
	if err := transaction.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
