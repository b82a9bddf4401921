package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/types"
)

type TranscriptChunkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chunks []*types.TranscriptChunk) ([]*types.TranscriptChunk, error)
	GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]types.TranscriptChunk, error)
	CountBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error)
}

type transcriptChunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTranscriptChunkRepo(db *gorm.DB, baseLog *logger.Logger) TranscriptChunkRepo {
	repoLog := baseLog.With("repo", "TranscriptChunkRepo")
	return &transcriptChunkRepo{db: db, log: repoLog}
}

func (r *transcriptChunkRepo) Create(ctx context.Context, tx *gorm.DB, chunks []*types.TranscriptChunk) ([]*types.TranscriptChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(chunks) == 0 {
		return []*types.TranscriptChunk{}, nil
	}

	// Keep batches small because Content can be large.
	const batchSize = 100

	if err := transaction.WithContext(ctx).CreateInBatches(chunks, batchSize).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *transcriptChunkRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]types.TranscriptChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []types.TranscriptChunk
	if err := transaction.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("chunk_index ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *transcriptChunkRepo) CountBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.TranscriptChunk{}).
		Where("session_id = ?", sessionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
