package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/pkg/apperrors"
	"github.com/veralith/clienteling-backend/internal/types"
)

// MemoryNearestSQL ranks one customer's memories by cosine distance.
// Memories are non-biometric derived text, so there is no consent join here;
// only face search carries the consent gate.
const MemoryNearestSQL = `
SELECT
    m.id,
    m.customer_id,
    m.nugget,
    m.model_name,
    m.source_session_id,
    m.created_at,
    m.embedding <=> ? AS distance
FROM customer_memory m
WHERE m.customer_id = ?
ORDER BY m.embedding <=> ?
LIMIT ?`

// MemoryNearestGlobalSQL ranks memories across all customers.
const MemoryNearestGlobalSQL = `
SELECT
    m.id,
    m.customer_id,
    m.nugget,
    m.model_name,
    m.source_session_id,
    m.created_at,
    m.embedding <=> ? AS distance
FROM customer_memory m
ORDER BY m.embedding <=> ?
LIMIT ?`

type MemoryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, memory *types.CustomerMemory) (*types.CustomerMemory, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CustomerMemory, error)
	SearchNearest(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, query pgvector.Vector, limit int) ([]types.MemoryMatch, error)
	SearchNearestGlobal(ctx context.Context, tx *gorm.DB, query pgvector.Vector, limit int) ([]types.MemoryMatch, error)
	CountByCustomerID(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (int64, error)
}

type memoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMemoryRepo(db *gorm.DB, baseLog *logger.Logger) MemoryRepo {
	repoLog := baseLog.With("repo", "MemoryRepo")
	return &memoryRepo{db: db, log: repoLog}
}

func (r *memoryRepo) Create(ctx context.Context, tx *gorm.DB, memory *types.CustomerMemory) (*types.CustomerMemory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(memory).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrAlreadyRecorded
		}
		return nil, err
	}
	return memory, nil
}

func (r *memoryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CustomerMemory, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.CustomerMemory
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *memoryRepo) SearchNearest(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, query pgvector.Vector, limit int) ([]types.MemoryMatch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []types.MemoryMatch
	if err := transaction.WithContext(ctx).
		Raw(MemoryNearestSQL, query, customerID, query, limit).
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *memoryRepo) SearchNearestGlobal(ctx context.Context, tx *gorm.DB, query pgvector.Vector, limit int) ([]types.MemoryMatch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []types.MemoryMatch
	if err := transaction.WithContext(ctx).
		Raw(MemoryNearestGlobalSQL, query, query, limit).
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *memoryRepo) CountByCustomerID(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.CustomerMemory{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
