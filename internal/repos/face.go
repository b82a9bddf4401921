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

// FaceNearestSQL ranks face embeddings by cosine distance to the query. The
// consent filter is part of the query itself, not a post-filter: a customer
// with revoked consent never occupies a slot in the top-k and never appears in
// a row, however close the match.
const FaceNearestSQL = `
SELECT
    c.id AS customer_id,
    c.external_id,
    c.display_name,
    f.id AS embedding_id,
    f.embedding <=> ? AS distance
FROM customer_face_embeddings f
JOIN customers c ON c.id = f.customer_id
WHERE c.consent_for_biometrics = true
ORDER BY f.embedding <=> ?
LIMIT ?`

type FaceEmbeddingRepo interface {
	// Create stores one embedding. A duplicate idempotency hash means the
	// submission was already recorded and is reported as such.
	Create(ctx context.Context, tx *gorm.DB, embedding *types.CustomerFaceEmbedding) (*types.CustomerFaceEmbedding, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CustomerFaceEmbedding, error)
	SearchNearest(ctx context.Context, tx *gorm.DB, query pgvector.Vector, limit int) ([]types.FaceMatch, error)
	CountByCustomerID(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (int64, error)
}

type faceEmbeddingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFaceEmbeddingRepo(db *gorm.DB, baseLog *logger.Logger) FaceEmbeddingRepo {
	repoLog := baseLog.With("repo", "FaceEmbeddingRepo")
	return &faceEmbeddingRepo{db: db, log: repoLog}
}

func (r *faceEmbeddingRepo) Create(ctx context.Context, tx *gorm.DB, embedding *types.CustomerFaceEmbedding) (*types.CustomerFaceEmbedding, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(embedding).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.ErrAlreadyRecorded
		}
		return nil, err
	}
	return embedding, nil
}

func (r *faceEmbeddingRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.CustomerFaceEmbedding, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.CustomerFaceEmbedding
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *faceEmbeddingRepo) SearchNearest(ctx context.Context, tx *gorm.DB, query pgvector.Vector, limit int) ([]types.FaceMatch, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []types.FaceMatch
	if err := transaction.WithContext(ctx).
		Raw(FaceNearestSQL, query, query, limit).
		Scan(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *faceEmbeddingRepo) CountByCustomerID(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.CustomerFaceEmbedding{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
