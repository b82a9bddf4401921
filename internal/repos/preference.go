package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/types"
)

type PreferenceRepo interface {
	Create(ctx context.Context, tx *gorm.DB, pref *types.CustomerPreference) (*types.CustomerPreference, error)
	GetByCustomerID(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) ([]types.CustomerPreference, error)
	CountByCustomerID(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (int64, error)
}

type preferenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPreferenceRepo(db *gorm.DB, baseLog *logger.Logger) PreferenceRepo {
	repoLog := baseLog.With("repo", "PreferenceRepo")
	return &preferenceRepo{db: db, log: repoLog}
}

func (r *preferenceRepo) Create(ctx context.Context, tx *gorm.DB, pref *types.CustomerPreference) (*types.CustomerPreference, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(pref).Error; err != nil {
		return nil, err
	}
	return pref, nil
}

func (r *preferenceRepo) GetByCustomerID(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) ([]types.CustomerPreference, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []types.CustomerPreference
	if err := transaction.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *preferenceRepo) CountByCustomerID(ctx context.Context, tx *gorm.DB, customerID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.CustomerPreference{}).
		Where("customer_id = ?", customerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
