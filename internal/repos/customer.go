package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/types"
)

type CustomerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, customer *types.Customer) (*types.Customer, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Customer, error)
	GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*types.Customer, error)
	// UpdateConsent flips the biometric consent flag. Returns the number of
	// rows updated (0 means the customer does not exist).
	UpdateConsent(ctx context.Context, tx *gorm.DB, id uuid.UUID, consent bool) (int64, error)
	// Delete removes the customer row; the schema cascades the delete to all
	// owned face embeddings, memories, and preferences. Returns rows deleted.
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
}

type customerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCustomerRepo(db *gorm.DB, baseLog *logger.Logger) CustomerRepo {
	repoLog := baseLog.With("repo", "CustomerRepo")
	return &customerRepo{db: db, log: repoLog}
}

func (r *customerRepo) Create(ctx context.Context, tx *gorm.DB, customer *types.Customer) (*types.Customer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}
	return customer, nil
}

func (r *customerRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Customer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Customer
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *customerRepo) GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*types.Customer, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Customer
	if err := transaction.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *customerRepo) UpdateConsent(ctx context.Context, tx *gorm.DB, id uuid.UUID, consent bool) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.Customer{}).
		Where("id = ?", id).
		Update("consent_for_biometrics", consent)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *customerRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Customer{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// IsNotFound reports whether err is gorm's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
