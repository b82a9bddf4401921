package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/types"
)

type EmployeeRepo interface {
	Create(ctx context.Context, tx *gorm.DB, employee *types.Employee) (*types.Employee, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Employee, error)
	GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*types.Employee, error)
}

type employeeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEmployeeRepo(db *gorm.DB, baseLog *logger.Logger) EmployeeRepo {
	repoLog := baseLog.With("repo", "EmployeeRepo")
	return &employeeRepo{db: db, log: repoLog}
}

func (r *employeeRepo) Create(ctx context.Context, tx *gorm.DB, employee *types.Employee) (*types.Employee, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(employee).Error; err != nil {
		return nil, err
	}
	return employee, nil
}

func (r *employeeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Employee, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Employee
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *employeeRepo) GetByExternalID(ctx context.Context, tx *gorm.DB, externalID string) (*types.Employee, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Employee
	if err := transaction.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}
