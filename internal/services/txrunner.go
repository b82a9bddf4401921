package services

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// TxRunner scopes one logical operation to one database transaction. Services
// depend on it instead of *gorm.DB directly so tests can run the callback
// without a database.
type TxRunner interface {
	// Transaction runs fn inside a read-write transaction with default
	// isolation; commit on nil, rollback on error.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	// ReadSnapshot runs fn inside a read-only REPEATABLE READ transaction so
	// multi-part reads observe one consistent point in time.
	ReadSnapshot(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *gormTxRunner) ReadSnapshot(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
}
