package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/pkg/apperrors"
	"github.com/veralith/clienteling-backend/internal/repos"
	"github.com/veralith/clienteling-backend/internal/types"
)

// ConsentService owns the opt-out sequence and plain consent updates.
//
// Opt-out runs as one transaction: detach every session referencing the
// customer, then delete the customer row. The schema's cascade rules remove
// every owned face embedding, memory, and preference with that delete; the
// detach must come first because sessions only reference the customer and must
// survive. No reader can observe the detach without the delete or the delete
// without the detach.
type ConsentService interface {
	// OptOut erases the customer. Idempotent: erasing an id that no longer
	// exists succeeds with CustomerExisted=false.
	OptOut(ctx context.Context, customerID uuid.UUID) (*types.ErasureReport, error)
	// UpdateConsent sets the biometric consent flag without erasing anything.
	UpdateConsent(ctx context.Context, customerID uuid.UUID, consent bool) error
}

type consentService struct {
	log            *logger.Logger
	txRunner       TxRunner
	cache          ContextCache
	customerRepo   repos.CustomerRepo
	sessionRepo    repos.SessionRepo
	faceRepo       repos.FaceEmbeddingRepo
	memoryRepo     repos.MemoryRepo
	preferenceRepo repos.PreferenceRepo
}

func NewConsentService(
	log *logger.Logger,
	txRunner TxRunner,
	cache ContextCache,
	customerRepo repos.CustomerRepo,
	sessionRepo repos.SessionRepo,
	faceRepo repos.FaceEmbeddingRepo,
	memoryRepo repos.MemoryRepo,
	preferenceRepo repos.PreferenceRepo,
) ConsentService {
	serviceLog := log.With("service", "ConsentService")
	return &consentService{
		log:            serviceLog,
		txRunner:       txRunner,
		cache:          cache,
		customerRepo:   customerRepo,
		sessionRepo:    sessionRepo,
		faceRepo:       faceRepo,
		memoryRepo:     memoryRepo,
		preferenceRepo: preferenceRepo,
	}
}

func (s *consentService) OptOut(ctx context.Context, customerID uuid.UUID) (*types.ErasureReport, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer id is required", apperrors.ErrInvalidArgument)
	}

	var detached, deleted int64
	err := s.txRunner.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		detached, err = s.sessionRepo.DetachCustomer(ctx, tx, customerID)
		if err != nil {
			return fmt.Errorf("detach sessions: %w", err)
		}
		deleted, err = s.customerRepo.Delete(ctx, tx, customerID)
		if err != nil {
			return fmt.Errorf("delete customer: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("Opt-out transaction rolled back", "customer_id", customerID, "error", err)
		return nil, err
	}

	// The delete is committed. A cache purge failure must not read as
	// success: the caller retries the whole opt-out, which re-runs the purge
	// against an already-erased customer.
	if err := s.cache.Purge(ctx, customerID); err != nil {
		s.log.Error("Context cache purge failed after committed erasure", "customer_id", customerID, "error", err)
		return nil, err
	}

	remaining, err := s.auditErasure(ctx, customerID)
	if err != nil {
		s.log.Error("Erasure audit failed", "customer_id", customerID, "error", err)
		return nil, err
	}
	report := &types.ErasureReport{
		CustomerID:         customerID,
		CustomerExisted:    deleted > 0,
		SessionsDetached:   detached,
		RemainingOwnedRows: remaining,
	}
	if remaining > 0 {
		// Cascades are schema-enforced; rows surviving the delete mean the
		// constraints are not in place.
		s.log.Error("Erasure left owned rows behind", "customer_id", customerID, "remaining", remaining)
		return report, fmt.Errorf("erasure incomplete: %d owned rows remain for customer %s", remaining, customerID)
	}

	s.log.Info("Customer erased",
		"customer_id", customerID,
		"customer_existed", report.CustomerExisted,
		"sessions_detached", detached)
	return report, nil
}

// auditErasure re-counts the rows the cascade should have removed. The three
// counts are independent post-commit reads and run in parallel.
func (s *consentService) auditErasure(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var faces, memories, prefs int64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		faces, err = s.faceRepo.CountByCustomerID(gctx, nil, customerID)
		return err
	})
	g.Go(func() error {
		var err error
		memories, err = s.memoryRepo.CountByCustomerID(gctx, nil, customerID)
		return err
	})
	g.Go(func() error {
		var err error
		prefs, err = s.preferenceRepo.CountByCustomerID(gctx, nil, customerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("erasure audit: %w", err)
	}
	return faces + memories + prefs, nil
}

func (s *consentService) UpdateConsent(ctx context.Context, customerID uuid.UUID, consent bool) error {
	if customerID == uuid.Nil {
		return fmt.Errorf("%w: customer id is required", apperrors.ErrInvalidArgument)
	}
	rows, err := s.customerRepo.UpdateConsent(ctx, nil, customerID, consent)
	if err != nil {
		return fmt.Errorf("update consent: %w", err)
	}
	if rows == 0 {
		return apperrors.ErrNotFound
	}
	// The cached aggregate carries the consent flag.
	if err := s.cache.Purge(ctx, customerID); err != nil {
		s.log.Error("Context cache purge failed after consent update", "customer_id", customerID, "error", err)
		return err
	}
	s.log.Info("Consent updated", "customer_id", customerID, "consent_for_biometrics", consent)
	return nil
}
