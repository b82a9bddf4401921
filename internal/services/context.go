package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/veralith/clienteling-backend/internal/config"
	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/pkg/apperrors"
	"github.com/veralith/clienteling-backend/internal/repos"
	"github.com/veralith/clienteling-backend/internal/types"
)

// ContextService assembles the consolidated read view of one customer:
// profile, preferences, and recent sessions, all read at a single snapshot so
// a concurrent erasure is seen entirely or not at all.
type ContextService interface {
	// GetCustomerContext returns the aggregate or apperrors.ErrNotFound.
	// sessionsLimit of 0 applies the configured default.
	GetCustomerContext(ctx context.Context, customerID uuid.UUID, sessionsLimit int) (*types.CustomerContext, error)
}

type contextService struct {
	log             *logger.Logger
	txRunner        TxRunner
	cache           ContextCache
	customerRepo    repos.CustomerRepo
	preferenceRepo  repos.PreferenceRepo
	sessionRepo     repos.SessionRepo
	defaultSessions int
	limitCap        int
}

func NewContextService(
	log *logger.Logger,
	cfg config.Config,
	txRunner TxRunner,
	cache ContextCache,
	customerRepo repos.CustomerRepo,
	preferenceRepo repos.PreferenceRepo,
	sessionRepo repos.SessionRepo,
) ContextService {
	serviceLog := log.With("service", "ContextService")
	return &contextService{
		log:             serviceLog,
		txRunner:        txRunner,
		cache:           cache,
		customerRepo:    customerRepo,
		preferenceRepo:  preferenceRepo,
		sessionRepo:     sessionRepo,
		defaultSessions: cfg.DefaultSessionsLimit,
		limitCap:        cfg.SearchLimitCap,
	}
}

func (s *contextService) GetCustomerContext(ctx context.Context, customerID uuid.UUID, sessionsLimit int) (*types.CustomerContext, error) {
	if customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer id is required", apperrors.ErrInvalidArgument)
	}
	if sessionsLimit == 0 {
		sessionsLimit = s.defaultSessions
	}
	if sessionsLimit < 1 || sessionsLimit > s.limitCap {
		return nil, fmt.Errorf("%w: sessions limit %d outside [1, %d]", apperrors.ErrInvalidArgument, sessionsLimit, s.limitCap)
	}

	// Only the default-limit shape is cached; a different limit changes the
	// recent-sessions slice, so those reads go straight to the database.
	useCache := sessionsLimit == s.defaultSessions
	if useCache {
		if cached, ok := s.cache.Get(ctx, customerID); ok {
			s.log.Debug("Customer context served from cache", "customer_id", customerID)
			return cached, nil
		}
	}

	var aggregate types.CustomerContext
	err := s.txRunner.ReadSnapshot(ctx, func(tx *gorm.DB) error {
		profile, err := s.customerRepo.GetByID(ctx, tx, customerID)
		if err != nil {
			if repos.IsNotFound(err) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("load customer profile: %w", err)
		}
		prefs, err := s.preferenceRepo.GetByCustomerID(ctx, tx, customerID)
		if err != nil {
			return fmt.Errorf("load customer preferences: %w", err)
		}
		sessions, err := s.sessionRepo.GetRecentByCustomerID(ctx, tx, customerID, sessionsLimit)
		if err != nil {
			return fmt.Errorf("load recent sessions: %w", err)
		}
		aggregate = types.CustomerContext{
			Profile:        profile,
			Preferences:    prefs,
			RecentSessions: sessions,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if useCache {
		s.cache.Set(ctx, customerID, &aggregate)
	}
	return &aggregate, nil
}
