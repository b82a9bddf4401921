package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/veralith/clienteling-backend/internal/config"
	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/pkg/apperrors"
	"github.com/veralith/clienteling-backend/internal/repos"
	"github.com/veralith/clienteling-backend/internal/types"
)

// SearchService runs the nearest-neighbor paths. All validation happens here,
// before any query executes. Face search is consent-gated inside its SQL;
// memory search deliberately is not (memories are modeled as non-biometric).
type SearchService interface {
	SearchFaces(ctx context.Context, query []float32, limit int) ([]types.FaceMatch, error)
	// SearchMemories is scoped to one customer when customerID is non-nil,
	// global otherwise.
	SearchMemories(ctx context.Context, customerID *uuid.UUID, query []float32, limit int) ([]types.MemoryMatch, error)
}

type searchService struct {
	log        *logger.Logger
	faceRepo   repos.FaceEmbeddingRepo
	memoryRepo repos.MemoryRepo
	faceDim    int
	textDim    int
	limitCap   int
}

func NewSearchService(log *logger.Logger, cfg config.Config, faceRepo repos.FaceEmbeddingRepo, memoryRepo repos.MemoryRepo) SearchService {
	serviceLog := log.With("service", "SearchService")
	return &searchService{
		log:        serviceLog,
		faceRepo:   faceRepo,
		memoryRepo: memoryRepo,
		faceDim:    cfg.FaceEmbeddingDim,
		textDim:    cfg.TextEmbeddingDim,
		limitCap:   cfg.SearchLimitCap,
	}
}

func (s *searchService) validate(query []float32, wantDim, limit int) error {
	if len(query) != wantDim {
		return fmt.Errorf("%w: query vector has dimension %d, expected %d", apperrors.ErrInvalidArgument, len(query), wantDim)
	}
	if limit < 1 || limit > s.limitCap {
		return fmt.Errorf("%w: limit %d outside [1, %d]", apperrors.ErrInvalidArgument, limit, s.limitCap)
	}
	return nil
}

func (s *searchService) SearchFaces(ctx context.Context, query []float32, limit int) ([]types.FaceMatch, error) {
	if err := s.validate(query, s.faceDim, limit); err != nil {
		return nil, err
	}
	matches, err := s.faceRepo.SearchNearest(ctx, nil, pgvector.NewVector(query), limit)
	if err != nil {
		s.log.Error("Face nearest-neighbor search failed", "limit", limit, "error", err)
		return nil, fmt.Errorf("face search: %w", err)
	}
	s.log.Debug("Face search complete", "limit", limit, "matches", len(matches))
	return matches, nil
}

func (s *searchService) SearchMemories(ctx context.Context, customerID *uuid.UUID, query []float32, limit int) ([]types.MemoryMatch, error) {
	if err := s.validate(query, s.textDim, limit); err != nil {
		return nil, err
	}
	if customerID != nil && *customerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer id must not be the zero uuid", apperrors.ErrInvalidArgument)
	}

	var (
		matches []types.MemoryMatch
		err     error
	)
	if customerID != nil {
		matches, err = s.memoryRepo.SearchNearest(ctx, nil, *customerID, pgvector.NewVector(query), limit)
	} else {
		matches, err = s.memoryRepo.SearchNearestGlobal(ctx, nil, pgvector.NewVector(query), limit)
	}
	if err != nil {
		s.log.Error("Memory nearest-neighbor search failed", "scoped", customerID != nil, "limit", limit, "error", err)
		return nil, fmt.Errorf("memory search: %w", err)
	}
	s.log.Debug("Memory search complete", "scoped", customerID != nil, "limit", limit, "matches", len(matches))
	return matches, nil
}
