package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"

	"github.com/veralith/clienteling-backend/internal/config"
	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/pkg/apperrors"
	"github.com/veralith/clienteling-backend/internal/repos"
	"github.com/veralith/clienteling-backend/internal/types"
)

// IngestionService is the upstream write path: profiles, sessions,
// transcripts, and the derived rows (embeddings, memories, preferences).
// Embeddings and attributes arrive already computed; this layer validates
// shape, writes, and maps idempotency-hash collisions to ErrAlreadyRecorded.
type IngestionService interface {
	CreateEmployee(ctx context.Context, input EmployeeInput) (*types.Employee, error)
	CreateCustomer(ctx context.Context, input CustomerInput) (*types.Customer, error)
	CreateSession(ctx context.Context, input SessionInput) (*types.Session, error)
	AppendTranscript(ctx context.Context, sessionID uuid.UUID, chunks []TranscriptChunkInput) ([]*types.TranscriptChunk, error)
	AddCoachingNote(ctx context.Context, sessionID uuid.UUID, content string) (*types.CoachingNote, error)
	RecordFaceEmbedding(ctx context.Context, input FaceEmbeddingInput) (*types.CustomerFaceEmbedding, error)
	RecordMemory(ctx context.Context, input MemoryInput) (*types.CustomerMemory, error)
	RecordPreference(ctx context.Context, input PreferenceInput) (*types.CustomerPreference, error)
}

type EmployeeInput struct {
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
	Notes       string `json:"notes"`
}

type CustomerInput struct {
	ExternalID           string `json:"external_id"`
	DisplayName          string `json:"display_name"`
	Notes                string `json:"notes"`
	ConsentForBiometrics bool   `json:"consent_for_biometrics"`
}

type SessionInput struct {
	EmployeeID uuid.UUID      `json:"employee_id"`
	CustomerID *uuid.UUID     `json:"customer_id"`
	SessionKey string         `json:"session_key"`
	Metadata   map[string]any `json:"metadata"`
}

type TranscriptChunkInput struct {
	ChunkIndex int    `json:"chunk_index"`
	Content    string `json:"content"`
}

type FaceEmbeddingInput struct {
	CustomerID      uuid.UUID  `json:"customer_id"`
	SourceSessionID *uuid.UUID `json:"source_session_id"`
	ModelName       string     `json:"model_name"`
	IdempotencyHash string     `json:"idempotency_hash"`
	Embedding       []float32  `json:"embedding"`
}

type MemoryInput struct {
	CustomerID      uuid.UUID  `json:"customer_id"`
	SourceSessionID *uuid.UUID `json:"source_session_id"`
	Nugget          string     `json:"nugget"`
	ModelName       string     `json:"model_name"`
	IdempotencyHash string     `json:"idempotency_hash"`
	Embedding       []float32  `json:"embedding"`
}

type PreferenceInput struct {
	CustomerID      uuid.UUID  `json:"customer_id"`
	SourceSessionID *uuid.UUID `json:"source_session_id"`
	Kind            string     `json:"kind"`
	Category        string     `json:"category"`
	Value           string     `json:"value"`
}

type ingestionService struct {
	log            *logger.Logger
	employeeRepo   repos.EmployeeRepo
	customerRepo   repos.CustomerRepo
	sessionRepo    repos.SessionRepo
	transcriptRepo repos.TranscriptChunkRepo
	noteRepo       repos.CoachingNoteRepo
	faceRepo       repos.FaceEmbeddingRepo
	memoryRepo     repos.MemoryRepo
	preferenceRepo repos.PreferenceRepo
	faceDim        int
	textDim        int
}

func NewIngestionService(
	log *logger.Logger,
	cfg config.Config,
	employeeRepo repos.EmployeeRepo,
	customerRepo repos.CustomerRepo,
	sessionRepo repos.SessionRepo,
	transcriptRepo repos.TranscriptChunkRepo,
	noteRepo repos.CoachingNoteRepo,
	faceRepo repos.FaceEmbeddingRepo,
	memoryRepo repos.MemoryRepo,
	preferenceRepo repos.PreferenceRepo,
) IngestionService {
	serviceLog := log.With("service", "IngestionService")
	return &ingestionService{
		log:            serviceLog,
		employeeRepo:   employeeRepo,
		customerRepo:   customerRepo,
		sessionRepo:    sessionRepo,
		transcriptRepo: transcriptRepo,
		noteRepo:       noteRepo,
		faceRepo:       faceRepo,
		memoryRepo:     memoryRepo,
		preferenceRepo: preferenceRepo,
		faceDim:        cfg.FaceEmbeddingDim,
		textDim:        cfg.TextEmbeddingDim,
	}
}

func (s *ingestionService) CreateEmployee(ctx context.Context, input EmployeeInput) (*types.Employee, error) {
	if strings.TrimSpace(input.ExternalID) == "" || strings.TrimSpace(input.DisplayName) == "" {
		return nil, fmt.Errorf("%w: employee external_id and display_name are required", apperrors.ErrInvalidArgument)
	}
	return s.employeeRepo.Create(ctx, nil, &types.Employee{
		ExternalID:  input.ExternalID,
		DisplayName: input.DisplayName,
		Notes:       input.Notes,
	})
}

func (s *ingestionService) CreateCustomer(ctx context.Context, input CustomerInput) (*types.Customer, error) {
	if strings.TrimSpace(input.ExternalID) == "" || strings.TrimSpace(input.DisplayName) == "" {
		return nil, fmt.Errorf("%w: customer external_id and display_name are required", apperrors.ErrInvalidArgument)
	}
	return s.customerRepo.Create(ctx, nil, &types.Customer{
		ExternalID:           input.ExternalID,
		DisplayName:          input.DisplayName,
		Notes:                input.Notes,
		ConsentForBiometrics: input.ConsentForBiometrics,
	})
}

func (s *ingestionService) CreateSession(ctx context.Context, input SessionInput) (*types.Session, error) {
	if input.EmployeeID == uuid.Nil {
		return nil, fmt.Errorf("%w: session employee_id is required", apperrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(input.SessionKey) == "" {
		return nil, fmt.Errorf("%w: session_key is required", apperrors.ErrInvalidArgument)
	}
	session := &types.Session{
		EmployeeID: input.EmployeeID,
		CustomerID: input.CustomerID,
		SessionKey: input.SessionKey,
	}
	if input.Metadata != nil {
		raw, err := json.Marshal(input.Metadata)
		if err != nil {
			return nil, fmt.Errorf("%w: session metadata is not encodable: %v", apperrors.ErrInvalidArgument, err)
		}
		session.Metadata = datatypes.JSON(raw)
	}
	return s.sessionRepo.Create(ctx, nil, session)
}

func (s *ingestionService) AppendTranscript(ctx context.Context, sessionID uuid.UUID, chunks []TranscriptChunkInput) ([]*types.TranscriptChunk, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidArgument)
	}
	records := make([]*types.TranscriptChunk, 0, len(chunks))
	for _, chunk := range chunks {
		if chunk.ChunkIndex < 0 {
			return nil, fmt.Errorf("%w: chunk_index must be non-negative", apperrors.ErrInvalidArgument)
		}
		if chunk.Content == "" {
			return nil, fmt.Errorf("%w: chunk content must not be empty", apperrors.ErrInvalidArgument)
		}
		records = append(records, &types.TranscriptChunk{
			SessionID:  sessionID,
			ChunkIndex: chunk.ChunkIndex,
			Content:    chunk.Content,
		})
	}
	return s.transcriptRepo.Create(ctx, nil, records)
}

func (s *ingestionService) AddCoachingNote(ctx context.Context, sessionID uuid.UUID, content string) (*types.CoachingNote, error) {
	if sessionID == uuid.Nil {
		return nil, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: note content must not be empty", apperrors.ErrInvalidArgument)
	}
	return s.noteRepo.Create(ctx, nil, &types.CoachingNote{
		SessionID: sessionID,
		Content:   content,
	})
}

func (s *ingestionService) RecordFaceEmbedding(ctx context.Context, input FaceEmbeddingInput) (*types.CustomerFaceEmbedding, error) {
	if input.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer id is required", apperrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(input.ModelName) == "" {
		return nil, fmt.Errorf("%w: model_name is required", apperrors.ErrInvalidArgument)
	}
	if len(input.Embedding) != s.faceDim {
		return nil, fmt.Errorf("%w: face embedding has dimension %d, expected %d", apperrors.ErrInvalidArgument, len(input.Embedding), s.faceDim)
	}
	record := &types.CustomerFaceEmbedding{
		CustomerID:      input.CustomerID,
		SourceSessionID: input.SourceSessionID,
		ModelName:       input.ModelName,
		IdempotencyHash: optionalHash(input.IdempotencyHash),
		Embedding:       pgvector.NewVector(input.Embedding),
	}
	created, err := s.faceRepo.Create(ctx, nil, record)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyRecorded) {
			s.log.Debug("Face embedding already recorded", "customer_id", input.CustomerID, "idempotency_hash", input.IdempotencyHash)
		}
		return nil, err
	}
	return created, nil
}

func (s *ingestionService) RecordMemory(ctx context.Context, input MemoryInput) (*types.CustomerMemory, error) {
	if input.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer id is required", apperrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(input.Nugget) == "" {
		return nil, fmt.Errorf("%w: memory nugget must not be empty", apperrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(input.ModelName) == "" {
		return nil, fmt.Errorf("%w: model_name is required", apperrors.ErrInvalidArgument)
	}
	if len(input.Embedding) != s.textDim {
		return nil, fmt.Errorf("%w: memory embedding has dimension %d, expected %d", apperrors.ErrInvalidArgument, len(input.Embedding), s.textDim)
	}
	record := &types.CustomerMemory{
		CustomerID:      input.CustomerID,
		SourceSessionID: input.SourceSessionID,
		Nugget:          input.Nugget,
		ModelName:       input.ModelName,
		IdempotencyHash: optionalHash(input.IdempotencyHash),
		Embedding:       pgvector.NewVector(input.Embedding),
	}
	created, err := s.memoryRepo.Create(ctx, nil, record)
	if err != nil {
		if errors.Is(err, apperrors.ErrAlreadyRecorded) {
			s.log.Debug("Memory already recorded", "customer_id", input.CustomerID, "idempotency_hash", input.IdempotencyHash)
		}
		return nil, err
	}
	return created, nil
}

func (s *ingestionService) RecordPreference(ctx context.Context, input PreferenceInput) (*types.CustomerPreference, error) {
	if input.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer id is required", apperrors.ErrInvalidArgument)
	}
	if strings.TrimSpace(input.Kind) == "" || strings.TrimSpace(input.Value) == "" {
		return nil, fmt.Errorf("%w: preference kind and value are required", apperrors.ErrInvalidArgument)
	}
	return s.preferenceRepo.Create(ctx, nil, &types.CustomerPreference{
		CustomerID:      input.CustomerID,
		SourceSessionID: input.SourceSessionID,
		Kind:            input.Kind,
		Category:        input.Category,
		Value:           input.Value,
	})
}

func optionalHash(hash string) *string {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil
	}
	return &hash
}
