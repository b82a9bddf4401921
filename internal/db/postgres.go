package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/veralith/clienteling-backend/internal/config"
	"github.com/veralith/clienteling-backend/internal/logger"
	"github.com/veralith/clienteling-backend/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(cfg config.Config, log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	// The vector column widths are fixed in the schema; a mismatched config is
	// a deployment error and the process must not come up.
	if cfg.FaceEmbeddingDim != types.FaceEmbeddingDim {
		return nil, fmt.Errorf("configured face embedding dim %d does not match schema dim %d", cfg.FaceEmbeddingDim, types.FaceEmbeddingDim)
	}
	if cfg.TextEmbeddingDim != types.TextEmbeddingDim {
		return nil, fmt.Errorf("configured text embedding dim %d does not match schema dim %d", cfg.TextEmbeddingDim, types.TextEmbeddingDim)
	}

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN()), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	for _, ext := range []string{"uuid-ossp", "vector"} {
		if err := db.Exec(fmt.Sprintf(`CREATE EXTENSION IF NOT EXISTS %q;`, ext)).Error; err != nil {
			serviceLog.Error("Failed to enable extension", "extension", ext, "error", err)
			return nil, fmt.Errorf("failed to enable %s extension: %w", ext, err)
		}
	}
	serviceLog.Info("Postgres extensions enabled", "extensions", "uuid-ossp, vector")

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Employee{},
		&types.Customer{},
		&types.Session{},
		&types.TranscriptChunk{},
		&types.CoachingNote{},
		&types.CustomerFaceEmbedding{},
		&types.CustomerMemory{},
		&types.CustomerPreference{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key deletion policies...")
	for _, stmt := range ConstraintStatements() {
		if err := s.db.Exec(stmt).Error; err != nil {
			s.log.Error("Failed to apply constraint", "statement", stmt, "error", err)
			return fmt.Errorf("failed to apply constraint: %w", err)
		}
	}

	s.log.Info("Creating vector indexes...")
	for _, stmt := range VectorIndexStatements() {
		if err := s.db.Exec(stmt).Error; err != nil {
			s.log.Error("Failed to create vector index", "statement", stmt, "error", err)
			return fmt.Errorf("failed to create vector index: %w", err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}

// ConstraintStatements returns the foreign keys with their deletion policies.
// Two relationship kinds exist and the difference is the whole point:
// owned rows cascade with their owner, mere references are nulled.
func ConstraintStatements() []string {
	return []string{
		// Sessions reference, never own. Employee deletion is blocked while
		// sessions exist; customer erasure detaches.
		`ALTER TABLE "sessions"
		 DROP CONSTRAINT IF EXISTS "fk_sessions_employee_id",
		 ADD CONSTRAINT "fk_sessions_employee_id"
		 FOREIGN KEY ("employee_id") REFERENCES "employees"("id")
		 ON DELETE RESTRICT`,
		`ALTER TABLE "sessions"
		 DROP CONSTRAINT IF EXISTS "fk_sessions_customer_id",
		 ADD CONSTRAINT "fk_sessions_customer_id"
		 FOREIGN KEY ("customer_id") REFERENCES "customers"("id")
		 ON DELETE SET NULL`,
		// Transcript chunks and coaching notes are owned by their session.
		`ALTER TABLE "transcript_chunks"
		 DROP CONSTRAINT IF EXISTS "fk_transcript_chunks_session_id",
		 ADD CONSTRAINT "fk_transcript_chunks_session_id"
		 FOREIGN KEY ("session_id") REFERENCES "sessions"("id")
		 ON DELETE CASCADE`,
		`ALTER TABLE "coaching_notes"
		 DROP CONSTRAINT IF EXISTS "fk_coaching_notes_session_id",
		 ADD CONSTRAINT "fk_coaching_notes_session_id"
		 FOREIGN KEY ("session_id") REFERENCES "sessions"("id")
		 ON DELETE CASCADE`,
		// Biometric and derived rows are owned by their customer: erasing the
		// customer must leave no orphans.
		`ALTER TABLE "customer_face_embeddings"
		 DROP CONSTRAINT IF EXISTS "fk_customer_face_embeddings_customer_id",
		 ADD CONSTRAINT "fk_customer_face_embeddings_customer_id"
		 FOREIGN KEY ("customer_id") REFERENCES "customers"("id")
		 ON DELETE CASCADE`,
		`ALTER TABLE "customer_memory"
		 DROP CONSTRAINT IF EXISTS "fk_customer_memory_customer_id",
		 ADD CONSTRAINT "fk_customer_memory_customer_id"
		 FOREIGN KEY ("customer_id") REFERENCES "customers"("id")
		 ON DELETE CASCADE`,
		`ALTER TABLE "customer_preferences"
		 DROP CONSTRAINT IF EXISTS "fk_customer_preferences_customer_id",
		 ADD CONSTRAINT "fk_customer_preferences_customer_id"
		 FOREIGN KEY ("customer_id") REFERENCES "customers"("id")
		 ON DELETE CASCADE`,
		// Source sessions are provenance only: deleting a session keeps the
		// derived rows and clears the reference.
		`ALTER TABLE "customer_face_embeddings"
		 DROP CONSTRAINT IF EXISTS "fk_customer_face_embeddings_source_session_id",
		 ADD CONSTRAINT "fk_customer_face_embeddings_source_session_id"
		 FOREIGN KEY ("source_session_id") REFERENCES "sessions"("id")
		 ON DELETE SET NULL`,
		`ALTER TABLE "customer_memory"
		 DROP CONSTRAINT IF EXISTS "fk_customer_memory_source_session_id",
		 ADD CONSTRAINT "fk_customer_memory_source_session_id"
		 FOREIGN KEY ("source_session_id") REFERENCES "sessions"("id")
		 ON DELETE SET NULL`,
		`ALTER TABLE "customer_preferences"
		 DROP CONSTRAINT IF EXISTS "fk_customer_preferences_source_session_id",
		 ADD CONSTRAINT "fk_customer_preferences_source_session_id"
		 FOREIGN KEY ("source_session_id") REFERENCES "sessions"("id")
		 ON DELETE SET NULL`,
	}
}

// VectorIndexStatements returns the cosine-distance indexes. The operator
// class must match the <=> operator used by every search query.
func VectorIndexStatements() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS "idx_customer_face_embeddings_embedding"
		 ON "customer_face_embeddings" USING ivfflat ("embedding" vector_cosine_ops) WITH (lists = 100)`,
		`CREATE INDEX IF NOT EXISTS "idx_customer_memory_embedding"
		 ON "customer_memory" USING ivfflat ("embedding" vector_cosine_ops) WITH (lists = 100)`,
	}
}
