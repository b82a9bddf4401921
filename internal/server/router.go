package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/veralith/clienteling-backend/internal/handlers"
)

type RouterConfig struct {
	ServiceName      string
	CustomerHandler  *handlers.CustomerHandler
	SearchHandler    *handlers.SearchHandler
	IngestionHandler *handlers.IngestionHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Reads
		api.GET("/customers/:id/context", cfg.CustomerHandler.GetContext)
		api.POST("/search/face", cfg.SearchHandler.FaceNearest)
		api.POST("/search/memory", cfg.SearchHandler.MemoryNearest)

		// Consent
		api.PATCH("/customers/:id/consent", cfg.CustomerHandler.UpdateConsent)
		api.DELETE("/customers/:id/opt-out", cfg.CustomerHandler.OptOut)

		// Ingestion
		api.POST("/employees", cfg.IngestionHandler.CreateEmployee)
		api.POST("/customers", cfg.IngestionHandler.CreateCustomer)
		api.POST("/sessions", cfg.IngestionHandler.CreateSession)
		api.POST("/sessions/:id/transcript", cfg.IngestionHandler.AppendTranscript)
		api.POST("/sessions/:id/notes", cfg.IngestionHandler.AddCoachingNote)
		api.POST("/customers/:id/faces", cfg.IngestionHandler.RecordFaceEmbedding)
		api.POST("/customers/:id/memories", cfg.IngestionHandler.RecordMemory)
		api.POST("/customers/:id/preferences", cfg.IngestionHandler.RecordPreference)
	}

	return router
}
