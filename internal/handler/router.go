package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/JerryYuan4733/ragflow-tyh/internal/config"
	"github.com/JerryYuan4733/ragflow-tyh/internal/engine"
	"github.com/JerryYuan4733/ragflow-tyh/internal/pkg/jwt"
	"github.com/JerryYuan4733/ragflow-tyh/internal/pkg/redis"
	"github.com/JerryYuan4733/ragflow-tyh/internal/repository"
	"github.com/JerryYuan4733/ragflow-tyh/internal/service"
	"github.com/JerryYuan4733/ragflow-tyh/internal/syncer"
)

func SetupRouter(cfg *config.Config, db *gorm.DB, cache *redis.Client, settings *config.EngineSettings, client *engine.Client) *gin.Engine {
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	// Health check endpoints
	r.GET("/health", healthCheck)
	r.GET("/ready", readinessCheck)
	r.GET("/live", livenessCheck)

	// Root endpoint
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":      "TYH Knowledge Base",
			"version":      "1.0.0",
			"status":       "running",
			"health_check": "/health",
		})
	})

	// Initialize repositories
	qaRepo := repository.NewQARecordRepository(db)
	datasetRepo := repository.NewTeamDatasetRepository(db)
	configRepo := repository.NewTeamConfigRepository(db)
	ticketRepo := repository.NewTicketRepository(db)

	// Initialize sync engines
	datasetSvc := service.NewTeamDatasetService(datasetRepo, cache)
	detector := syncer.NewDetector(qaRepo, datasetSvc, client)
	forward := syncer.NewForward(client)
	router := syncer.NewRouter(forward, qaRepo, datasetSvc)
	reverse := syncer.NewReverse(client, qaRepo)

	// Initialize services
	qaSvc := service.NewQAService(qaRepo, detector)
	syncSvc := service.NewSyncService(qaRepo, datasetSvc, router, reverse)
	transferSvc := service.NewTransferService(qaRepo, ticketRepo, detector)
	chatSvc := service.NewChatService(configRepo, client)

	// Initialize handlers
	qaHandler := NewQAHandler(qaSvc)
	syncHandler := NewSyncHandler(syncSvc)
	transferHandler := NewTransferHandler(transferSvc)
	datasetHandler := NewDatasetHandler(datasetSvc, client)
	ticketHandler := NewTicketHandler(ticketRepo)
	chatHandler := NewChatHandler(chatSvc, client)
	settingsHandler := NewSettingsHandler(settings, client)

	jwtManager := jwt.NewManager(cfg.JWTSecret, cfg.AccessTokenExpireMin)

	// API v1, team-scoped
	v1 := r.Group("/v1")
	v1.Use(AuthMiddleware(jwtManager))
	{
		// QA records
		qa := v1.Group("/qa")
		{
			qa.GET("", qaHandler.List)
			qa.GET("/template", qaHandler.Template)
			qa.GET("/:id", qaHandler.Get)
			qa.POST("", RequireKBAdmin(), qaHandler.Create)
			qa.PUT("/:id", RequireKBAdmin(), qaHandler.Update)
			qa.PUT("/:id/status", RequireKBAdmin(), qaHandler.ChangeStatus)
			qa.DELETE("/:id", RequireKBAdmin(), qaHandler.Delete)
			qa.POST("/import", RequireKBAdmin(), qaHandler.Import)
		}

		// Engine synchronization
		sync := v1.Group("/sync", RequireKBAdmin())
		{
			sync.POST("/push", syncHandler.Push)
			sync.POST("/pull", syncHandler.Pull)
		}

		// Dataset bindings
		datasets := v1.Group("/datasets")
		{
			datasets.GET("", datasetHandler.ListBound)
			datasets.GET("/remote", RequireKBAdmin(), datasetHandler.ListRemote)
			datasets.POST("", RequireKBAdmin(), datasetHandler.Bind)
			datasets.DELETE("/:datasetId", RequireKBAdmin(), datasetHandler.Unbind)
		}

		// Chat proxy
		chat := v1.Group("/chat")
		{
			chat.GET("/assistants", RequireKBAdmin(), chatHandler.ListAssistants)
			chat.PUT("/assistant", RequireKBAdmin(), chatHandler.BindAssistant)
			chat.POST("/sessions", chatHandler.StartSession)
			chat.DELETE("/sessions/:sessionId", chatHandler.EndSession)
			chat.POST("/completions", chatHandler.Completion)
		}

		// Human review
		v1.POST("/transfer", transferHandler.Transfer)
		tickets := v1.Group("/tickets")
		{
			tickets.GET("", ticketHandler.List)
			tickets.PUT("/:id/status", RequireKBAdmin(), ticketHandler.UpdateStatus)
		}

		// Engine connection settings
		settingsGroup := v1.Group("/settings", RequireKBAdmin())
		{
			settingsGroup.GET("/engine", settingsHandler.GetEngineSettings)
			settingsGroup.PUT("/engine", settingsHandler.UpdateEngineSettings)
		}
	}

	return r
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "knowledge-base",
	})
}

func readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

func livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
