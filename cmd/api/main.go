package main

import (
	"database/sql"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "pos-backoffice/docs"
	"pos-backoffice/internal/config"
	"pos-backoffice/internal/documents"
	"pos-backoffice/internal/handler"
	"pos-backoffice/internal/importer"
	"pos-backoffice/internal/middleware"
	"pos-backoffice/internal/repository"
	"pos-backoffice/internal/service"
	"pos-backoffice/pkg/logger"
	"pos-backoffice/pkg/response"
)

// @title POS Back-Office API
// @version 1.0
// @description Import pipeline and unified transaction view for the POS back office
// @BasePath /api/v1
func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	logger.Init(cfg.App.LogLevel)
	log := logger.GetLogger()

	db, err := connectDB(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	importRepo := repository.NewImportRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	documentRepo := repository.NewDocumentRepository(db, cfg.App.StorageBaseURL)

	documentCache := documents.NewCache(documentRepo, 15*time.Minute)

	importService := service.NewImportService(importRepo)
	transactionService := service.NewTransactionService(transactionRepo, transactionRepo, documentCache)
	exportService := service.NewExportService(documentCache, documentRepo)

	sessions := importer.NewStore()
	stopSweep := sessions.SweepEvery(5*time.Minute, cfg.App.SessionMaxAge)
	defer stopSweep()

	importHandler := handler.NewImportHandler(sessions, importService, cfg.App.MaxUploadBytes, cfg.App.PreviewRows)
	transactionHandler := handler.NewTransactionHandler(transactionService, exportService)

	router := setupRouter(importHandler, transactionHandler)

	log.WithField("port", cfg.Server.Port).Info("Starting API server")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func connectDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func setupRouter(importHandler *handler.ImportHandler, transactionHandler *handler.TransactionHandler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, 200, "OK", gin.H{"status": "healthy"})
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := router.Group("/api/v1")
	{
		imports := api.Group("/import")
		{
			imports.POST("/sessions", importHandler.CreateSession)
			imports.PUT("/sessions/:id/mappings", importHandler.UpdateMappings)
			imports.POST("/sessions/:id/back", importHandler.Back)
			imports.POST("/sessions/:id/commit", importHandler.Commit)
			imports.DELETE("/sessions/:id", importHandler.DeleteSession)
			imports.GET("/templates/:type", importHandler.Template)
			imports.POST("/json", importHandler.ImportJSON)
		}

		transactions := api.Group("/transactions")
		{
			transactions.GET("", transactionHandler.List)
			transactions.GET("/stats", transactionHandler.Stats)
			transactions.POST("/export", transactionHandler.Export)
			transactions.POST("/pdf-bundle", transactionHandler.PdfBundle)
			transactions.GET("/:id", transactionHandler.Get)
			transactions.PUT("/:id/customer", transactionHandler.AssignCustomer)
		}
	}

	return router
}
