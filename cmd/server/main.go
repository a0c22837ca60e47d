package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sqldeck/internal/config"
	"sqldeck/internal/controller"
	"sqldeck/internal/engine"
	"sqldeck/internal/middleware"
	"sqldeck/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// One engine instance owns all execution state: the cancellation
	// registry, the telemetry collector and the schema cache
	eng := engine.New()

	// Initialize services
	queryService := service.NewQueryService(eng, cfg.Query)
	schemaService := service.NewSchemaService(eng)

	// Initialize controllers
	queryController := controller.NewQueryController(queryService)
	schemaController := controller.NewSchemaController(schemaService)
	healthController := controller.NewHealthController(eng)

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())

	if cfg.Metrics.Enabled {
		middleware.InitMetrics()
		router.Use(middleware.PrometheusMiddleware())
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))

		// keep the engine gauges current
		go func() {
			ticker := time.NewTicker(10 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				middleware.UpdateEngineMetrics(eng.Registry().Active(), eng.SchemaCache().Len())
			}
		}()
	}

	// Health check endpoint (always available)
	router.GET("/health", healthController.HealthCheck)

	// API v1 group
	api := router.Group("/api/v1")
	{
		api.POST("/connections/test", queryController.TestConnection)

		api.POST("/queries/id", queryController.NewExecutionID)
		api.POST("/queries/execute", queryController.ExecuteQuery)
		api.POST("/queries/:id/cancel", queryController.CancelQuery)
		api.POST("/queries/explain", queryController.ExplainQuery)
		api.GET("/queries/stats", queryController.GetQueryStats)

		api.POST("/edits/preview", queryController.PreviewEdits)
		api.POST("/edits/apply", queryController.ApplyEdits)

		api.POST("/tables", queryController.CreateTable)
		api.POST("/tables/alter", queryController.AlterTable)
		api.POST("/tables/drop", queryController.DropTable)

		api.POST("/schemas", schemaController.GetSchemas)
		api.POST("/schemas/table-ddl", schemaController.GetTableDDL)
		api.POST("/schemas/sequences", schemaController.GetSequences)
		api.POST("/schemas/types", schemaController.GetTypes)
		api.POST("/schemas/invalidate", schemaController.InvalidateCache)
	}

	// Start server
	addr := cfg.Server.Host + ":" + cfg.Server.Port
	log.Printf("Starting sqldeck server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
