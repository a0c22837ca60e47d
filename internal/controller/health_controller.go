package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sqldeck/internal/engine"
)

type HealthResponse struct {
	Status    string       `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	Service   string       `json:"service"`
	Version   string       `json:"version"`
	Engine    EngineStatus `json:"engine"`
}

type EngineStatus struct {
	ActiveQueries      int `json:"activeQueries"`
	PendingTelemetry   int `json:"pendingTelemetry"`
	SchemaCacheEntries int `json:"schemaCacheEntries"`
}

type HealthController struct {
	engine *engine.Engine
}

func NewHealthController(eng *engine.Engine) *HealthController {
	return &HealthController{engine: eng}
}

func (hc *HealthController) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   "sqldeck",
		Version:   "1.0.0",
		Engine: EngineStatus{
			ActiveQueries:      hc.engine.Registry().Active(),
			PendingTelemetry:   hc.engine.Telemetry().Pending(),
			SchemaCacheEntries: hc.engine.SchemaCache().Len(),
		},
	})
}
