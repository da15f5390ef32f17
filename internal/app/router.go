package app

import (
	"github.com/gin-gonic/gin"

	server "github.com/yungbote/pao-report-backend/internal/http"
	httpMW "github.com/yungbote/pao-report-backend/internal/http/middleware"
	"github.com/yungbote/pao-report-backend/internal/observability"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *server.Server {
	log.Info("Wiring router...")
	if cfg.LogMode == "production" || cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	return server.NewServer(server.RouterConfig{
		Log:            log,
		ServiceName:    cfg.Otel.ServiceName,
		TracingEnabled: cfg.Otel.Enabled,
		CORSOrigins:    cfg.CORSOrigins,
		Metrics:        metrics,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, cfg.AuthJWTSecret),
		ReportHandler:  handlers.Report,
		HealthHandler:  handlers.Health,
	})
}
