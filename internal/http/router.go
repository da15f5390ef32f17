package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/pao-report-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pao-report-backend/internal/http/middleware"
	"github.com/yungbote/pao-report-backend/internal/observability"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string
	Metrics        *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware
	ReportHandler  *httpH.ReportHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	protected := r.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		if cfg.ReportHandler != nil {
			protected.POST("/generar-pao-directo", cfg.ReportHandler.GenerateDirect)
			protected.POST("/generar-pao", cfg.ReportHandler.Generate)
			protected.POST("/generar", cfg.ReportHandler.RenderInline)
			protected.POST("/api/pao/context", cfg.ReportHandler.PreviewContext)
		}
	}

	return r
}
