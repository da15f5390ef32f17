package app

import (
	httpH "github.com/yungbote/pao-report-backend/internal/http/handlers"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

type Handlers struct {
	Health *httpH.HealthHandler
	Report *httpH.ReportHandler
}

func wireHandlers(log *logger.Logger, svcs Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(),
		Report: httpH.NewReportHandler(log, svcs.Reports),
	}
}
