package app

import (
	"github.com/yungbote/pao-report-backend/internal/contextbuilder"
	"github.com/yungbote/pao-report-backend/internal/observability"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
	"github.com/yungbote/pao-report-backend/internal/render/docx"
	"github.com/yungbote/pao-report-backend/internal/services"
)

type Services struct {
	Loader  *services.Loader
	Reports services.ReportService
}

func wireServices(log *logger.Logger, cfg Config, clients *Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	loader := services.NewLoader(log, clients.Records, cfg.Loader)
	renderer := docx.NewRenderer(log, docx.Config{Dir: cfg.TemplateDir, DefaultTemplate: cfg.DefaultTemplate})

	var locker services.Locker
	if clients.Locker != nil {
		locker = clients.Locker
	}
	reports := services.NewReportService(
		log,
		loader,
		contextbuilder.New(cfg.Builder),
		renderer,
		clients.Converter,
		clients.Bucket,
		locker,
		metrics,
		services.ReportServiceConfig{KeyPrefix: cfg.KeyPrefix, SignedURLTTL: cfg.SignedURLTTL},
	)
	return Services{Loader: loader, Reports: reports}
}
