package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/yungbote/pao-report-backend/internal/contextbuilder"
	"github.com/yungbote/pao-report-backend/internal/convert"
	"github.com/yungbote/pao-report-backend/internal/domain/pao"
	"github.com/yungbote/pao-report-backend/internal/observability"
	"github.com/yungbote/pao-report-backend/internal/platform/apierr"
	"github.com/yungbote/pao-report-backend/internal/platform/ctxutil"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
	"github.com/yungbote/pao-report-backend/internal/platform/redislock"
)

type Format string

const (
	FormatDocx Format = "docx"
	FormatPDF  Format = "pdf"
)

func ParseFormats(raw []string) ([]Format, error) {
	if len(raw) == 0 {
		return []Format{FormatDocx, FormatPDF}, nil
	}
	seen := map[Format]bool{}
	out := make([]Format, 0, 2)
	for _, r := range raw {
		f := Format(strings.ToLower(strings.TrimSpace(r)))
		if f != FormatDocx && f != FormatPDF {
			return nil, apierr.BadRequest("invalid_format", fmt.Sprintf("Formato no soportado: %q", r))
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out, nil
}

// DocumentRenderer fills a named template with a flat context.
type DocumentRenderer interface {
	Render(ctx context.Context, templateName string, data map[string]any) ([]byte, error)
}

// ObjectStore is the subset of the bucket service the pipeline writes to.
type ObjectStore interface {
	UploadFile(ctx context.Context, key string, file io.Reader) error
	MakePublic(ctx context.Context, key string) error
	GetPublicURL(key string) string
	SignedURL(key string, ttl time.Duration) (string, error)
}

type Locker interface {
	Acquire(ctx context.Context, id string) (func(), error)
}

type GenerateRequest struct {
	PaoID   string
	Formats []Format
}

type GenerateResult struct {
	PaoID         string
	DocxURL       string
	PDFURL        string
	SignedDocxURL string
	SignedPDFURL  string
	Pages         int
}

type InlineRequest struct {
	Program    pao.ProgramRecord    `json:"program"`
	Activities []pao.ActivityRecord `json:"activities"`
	Template   string               `json:"template"`
}

type ReportServiceConfig struct {
	// KeyPrefix is the object folder for generated reports.
	KeyPrefix    string
	SignedURLTTL time.Duration
}

type ReportService interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
	BuildContext(ctx context.Context, paoID string) (contextbuilder.TemplateContext, error)
	RenderInline(ctx context.Context, req InlineRequest) ([]byte, string, error)
}

type reportService struct {
	log       *logger.Logger
	loader    *Loader
	builder   *contextbuilder.Builder
	renderer  DocumentRenderer
	converter convert.Converter
	store     ObjectStore
	locker    Locker
	metrics   *observability.Metrics
	cfg       ReportServiceConfig
}

// NewReportService wires the pipeline. converter and locker may be nil:
// PDF output is then unavailable and generations run unlocked.
func NewReportService(
	log *logger.Logger,
	loader *Loader,
	builder *contextbuilder.Builder,
	renderer DocumentRenderer,
	converter convert.Converter,
	store ObjectStore,
	locker Locker,
	metrics *observability.Metrics,
	cfg ReportServiceConfig,
) ReportService {
	if strings.TrimSpace(cfg.KeyPrefix) == "" {
		cfg.KeyPrefix = "documentos_pao"
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	return &reportService{
		log:       log.With("service", "ReportService"),
		loader:    loader,
		builder:   builder,
		renderer:  renderer,
		converter: converter,
		store:     store,
		locker:    locker,
		metrics:   metrics,
		cfg:       cfg,
	}
}

func (s *reportService) Generate(ctx context.Context, req GenerateRequest) (res *GenerateResult, err error) {
	id := strings.TrimSpace(req.PaoID)
	if id == "" {
		return nil, apierr.BadRequest("missing_pao_id", "Falta el pao_id")
	}
	if err := validateObjectID(id); err != nil {
		return nil, err
	}
	formats, err := s.effectiveFormats(req.Formats)
	if err != nil {
		return nil, err
	}
	log := s.log.With(ctxutil.LogFields(ctx)...).With("pao_id", id)

	ctx, span := observability.StartSpan(ctx, "report.generate", attribute.String("pao.id", id))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.metrics.IncGeneration(err)
	}()

	release, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	bundle, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	tc := s.build(bundle)

	docx, err := s.render(ctx, bundle.Template, tc)
	if err != nil {
		return nil, err
	}

	res = &GenerateResult{PaoID: id}
	for _, f := range formats {
		switch f {
		case FormatDocx:
			key := s.objectKey(id, FormatDocx)
			if err := s.publish(ctx, key, docx); err != nil {
				return nil, err
			}
			res.DocxURL = s.store.GetPublicURL(key)
			res.SignedDocxURL, err = s.sign(key)
			if err != nil {
				return nil, err
			}
		case FormatPDF:
			out, err := s.convertPDF(ctx, id, docx)
			if err != nil {
				return nil, err
			}
			key := s.objectKey(id, FormatPDF)
			if err := s.publish(ctx, key, out.Data); err != nil {
				return nil, err
			}
			res.PDFURL = s.store.GetPublicURL(key)
			res.Pages = out.Pages
			res.SignedPDFURL, err = s.sign(key)
			if err != nil {
				return nil, err
			}
		}
	}
	log.Info("Report generated",
		"formats", formats,
		"url_docx", res.DocxURL,
		"url_pdf", res.PDFURL,
		"pages", res.Pages,
	)
	return res, nil
}

func (s *reportService) BuildContext(ctx context.Context, paoID string) (contextbuilder.TemplateContext, error) {
	id := strings.TrimSpace(paoID)
	if id == "" {
		return nil, apierr.BadRequest("missing_pao_id", "Falta el pao_id")
	}
	bundle, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.build(bundle), nil
}

// RenderInline renders a record supplied by the caller. Nothing is read from
// or written to storage.
func (s *reportService) RenderInline(ctx context.Context, req InlineRequest) ([]byte, string, error) {
	program := req.Program
	program.ID = strings.TrimSpace(program.ID)
	if program.ID == "" {
		program.ID = strings.TrimSpace(program.ProgramCode)
	}
	if program.ID == "" {
		return nil, "", apierr.BadRequest("missing_pao_id", "Falta el pao_id")
	}
	if err := validateObjectID(program.ID); err != nil {
		return nil, "", err
	}
	program, tpl := s.loader.ApplyProfile(program)
	if t := strings.TrimSpace(req.Template); t != "" {
		tpl = t
	}
	tc := s.build(&Bundle{Program: program, Activities: req.Activities})
	docx, err := s.render(ctx, tpl, tc)
	if err != nil {
		return nil, "", err
	}
	return docx, "PAO_" + program.ID + ".docx", nil
}

func (s *reportService) effectiveFormats(requested []Format) ([]Format, error) {
	formats := requested
	if len(formats) == 0 {
		formats = []Format{FormatDocx, FormatPDF}
	}
	if s.converter != nil {
		return formats, nil
	}
	out := make([]Format, 0, len(formats))
	for _, f := range formats {
		if f != FormatPDF {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, apierr.New(http.StatusServiceUnavailable, "conversion_disabled",
			errors.New("La conversión a PDF está deshabilitada"))
	}
	return out, nil
}

func (s *reportService) acquire(ctx context.Context, id string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Acquire(ctx, id)
	if err != nil {
		if errors.Is(err, redislock.ErrHeld) {
			return nil, apierr.Conflict("generation_in_progress", "Ya hay una generación en curso para este PAO")
		}
		// A broken lock backend should not block report generation.
		s.log.Warn("Generation lock unavailable; continuing unlocked", "pao_id", id, "error", err)
		return func() {}, nil
	}
	return release, nil
}

func (s *reportService) load(ctx context.Context, id string) (b *Bundle, err error) {
	ctx, done := s.stage(ctx, "load")
	defer done(&err)
	return s.loader.Load(ctx, id)
}

func (s *reportService) build(b *Bundle) contextbuilder.TemplateContext {
	start := time.Now()
	tc := s.builder.Build(b.Program, b.Activities)
	s.metrics.ObserveStage("build", time.Since(start), nil)
	return tc
}

func (s *reportService) render(ctx context.Context, tpl string, tc contextbuilder.TemplateContext) (out []byte, err error) {
	ctx, done := s.stage(ctx, "render")
	defer done(&err)
	out, err = s.renderer.Render(ctx, tpl, tc.Map())
	if err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return out, nil
}

func (s *reportService) convertPDF(ctx context.Context, id string, docx []byte) (res convert.Result, err error) {
	ctx, done := s.stage(ctx, "convert")
	defer done(&err)
	res, err = s.converter.Convert(ctx, convert.Source{Name: id + ".docx", Data: docx})
	s.metrics.ObserveConversion(string(s.converter.Provider()), res.Pages, err)
	return res, err
}

func (s *reportService) publish(ctx context.Context, key string, data []byte) (err error) {
	ctx, done := s.stage(ctx, "upload")
	defer done(&err)
	if err := s.store.UploadFile(ctx, key, bytes.NewReader(data)); err != nil {
		return apierr.Downstream("upload_failed", fmt.Errorf("upload %s: %w", key, err))
	}
	if err := s.store.MakePublic(ctx, key); err != nil {
		return apierr.Downstream("make_public_failed", err)
	}
	return nil
}

func (s *reportService) sign(key string) (string, error) {
	if s.cfg.SignedURLTTL <= 0 {
		return "", nil
	}
	u, err := s.store.SignedURL(key, s.cfg.SignedURLTTL)
	if err != nil {
		return "", apierr.Downstream("sign_url_failed", err)
	}
	return u, nil
}

// objectKey expects an id already accepted by validateObjectID.
func (s *reportService) objectKey(id string, f Format) string {
	return s.cfg.KeyPrefix + "/" + id + "." + string(f)
}

// validateObjectID rejects ids that cannot be used verbatim as an object
// name, so two records never share a key.
func validateObjectID(id string) error {
	if id == "." || strings.Contains(id, "..") || strings.ContainsAny(id, `/\`) {
		return apierr.BadRequest("invalid_pao_id", fmt.Sprintf("pao_id no válido: %q", id))
	}
	for _, r := range id {
		if r < 0x20 || r == 0x7f {
			return apierr.BadRequest("invalid_pao_id", fmt.Sprintf("pao_id no válido: %q", id))
		}
	}
	return nil
}

// stage opens a child span. Callers pass the returned ctx to the stage body
// and defer the func, which records latency and outcome.
func (s *reportService) stage(ctx context.Context, name string) (context.Context, func(*error)) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "report."+name)
	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			s.log.Warn("Pipeline stage failed", "stage", name, "error", err)
		}
		span.End()
		s.metrics.ObserveStage(name, time.Since(start), err)
	}
}
