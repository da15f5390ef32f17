package convert

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/yungbote/pao-report-backend/internal/platform/apierr"
	"github.com/yungbote/pao-report-backend/internal/platform/cloudconvert"
	"github.com/yungbote/pao-report-backend/internal/platform/convertapi"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

type Provider string

const (
	ProviderNone         Provider = "none"
	ProviderCloudConvert Provider = "cloudconvert"
	ProviderConvertAPI   Provider = "convertapi"
)

type Source struct {
	Name string
	Data []byte
}

type Result struct {
	Name     string
	Data     []byte
	Provider Provider
	Pages    int
}

// Converter turns a rendered docx into a validated PDF.
type Converter interface {
	Convert(ctx context.Context, src Source) (Result, error)
	Provider() Provider
}

// pdfClient is satisfied by both provider clients.
type pdfClient interface {
	ConvertToPDF(ctx context.Context, name string, data []byte) ([]byte, error)
}

type Config struct {
	Provider           Provider
	CloudConvertAPIKey string
	CloudConvertURL    string
	ConvertAPIToken    string
	ConvertAPIURL      string
	Timeout            time.Duration
	PollInterval       time.Duration
	PollMax            time.Duration
}

func ParseProvider(raw string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(raw))); p {
	case "":
		return ProviderCloudConvert, nil
	case ProviderNone, ProviderCloudConvert, ProviderConvertAPI:
		return p, nil
	default:
		return "", fmt.Errorf("invalid CONVERTER=%q (allowed: cloudconvert, convertapi, none)", raw)
	}
}

// New builds the configured converter. ProviderNone returns (nil, nil) and
// callers skip the PDF step.
func New(log *logger.Logger, cfg Config) (Converter, error) {
	switch cfg.Provider {
	case ProviderNone:
		return nil, nil
	case ProviderCloudConvert, "":
		c, err := cloudconvert.New(log, cloudconvert.Config{
			APIKey:       cfg.CloudConvertAPIKey,
			BaseURL:      cfg.CloudConvertURL,
			Timeout:      cfg.Timeout,
			PollInterval: cfg.PollInterval,
			PollMax:      cfg.PollMax,
		})
		if err != nil {
			return nil, err
		}
		return newPDFConverter(log, ProviderCloudConvert, c), nil
	case ProviderConvertAPI:
		c, err := convertapi.New(log, convertapi.Config{
			Token:   cfg.ConvertAPIToken,
			BaseURL: cfg.ConvertAPIURL,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return newPDFConverter(log, ProviderConvertAPI, c), nil
	default:
		return nil, fmt.Errorf("unknown converter provider %q", cfg.Provider)
	}
}

type pdfConverter struct {
	log      *logger.Logger
	provider Provider
	client   pdfClient
}

func newPDFConverter(log *logger.Logger, provider Provider, client pdfClient) *pdfConverter {
	return &pdfConverter{
		log:      log.With("service", "Converter", "provider", provider),
		provider: provider,
		client:   client,
	}
}

func (c *pdfConverter) Provider() Provider { return c.provider }

func (c *pdfConverter) Convert(ctx context.Context, src Source) (Result, error) {
	if len(src.Data) == 0 {
		return Result{}, fmt.Errorf("convert: empty source %q", src.Name)
	}
	start := time.Now()
	out, err := c.client.ConvertToPDF(ctx, src.Name, src.Data)
	if err != nil {
		return Result{}, classify(err)
	}
	pages, err := ValidatePDF(out)
	if err != nil {
		return Result{}, apierr.Downstream("conversion_invalid_output",
			fmt.Errorf("%s returned an unreadable PDF: %w", c.provider, err))
	}
	c.log.Info("Converted document",
		"source", src.Name,
		"bytes", len(out),
		"pages", pages,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Result{
		Name:     pdfName(src.Name),
		Data:     out,
		Provider: c.provider,
		Pages:    pages,
	}, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, cloudconvert.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return apierr.Timeout("conversion_timeout", err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return apierr.Downstream("conversion_failed", err)
	}
}

func pdfName(name string) string {
	base := strings.TrimSuffix(name, path.Ext(name))
	if base == "" {
		base = "document"
	}
	return base + ".pdf"
}
