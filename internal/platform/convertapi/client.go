package convertapi

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/yungbote/pao-report-backend/internal/platform/httpx"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

const DefaultBaseURL = "https://v2.convertapi.com"

type Config struct {
	Token   string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	log  *logger.Logger
	http *http.Client
	cfg  Config
}

type convertResponse struct {
	ConversionCost int `json:"ConversionCost"`
	Files          []struct {
		FileName string `json:"FileName"`
		FileExt  string `json:"FileExt"`
		FileSize int    `json:"FileSize"`
		FileData string `json:"FileData"`
	} `json:"Files"`
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("missing CONVERTAPI_TOKEN")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Client{
		log:  log.With("client", "ConvertAPI"),
		http: httpx.NewClient(cfg.Timeout),
		cfg:  cfg,
	}, nil
}

// ConvertToPDF converts a docx in a single synchronous call.
func (c *Client) ConvertToPDF(ctx context.Context, name string, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("File", name)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.WriteField("StoreFile", "false"); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/convert/docx/to/pdf", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("convertapi: %w", err)
	}
	defer resp.Body.Close()
	if err := httpx.CheckResponse("convertapi", resp); err != nil {
		return nil, err
	}

	var out convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("convertapi: decode response: %w", err)
	}
	if len(out.Files) == 0 || out.Files[0].FileData == "" {
		return nil, fmt.Errorf("convertapi: response has no file data")
	}
	pdf, err := base64.StdEncoding.DecodeString(out.Files[0].FileData)
	if err != nil {
		return nil, fmt.Errorf("convertapi: decode file data: %w", err)
	}
	c.log.Debug("Converted document", "file", out.Files[0].FileName, "cost", out.ConversionCost, "bytes", len(pdf))
	return pdf, nil
}
