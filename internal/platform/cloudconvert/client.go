package cloudconvert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/yungbote/pao-report-backend/internal/platform/httpx"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

const (
	DefaultBaseURL = "https://api.cloudconvert.com"

	StatusWaiting    = "waiting"
	StatusProcessing = "processing"
	StatusFinished   = "finished"
	StatusError      = "error"

	taskImport  = "import-docx"
	taskConvert = "convert-pdf"
	taskExport  = "export-pdf"
)

var (
	ErrJobFailed = errors.New("cloudconvert: job failed")
	ErrTimeout   = errors.New("cloudconvert: job did not finish before deadline")
	errPending   = errors.New("cloudconvert: job pending")
)

type Config struct {
	APIKey  string
	BaseURL string
	// Timeout bounds the whole convert call, polling included.
	Timeout time.Duration
	// PollInterval is the first backoff interval; it doubles up to PollMax.
	PollInterval time.Duration
	PollMax      time.Duration
}

type Client struct {
	log  *logger.Logger
	http *http.Client
	cfg  Config
}

type Job struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Tasks  []Task `json:"tasks"`
}

type Task struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Operation string     `json:"operation"`
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	Code      string     `json:"code"`
	Result    TaskResult `json:"result"`
}

type TaskResult struct {
	Form  *UploadForm `json:"form,omitempty"`
	Files []File      `json:"files,omitempty"`
}

type UploadForm struct {
	URL        string            `json:"url"`
	Parameters map[string]string `json:"parameters"`
}

type File struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

type jobEnvelope struct {
	Data Job `json:"data"`
}

func New(log *logger.Logger, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing CLOUDCONVERT_API_KEY")
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	if cfg.PollMax <= 0 {
		cfg.PollMax = 5 * time.Second
	}
	return &Client{
		log:  log.With("client", "CloudConvert"),
		http: httpx.NewClient(cfg.Timeout),
		cfg:  cfg,
	}, nil
}

// ConvertToPDF runs import/upload -> convert -> export/url and returns the
// exported PDF bytes.
func (c *Client) ConvertToPDF(ctx context.Context, name string, data []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	job, err := c.CreateJob(ctx)
	if err != nil {
		return nil, err
	}
	upload, ok := job.Task(taskImport)
	if !ok || upload.Result.Form == nil {
		return nil, fmt.Errorf("cloudconvert: job %s has no upload form", job.ID)
	}
	if err := c.Upload(ctx, *upload.Result.Form, name, data); err != nil {
		return nil, err
	}
	c.log.Debug("Uploaded conversion input", "job_id", job.ID, "bytes", len(data))

	done, err := c.WaitJob(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	export, ok := done.Task(taskExport)
	if !ok || len(export.Result.Files) == 0 || export.Result.Files[0].URL == "" {
		return nil, fmt.Errorf("%w: job %s finished without export file", ErrJobFailed, done.ID)
	}
	return c.Download(ctx, export.Result.Files[0].URL)
}

func (c *Client) CreateJob(ctx context.Context) (*Job, error) {
	body := map[string]any{
		"tasks": map[string]any{
			taskImport: map[string]any{
				"operation": "import/upload",
			},
			taskConvert: map[string]any{
				"operation":     "convert",
				"input":         []string{taskImport},
				"input_format":  "docx",
				"output_format": "pdf",
			},
			taskExport: map[string]any{
				"operation": "export/url",
				"input":     []string{taskConvert},
			},
		},
		"tag": "pao-report",
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v2/jobs", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var env jobEnvelope
	if err := c.doJSON(req, &env); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return &env.Data, nil
}

// Upload posts data to the presigned form of an import/upload task. Form
// parameters must precede the file part.
func (c *Client) Upload(ctx context.Context, form UploadForm, name string, data []byte) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range form.Parameters {
		if err := mw.WriteField(k, v); err != nil {
			return err
		}
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return err
	}
	if _, err := fw.Write(data); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, form.URL, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	if err := httpx.CheckResponse("cloudconvert", resp); err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/v2/jobs/"+id, nil)
	if err != nil {
		return nil, err
	}
	var env jobEnvelope
	if err := c.doJSON(req, &env); err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return &env.Data, nil
}

// WaitJob polls the job with exponential backoff until it finishes, fails,
// or ctx expires. Expiry is reported as ErrTimeout.
func (c *Client) WaitJob(ctx context.Context, id string) (*Job, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.PollInterval
	bo.MaxInterval = c.cfg.PollMax
	bo.Multiplier = 2

	polls := 0
	op := func() (*Job, error) {
		polls++
		job, err := c.GetJob(ctx, id)
		if err != nil {
			if httpx.IsRetryableError(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		switch job.Status {
		case StatusFinished:
			return job, nil
		case StatusError:
			return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrJobFailed, job.FailureMessage()))
		default:
			return nil, errPending
		}
	}

	opts := []backoff.RetryOption{backoff.WithBackOff(bo)}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, backoff.WithMaxElapsedTime(time.Until(deadline)))
	}
	job, err := backoff.Retry(ctx, op, opts...)
	if err != nil {
		if errors.Is(err, errPending) || errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			c.log.Warn("Conversion job timed out", "job_id", id, "polls", polls)
			return nil, fmt.Errorf("%w (job %s)", ErrTimeout, id)
		}
		return nil, err
	}
	c.log.Debug("Conversion job finished", "job_id", id, "polls", polls)
	return job, nil
}

func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()
	if err := httpx.CheckResponse("cloudconvert", resp); err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := httpx.CheckResponse("cloudconvert", resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (j *Job) Task(name string) (Task, bool) {
	if j == nil {
		return Task{}, false
	}
	for _, t := range j.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return Task{}, false
}

// FailureMessage returns the first failed task's message.
func (j *Job) FailureMessage() string {
	if j == nil {
		return ""
	}
	for _, t := range j.Tasks {
		if t.Status == StatusError {
			msg := strings.TrimSpace(t.Message)
			if t.Code != "" {
				msg = t.Code + ": " + msg
			}
			if msg == "" {
				msg = t.Name
			}
			return msg
		}
	}
	return "job " + j.ID
}
