package cloudconvert

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

type fakeServer struct {
	srv        *httptest.Server
	polls      atomic.Int32
	finishAt   int32
	failJob    bool
	uploaded   atomic.Value
	authHeader atomic.Value
}

func newFakeServer(t *testing.T, finishAt int32, failJob bool) *fakeServer {
	t.Helper()
	fs := &fakeServer{finishAt: finishAt, failJob: failJob}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v2/jobs", func(w http.ResponseWriter, r *http.Request) {
		fs.authHeader.Store(r.Header.Get("Authorization"))
		writeJob(w, Job{
			ID:     "job-1",
			Status: StatusWaiting,
			Tasks: []Task{{
				Name:      taskImport,
				Operation: "import/upload",
				Status:    StatusWaiting,
				Result: TaskResult{Form: &UploadForm{
					URL:        fs.srv.URL + "/upload",
					Parameters: map[string]string{"key": "abc"},
				}},
			}},
		})
	})
	mux.HandleFunc("POST /upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if r.FormValue("key") != "abc" {
			http.Error(w, "missing key", http.StatusBadRequest)
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		raw, _ := io.ReadAll(f)
		fs.uploaded.Store(string(raw))
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("GET /v2/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		n := fs.polls.Add(1)
		switch {
		case fs.failJob:
			writeJob(w, Job{ID: "job-1", Status: StatusError, Tasks: []Task{{
				Name: taskConvert, Status: StatusError, Code: "INVALID_FILE", Message: "bad docx",
			}}})
		case fs.finishAt > 0 && n >= fs.finishAt:
			writeJob(w, Job{ID: "job-1", Status: StatusFinished, Tasks: []Task{{
				Name:   taskExport,
				Status: StatusFinished,
				Result: TaskResult{Files: []File{{Filename: "p1.pdf", URL: fs.srv.URL + "/files/p1.pdf"}}},
			}}})
		default:
			writeJob(w, Job{ID: "job-1", Status: StatusProcessing})
		}
	})
	mux.HandleFunc("GET /files/p1.pdf", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("%PDF-fake"))
	})
	fs.srv = httptest.NewServer(mux)
	t.Cleanup(fs.srv.Close)
	return fs
}

func writeJob(w http.ResponseWriter, job Job) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(jobEnvelope{Data: job})
}

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	t.Helper()
	c, err := New(logger.Nop(), Config{
		APIKey:       "secret",
		BaseURL:      baseURL,
		Timeout:      timeout,
		PollInterval: 5 * time.Millisecond,
		PollMax:      20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestConvertToPDFHappyPath(t *testing.T) {
	fs := newFakeServer(t, 2, false)
	c := newTestClient(t, fs.srv.URL, 5*time.Second)

	out, err := c.ConvertToPDF(t.Context(), "p1.docx", []byte("docx-bytes"))
	if err != nil {
		t.Fatalf("ConvertToPDF: %v", err)
	}
	if string(out) != "%PDF-fake" {
		t.Fatalf("output: got=%q", out)
	}
	if got, _ := fs.uploaded.Load().(string); got != "docx-bytes" {
		t.Fatalf("uploaded: got=%q", got)
	}
	if got, _ := fs.authHeader.Load().(string); got != "Bearer secret" {
		t.Fatalf("auth header: got=%q", got)
	}
	if fs.polls.Load() < 2 {
		t.Fatalf("expected at least two polls, got %d", fs.polls.Load())
	}
}

func TestConvertToPDFJobError(t *testing.T) {
	fs := newFakeServer(t, 2, true)
	c := newTestClient(t, fs.srv.URL, 5*time.Second)

	_, err := c.ConvertToPDF(t.Context(), "p1.docx", []byte("docx"))
	if !errors.Is(err, ErrJobFailed) {
		t.Fatalf("want ErrJobFailed, got %v", err)
	}
	if !strings.Contains(err.Error(), "INVALID_FILE: bad docx") {
		t.Fatalf("downstream message lost: %v", err)
	}
}

func TestConvertToPDFTimeout(t *testing.T) {
	fs := newFakeServer(t, 0, false)
	c := newTestClient(t, fs.srv.URL, 150*time.Millisecond)

	_, err := c.ConvertToPDF(t.Context(), "p1.docx", []byte("docx"))
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("want ErrTimeout, got %v", err)
	}
}

func TestCreateJobNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Unauthenticated."}`)
	}))
	defer srv.Close()
	c := newTestClient(t, srv.URL, time.Second)

	_, err := c.CreateJob(t.Context())
	if err == nil || !strings.Contains(err.Error(), "Unauthenticated.") {
		t.Fatalf("want status error with body, got %v", err)
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}
