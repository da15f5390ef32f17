package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/pao-report-backend/internal/contextbuilder"
	"github.com/yungbote/pao-report-backend/internal/convert"
	"github.com/yungbote/pao-report-backend/internal/domain/pao"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
	"github.com/yungbote/pao-report-backend/internal/platform/redislock"
)

type memStore struct {
	programs   map[string]pao.Document
	activities map[string][]pao.Document
	tutors     map[string]string
	err        error

	mu      sync.Mutex
	lookups []int
}

func newMemStore() *memStore {
	return &memStore{
		programs: map[string]pao.Document{
			"p1": {
				"pao":          "5",
				"paralelos":    []any{"A", "B"},
				"carrera":      "Software",
				"ciclo":        "2025-1",
				"materias":     []any{"Math", "Physics"},
				"fechaEntrega": "30/06/2025",
			},
		},
		activities: map[string][]pao.Document{
			"p1": {
				{"numero": 1, "fecha": "01/03/2025", "observaciones": []any{
					map[string]any{"materia": "math ", "problemasDetectados": "late", "accionesMejora": "tutoring", "resultadosObtenidos": "better"},
				}},
				{"numero": 3, "fecha": "15/03/2025"},
			},
		},
		tutors: map[string]string{"p1": "Ana"},
	}
}

func (m *memStore) GetProgram(_ context.Context, id string) (pao.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	d, ok := m.programs[id]
	if !ok {
		return nil, pao.ErrNotFound
	}
	return d, nil
}

func (m *memStore) ListActivities(_ context.Context, id string) ([]pao.Document, error) {
	return m.activities[id], nil
}

func (m *memStore) GetActivity(_ context.Context, id string, number int) (pao.Document, error) {
	m.mu.Lock()
	m.lookups = append(m.lookups, number)
	m.mu.Unlock()
	for _, d := range m.activities[id] {
		if pao.FieldsOf(d).Int(pao.FieldNumber) == number {
			return d, nil
		}
	}
	return nil, pao.ErrNotFound
}

func (m *memStore) FindTutorName(_ context.Context, id string) (string, error) {
	name, ok := m.tutors[id]
	if !ok {
		return "", pao.ErrNotFound
	}
	return name, nil
}

func (m *memStore) Close() error { return nil }

// echoRenderer "renders" by serialising the keys it was handed.
type echoRenderer struct {
	mu       sync.Mutex
	template string
	data     map[string]any
	span     trace.SpanContext
	err      error
}

func (r *echoRenderer) Render(ctx context.Context, name string, data map[string]any) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.span = trace.SpanContextFromContext(ctx)
	r.template = name
	r.data = data
	if r.err != nil {
		return nil, r.err
	}
	return []byte(fmt.Sprintf("docx:%v", data[contextbuilder.KeyPaoID])), nil
}

type fakeConverter struct {
	err   error
	calls int
}

func (c *fakeConverter) Convert(_ context.Context, src convert.Source) (convert.Result, error) {
	c.calls++
	if c.err != nil {
		return convert.Result{}, c.err
	}
	return convert.Result{Name: "x.pdf", Data: append([]byte("pdf:"), src.Data...), Provider: "fake", Pages: 2}, nil
}

func (c *fakeConverter) Provider() convert.Provider { return "fake" }

type memBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	public  map[string]bool
	failPut bool
}

func newMemBucket() *memBucket {
	return &memBucket{objects: map[string][]byte{}, public: map[string]bool{}}
}

func (b *memBucket) UploadFile(_ context.Context, key string, r io.Reader) error {
	if b.failPut {
		return errors.New("bucket unavailable")
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = raw
	return nil
}

func (b *memBucket) MakePublic(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.public[key] = true
	return nil
}

func (b *memBucket) GetPublicURL(key string) string {
	return "https://storage.test/bucket/" + key
}

func (b *memBucket) SignedURL(key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://storage.test/bucket/%s?ttl=%s&sig=x", key, ttl), nil
}

type heldLocker struct{}

func (heldLocker) Acquire(context.Context, string) (func(), error) { return nil, redislock.ErrHeld }

type countingLocker struct {
	acquired, released int
}

func (l *countingLocker) Acquire(context.Context, string) (func(), error) {
	l.acquired++
	return func() { l.released++ }, nil
}

type fixture struct {
	store     *memStore
	renderer  *echoRenderer
	converter *fakeConverter
	bucket    *memBucket
	svc       ReportService
}

func newFixture(cfg ReportServiceConfig, loaderCfg LoaderConfig, locker Locker, withConverter bool) *fixture {
	f := &fixture{
		store:     newMemStore(),
		renderer:  &echoRenderer{},
		converter: &fakeConverter{},
		bucket:    newMemBucket(),
	}
	var conv convert.Converter
	if withConverter {
		conv = f.converter
	}
	log := logger.Nop()
	f.svc = NewReportService(
		log,
		NewLoader(log, f.store, loaderCfg),
		contextbuilder.New(contextbuilder.Options{}),
		f.renderer,
		conv,
		f.bucket,
		locker,
		nil,
		cfg,
	)
	return f
}
