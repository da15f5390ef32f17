package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/pao-report-backend/internal/data/repos/records"
	"github.com/yungbote/pao-report-backend/internal/domain/pao"
	"github.com/yungbote/pao-report-backend/internal/platform/apierr"
	"github.com/yungbote/pao-report-backend/internal/platform/ctxutil"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

type FetchMode string

const (
	// FetchScan reads all activity children in one ordered query.
	FetchScan FetchMode = "scan"
	// FetchLookup reads ordinals 1..10 individually by id.
	FetchLookup FetchMode = "lookup"
)

func ParseFetchMode(raw string) (FetchMode, error) {
	switch m := FetchMode(strings.ToLower(strings.TrimSpace(raw))); m {
	case "":
		return FetchScan, nil
	case FetchScan, FetchLookup:
		return m, nil
	default:
		return "", fmt.Errorf("invalid ACTIVITY_FETCH_MODE=%q (allowed: scan, lookup)", raw)
	}
}

type LoaderConfig struct {
	FetchMode    FetchMode
	RequireTutor bool
	Profiles     *Profiles
}

// Bundle is everything needed to build one report.
type Bundle struct {
	Program    pao.ProgramRecord
	Activities []pao.ActivityRecord
	// Template is the profile's template override, empty for the default.
	Template string
}

type Loader struct {
	log   *logger.Logger
	store records.RecordStore
	cfg   LoaderConfig
}

func NewLoader(log *logger.Logger, store records.RecordStore, cfg LoaderConfig) *Loader {
	if cfg.FetchMode == "" {
		cfg.FetchMode = FetchScan
	}
	return &Loader{
		log:   log.With("service", "RecordLoader"),
		store: store,
		cfg:   cfg,
	}
}

func (l *Loader) Load(ctx context.Context, id string) (*Bundle, error) {
	log := l.log.With(ctxutil.LogFields(ctx)...).With("pao_id", id)

	doc, err := l.store.GetProgram(ctx, id)
	if err != nil {
		if errors.Is(err, pao.ErrNotFound) {
			return nil, apierr.NotFound("pao_not_found", "PAO no encontrado")
		}
		return nil, storeError("load program", err)
	}
	program := pao.DecodeProgram(id, doc)

	tutor, err := l.store.FindTutorName(ctx, id)
	switch {
	case err == nil:
		program.TutorName = tutor
	case errors.Is(err, pao.ErrNotFound):
		if l.cfg.RequireTutor {
			return nil, apierr.NotFound("tutor_not_found", "No se encontró tutor asignado a este PAO")
		}
		log.Warn("No tutor assigned; rendering without tutor name")
	default:
		return nil, storeError("find tutor", err)
	}

	activities, err := l.activities(ctx, id)
	if err != nil {
		return nil, err
	}

	b := &Bundle{Program: program, Activities: activities}
	if prof, ok := l.cfg.Profiles.Lookup(program.ProgramCode); ok {
		if len(prof.Subjects) > 0 {
			b.Program.Subjects = append([]string(nil), prof.Subjects...)
		}
		b.Template = prof.Template
	}
	log.Debug("Loaded program",
		"activities", len(activities),
		"subjects", len(b.Program.Subjects),
		"fetch_mode", l.cfg.FetchMode,
	)
	return b, nil
}

// ApplyProfile applies the subject-order and template overrides to an
// inline record.
func (l *Loader) ApplyProfile(program pao.ProgramRecord) (pao.ProgramRecord, string) {
	prof, ok := l.cfg.Profiles.Lookup(program.ProgramCode)
	if !ok {
		return program, ""
	}
	if len(prof.Subjects) > 0 {
		program.Subjects = append([]string(nil), prof.Subjects...)
	}
	return program, prof.Template
}

func (l *Loader) activities(ctx context.Context, id string) ([]pao.ActivityRecord, error) {
	if l.cfg.FetchMode == FetchLookup {
		return l.lookupActivities(ctx, id)
	}
	docs, err := l.store.ListActivities(ctx, id)
	if err != nil {
		return nil, storeError("list activities", err)
	}
	out := make([]pao.ActivityRecord, 0, len(docs))
	for _, d := range docs {
		out = append(out, pao.DecodeActivity(d))
	}
	return out, nil
}

// lookupActivities fetches each ordinal concurrently. Missing ordinals are
// skipped; the result is ordered by ordinal.
func (l *Loader) lookupActivities(ctx context.Context, id string) ([]pao.ActivityRecord, error) {
	var (
		mu    sync.Mutex
		found [pao.MaxActivities]*pao.ActivityRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	for n := 1; n <= pao.MaxActivities; n++ {
		n := n
		g.Go(func() error {
			doc, err := l.store.GetActivity(gctx, id, n)
			if err != nil {
				if errors.Is(err, pao.ErrNotFound) {
					return nil
				}
				return err
			}
			act := pao.DecodeActivity(doc)
			// The document id is authoritative for ordinal lookups.
			act.Number = n
			mu.Lock()
			found[n-1] = &act
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, storeError("lookup activities", err)
	}
	out := make([]pao.ActivityRecord, 0, pao.MaxActivities)
	for _, a := range found {
		if a != nil {
			out = append(out, *a)
		}
	}
	return out, nil
}

func storeError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return apierr.Downstream("record_store_failed", fmt.Errorf("%s: %w", op, err))
}
