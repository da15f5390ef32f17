// Package contextbuilder flattens a program record and its activities into the
// flat placeholder map consumed by the report template.
package contextbuilder

import (
	"sort"
	"strings"

	"github.com/yungbote/pao-report-backend/internal/domain/pao"
)

// TemplateContext maps placeholder names to values. A built context always
// holds exactly the keys returned by Keys.
type TemplateContext map[string]string

// Map converts the context to the shape template engines accept.
func (c TemplateContext) Map() map[string]any {
	out := make(map[string]any, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// SortedKeys returns the context keys in lexical order.
func (c TemplateContext) SortedKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type Options struct {
	// MissingObservation fills observation cells with no backing entry.
	// Empty string by default; some deployments print "Sin datos".
	MissingObservation string
}

type Builder struct {
	opts Options
}

func New(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Build never fails: absent or malformed source data collapses to defaults.
func (b *Builder) Build(program pao.ProgramRecord, activities []pao.ActivityRecord) TemplateContext {
	ctx := make(TemplateContext, KeyCount)

	ctx[KeyPaoID] = program.ID
	ctx[KeyProgramCode] = program.ProgramCode
	ctx[KeyGroups] = strings.Join(program.Groups, "-")
	ctx[KeyCareer] = program.Career
	ctx[KeyCycle] = program.Cycle
	ctx[KeyTutorName] = program.TutorName
	ctx[KeyApproverName] = program.ApproverName
	ctx[KeySubmissionDate] = program.SubmissionDate
	for i := 0; i < pao.NarrativeLines; i++ {
		ctx[ConclusionKey(i+1)] = program.Conclusions[i]
		ctx[RecommendationKey(i+1)] = program.Recommendations[i]
	}

	var subjects [pao.MaxSubjects]string
	copy(subjects[:], program.Subjects)
	for p, name := range subjects {
		ctx[SubjectKey(p+1)] = name
	}

	byNumber := indexActivities(activities)
	for n := 1; n <= pao.MaxActivities; n++ {
		act := byNumber[n]
		if act != nil {
			ctx[DateKey(n)] = act.Date
		} else {
			ctx[DateKey(n)] = ""
		}
		for p, name := range subjects {
			entry := findObservation(act, name)
			for _, kind := range pao.ObservationKinds {
				val := b.opts.MissingObservation
				if entry != nil {
					val = entry.Value(kind)
				}
				ctx[ObservationKey(kind, n, p+1)] = val
			}
		}
	}
	return ctx
}

// indexActivities keys activities by ordinal; out-of-range ordinals are
// dropped and the first record for a repeated ordinal wins.
func indexActivities(activities []pao.ActivityRecord) map[int]*pao.ActivityRecord {
	out := make(map[int]*pao.ActivityRecord, pao.MaxActivities)
	for i := range activities {
		n := activities[i].Number
		if !pao.ValidNumber(n) {
			continue
		}
		if _, seen := out[n]; seen {
			continue
		}
		out[n] = &activities[i]
	}
	return out
}

func findObservation(act *pao.ActivityRecord, subject string) *pao.ObservationEntry {
	if act == nil {
		return nil
	}
	for i := range act.Observations {
		if pao.SameSubject(act.Observations[i].Subject, subject) {
			return &act.Observations[i]
		}
	}
	return nil
}
