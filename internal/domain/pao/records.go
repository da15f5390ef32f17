package pao

import "errors"

const (
	MaxSubjects   = 7
	MaxActivities = 10
	// Conclusions and recommendations are fixed three-line sections in the report.
	NarrativeLines = 3
)

// ErrNotFound is returned by record stores when a document does not exist.
var ErrNotFound = errors.New("not found")

// ObservationKind names one of the three free-text cells recorded per subject
// and activity. The value is used verbatim inside template keys.
type ObservationKind string

const (
	KindProblemsDetected   ObservationKind = "problemasDetectados"
	KindImprovementActions ObservationKind = "accionesMejora"
	KindResultsObtained    ObservationKind = "resultadosObtenidos"
)

// ObservationKinds is the fixed key order used when building contexts.
var ObservationKinds = []ObservationKind{
	KindProblemsDetected,
	KindImprovementActions,
	KindResultsObtained,
}

// ProgramRecord is one program/cycle instance (a "PAO").
type ProgramRecord struct {
	ID              string                 `json:"pao_id"`
	ProgramCode     string                 `json:"pao"`
	Groups          []string               `json:"paralelos"`
	Career          string                 `json:"carrera"`
	Cycle           string                 `json:"ciclo"`
	Subjects        []string               `json:"materias"`
	ApproverName    string                 `json:"aprobadoPor"`
	Conclusions     [NarrativeLines]string `json:"conclusiones"`
	Recommendations [NarrativeLines]string `json:"recomendaciones"`
	SubmissionDate  string                 `json:"fechaEntrega"`
	TutorName       string                 `json:"nombreTutor"`
}

// ActivityRecord is one ordered child of a ProgramRecord.
type ActivityRecord struct {
	Number       int                `json:"numero"`
	Date         string             `json:"fecha"`
	Observations []ObservationEntry `json:"observaciones"`
}

type ObservationEntry struct {
	Subject            string `json:"materia"`
	ProblemsDetected   string `json:"problemasDetectados"`
	ImprovementActions string `json:"accionesMejora"`
	ResultsObtained    string `json:"resultadosObtenidos"`
}

// Value returns the cell text for kind.
func (o ObservationEntry) Value(kind ObservationKind) string {
	switch kind {
	case KindProblemsDetected:
		return o.ProblemsDetected
	case KindImprovementActions:
		return o.ImprovementActions
	case KindResultsObtained:
		return o.ResultsObtained
	default:
		return ""
	}
}

// ValidNumber reports whether n is a renderable activity ordinal.
func ValidNumber(n int) bool {
	return n >= 1 && n <= MaxActivities
}
