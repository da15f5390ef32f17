package contextbuilder

import (
	"fmt"

	"github.com/yungbote/pao-report-backend/internal/domain/pao"
)

// Program-level placeholders.
const (
	KeyPaoID          = "pao_id"
	KeyProgramCode    = "pao"
	KeyGroups         = "paralelo"
	KeyCareer         = "carrera"
	KeyCycle          = "ciclo"
	KeyTutorName      = "nombre_tutor"
	KeyApproverName   = "aprobado_por"
	KeySubmissionDate = "fecha_entrega"
)

func ConclusionKey(i int) string     { return fmt.Sprintf("conclusion_%d", i) }
func RecommendationKey(i int) string { return fmt.Sprintf("recomendacion_%d", i) }
func SubjectKey(position int) string { return fmt.Sprintf("subject_%d", position) }
func DateKey(number int) string      { return fmt.Sprintf("date_%d", number) }

// ObservationKey names one cell of the activity/subject grid, e.g.
// observation_problemasDetectados_3_m1.
func ObservationKey(kind pao.ObservationKind, number, position int) string {
	return fmt.Sprintf("observation_%s_%d_m%d", kind, number, position)
}

// FixedKeys lists the program-level placeholders in template order.
func FixedKeys() []string {
	keys := []string{KeyPaoID, KeyProgramCode, KeyGroups, KeyCareer, KeyCycle, KeyTutorName, KeyApproverName}
	for i := 1; i <= pao.NarrativeLines; i++ {
		keys = append(keys, ConclusionKey(i))
	}
	for i := 1; i <= pao.NarrativeLines; i++ {
		keys = append(keys, RecommendationKey(i))
	}
	return append(keys, KeySubmissionDate)
}

// Keys returns every placeholder a built context holds, in a stable order.
func Keys() []string {
	keys := FixedKeys()
	for p := 1; p <= pao.MaxSubjects; p++ {
		keys = append(keys, SubjectKey(p))
	}
	for n := 1; n <= pao.MaxActivities; n++ {
		keys = append(keys, DateKey(n))
	}
	for _, kind := range pao.ObservationKinds {
		for n := 1; n <= pao.MaxActivities; n++ {
			for p := 1; p <= pao.MaxSubjects; p++ {
				keys = append(keys, ObservationKey(kind, n, p))
			}
		}
	}
	return keys
}

// KeyCount is len(Keys()).
var KeyCount = len(FixedKeys()) + pao.MaxSubjects + pao.MaxActivities +
	len(pao.ObservationKinds)*pao.MaxActivities*pao.MaxSubjects
