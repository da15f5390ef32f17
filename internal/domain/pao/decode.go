package pao

import "strings"

func DecodeProgram(id string, doc Document) ProgramRecord {
	f := FieldsOf(doc)
	rec := ProgramRecord{
		ID:             id,
		ProgramCode:    f.String(FieldProgramCode),
		Groups:         nonEmpty(f.Strings(FieldGroups)),
		Career:         f.String(FieldCareer),
		Cycle:          f.String(FieldCycle),
		Subjects:       f.Strings(FieldSubjects),
		ApproverName:   f.String(FieldApproverName),
		SubmissionDate: f.String(FieldSubmissionDate),
	}
	copy(rec.Conclusions[:], f.Strings(FieldConclusions))
	copy(rec.Recommendations[:], f.Strings(FieldRecommendations))
	return rec
}

func DecodeActivity(doc Document) ActivityRecord {
	f := FieldsOf(doc)
	rec := ActivityRecord{
		Number: f.Int(FieldNumber),
		Date:   strings.TrimSpace(f.String(FieldDate)),
	}
	for _, od := range f.Docs(FieldObservations) {
		rec.Observations = append(rec.Observations, DecodeObservation(od))
	}
	return rec
}

func DecodeObservation(doc Document) ObservationEntry {
	f := FieldsOf(doc)
	return ObservationEntry{
		Subject:            f.String(FieldSubject),
		ProblemsDetected:   f.String(FieldProblemsDetected),
		ImprovementActions: f.String(FieldImprovementActions),
		ResultsObtained:    f.String(FieldResultsObtained),
	}
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SameSubject compares subject names the way observation entries are matched
// to program subjects: trimmed and case-insensitive.
func SameSubject(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	return strings.EqualFold(a, b)
}
