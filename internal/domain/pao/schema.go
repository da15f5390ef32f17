package pao

// Field is the stored name of a document field.
type Field string

// Program document fields.
const (
	FieldProgramCode     Field = "pao"
	FieldGroups          Field = "paralelos"
	FieldCareer          Field = "carrera"
	FieldCycle           Field = "ciclo"
	FieldSubjects        Field = "materias"
	FieldApproverName    Field = "aprobadoPor"
	FieldConclusions     Field = "conclusiones"
	FieldRecommendations Field = "recomendaciones"
	FieldSubmissionDate  Field = "fechaEntrega"
)

// Activity document fields.
const (
	FieldNumber       Field = "numero"
	FieldDate         Field = "fecha"
	FieldObservations Field = "observaciones"
)

// Observation entry fields.
const (
	FieldSubject            Field = "materia"
	FieldProblemsDetected   Field = Field(KindProblemsDetected)
	FieldImprovementActions Field = Field(KindImprovementActions)
	FieldResultsObtained    Field = Field(KindResultsObtained)
)

// User document fields, used for the tutor lookup.
const (
	FieldUserName  Field = "nombre"
	FieldUserRole  Field = "rol"
	FieldUserTutor Field = "paoTutor"
)

const RoleTutor = "tutor"

// schema is the single table of optional fields and the value each one takes
// when it is absent or holds an unusable type. Accessors never invent
// defaults of their own.
var schema = map[Field]any{
	FieldProgramCode:     "",
	FieldGroups:          []string{},
	FieldCareer:          "",
	FieldCycle:           "",
	FieldSubjects:        []string{},
	FieldApproverName:    "",
	FieldConclusions:     []string{},
	FieldRecommendations: []string{},
	FieldSubmissionDate:  "",

	FieldNumber:       0,
	FieldDate:         "",
	FieldObservations: []Document{},

	FieldSubject:            "",
	FieldProblemsDetected:   "",
	FieldImprovementActions: "",
	FieldResultsObtained:    "",

	FieldUserName:  "",
	FieldUserRole:  "",
	FieldUserTutor: "",
}

// Default returns the schema default for f. Unknown fields default to nil.
func Default(f Field) any {
	return schema[f]
}
