package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/yungbote/pao-report-backend/internal/contextbuilder"
	"github.com/yungbote/pao-report-backend/internal/domain/pao"
	"github.com/yungbote/pao-report-backend/internal/platform/apierr"
)

func TestGenerateBothFormats(t *testing.T) {
	locker := &countingLocker{}
	f := newFixture(ReportServiceConfig{SignedURLTTL: time.Hour}, LoaderConfig{}, locker, true)

	res, err := f.svc.Generate(context.Background(), GenerateRequest{PaoID: " p1 "})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.DocxURL != "https://storage.test/bucket/documentos_pao/p1.docx" {
		t.Fatalf("DocxURL: got=%q", res.DocxURL)
	}
	if res.PDFURL != "https://storage.test/bucket/documentos_pao/p1.pdf" {
		t.Fatalf("PDFURL: got=%q", res.PDFURL)
	}
	if !strings.Contains(res.SignedPDFURL, "sig=") || !strings.Contains(res.SignedDocxURL, "sig=") {
		t.Fatalf("signed urls missing: %+v", res)
	}
	if res.Pages != 2 {
		t.Fatalf("Pages: got=%d", res.Pages)
	}
	if got := string(f.bucket.objects["documentos_pao/p1.pdf"]); got != "pdf:docx:p1" {
		t.Fatalf("pdf object: got=%q", got)
	}
	if !f.bucket.public["documentos_pao/p1.docx"] || !f.bucket.public["documentos_pao/p1.pdf"] {
		t.Fatalf("objects not made public: %v", f.bucket.public)
	}
	if locker.acquired != 1 || locker.released != 1 {
		t.Fatalf("lock: acquired=%d released=%d", locker.acquired, locker.released)
	}
}

func TestGeneratePDFOnlyWithoutSigning(t *testing.T) {
	f := newFixture(ReportServiceConfig{}, LoaderConfig{}, nil, true)

	res, err := f.svc.Generate(context.Background(), GenerateRequest{PaoID: "p1", Formats: []Format{FormatPDF}})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.DocxURL != "" || res.SignedPDFURL != "" {
		t.Fatalf("unexpected outputs: %+v", res)
	}
	if _, ok := f.bucket.objects["documentos_pao/p1.docx"]; ok {
		t.Fatalf("docx should not be uploaded for pdf-only requests")
	}
}

func TestGenerateContextReachesRenderer(t *testing.T) {
	f := newFixture(ReportServiceConfig{}, LoaderConfig{}, nil, true)
	if _, err := f.svc.Generate(context.Background(), GenerateRequest{PaoID: "p1"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data := f.renderer.data
	if len(data) != contextbuilder.KeyCount {
		t.Fatalf("context size: want=%d got=%d", contextbuilder.KeyCount, len(data))
	}
	checks := map[string]string{
		"paralelo":                             "A-B",
		"nombre_tutor":                         "Ana",
		"subject_1":                            "Math",
		"date_1":                               "01/03/2025",
		"date_3":                               "15/03/2025",
		"observation_problemasDetectados_1_m1": "late",
		"observation_accionesMejora_1_m2":      "",
	}
	for k, want := range checks {
		if data[k] != want {
			t.Fatalf("%s: want=%q got=%v", k, want, data[k])
		}
	}
}

func TestGenerateErrors(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(*fixture)
		req    GenerateRequest
		status int
		msg    string
	}{
		{"missing id", nil, GenerateRequest{PaoID: "  "}, http.StatusBadRequest, "Falta el pao_id"},
		{"not found", nil, GenerateRequest{PaoID: "nope"}, http.StatusNotFound, "PAO no encontrado"},
		{"store down", func(f *fixture) { f.store.err = errors.New("firestore unavailable") }, GenerateRequest{PaoID: "p1"}, http.StatusBadGateway, "firestore unavailable"},
		{"conversion failed", func(f *fixture) {
			f.converter.err = apierr.Downstream("conversion_failed", errors.New("cloudconvert: job failed: INVALID_FILE"))
		}, GenerateRequest{PaoID: "p1"}, http.StatusBadGateway, "INVALID_FILE"},
		{"conversion timeout", func(f *fixture) {
			f.converter.err = apierr.Timeout("conversion_timeout", errors.New("deadline"))
		}, GenerateRequest{PaoID: "p1"}, http.StatusGatewayTimeout, "deadline"},
		{"upload failed", func(f *fixture) { f.bucket.failPut = true }, GenerateRequest{PaoID: "p1"}, http.StatusBadGateway, "bucket unavailable"},
		{"render failed", func(f *fixture) { f.renderer.err = errors.New("bad template") }, GenerateRequest{PaoID: "p1"}, http.StatusInternalServerError, "bad template"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(ReportServiceConfig{}, LoaderConfig{}, nil, true)
			if tc.setup != nil {
				tc.setup(f)
			}
			_, err := f.svc.Generate(context.Background(), tc.req)
			if err == nil {
				t.Fatalf("expected error")
			}
			if got := apierr.StatusOf(err); got != tc.status {
				t.Fatalf("status: want=%d got=%d (%v)", tc.status, got, err)
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("message: want %q in %q", tc.msg, err.Error())
			}
		})
	}
}

func TestGenerateRejectsUnsafeIDs(t *testing.T) {
	for _, id := range []string{"a/x", "b/x", "..", ".", "a..b", `a\x`, "p1\x00"} {
		t.Run(id, func(t *testing.T) {
			f := newFixture(ReportServiceConfig{}, LoaderConfig{}, nil, true)
			f.store.programs[id] = f.store.programs["p1"]
			_, err := f.svc.Generate(context.Background(), GenerateRequest{PaoID: id})
			e, ok := apierr.As(err)
			if !ok || e.Status != http.StatusBadRequest || e.Code != "invalid_pao_id" {
				t.Fatalf("want 400 invalid_pao_id, got %v", err)
			}
			if len(f.bucket.objects) != 0 {
				t.Fatalf("nothing should be uploaded: %v", f.bucket.objects)
			}
		})
	}
}

func TestGenerateStageSpansNest(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	f := newFixture(ReportServiceConfig{}, LoaderConfig{}, nil, true)
	if _, err := f.svc.Generate(context.Background(), GenerateRequest{PaoID: "p1"}); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	spans := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range recorder.Ended() {
		spans[s.Name()] = s
	}
	root, ok := spans["report.generate"]
	if !ok {
		t.Fatalf("report.generate span missing: %v", spans)
	}
	render, ok := spans["report.render"]
	if !ok {
		t.Fatalf("report.render span missing")
	}
	if render.Parent().SpanID() != root.SpanContext().SpanID() {
		t.Fatalf("report.render not parented under report.generate")
	}
	if f.renderer.span.SpanID() != render.SpanContext().SpanID() {
		t.Fatalf("renderer ctx carries span %s, want report.render %s",
			f.renderer.span.SpanID(), render.SpanContext().SpanID())
	}
}

func TestGenerateLockHeld(t *testing.T) {
	f := newFixture(ReportServiceConfig{}, LoaderConfig{}, heldLocker{}, true)
	_, err := f.svc.Generate(context.Background(), GenerateRequest{PaoID: "p1"})
	if !apierr.IsKind(err, apierr.KindConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
}

func TestGenerateWithoutConverter(t *testing.T) {
	f := newFixture(ReportServiceConfig{}, LoaderConfig{}, nil, false)

	res, err := f.svc.Generate(context.Background(), GenerateRequest{PaoID: "p1"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.DocxURL == "" || res.PDFURL != "" {
		t.Fatalf("want docx only: %+v", res)
	}

	_, err = f.svc.Generate(context.Background(), GenerateRequest{PaoID: "p1", Formats: []Format{FormatPDF}})
	if got := apierr.StatusOf(err); got != http.StatusServiceUnavailable {
		t.Fatalf("pdf-only without converter: want 503 got %d (%v)", got, err)
	}
}

func TestBuildContext(t *testing.T) {
	f := newFixture(ReportServiceConfig{}, LoaderConfig{}, nil, true)
	tc, err := f.svc.BuildContext(context.Background(), "p1")
	if err != nil {
		t.Fatalf("BuildContext: %v", err)
	}
	if tc[contextbuilder.KeyPaoID] != "p1" || tc["carrera"] != "Software" {
		t.Fatalf("context: pao_id=%q carrera=%q", tc[contextbuilder.KeyPaoID], tc["carrera"])
	}
	if f.converter.calls != 0 || len(f.bucket.objects) != 0 {
		t.Fatalf("BuildContext must not convert or upload")
	}
}

func TestRenderInlineAppliesProfile(t *testing.T) {
	profiles, err := ParseProfiles([]byte(`
programs:
  "5":
    subjects: ["Tecnologías Web", "Base de Datos Avanzadas"]
    template: pao5.docx
`))
	if err != nil {
		t.Fatalf("ParseProfiles: %v", err)
	}
	f := newFixture(ReportServiceConfig{}, LoaderConfig{Profiles: profiles}, nil, true)

	out, name, err := f.svc.RenderInline(context.Background(), InlineRequest{
		Program: pao.ProgramRecord{ProgramCode: "5", Subjects: []string{"ignored"}},
		Activities: []pao.ActivityRecord{{Number: 1, Observations: []pao.ObservationEntry{
			{Subject: "tecnologías web", ResultsObtained: "ok"},
		}}},
	})
	if err != nil {
		t.Fatalf("RenderInline: %v", err)
	}
	if string(out) != "docx:5" || name != "PAO_5.docx" {
		t.Fatalf("output: %q name=%q", out, name)
	}
	if f.renderer.template != "pao5.docx" {
		t.Fatalf("template: got=%q", f.renderer.template)
	}
	if f.renderer.data["subject_1"] != "Tecnologías Web" || f.renderer.data["observation_resultadosObtenidos_1_m1"] != "ok" {
		t.Fatalf("profile subjects not applied: %v / %v", f.renderer.data["subject_1"], f.renderer.data["observation_resultadosObtenidos_1_m1"])
	}
	if len(f.bucket.objects) != 0 {
		t.Fatalf("inline render must not upload")
	}
}

func TestRenderInlineMissingID(t *testing.T) {
	f := newFixture(ReportServiceConfig{}, LoaderConfig{}, nil, true)
	_, _, err := f.svc.RenderInline(context.Background(), InlineRequest{})
	if apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("want 400, got %v", err)
	}
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats([]string{"PDF", "pdf", "docx"})
	if err != nil || len(got) != 2 || got[0] != FormatPDF || got[1] != FormatDocx {
		t.Fatalf("ParseFormats: %v %v", got, err)
	}
	if _, err := ParseFormats([]string{"odt"}); apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("want bad request for odt, got %v", err)
	}
}
