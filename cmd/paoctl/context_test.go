package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/yungbote/pao-report-backend/internal/contextbuilder"
)

func TestWriteContextTableOnlyFilled(t *testing.T) {
	tc := contextbuilder.TemplateContext{}
	for _, k := range contextbuilder.Keys() {
		tc[k] = ""
	}
	tc[contextbuilder.KeyCareer] = "Software"
	var buf bytes.Buffer
	writeContextTable(&buf, tc, true)
	out := buf.String()
	if !strings.Contains(out, "Software") {
		t.Fatalf("table missing value:\n%s", out)
	}
	if strings.Contains(out, contextbuilder.DateKey(1)) {
		t.Fatalf("empty key shown with --filled:\n%s", out)
	}
}

func TestWriteContextJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeContextJSON(&buf, contextbuilder.TemplateContext{contextbuilder.KeyTutorName: "Ana"}); err != nil {
		t.Fatalf("writeContextJSON: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got[contextbuilder.KeyTutorName] != "Ana" {
		t.Fatalf("tutor: got=%q", got[contextbuilder.KeyTutorName])
	}
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	rootCmd.SetArgs([]string{"generate", "123", "--format", "odt"})
	var errBuf bytes.Buffer
	rootCmd.SetErr(&errBuf)
	rootCmd.SetOut(&errBuf)
	if err := rootCmd.Execute(); err == nil {
		t.Fatalf("want error for odt")
	}
}
