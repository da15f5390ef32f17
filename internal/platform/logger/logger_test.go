package logger

import (
	"strings"
	"testing"
)

func TestSanitizeValueRedactsSecrets(t *testing.T) {
	for _, key := range []string{"cloudconvert_api_key", "authorization", "jwt_secret", "credentials"} {
		if got := sanitizeValue(key, "value"); got != "[REDACTED]" {
			t.Fatalf("sanitizeValue(%q): want redacted got=%v", key, got)
		}
	}
}

func TestSanitizeValueHashesTutor(t *testing.T) {
	got, ok := sanitizeValue("tutor_name", "Ana Pérez").(string)
	if !ok || !strings.HasPrefix(got, "hash:") {
		t.Fatalf("sanitizeValue tutor_name: want hash got=%v", got)
	}
	again := sanitizeValue("tutor_name", "Ana Pérez")
	if again != got {
		t.Fatalf("hash not stable: %v vs %v", got, again)
	}
}

func TestStripURLSignature(t *testing.T) {
	in := "https://storage.googleapis.com/b/documentos_pao/1.pdf?X-Goog-Algorithm=GOOG4&X-Goog-Signature=abc"
	got := stripURLSignature(in)
	want := "https://storage.googleapis.com/b/documentos_pao/1.pdf?[REDACTED]"
	if got != want {
		t.Fatalf("stripURLSignature: want=%q got=%q", want, got)
	}
	plain := "https://storage.googleapis.com/b/documentos_pao/1.pdf"
	if got := stripURLSignature(plain); got != plain {
		t.Fatalf("stripURLSignature plain: want=%q got=%q", plain, got)
	}
}
