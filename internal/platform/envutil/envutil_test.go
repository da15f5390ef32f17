package envutil

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	t.Setenv("PAO_TEST_DURATION", "")
	if got := Duration("PAO_TEST_DURATION", time.Minute); got != time.Minute {
		t.Fatalf("default: got=%v", got)
	}
	t.Setenv("PAO_TEST_DURATION", "45")
	if got := Duration("PAO_TEST_DURATION", time.Minute); got != 45*time.Second {
		t.Fatalf("seconds: got=%v", got)
	}
	t.Setenv("PAO_TEST_DURATION", "2m30s")
	if got := Duration("PAO_TEST_DURATION", time.Minute); got != 150*time.Second {
		t.Fatalf("duration string: got=%v", got)
	}
	t.Setenv("PAO_TEST_DURATION", "soon")
	if got := Duration("PAO_TEST_DURATION", time.Minute); got != time.Minute {
		t.Fatalf("invalid: got=%v", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("PAO_TEST_BOOL", "on")
	if !Bool("PAO_TEST_BOOL", false) {
		t.Fatalf("on: want true")
	}
	t.Setenv("PAO_TEST_BOOL", "off")
	if Bool("PAO_TEST_BOOL", true) {
		t.Fatalf("off: want false")
	}
	t.Setenv("PAO_TEST_BOOL", "maybe")
	if !Bool("PAO_TEST_BOOL", true) {
		t.Fatalf("unknown: want default")
	}
}

func TestIntAndString(t *testing.T) {
	t.Setenv("PAO_TEST_INT", " 12 ")
	if got := Int("PAO_TEST_INT", 3); got != 12 {
		t.Fatalf("Int: got=%d", got)
	}
	t.Setenv("PAO_TEST_STR", "  ")
	if got := String("PAO_TEST_STR", "fallback"); got != "fallback" {
		t.Fatalf("String: got=%q", got)
	}
}
