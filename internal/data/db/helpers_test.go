package db

import (
	"testing"

	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.Nop()
}
