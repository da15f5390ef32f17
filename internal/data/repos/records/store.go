package records

import (
	"context"
	"fmt"

	"github.com/yungbote/pao-report-backend/internal/domain/pao"
)

// RecordStore is read-only access to program documents, their activity
// children and the users collection. Missing documents are pao.ErrNotFound.
type RecordStore interface {
	GetProgram(ctx context.Context, id string) (pao.Document, error)
	// ListActivities scans the program's activity children ordered by ordinal.
	ListActivities(ctx context.Context, id string) ([]pao.Document, error)
	// GetActivity looks up a single activity by ordinal.
	GetActivity(ctx context.Context, id string, number int) (pao.Document, error)
	FindTutorName(ctx context.Context, id string) (string, error)
	Close() error
}

// CollectionNames configures where documents live. Zero values fall back to
// the names the reports were originally stored under.
type CollectionNames struct {
	Programs   string
	Activities string
	Users      string
	// ActivityIDFormat builds activity document ids for direct lookup,
	// e.g. "actividad_%d".
	ActivityIDFormat string
}

func (n CollectionNames) withDefaults(programs, activities string) CollectionNames {
	if n.Programs == "" {
		n.Programs = programs
	}
	if n.Activities == "" {
		n.Activities = activities
	}
	if n.Users == "" {
		n.Users = "usuarios"
	}
	if n.ActivityIDFormat == "" {
		n.ActivityIDFormat = "actividad_%d"
	}
	return n
}

func (n CollectionNames) activityID(number int) string {
	return fmt.Sprintf(n.ActivityIDFormat, number)
}
