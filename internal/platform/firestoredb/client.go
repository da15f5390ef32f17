package firestoredb

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/firestore"

	"github.com/yungbote/pao-report-backend/internal/platform/gcp"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

// NewClient connects to Firestore using the same credential resolution as the
// storage client. FIRESTORE_EMULATOR_HOST is honoured by the SDK itself.
func NewClient(ctx context.Context, log *logger.Logger, projectID string) (*firestore.Client, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}
	opts := gcp.ClientOptionsFromEnv()
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	log.Info(
		"Firestore client initialized",
		"project_id", projectID,
		"emulator_host", strings.TrimSpace(os.Getenv("FIRESTORE_EMULATOR_HOST")),
	)
	return client, nil
}
