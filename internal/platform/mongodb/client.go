package mongodb

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

const defaultDBName = "academico"

// Connect opens a pooled client and verifies it with a primary ping. The
// database name comes from the URI path when present.
func Connect(ctx context.Context, log *logger.Logger, uri string) (*mongo.Client, string, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return nil, "", fmt.Errorf("missing MONGODB_URI")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(20).
		SetMinPoolSize(1).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, "", fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, "", fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := DBNameFromURI(uri)
	if dbName == "" {
		dbName = defaultDBName
	}
	log.Info("Connected to MongoDB", "database", dbName)
	return client, dbName, nil
}

// DBNameFromURI extracts the database from mongodb://host/db?opts.
func DBNameFromURI(uri string) string {
	u, err := url.Parse(strings.TrimSpace(uri))
	if err != nil {
		return ""
	}
	return strings.Trim(u.Path, "/")
}
