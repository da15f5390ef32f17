package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/pao-report-backend/internal/contextbuilder"
	"github.com/yungbote/pao-report-backend/internal/convert"
	"github.com/yungbote/pao-report-backend/internal/data/db"
	"github.com/yungbote/pao-report-backend/internal/data/repos/records"
	"github.com/yungbote/pao-report-backend/internal/observability"
	"github.com/yungbote/pao-report-backend/internal/platform/envutil"
	"github.com/yungbote/pao-report-backend/internal/platform/gcp"
	"github.com/yungbote/pao-report-backend/internal/platform/logger"
	"github.com/yungbote/pao-report-backend/internal/platform/redislock"
	"github.com/yungbote/pao-report-backend/internal/services"
)

type RecordStoreKind string

const (
	StoreFirestore RecordStoreKind = "firestore"
	StoreMongo     RecordStoreKind = "mongo"
	StorePostgres  RecordStoreKind = "postgres"
	StoreSQLite    RecordStoreKind = "sqlite"
)

type Config struct {
	LogMode string
	Port    string

	RecordStore      RecordStoreKind
	FirestoreProject string
	MongoURI         string
	Collections      records.CollectionNames
	SQL              db.Config

	Loader  services.LoaderConfig
	Builder contextbuilder.Options

	TemplateDir     string
	DefaultTemplate string

	Converter convert.Config

	Storage      gcp.ObjectStorageConfig
	Bucket       gcp.BucketConfig
	KeyPrefix    string
	SignedURLTTL time.Duration

	Lock redislock.Config

	AuthJWTSecret  string
	CORSOrigins    []string
	MetricsEnabled bool
	Otel           observability.OtelConfig
}

// LoadConfig reads the environment once. Invalid enumerations and an
// unreadable profile file are startup errors.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		LogMode:          envutil.String("LOG_MODE", "development"),
		Port:             envutil.String("PORT", "5000"),
		FirestoreProject: envutil.String("FIRESTORE_PROJECT_ID", envutil.String("GOOGLE_CLOUD_PROJECT", "")),
		MongoURI:         envutil.String("MONGO_URI", "mongodb://localhost:27017/academico"),
		Collections: records.CollectionNames{
			Programs:         envutil.String("PAO_COLLECTION", ""),
			Activities:       envutil.String("PAO_ACTIVITIES_COLLECTION", ""),
			Users:            envutil.String("PAO_USERS_COLLECTION", ""),
			ActivityIDFormat: envutil.String("PAO_ACTIVITY_ID_FORMAT", ""),
		},
		Builder: contextbuilder.Options{
			MissingObservation: envutil.String("MISSING_OBSERVATION_TEXT", ""),
		},
		TemplateDir:     envutil.String("TEMPLATE_DIR", "plantillas"),
		DefaultTemplate: envutil.String("TEMPLATE_NAME", "plantillafinal.docx"),
		Converter: convert.Config{
			CloudConvertAPIKey: envutil.String("CLOUDCONVERT_API_KEY", ""),
			CloudConvertURL:    envutil.String("CLOUDCONVERT_BASE_URL", ""),
			ConvertAPIToken:    envutil.String("CONVERTAPI_TOKEN", ""),
			ConvertAPIURL:      envutil.String("CONVERTAPI_BASE_URL", ""),
			Timeout:            envutil.Duration("CONVERT_TIMEOUT", 2*time.Minute),
			PollInterval:       envutil.Duration("CONVERT_POLL_INTERVAL", time.Second),
			PollMax:            envutil.Duration("CONVERT_POLL_MAX", 8*time.Second),
		},
		Bucket: gcp.BucketConfig{
			Name:      envutil.String("PAO_GCS_BUCKET_NAME", ""),
			CDNDomain: envutil.String("CDN_DOMAIN", ""),
			PublicACL: envutil.Bool("PAO_OBJECT_PUBLIC", true),
		},
		KeyPrefix:    envutil.String("PAO_OBJECT_PREFIX", "documentos_pao"),
		SignedURLTTL: envutil.Duration("SIGNED_URL_TTL", 0),
		Lock: redislock.Config{
			Addr:   envutil.String("REDIS_ADDR", ""),
			Prefix: envutil.String("REDIS_LOCK_PREFIX", ""),
			TTL:    envutil.Duration("GENERATION_LOCK_TTL", 5*time.Minute),
		},
		AuthJWTSecret:  envutil.String("AUTH_JWT_SECRET", ""),
		CORSOrigins:    splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),
		MetricsEnabled: envutil.Bool("METRICS_ENABLED", true),
		Otel:           observability.OtelConfigFromEnv(),
	}

	switch kind := RecordStoreKind(strings.ToLower(envutil.String("RECORD_STORE", string(StoreFirestore)))); kind {
	case StoreFirestore, StoreMongo:
		cfg.RecordStore = kind
	case StorePostgres:
		cfg.RecordStore = kind
		cfg.SQL = db.ConfigFromEnv(db.DialectPostgres)
	case StoreSQLite:
		cfg.RecordStore = kind
		cfg.SQL = db.ConfigFromEnv(db.DialectSQLite)
	default:
		return cfg, fmt.Errorf("invalid RECORD_STORE=%q (allowed: firestore, mongo, postgres, sqlite)", kind)
	}

	mode, err := services.ParseFetchMode(envutil.String("ACTIVITY_FETCH_MODE", ""))
	if err != nil {
		return cfg, err
	}
	profiles, err := services.LoadProfiles(envutil.String("PAO_PROFILES_FILE", ""))
	if err != nil {
		return cfg, err
	}
	cfg.Loader = services.LoaderConfig{
		FetchMode:    mode,
		RequireTutor: envutil.Bool("REQUIRE_TUTOR", true),
		Profiles:     profiles,
	}

	provider, err := convert.ParseProvider(envutil.String("CONVERTER", ""))
	if err != nil {
		return cfg, err
	}
	cfg.Converter.Provider = provider

	storageCfg, err := gcp.ResolveObjectStorageConfigFromEnv()
	if err != nil {
		return cfg, err
	}
	cfg.Storage = storageCfg

	log.Info("Configuration loaded",
		"record_store", cfg.RecordStore,
		"fetch_mode", cfg.Loader.FetchMode,
		"require_tutor", cfg.Loader.RequireTutor,
		"profiles", len(profiles.Programs),
		"converter", cfg.Converter.Provider,
		"storage_mode", cfg.Storage.Mode,
		"bucket", cfg.Bucket.Name,
		"signed_url_ttl", cfg.SignedURLTTL,
		"auth_enabled", cfg.AuthJWTSecret != "",
		"lock_enabled", cfg.Lock.Addr != "",
	)
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
