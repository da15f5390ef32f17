package gcp

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/pao-report-backend/internal/platform/logger"
)

type BucketConfig struct {
	Name      string
	CDNDomain string
	// PublicACL grants allUsers read on every upload. Buckets with uniform
	// bucket-level access reject object ACLs and must leave this off.
	PublicACL bool
}

// BucketService stores generated report artifacts.
type BucketService interface {
	UploadFile(ctx context.Context, key string, file io.Reader) error
	MakePublic(ctx context.Context, key string) error
	DeleteFile(ctx context.Context, key string) error
	GetPublicURL(key string) string
	SignedURL(key string, ttl time.Duration) (string, error)
	PublicACL() bool
	Close() error
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	storageMode   ObjectStorageMode
	emulatorHost  string
	bucket        BucketConfig
	publicBaseURL string
}

func NewBucketService(log *logger.Logger, storageCfg ObjectStorageConfig, bucket BucketConfig) (BucketService, error) {
	if err := ValidateObjectStorageConfig(storageCfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	if strings.TrimSpace(bucket.Name) == "" {
		return nil, fmt.Errorf("missing env var PAO_GCS_BUCKET_NAME")
	}
	serviceLog := log.With("service", "BucketService")

	stClient, err := newStorageClientForMode(context.Background(), storageCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	publicBaseURL := storageCfg.PublicBaseURL
	if publicBaseURL == "" && storageCfg.IsEmulatorMode() {
		publicBaseURL = storageCfg.EmulatorHost
	}

	serviceLog.Info(
		"Object storage initialized",
		"mode", storageCfg.Mode,
		"compatibility_fallback", storageCfg.CompatibilityFallback,
		"emulator_host", storageCfg.EmulatorHost,
		"public_base_url", publicBaseURL,
		"bucket", bucket.Name,
		"public_acl", bucket.PublicACL,
	)

	return &bucketService{
		log:           serviceLog,
		storageClient: stClient,
		storageMode:   storageCfg.Mode,
		emulatorHost:  storageCfg.EmulatorHost,
		bucket:        bucket,
		publicBaseURL: publicBaseURL,
	}, nil
}

func newStorageClientForMode(ctx context.Context, storageCfg ObjectStorageConfig) (*storage.Client, error) {
	switch storageCfg.Mode {
	case ObjectStorageModeGCS:
		opts := ClientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeFullControl))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		_ = os.Setenv("STORAGE_EMULATOR_HOST", storageCfg.EmulatorHost)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Value: string(storageCfg.Mode)}
	}
}

func (bs *bucketService) object(key string) *storage.ObjectHandle {
	return bs.storageClient.Bucket(bs.bucket.Name).Object(normalizeKey(key))
}

func (bs *bucketService) UploadFile(ctx context.Context, key string, file io.Reader) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := bs.object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	// Reports are regenerated in place; stale CDN copies must not linger.
	w.CacheControl = "no-cache, max-age=0"
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *bucketService) MakePublic(ctx context.Context, key string) error {
	if bs.storageMode == ObjectStorageModeGCSEmulator || !bs.bucket.PublicACL {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := bs.object(key).ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return fmt.Errorf("make %q public: %w", key, err)
	}
	return nil
}

func (bs *bucketService) DeleteFile(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := bs.object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, bs.bucket.Name, err)
	}
	return nil
}

func (bs *bucketService) PublicACL() bool { return bs.bucket.PublicACL }

func (bs *bucketService) GetPublicURL(key string) string {
	key = normalizeKey(key)
	if bs.bucket.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", bs.bucket.CDNDomain, key)
	}
	if bs.storageMode == ObjectStorageModeGCSEmulator {
		if u := bs.emulatorObjectMediaURL(key); u != "" {
			return u
		}
	}
	if bs.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", bs.publicBaseURL, bs.bucket.Name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucket.Name, key)
}

// SignedURL returns a V4 GET URL valid for ttl. The emulator does not verify
// signatures, so its media URL is returned as-is.
func (bs *bucketService) SignedURL(key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("signed url ttl must be positive")
	}
	if bs.storageMode == ObjectStorageModeGCSEmulator {
		return bs.GetPublicURL(key), nil
	}
	u, err := bs.storageClient.Bucket(bs.bucket.Name).SignedURL(normalizeKey(key), &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("sign %q: %w", key, err)
	}
	return u, nil
}

func (bs *bucketService) Close() error {
	if bs.storageClient == nil {
		return nil
	}
	return bs.storageClient.Close()
}

func (bs *bucketService) emulatorObjectMediaURL(key string) string {
	base := bs.publicBaseURL
	if base == "" {
		base = bs.emulatorHost
	}
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	return fmt.Sprintf(
		"%s/storage/v1/b/%s/o/%s?alt=media",
		base,
		url.PathEscape(bs.bucket.Name),
		url.PathEscape(key),
	)
}

func normalizeKey(key string) string {
	return strings.TrimLeft(strings.TrimSpace(key), "/")
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(s, ".docx"):
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return ""
	}
}
