package gcp

import (
	"errors"
	"testing"
)

func TestResolveObjectStorageConfigFromEnvDefaultGCS(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCS || cfg.CompatibilityFallback {
		t.Fatalf("cfg: %+v", cfg)
	}
}

func TestResolveObjectStorageConfigFromEnvCompatibilityFallback(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "")
	t.Setenv("STORAGE_EMULATOR_HOST", "http://fake-gcs:4443/")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	cfg, err := ResolveObjectStorageConfigFromEnv()
	if err != nil {
		t.Fatalf("ResolveObjectStorageConfigFromEnv: %v", err)
	}
	if cfg.Mode != ObjectStorageModeGCSEmulator || !cfg.CompatibilityFallback {
		t.Fatalf("cfg: %+v", cfg)
	}
	if cfg.EmulatorHost != "http://fake-gcs:4443" {
		t.Fatalf("emulator host should be trimmed: %q", cfg.EmulatorHost)
	}
}

func TestResolveObjectStorageConfigFromEnvExplicitEmulatorWithoutHost(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "gcs_emulator")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	_, err := ResolveObjectStorageConfigFromEnv()
	var cfgErr *ObjectStorageConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != ObjectStorageConfigErrorMissingEmulatorHost {
		t.Fatalf("want missing emulator host error, got %v", err)
	}
}

func TestResolveObjectStorageConfigFromEnvInvalidMode(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "local")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "")

	_, err := ResolveObjectStorageConfigFromEnv()
	var cfgErr *ObjectStorageConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Code != ObjectStorageConfigErrorInvalidMode {
		t.Fatalf("want invalid mode error, got %v", err)
	}
}

func TestResolveObjectStorageConfigFromEnvInvalidPublicBase(t *testing.T) {
	t.Setenv("OBJECT_STORAGE_MODE", "gcs")
	t.Setenv("STORAGE_EMULATOR_HOST", "")
	t.Setenv("OBJECT_STORAGE_PUBLIC_BASE_URL", "localhost:4443")

	if _, err := ResolveObjectStorageConfigFromEnv(); err == nil {
		t.Fatalf("expected invalid public base url error")
	}
}
