package config

import (
	"testing"
	"time"
)

// doordEnvVars lists all env vars that must be cleared between tests.
var doordEnvVars = []string{
	"DOORD_DOOR_ID", "DOORD_NATS_URL", "DOORD_HTTP_ADDR", "DOORD_AUTH_TOKEN",
	"DOORD_DATABASE_URL", "DOORD_TRAVEL",
	"DOORD_SYNC_INTERVAL", "DOORD_SYNC_S3_BUCKET", "DOORD_SYNC_S3_ENDPOINT",
	"DOORD_SYNC_S3_REGION", "DOORD_SYNC_S3_KEY", "DOORD_SYNC_GIT_REPO",
	"DOORD_SYNC_GIT_FILE", "DOORD_SYNC_GIT_BRANCH",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range doordEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearAllEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DoorID != "main_door" {
		t.Errorf("DoorID = %q, want %q", cfg.DoorID, "main_door")
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.Travel != 0 {
		t.Errorf("Travel = %v, want 0", cfg.Travel)
	}
	if cfg.SyncInterval != 3*time.Minute {
		t.Errorf("SyncInterval = %v, want 3m", cfg.SyncInterval)
	}
	if cfg.SyncS3Key != "" {
		t.Errorf("SyncS3Key = %q, want empty (derived from door)", cfg.SyncS3Key)
	}
	if cfg.SyncGitFile != "transitions.jsonl" {
		t.Errorf("SyncGitFile = %q", cfg.SyncGitFile)
	}
	if cfg.SyncGitBranch != "main" {
		t.Errorf("SyncGitBranch = %q", cfg.SyncGitBranch)
	}
}

func TestLoadCustom(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("DOORD_DOOR_ID", "dock_east")
	t.Setenv("DOORD_NATS_URL", "nats://localhost:4222")
	t.Setenv("DOORD_HTTP_ADDR", ":3000")
	t.Setenv("DOORD_DATABASE_URL", "postgres://db:5432/doord")
	t.Setenv("DOORD_TRAVEL", "1500ms")
	t.Setenv("DOORD_SYNC_INTERVAL", "10m")
	t.Setenv("DOORD_SYNC_S3_BUCKET", "my-bucket")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DoorID != "dock_east" {
		t.Errorf("DoorID = %q", cfg.DoorID)
	}
	if cfg.NATSURL != "nats://localhost:4222" {
		t.Errorf("NATSURL = %q", cfg.NATSURL)
	}
	if cfg.HTTPAddr != ":3000" {
		t.Errorf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.DatabaseURL != "postgres://db:5432/doord" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.Travel != 1500*time.Millisecond {
		t.Errorf("Travel = %v, want 1.5s", cfg.Travel)
	}
	if cfg.SyncInterval != 10*time.Minute {
		t.Errorf("SyncInterval = %v, want 10m", cfg.SyncInterval)
	}
	if cfg.SyncS3Bucket != "my-bucket" {
		t.Errorf("SyncS3Bucket = %q", cfg.SyncS3Bucket)
	}
}

func TestLoadInvalidTravel(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("DOORD_TRAVEL", "fast")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid DOORD_TRAVEL")
	}

	clearAllEnv(t)
	t.Setenv("DOORD_TRAVEL", "-2s")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative DOORD_TRAVEL")
	}
}

func TestLoadInvalidSyncInterval(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("DOORD_SYNC_INTERVAL", "not-a-duration")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid DOORD_SYNC_INTERVAL")
	}
}

func TestLoadSyncDisabled(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("DOORD_SYNC_INTERVAL", "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SyncInterval != 0 {
		t.Errorf("SyncInterval = %v, want 0 (disabled)", cfg.SyncInterval)
	}
}

func TestEnvOrDefault(t *testing.T) {
	for _, tc := range []struct {
		name     string
		key      string
		envVal   string
		fallback string
		want     string
	}{
		{"EmptyUsesDefault", "TEST_ENVDEFAULT_EMPTY", "", "default-val", "default-val"},
		{"SetUsesEnv", "TEST_ENVDEFAULT_SET", "custom", "default-val", "custom"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envVal)
			got := envOrDefault(tc.key, tc.fallback)
			if got != tc.want {
				t.Errorf("envOrDefault(%q, %q) = %q, want %q", tc.key, tc.fallback, got, tc.want)
			}
		})
	}
}
