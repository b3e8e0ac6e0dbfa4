package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DoorID      string        // DOORD_DOOR_ID (default "main_door")
	NATSURL     string        // DOORD_NATS_URL (required for the bridge)
	HTTPAddr    string        // DOORD_HTTP_ADDR (default ":8080")
	AuthToken   string        // DOORD_AUTH_TOKEN (optional, empty = auth disabled)
	DatabaseURL string        // DOORD_DATABASE_URL (optional, empty = no history)
	Travel      time.Duration // DOORD_TRAVEL (default 0 = instant actuator)

	// Sync settings
	SyncInterval   time.Duration // DOORD_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // DOORD_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // DOORD_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // DOORD_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // DOORD_SYNC_S3_KEY (default derived from the door id)
	SyncGitRepo    string        // DOORD_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // DOORD_SYNC_GIT_FILE (default "transitions.jsonl")
	SyncGitBranch  string        // DOORD_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		DoorID:         envOrDefault("DOORD_DOOR_ID", "main_door"),
		NATSURL:        os.Getenv("DOORD_NATS_URL"),
		HTTPAddr:       envOrDefault("DOORD_HTTP_ADDR", ":8080"),
		AuthToken:      os.Getenv("DOORD_AUTH_TOKEN"),
		DatabaseURL:    os.Getenv("DOORD_DATABASE_URL"),
		SyncS3Bucket:   os.Getenv("DOORD_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("DOORD_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("DOORD_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      os.Getenv("DOORD_SYNC_S3_KEY"),
		SyncGitRepo:    os.Getenv("DOORD_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("DOORD_SYNC_GIT_FILE", "transitions.jsonl"),
		SyncGitBranch:  envOrDefault("DOORD_SYNC_GIT_BRANCH", "main"),
	}

	if travelStr := os.Getenv("DOORD_TRAVEL"); travelStr != "" {
		d, err := time.ParseDuration(travelStr)
		if err != nil {
			return nil, fmt.Errorf("DOORD_TRAVEL: %w", err)
		}
		if d < 0 {
			return nil, fmt.Errorf("DOORD_TRAVEL must not be negative")
		}
		c.Travel = d
	}

	intervalStr := envOrDefault("DOORD_SYNC_INTERVAL", "3m")
	if intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("DOORD_SYNC_INTERVAL: %w", err)
		}
		c.SyncInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
