package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Storage backend selectors for BACKEND.
const (
	BackendGCS = "gcs"
	BackendS3  = "s3"
)

// Config holds all settings for the flipbookd server, read from the
// environment.
type Config struct {
	HTTPAddr string

	ProjectID         string
	Bucket            string
	PublicCollection  string
	PendingCollection string

	StorageBackend string
	S3Endpoint     string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string

	RenderScale float64
	JPEGQuality int

	JobTTL        time.Duration
	MaxUploadMB   int64
	ShutdownGrace time.Duration
}

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		HTTPAddr:          GetEnv("HTTP_ADDR", ":8080"),
		ProjectID:         GetEnv("PROJECT_ID", ""),
		Bucket:            GetEnv("FLIPBOOK_BUCKET", ""),
		PublicCollection:  GetEnv("PUBLIC_COLLECTION", "flipbooks"),
		PendingCollection: GetEnv("PENDING_COLLECTION", "teamFlipbooks"),
		StorageBackend:    GetEnv("STORAGE_BACKEND", BackendGCS),
		S3Endpoint:        GetEnv("S3_ENDPOINT", ""),
		S3Region:          GetEnv("S3_REGION", "us-east-1"),
		S3AccessKey:       GetEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:       GetEnv("S3_SECRET_KEY", ""),
	}

	var err error
	if cfg.RenderScale, err = floatEnv("RENDER_SCALE", 1.5); err != nil {
		return nil, err
	}
	if cfg.JPEGQuality, err = intEnv("JPEG_QUALITY", 85); err != nil {
		return nil, err
	}
	if cfg.JobTTL, err = durationEnv("JOB_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MaxUploadMB, err = intEnv64("MAX_UPLOAD_MB", 50); err != nil {
		return nil, err
	}
	if cfg.ShutdownGrace, err = durationEnv("SHUTDOWN_GRACE", 10*time.Second); err != nil {
		return nil, err
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("FLIPBOOK_BUCKET environment variable must be set")
	}
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	switch cfg.StorageBackend {
	case BackendGCS:
	case BackendS3:
		if cfg.S3Endpoint == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
			return nil, fmt.Errorf("S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY must be set when STORAGE_BACKEND=s3")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	if cfg.RenderScale <= 0 {
		return nil, fmt.Errorf("RENDER_SCALE must be positive, got %v", cfg.RenderScale)
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return nil, fmt.Errorf("JPEG_QUALITY must be within 1..100, got %d", cfg.JPEGQuality)
	}

	return cfg, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return v, nil
}

func intEnv64(key string, fallback int64) (int64, error) {
	raw := GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return v, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return v, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := GetEnv(key, "")
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return v, nil
}
