package infra

import (
	"testing"
	"time"
)

func TestLoadConfigPipelineDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("WORKER_POLL_INTERVAL_SECONDS", "")
	t.Setenv("WORKER_MAX_CONCURRENT_JOBS", "")
	t.Setenv("JOB_TIMEOUT_SECONDS", "")
	t.Setenv("JOB_MAX_RETRIES", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PollInterval != 2*time.Second {
		t.Fatalf("PollInterval = %v, want 2s", cfg.PollInterval)
	}
	if cfg.MaxConcurrentJobs != 3 {
		t.Fatalf("MaxConcurrentJobs = %d, want 3", cfg.MaxConcurrentJobs)
	}
	if cfg.JobTimeout != 5*time.Minute {
		t.Fatalf("JobTimeout = %v, want 5m", cfg.JobTimeout)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadConfigRejectsZeroConcurrency(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("WORKER_MAX_CONCURRENT_JOBS", "0")
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for zero concurrency")
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("WORKER_POLL_INTERVAL_SECONDS", "5")
	t.Setenv("WORKER_MAX_CONCURRENT_JOBS", "8")
	t.Setenv("JOB_TIMEOUT_SECONDS", "60")
	t.Setenv("JOB_MAX_RETRIES", "1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("PollInterval = %v, want 5s", cfg.PollInterval)
	}
	if cfg.MaxConcurrentJobs != 8 {
		t.Fatalf("MaxConcurrentJobs = %d, want 8", cfg.MaxConcurrentJobs)
	}
	if cfg.JobTimeout != time.Minute {
		t.Fatalf("JobTimeout = %v, want 1m", cfg.JobTimeout)
	}
	if cfg.MaxRetries != 1 {
		t.Fatalf("MaxRetries = %d, want 1", cfg.MaxRetries)
	}
}
