package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("TRAIN_EPOCHS", "12")
	t.Setenv("RECO_CACHE_TTL", "90s")
	t.Setenv("REDIS_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Training.Epochs != 12 {
		t.Errorf("Training.Epochs = %d, want 12", cfg.Training.Epochs)
	}
	if cfg.Cache.TTL != 90*time.Second {
		t.Errorf("Cache.TTL = %v, want 90s", cfg.Cache.TTL)
	}
	if cfg.Redis.Enabled {
		t.Errorf("Redis.Enabled = true, want false")
	}
	if cfg.Training.BatchSize != 32 {
		t.Errorf("Training.BatchSize = %d, want default 32", cfg.Training.BatchSize)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Errorf("Load() without jwt secret error = nil")
	}

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TRAIN_LEARNING_RATE", "fast")
	if _, err := Load(); err == nil {
		t.Errorf("Load() with malformed float error = nil")
	}
}
