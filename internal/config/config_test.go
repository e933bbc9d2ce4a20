package config

import (
	"testing"
	"time"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("UVENT_DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "s3cret")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without a database URL")
	}
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/uvent")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without JWT_SECRET")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/uvent")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.APIPort != 3000 {
		t.Errorf("APIPort = %d, want 3000", cfg.APIPort)
	}
	if cfg.SchedulerHorizon != 24*time.Hour {
		t.Errorf("SchedulerHorizon = %v, want 24h", cfg.SchedulerHorizon)
	}
	if cfg.BackupSweepEvery != 5*time.Minute {
		t.Errorf("BackupSweepEvery = %v, want 5m", cfg.BackupSweepEvery)
	}
	if cfg.JWTExpiration != 24*time.Hour {
		t.Errorf("JWTExpiration = %v, want 24h", cfg.JWTExpiration)
	}
	if cfg.IsProduction() {
		t.Error("IsProduction() = true for default environment")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/uvent")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("API_PORT", "8080")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SCHEDULER_SWEEP_MINUTES", "2")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://uvent.app, https://admin.uvent.app")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.APIPort != 8080 {
		t.Errorf("APIPort = %d, want 8080", cfg.APIPort)
	}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}
	if cfg.BackupSweepEvery != 2*time.Minute {
		t.Errorf("BackupSweepEvery = %v, want 2m", cfg.BackupSweepEvery)
	}
	if len(cfg.CORSAllowOrigins) != 2 || cfg.CORSAllowOrigins[1] != "https://admin.uvent.app" {
		t.Errorf("CORSAllowOrigins = %v", cfg.CORSAllowOrigins)
	}
}
