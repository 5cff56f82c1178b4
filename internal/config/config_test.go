package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.ServerPort == "" {
		t.Fatalf("expected default server port")
	}
	if cfg.PostgresURL == "" {
		t.Fatalf("expected default postgres url")
	}
	if cfg.SourceMode != SourceAPI {
		t.Fatalf("expected api source mode by default, got %q", cfg.SourceMode)
	}
	if cfg.DefaultGeofenceRadiusM != 200 {
		t.Fatalf("expected 200 m default radius, got %v", cfg.DefaultGeofenceRadiusM)
	}
	if cfg.ConfirmLocateTimeout != 15*time.Second {
		t.Fatalf("expected 15s locate timeout, got %v", cfg.ConfirmLocateTimeout)
	}
	if cfg.DefaultRequiredActivities != 3 || cfg.DefaultPassingScore != 70 || cfg.AcademicYearBE != 2568 {
		t.Fatalf("unexpected skill defaults %+v", cfg)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", ":9000")
	t.Setenv("POSTGRES_URL", "postgres://example")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SOURCE_MODE", "postgres")
	t.Setenv("DEFAULT_GEOFENCE_RADIUS_M", "150")
	t.Setenv("CONFIRM_LOCATE_TIMEOUT", "5s")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg := Load()
	if cfg.ServerPort != ":9000" {
		t.Fatalf("expected override port")
	}
	if cfg.PostgresURL != "postgres://example" {
		t.Fatalf("expected override postgres")
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Fatalf("expected override redis")
	}
	if cfg.JWTSecret != "secret" {
		t.Fatalf("expected override secret")
	}
	if cfg.SourceMode != SourcePostgres {
		t.Fatalf("expected postgres source mode")
	}
	if cfg.DefaultGeofenceRadiusM != 150 {
		t.Fatalf("expected override radius, got %v", cfg.DefaultGeofenceRadiusM)
	}
	if cfg.ConfirmLocateTimeout != 5*time.Second {
		t.Fatalf("expected override locate timeout, got %v", cfg.ConfirmLocateTimeout)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("expected two kafka brokers, got %v", cfg.KafkaBrokers)
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	if got := (Config{Timezone: "Nowhere/Invalid"}).Location(); got != time.UTC {
		t.Fatalf("expected UTC fallback, got %v", got)
	}
	if got := (Config{}).Location(); got != time.UTC {
		t.Fatalf("expected UTC for empty timezone, got %v", got)
	}
}
