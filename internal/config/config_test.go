package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadUsesDefaultsAndYAMLOverrides(t *testing.T) {
	clearConfigEnv(t)

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	yaml := `
qr:
  rotation: 12s
  grace: 3s
geofence:
  enforced: false
  default_radius_m: 200
scan:
  rate_per_minute: 5
maintenance:
  replay_retention: 48h
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.QR.Rotation != 12*time.Second {
		t.Fatalf("unexpected qr rotation: %s", cfg.QR.Rotation)
	}
	if cfg.QR.Grace != 3*time.Second {
		t.Fatalf("unexpected qr grace: %s", cfg.QR.Grace)
	}
	if cfg.Geofence.Enforced {
		t.Fatalf("geofence enforcement should be overridden to false")
	}
	if cfg.Geofence.DefaultRadiusM != 200 {
		t.Fatalf("unexpected default radius: %f", cfg.Geofence.DefaultRadiusM)
	}
	if cfg.Scan.RatePerMinute != 5 {
		t.Fatalf("unexpected scan rate: %d", cfg.Scan.RatePerMinute)
	}
	if cfg.Maintenance.ReplayRetention != 48*time.Hour {
		t.Fatalf("unexpected replay retention: %s", cfg.Maintenance.ReplayRetention)
	}

	if cfg.QR.Algorithm != "HS256" {
		t.Fatalf("qr algorithm default should stay HS256, got %s", cfg.QR.Algorithm)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("http addr default should stay :8080, got %s", cfg.HTTP.Addr)
	}
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	def := Default()
	if cfg.QR.Rotation != def.QR.Rotation || cfg.Scan.RatePerMinute != def.Scan.RatePerMinute {
		t.Fatalf("expected defaults for missing file")
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("QR_JWT_SECRET", "env-secret")
	t.Setenv("QR_ROTATION", "20s")
	t.Setenv("GEOFENCE_ENFORCED", "false")
	t.Setenv("RATE_LIMIT_SCAN_PER_MIN", "3")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.QR.Secret != "env-secret" {
		t.Fatalf("QR_JWT_SECRET override not applied")
	}
	if cfg.QR.Rotation != 20*time.Second {
		t.Fatalf("QR_ROTATION override not applied: %s", cfg.QR.Rotation)
	}
	if cfg.Geofence.Enforced {
		t.Fatalf("GEOFENCE_ENFORCED override not applied")
	}
	if cfg.Scan.RatePerMinute != 3 {
		t.Fatalf("RATE_LIMIT_SCAN_PER_MIN override not applied: %d", cfg.Scan.RatePerMinute)
	}
}

func TestLoadRejectsDefaultSecretsInProduction(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for default secrets in production")
	}
}

func TestLoadRejectsNonPositiveRotation(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("QR_ROTATION", "0s")

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for zero rotation window")
	}
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV",
		"HTTP_ADDR",
		"HTTP_READ_TIMEOUT",
		"HTTP_WRITE_TIMEOUT",
		"HTTP_IDLE_TIMEOUT",
		"LOG_LEVEL",
		"POSTGRES_DSN",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"JWT_SECRET",
		"JWT_ACCESS_TTL",
		"QR_JWT_SECRET",
		"QR_JWT_ALG",
		"QR_ROTATION",
		"QR_EXPIRE_GRACE",
		"DISPLAY_API_KEY",
		"GEOFENCE_ENFORCED",
		"DEFAULT_GEOFENCE_RADIUS_M",
		"RATE_LIMIT_SCAN_PER_MIN",
		"CLEANUP_INTERVAL",
		"REPLAY_RETENTION",
		"AUTO_CHECKOUT_AFTER",
	} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
}
