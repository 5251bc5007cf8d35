package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir()) // no .env here

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "5000" || cfg.SkyMapMode != ModeTiled || cfg.TileSize != 2048 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.TilePattern != "skymap_tile_%d_%d.jpg" || cfg.TileDir != "skymapsplit" {
		t.Errorf("unexpected tile defaults %q %q", cfg.TileDir, cfg.TilePattern)
	}
	if cfg.PollInterval != time.Minute || cfg.StoreMaxAge != 24*time.Hour || cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("unexpected durations %+v", cfg)
	}
	if cfg.AstrometryAPIURL != "http://nova.astrometry.net/api" {
		t.Errorf("api url = %q", cfg.AstrometryAPIURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SKYMAP_MODE", "Preloaded")
	t.Setenv("SKYMAP_TILE_SIZE", "512")
	t.Setenv("ASTROMETRY_API_URL", "http://localhost:8080/api/")
	t.Setenv("POLL_INTERVAL", "15s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SkyMapMode != ModePreloaded || cfg.TileSize != 512 || cfg.PollInterval != 15*time.Second {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.AstrometryAPIURL != "http://localhost:8080/api" {
		t.Errorf("trailing slash should be trimmed: %q", cfg.AstrometryAPIURL)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"SKYMAP_MODE":         "cubemap",
		"SKYMAP_TILE_PATTERN": "tile_%d.jpg",
		"SKYMAP_TILE_SIZE":    "-1",
		"STORE_MAX_AGE":       "forever",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%q should be rejected", key, val)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore cwd: %v", err)
		}
	})
}
