package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Sky map modes.
const (
	ModeTiled     = "tiled"
	ModePreloaded = "preloaded"
)

type AppConfig struct {
	Port      string
	StaticDir string

	// Sky map source.
	SkyMapMode  string
	TileDir     string
	TilePattern string
	TileSize    int
	SkyMapPath  string

	// CatalogPath optionally extends the embedded object catalog.
	CatalogPath string

	// RenderMaxPixels bounds sensor width × height (0 = unlimited).
	RenderMaxPixels int

	AstrometryAPIURL     string
	AstrometryDisplayURL string
	AstrometryAPIKey     string

	// HTTPTimeout bounds each outbound call; PollInterval is how often
	// pending submissions are refreshed.
	HTTPTimeout  time.Duration
	PollInterval time.Duration

	// In-memory submission retention.
	StoreMaxHistory int           // max number of submissions (0 = unlimited)
	StoreMaxAge     time.Duration // max age of submissions (0 = unlimited)

	GeocoderAPIKey string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "5000")
	cfg.StaticDir = getenvDefault("STATIC_DIR", ".")

	cfg.SkyMapMode = strings.ToLower(getenvDefault("SKYMAP_MODE", ModeTiled))
	if cfg.SkyMapMode != ModeTiled && cfg.SkyMapMode != ModePreloaded {
		return nil, fmt.Errorf("invalid SKYMAP_MODE %q: want %s or %s", cfg.SkyMapMode, ModeTiled, ModePreloaded)
	}
	cfg.TileDir = getenvDefault("SKYMAP_TILE_DIR", "skymapsplit")
	cfg.TilePattern = getenvDefault("SKYMAP_TILE_PATTERN", "skymap_tile_%d_%d.jpg")
	if strings.Count(cfg.TilePattern, "%d") != 2 {
		return nil, fmt.Errorf("invalid SKYMAP_TILE_PATTERN %q: needs two %%d verbs", cfg.TilePattern)
	}
	cfg.TileSize = getenvInt("SKYMAP_TILE_SIZE", 2048)
	if cfg.TileSize <= 0 {
		return nil, fmt.Errorf("invalid SKYMAP_TILE_SIZE %d", cfg.TileSize)
	}
	cfg.SkyMapPath = getenvDefault("SKYMAP_PATH", "skymap.jpg")
	cfg.CatalogPath = os.Getenv("CATALOG_PATH")
	cfg.RenderMaxPixels = getenvInt("RENDER_MAX_PIXELS", 48_000_000)

	cfg.AstrometryAPIURL = strings.TrimRight(getenvDefault("ASTROMETRY_API_URL", "http://nova.astrometry.net/api"), "/")
	cfg.AstrometryDisplayURL = strings.TrimRight(getenvDefault("ASTROMETRY_DISPLAY_URL", "http://nova.astrometry.net"), "/")
	cfg.AstrometryAPIKey = os.Getenv("ASTROMETRY_API_KEY")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.PollInterval, err = getenvDuration("POLL_INTERVAL", "1m"); err != nil {
		return nil, err
	}

	// Store retention.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 200)
	if cfg.StoreMaxAge, err = getenvDuration("STORE_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.GeocoderAPIKey = os.Getenv("GEOCODER_API_KEY")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
