package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

// EnvPrefix starts every environment override, e.g. BSPLIGHT_ATLAS_PADDING.
const EnvPrefix = "BSPLIGHT_"

// loadEnvFile adds the variables of an optional .env file to the process
// environment. Variables already set win. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// applyEnv applies BSPLIGHT_* overrides read through lookup.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var errs error
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	flag := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}

	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FILE", &cfg.Logging.LogFile)
	num("ATLAS_MAX_WIDTH", &cfg.Atlas.MaxWidth)
	num("ATLAS_MAX_HEIGHT", &cfg.Atlas.MaxHeight)
	num("ATLAS_PADDING", &cfg.Atlas.Padding)
	num("ATLAS_MAX_ATLASES", &cfg.Atlas.MaxAtlases)
	flag("ATLAS_TRIM", &cfg.Atlas.Trim)
	str("VOLUME_LAYOUT", &cfg.Volume.Layout)
	str("VOLUME_MULTIPLIERS", &cfg.Volume.Multipliers)
	flag("VOLUME_FLOOD", &cfg.Volume.Flood)
	num("COMPOSITE_WORKERS", &cfg.Composite.Workers)
	flag("COMPOSITE_SRGB", &cfg.Composite.SRGB)
	str("LIGHTING_DEFAULTS", &cfg.Lighting.Defaults)
	str("LIGHTING_ANIMATOR_FILE", &cfg.Lighting.AnimatorFile)
	num("VIEWER_WIDTH", &cfg.Viewer.Width)
	num("VIEWER_HEIGHT", &cfg.Viewer.Height)
	flag("VIEWER_VSYNC", &cfg.Viewer.VSync)
	num("VIEWER_SCALE", &cfg.Viewer.Scale)
	num("CACHE_MAX_LEVELS", &cfg.Cache.MaxLevels)
	return errs
}
