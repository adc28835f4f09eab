package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/multierr"

	"github.com/Faultbox/bsplight/internal/atlas"
	"github.com/Faultbox/bsplight/internal/lighting"
	"github.com/Faultbox/bsplight/pkg/math"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Atlas.MaxWidth != 2048 || cfg.Atlas.MaxHeight != 2048 {
		t.Errorf("expected 2048x2048 atlas, got %dx%d", cfg.Atlas.MaxWidth, cfg.Atlas.MaxHeight)
	}
	if cfg.Atlas.Padding != 1 {
		t.Errorf("expected padding 1, got %d", cfg.Atlas.Padding)
	}
	if cfg.Atlas.MaxAtlases != 1 {
		t.Errorf("expected one atlas, got %d", cfg.Atlas.MaxAtlases)
	}
	if !cfg.Composite.SRGB {
		t.Error("expected sRGB decoding by default")
	}
	if cfg.Lighting.Defaults != "quake" {
		t.Errorf("expected quake defaults, got %s", cfg.Lighting.Defaults)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
atlas:
  max_width: 1024
  max_height: 512
  padding: 2
  max_atlases: 4
  trim: true

volume:
  max_size: [64, 64, 64]
  layout: directional
  multipliers: slight-shadow
  flood: true

composite:
  workers: 3
  srgb: false

lighting:
  defaults: smooth

logging:
  level: "debug"
  log_file: "bsplight.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Atlas.MaxWidth != 1024 || cfg.Atlas.MaxHeight != 512 || !cfg.Atlas.Trim {
		t.Errorf("atlas section = %+v", cfg.Atlas)
	}
	if cfg.Volume.MaxSize != [3]int{64, 64, 64} || !cfg.Volume.Flood {
		t.Errorf("volume section = %+v", cfg.Volume)
	}
	if cfg.Composite.Workers != 3 || cfg.Composite.SRGB {
		t.Errorf("composite section = %+v", cfg.Composite)
	}
	if cfg.Logging.LogFile != "bsplight.log" {
		t.Errorf("expected log file 'bsplight.log', got %s", cfg.Logging.LogFile)
	}
	// Untouched sections keep their defaults.
	if cfg.Viewer.Width != 1280 {
		t.Errorf("expected default viewer width, got %d", cfg.Viewer.Width)
	}

	vol, err := cfg.VolumeOptions()
	if err != nil {
		t.Fatal(err)
	}
	if vol.Layout != atlas.LayoutDirectional || vol.Multipliers != atlas.SlightShadowMultipliers {
		t.Errorf("VolumeOptions() = %+v", vol)
	}
	if o := cfg.AtlasOptions(); o.MaxAtlases != 4 || o.Padding != 2 {
		t.Errorf("AtlasOptions() = %+v", o)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	invalidYAML := `
atlas:
  max_width: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile("config.yaml", []byte("atlas:\n  padding: 0\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}
	if path := findConfigFile(); path == "" {
		t.Error("expected to find config.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		verify func(*testing.T, *Config)
	}{
		{"debug", []string{"-debug"}, func(t *testing.T, cfg *Config) {
			if cfg.Logging.Level != "debug" {
				t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
			}
		}},
		{"max size", []string{"-max-size", "512"}, func(t *testing.T, cfg *Config) {
			if cfg.Atlas.MaxWidth != 512 || cfg.Atlas.MaxHeight != 512 {
				t.Errorf("expected 512x512, got %dx%d", cfg.Atlas.MaxWidth, cfg.Atlas.MaxHeight)
			}
		}},
		{"zero padding", []string{"-padding", "0"}, func(t *testing.T, cfg *Config) {
			if cfg.Atlas.Padding != 0 {
				t.Errorf("expected padding 0, got %d", cfg.Atlas.Padding)
			}
		}},
		{"padding unset", nil, func(t *testing.T, cfg *Config) {
			if cfg.Atlas.Padding != 1 {
				t.Errorf("expected default padding, got %d", cfg.Atlas.Padding)
			}
		}},
		{"linear", []string{"-linear"}, func(t *testing.T, cfg *Config) {
			if cfg.Composite.SRGB {
				t.Error("expected sRGB off")
			}
		}},
		{"lighting", []string{"-defaults", "smooth", "-animators", "a.yaml"}, func(t *testing.T, cfg *Config) {
			if cfg.Lighting.Defaults != "smooth" || cfg.Lighting.AnimatorFile != "a.yaml" {
				t.Errorf("lighting = %+v", cfg.Lighting)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := flag.NewFlagSet("test", flag.ContinueOnError)
			fl := RegisterFlags(fs)
			if err := fs.Parse(tt.args); err != nil {
				t.Fatal(err)
			}
			cfg := Default()
			fl.applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"BSPLIGHT_ATLAS_PADDING":   "4",
		"BSPLIGHT_VOLUME_LAYOUT":   "directional",
		"BSPLIGHT_COMPOSITE_SRGB":  "false",
		"BSPLIGHT_VIEWER_SCALE":    "x",
		"BSPLIGHT_ATLAS_TRIM":      "maybe",
		"UNRELATED_ATLAS_PADDING":  "9",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	err := applyEnv(cfg, lookup)
	if n := len(multierr.Errors(err)); n != 2 {
		t.Errorf("expected 2 errors, got %d: %v", n, err)
	}
	if cfg.Atlas.Padding != 4 || cfg.Volume.Layout != "directional" || cfg.Composite.SRGB {
		t.Errorf("env not applied: %+v %+v %+v", cfg.Atlas, cfg.Volume, cfg.Composite)
	}
	if cfg.Viewer.Scale != 1 {
		t.Errorf("invalid value overwrote scale: %d", cfg.Viewer.Scale)
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	envPath := filepath.Join(tmpDir, "test.env")

	yamlContent := `
atlas:
  max_width: 1600
  max_height: 900
  padding: 3
  max_atlases: 2
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if err := os.WriteFile(envPath, []byte("BSPLIGHT_ATLAS_PADDING=5\nBSPLIGHT_ATLAS_MAX_ATLASES=6\n"), 0644); err != nil {
		t.Fatal(err)
	}
	// godotenv never overrides the real environment.
	t.Setenv("BSPLIGHT_ATLAS_MAX_ATLASES", "7")
	t.Cleanup(func() { os.Unsetenv("BSPLIGHT_ATLAS_PADDING") })

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fl := RegisterFlags(fs)
	if err := fs.Parse([]string{"-config", configPath, "-env", envPath, "-max-size", "1920"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(fl)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Atlas.MaxWidth != 1920 || cfg.Atlas.MaxHeight != 1920 {
		t.Errorf("expected 1920 from flag, got %dx%d", cfg.Atlas.MaxWidth, cfg.Atlas.MaxHeight)
	}
	if cfg.Atlas.Padding != 5 {
		t.Errorf("expected padding 5 from .env, got %d", cfg.Atlas.Padding)
	}
	if cfg.Atlas.MaxAtlases != 7 {
		t.Errorf("expected max atlases 7 from the environment, got %d", cfg.Atlas.MaxAtlases)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Atlas.MaxWidth = 0
	cfg.Volume.Layout = "spiral"
	cfg.Lighting.Defaults = "disco"
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	if n := len(multierr.Errors(err)); n != 4 {
		t.Errorf("expected 4 problems, got %d: %v", n, err)
	}
}

func TestNewTable(t *testing.T) {
	animPath := filepath.Join(t.TempDir(), "anim.yaml")
	if err := os.WriteFile(animPath, []byte("animators: {40: {sequence: [0.25]}}"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Lighting.Defaults = lighting.PresetNone
	cfg.Lighting.AnimatorFile = animPath
	tbl, err := cfg.NewTable()
	if err != nil {
		t.Fatal(err)
	}
	snap := tbl.Snapshot()
	if snap.Len() != 1 || snap.Sample(40, 0) != math.Splat(0.25) {
		t.Errorf("table = %v", snap.Styles())
	}

	cfg.Lighting.AnimatorFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := cfg.NewTable(); err == nil {
		t.Error("expected an error for a missing animator file")
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Atlas.Padding = 6
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatal(err)
	}
	if loaded.Atlas.Padding != 6 {
		t.Errorf("round trip padding = %d", loaded.Atlas.Padding)
	}
}
