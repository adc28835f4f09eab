// Package config handles bsplight configuration loading and management.
package config

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/bsplight/internal/atlas"
	"github.com/Faultbox/bsplight/internal/composite"
	"github.com/Faultbox/bsplight/internal/level"
	"github.com/Faultbox/bsplight/internal/lighting"
	"github.com/Faultbox/bsplight/internal/logger"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all settings.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	Atlas     AtlasConfig     `yaml:"atlas"`
	Volume    VolumeConfig    `yaml:"volume"`
	Composite CompositeConfig `yaml:"composite"`
	Lighting  LightingConfig  `yaml:"lighting"`
	Viewer    ViewerConfig    `yaml:"viewer"`
	Cache     CacheConfig     `yaml:"cache"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// AtlasConfig holds 2D lightmap packing limits.
type AtlasConfig struct {
	MaxWidth   int  `yaml:"max_width"`
	MaxHeight  int  `yaml:"max_height"`
	Padding    int  `yaml:"padding"`
	MaxAtlases int  `yaml:"max_atlases"`
	Trim       bool `yaml:"trim"`
}

// VolumeConfig holds light grid packing settings.
type VolumeConfig struct {
	MaxSize     [3]int `yaml:"max_size"`
	Layout      string `yaml:"layout"`      // flat or directional
	Multipliers string `yaml:"multipliers"` // identity or slight-shadow
	Flood       bool   `yaml:"flood"`
}

// CompositeConfig holds compositor settings.
type CompositeConfig struct {
	Workers int  `yaml:"workers"` // 0 uses every CPU
	SRGB    bool `yaml:"srgb"`
}

// LightingConfig selects the animator set.
type LightingConfig struct {
	Defaults     string `yaml:"defaults"`      // quake, smooth or none
	AnimatorFile string `yaml:"animator_file"` // applied over the defaults
}

// ViewerConfig holds lmview window settings.
type ViewerConfig struct {
	Width  int  `yaml:"width"`
	Height int  `yaml:"height"`
	VSync  bool `yaml:"vsync"`
	Scale  int  `yaml:"scale"` // export and display magnification
}

// CacheConfig holds level cache settings.
type CacheConfig struct {
	MaxLevels int `yaml:"max_levels"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level: "info",
		},
		Atlas: AtlasConfig{
			MaxWidth:   atlas.DefaultMaxSize,
			MaxHeight:  atlas.DefaultMaxSize,
			Padding:    atlas.DefaultPadding,
			MaxAtlases: 1,
		},
		Volume: VolumeConfig{
			MaxSize:     [3]int{512, 512, 512},
			Layout:      "flat",
			Multipliers: "identity",
		},
		Composite: CompositeConfig{
			SRGB: true,
		},
		Lighting: LightingConfig{
			Defaults: lighting.PresetQuake,
		},
		Viewer: ViewerConfig{
			Width:  1280,
			Height: 720,
			VSync:  true,
			Scale:  1,
		},
		Cache: CacheConfig{
			MaxLevels: level.DefaultCacheLevels,
		},
	}
}

// Validate reports every setting that cannot be used.
func (c *Config) Validate() error {
	var errs error
	invalid := func(format string, args ...any) {
		errs = multierr.Append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		invalid("logging.level: %v", err)
	}
	if c.Atlas.MaxWidth <= 0 || c.Atlas.MaxHeight <= 0 {
		invalid("atlas size %dx%d", c.Atlas.MaxWidth, c.Atlas.MaxHeight)
	}
	if c.Atlas.Padding < 0 {
		invalid("atlas.padding %d", c.Atlas.Padding)
	}
	if c.Atlas.MaxAtlases < 0 {
		invalid("atlas.max_atlases %d", c.Atlas.MaxAtlases)
	}
	for i, n := range c.Volume.MaxSize {
		if n < 0 {
			invalid("volume.max_size[%d] %d", i, n)
		}
	}
	if _, err := atlas.ParseLayout(c.Volume.Layout); err != nil {
		invalid("volume.layout: %v", err)
	}
	if _, err := atlas.ParseMultipliers(c.Volume.Multipliers); err != nil {
		invalid("volume.multipliers: %v", err)
	}
	if c.Composite.Workers < 0 {
		invalid("composite.workers %d", c.Composite.Workers)
	}
	if _, err := lighting.DefaultsByName(c.Lighting.Defaults); err != nil {
		invalid("lighting.defaults: %v", err)
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 || c.Viewer.Scale <= 0 {
		invalid("viewer %dx%d scale %d", c.Viewer.Width, c.Viewer.Height, c.Viewer.Scale)
	}
	if c.Cache.MaxLevels < 0 {
		invalid("cache.max_levels %d", c.Cache.MaxLevels)
	}
	return errs
}

// AtlasOptions converts the atlas section.
func (c *Config) AtlasOptions() atlas.Options {
	return atlas.Options{
		MaxWidth:   c.Atlas.MaxWidth,
		MaxHeight:  c.Atlas.MaxHeight,
		Padding:    c.Atlas.Padding,
		MaxAtlases: c.Atlas.MaxAtlases,
		Trim:       c.Atlas.Trim,
	}
}

// VolumeOptions converts the volume section.
func (c *Config) VolumeOptions() (atlas.VolumeOptions, error) {
	layout, err := atlas.ParseLayout(c.Volume.Layout)
	if err != nil {
		return atlas.VolumeOptions{}, err
	}
	mul, err := atlas.ParseMultipliers(c.Volume.Multipliers)
	if err != nil {
		return atlas.VolumeOptions{}, err
	}
	return atlas.VolumeOptions{
		MaxSize:     c.Volume.MaxSize,
		Layout:      layout,
		Multipliers: mul,
		Flood:       c.Volume.Flood,
	}, nil
}

// LevelOptions converts the packing sections into level load options.
func (c *Config) LevelOptions(log *zap.Logger) (level.Options, error) {
	vol, err := c.VolumeOptions()
	if err != nil {
		return level.Options{}, err
	}
	return level.Options{
		Atlas:  c.AtlasOptions(),
		Volume: vol,
		Logger: log,
	}, nil
}

// CompositeOptions converts the composite section.
func (c *Config) CompositeOptions() composite.Options {
	return composite.Options{
		Workers:         c.Composite.Workers,
		MinParallelRows: composite.DefaultMinParallelRows,
		SRGB:            c.Composite.SRGB,
	}
}

// NewTable builds the animator table: the configured preset, then the
// animator file if one is set.
func (c *Config) NewTable() (*lighting.Table, error) {
	defaults, err := lighting.DefaultsByName(c.Lighting.Defaults)
	if err != nil {
		return nil, err
	}
	t := lighting.NewTable()
	if err := t.Replace(defaults); err != nil {
		return nil, err
	}
	if c.Lighting.AnimatorFile != "" {
		if err := lighting.ApplyFile(t, c.Lighting.AnimatorFile); err != nil {
			return nil, fmt.Errorf("animator file %s: %w", c.Lighting.AnimatorFile, err)
		}
	}
	return t, nil
}
