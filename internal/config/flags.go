package config

import "flag"

// Flags are the command-line overrides shared by every command. Zero
// values mean "not set".
type Flags struct {
	Config     string
	EnvFile    string
	Debug      bool
	LogLevel   string
	LogFile    string
	MaxSize    int
	Padding    int
	MaxAtlases int
	Trim       bool
	Layout     string
	Flood      bool
	Workers    int
	Linear     bool
	Defaults   string
	Animators  string
	Scale      int
}

// RegisterFlags binds the shared flags to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{Padding: -1}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.StringVar(&f.EnvFile, "env", ".env", "Path to an optional .env file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Also log to this file")
	fs.IntVar(&f.MaxSize, "max-size", 0, "Maximum atlas width and height")
	fs.IntVar(&f.Padding, "padding", -1, "Border texels around each lightmap")
	fs.IntVar(&f.MaxAtlases, "max-atlases", 0, "Maximum number of atlases")
	fs.BoolVar(&f.Trim, "trim", false, "Shrink atlases to their used extent")
	fs.StringVar(&f.Layout, "layout", "", "Light volume layout (flat, directional)")
	fs.BoolVar(&f.Flood, "flood", false, "Fill missing light volume cells")
	fs.IntVar(&f.Workers, "workers", 0, "Compositing workers (0 = all CPUs)")
	fs.BoolVar(&f.Linear, "linear", false, "Treat stored light as linear instead of sRGB")
	fs.StringVar(&f.Defaults, "defaults", "", "Animator preset (quake, smooth, none)")
	fs.StringVar(&f.Animators, "animators", "", "Animator YAML file")
	fs.IntVar(&f.Scale, "scale", 0, "Output magnification")
	return f
}

// applyFlags applies CLI flag overrides to the config.
func (f *Flags) applyFlags(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogLevel != "" {
		cfg.Logging.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.MaxSize > 0 {
		cfg.Atlas.MaxWidth = f.MaxSize
		cfg.Atlas.MaxHeight = f.MaxSize
	}
	if f.Padding >= 0 {
		cfg.Atlas.Padding = f.Padding
	}
	if f.MaxAtlases > 0 {
		cfg.Atlas.MaxAtlases = f.MaxAtlases
	}
	if f.Trim {
		cfg.Atlas.Trim = true
	}
	if f.Layout != "" {
		cfg.Volume.Layout = f.Layout
	}
	if f.Flood {
		cfg.Volume.Flood = true
	}
	if f.Workers > 0 {
		cfg.Composite.Workers = f.Workers
	}
	if f.Linear {
		cfg.Composite.SRGB = false
	}
	if f.Defaults != "" {
		cfg.Lighting.Defaults = f.Defaults
	}
	if f.Animators != "" {
		cfg.Lighting.AnimatorFile = f.Animators
	}
	if f.Scale > 0 {
		cfg.Viewer.Scale = f.Scale
	}
}
