package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"barsync/barcolor"
)

// Config holds all runtime configuration.
type Config struct {
	// Rotation is given in degrees (0, 90, 180, 270) or as an index 0-3.
	Rotation                     int           `yaml:"rotation"`
	StatusBarHeight              int           `yaml:"status_bar_height"`
	NavigationBarHeight          int           `yaml:"navigation_bar_height"`
	NavigationBarHeightLandscape int           `yaml:"navigation_bar_height_landscape"`
	XFromRightSide               int           `yaml:"x_from_right_side"` // -1 derives it from the navigation bar
	Interval                     time.Duration `yaml:"interval"`
	StatusBar                    bool          `yaml:"status_bar"`
	NavigationBar                bool          `yaml:"navigation_bar"`
	StatusFilter                 bool          `yaml:"status_filter"`
	Capture                      string        `yaml:"capture"` // auto, pipewire, ffmpeg, x11
	Display                      int           `yaml:"display"`
	Hue                          bool          `yaml:"hue"`
	Listen                       string        `yaml:"listen"`
	LogFile                      string        `yaml:"log_file"`
	LogLevel                     string        `yaml:"log_level"`

	rotation barcolor.Rotation
}

func defaultConfig() *Config {
	return &Config{
		StatusBarHeight:              24,
		NavigationBarHeight:          48,
		NavigationBarHeightLandscape: 42,
		XFromRightSide:               -1,
		Interval:                     100 * time.Millisecond,
		StatusBar:                    true,
		NavigationBar:                true,
		Capture:                      "auto",
		LogLevel:                     "info",
	}
}

func bindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Rotation, "rotation", cfg.Rotation, "Display rotation in degrees (0, 90, 180, 270)")
	fs.IntVar(&cfg.StatusBarHeight, "status-height", cfg.StatusBarHeight, "Status bar height in pixels")
	fs.IntVar(&cfg.NavigationBarHeight, "nav-height", cfg.NavigationBarHeight, "Navigation bar height in pixels")
	fs.IntVar(&cfg.NavigationBarHeightLandscape, "nav-height-landscape", cfg.NavigationBarHeightLandscape, "Navigation bar height in landscape rotations")
	fs.IntVar(&cfg.XFromRightSide, "inset", cfg.XFromRightSide, "Right probe inset in pixels (-1 = derive)")
	fs.DurationVar(&cfg.Interval, "interval", cfg.Interval, "Sampling interval")
	fs.BoolVar(&cfg.StatusBar, "status", cfg.StatusBar, "Track the status bar")
	fs.BoolVar(&cfg.NavigationBar, "nav", cfg.NavigationBar, "Track the navigation bar")
	fs.BoolVar(&cfg.StatusFilter, "status-filter", cfg.StatusFilter, "Darken the status bar color slightly")
	fs.StringVar(&cfg.Capture, "capture", cfg.Capture, "Capture method: auto, pipewire, ffmpeg, x11")
	fs.IntVar(&cfg.Display, "display", cfg.Display, "Display index to capture (0 = primary)")
	fs.BoolVar(&cfg.Hue, "hue", cfg.Hue, "Mirror bar colors to a Hue entertainment area")
	fs.StringVar(&cfg.Listen, "listen", cfg.Listen, "Serve the WebSocket color feed on this address (e.g. :8080)")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Log file (empty disables logging)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: trace, debug, info, warn, error")
}

// ParseFlags parses args into a Config. A YAML file given with -config is
// loaded first; flags set explicitly on the command line win over it.
func ParseFlags(args []string) (*Config, error) {
	cfg := defaultConfig()
	fs := flag.NewFlagSet("barsync", flag.ContinueOnError)
	path := fs.String("config", "", "YAML config file")
	bindFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *path != "" {
		fileCfg, err := LoadConfig(*path)
		if err != nil {
			return nil, err
		}
		over := flag.NewFlagSet("barsync", flag.ContinueOnError)
		bindFlags(over, fileCfg)
		var setErr error
		fs.Visit(func(f *flag.Flag) {
			if f.Name == "config" || setErr != nil {
				return
			}
			setErr = over.Set(f.Name, f.Value.String())
		})
		if setErr != nil {
			return nil, setErr
		}
		cfg = fileCfg
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads a YAML config file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks cfg and resolves derived fields.
func Validate(cfg *Config) error {
	r, err := barcolor.RotationOf(cfg.Rotation)
	if err != nil {
		return err
	}
	cfg.rotation = r

	if cfg.StatusBarHeight < 0 {
		return fmt.Errorf("status bar height must be >= 0, got %d", cfg.StatusBarHeight)
	}
	if cfg.NavigationBarHeight < 0 || cfg.NavigationBarHeightLandscape < 0 {
		return fmt.Errorf("navigation bar heights must be >= 0")
	}
	if cfg.XFromRightSide < -1 {
		return fmt.Errorf("inset must be >= -1, got %d", cfg.XFromRightSide)
	}
	if cfg.Interval <= 0 {
		return fmt.Errorf("interval must be > 0, got %s", cfg.Interval)
	}
	switch cfg.Capture {
	case "auto", "pipewire", "ffmpeg", "x11":
	default:
		return fmt.Errorf("unknown capture method %q", cfg.Capture)
	}
	if cfg.Display < 0 {
		return fmt.Errorf("display index must be >= 0, got %d", cfg.Display)
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// Geometry returns the bar layout described by cfg.
func (c *Config) Geometry() BarGeometry {
	return BarGeometry{
		StatusBarHeight:              c.StatusBarHeight,
		NavigationBarHeight:          c.NavigationBarHeight,
		NavigationBarHeightLandscape: c.NavigationBarHeightLandscape,
		XFromRightSide:               c.XFromRightSide,
	}
}
