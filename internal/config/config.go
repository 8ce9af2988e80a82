// Package config handles configuration file loading and parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultFrameInterval      = 16 * time.Millisecond
	DefaultTransitionSettle   = 150 * time.Millisecond
	DefaultHoverDelay         = 300 * time.Millisecond
	DefaultAttachSettleFrames = 1
	DefaultFocusSettleFrames  = 2
	DefaultShellPosition      = "top-right"
	DefaultShellWidth         = 360
)

// Duration is a time.Duration that can be unmarshaled from human-readable
// strings like "5s" or "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '150ms', '1s' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config represents the veil configuration.
type Config struct {
	Timing TimingConfig `toml:"timing"`
	Focus  FocusConfig  `toml:"focus"`
	Shell  ShellConfig  `toml:"shell"`
}

// TimingConfig tunes the transition pipeline.
type TimingConfig struct {
	HoverDelay         Duration `toml:"hover_delay"`          // Delay before hover overlays open
	FrameInterval      Duration `toml:"frame_interval"`       // Tick-driven frame cadence
	Settle             Duration `toml:"settle"`               // Default visual transition length
	AttachSettleFrames int      `toml:"attach_settle_frames"` // Frames to wait after presenting
	FocusSettleFrames  int      `toml:"focus_settle_frames"`  // Frames to wait before moving focus
}

// FocusConfig controls automatic focus management.
type FocusConfig struct {
	Enabled bool `toml:"enabled"`
}

// ShellConfig contains layer-shell surface settings for the GTK host.
type ShellConfig struct {
	Position string `toml:"position"` // "top-right", "top-left", "bottom-right", "bottom-left", "center"
	OffsetX  int    `toml:"offset_x"` // Pixels from screen edge
	OffsetY  int    `toml:"offset_y"` // Pixels from screen edge
	Width    int    `toml:"width"`    // Surface width in pixels
	Monitor  int    `toml:"monitor"`  // 0 = current, 1+ = specific monitor
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Timing: TimingConfig{
			HoverDelay:         Duration(DefaultHoverDelay),
			FrameInterval:      Duration(DefaultFrameInterval),
			Settle:             Duration(DefaultTransitionSettle),
			AttachSettleFrames: DefaultAttachSettleFrames,
			FocusSettleFrames:  DefaultFocusSettleFrames,
		},
		Focus: FocusConfig{
			Enabled: true,
		},
		Shell: ShellConfig{
			Position: DefaultShellPosition,
			OffsetX:  16,
			OffsetY:  16,
			Width:    DefaultShellWidth,
			Monitor:  0,
		},
	}
}

// ConfigPath returns the path to the config file.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "veil", "config.toml")
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns default config if file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	switch c.Shell.Position {
	case "top-right", "top-left", "bottom-right", "bottom-left", "center":
	default:
		return fmt.Errorf("invalid shell position %q", c.Shell.Position)
	}
	if c.Timing.AttachSettleFrames < 0 {
		return fmt.Errorf("attach_settle_frames must not be negative")
	}
	if c.Timing.FocusSettleFrames < 0 {
		return fmt.Errorf("focus_settle_frames must not be negative")
	}
	return nil
}
