// Package config loads the run configuration from defaults, an optional
// config file, ARDUINOSA_* environment variables and command-line flags,
// in increasing order of precedence.
package config

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/banshee-data/arduinosa/internal/arduinosa"
	"github.com/banshee-data/arduinosa/internal/fsutil"
	"github.com/banshee-data/arduinosa/internal/serialport"
)

// EnvPrefix prefixes the environment variables read by Load.
const EnvPrefix = "ARDUINOSA"

// maxFileSize bounds config files (1MB).
const maxFileSize = 1 * 1024 * 1024

// Run modes.
const (
	ModePlot    = "plot"
	ModeForever = "forever"
	ModeSingle  = "single"
)

// Display back ends for ModePlot.
const (
	DisplayPNG  = "png"
	DisplayHTML = "html"
	DisplayTerm = "term"
)

// Config is the resolved run configuration.
type Config struct {
	Device      string        `mapstructure:"device"`
	Baud        int           `mapstructure:"baud"`
	Protocol    string        `mapstructure:"protocol"`
	Mode        string        `mapstructure:"mode"`
	Display     string        `mapstructure:"display"`
	Output      string        `mapstructure:"output"`
	Interval    time.Duration `mapstructure:"interval"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	ResetPulse  time.Duration `mapstructure:"reset_pulse"`
	LogLevel    string        `mapstructure:"log_level"`

	// HandshakeTimeout bounds the read of the boot line after each reset.
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`

	// Dev replays a fixture file instead of opening Device.
	Dev string `mapstructure:"dev"`
}

// defaults holds the default for every key. Registering them all lets
// AutomaticEnv find an environment override for any key.
var defaults = map[string]any{
	"device":            "/dev/ttyUSB0",
	"baud":              serialport.DefaultBaudRate,
	"protocol":          string(arduinosa.ProtocolJSON),
	"mode":              ModePlot,
	"display":           DisplayPNG,
	"output":            "",
	"interval":          500 * time.Millisecond,
	"read_timeout":      serialport.DefaultReadTimeout,
	"reset_pulse":       arduinosa.DefaultResetPulse,
	"handshake_timeout": arduinosa.DefaultHandshakeTimeout,
	"log_level":         zerolog.InfoLevel.String(),
	"dev":               "",
}

// SetDefaults registers the defaults on v.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// BindFlags binds command-line flags to their config keys. Flag names use
// dashes where keys use underscores; flags without a key are skipped.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if _, ok := defaults[key]; !ok {
			return
		}
		if bindErr := v.BindPFlag(key, f); bindErr != nil && err == nil {
			err = fmt.Errorf("bind flag %s: %w", f.Name, bindErr)
		}
	})
	return err
}

// Load resolves the configuration. path names an optional config file with
// a .json, .yaml, .yml or .toml extension.
func Load(v *viper.Viper, path string) (*Config, error) {
	return LoadFS(v, fsutil.OSFileSystem{}, path)
}

// LoadFS is Load with the config file read from fsys.
func LoadFS(v *viper.Viper, fsys fsutil.FileSystem, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		cleanPath, err := validateConfigFile(fsys, path)
		if err != nil {
			return nil, err
		}
		data, err := fsys.ReadFile(cleanPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(cleanPath), "."))
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func validateConfigFile(fsys fsutil.FileSystem, path string) (string, error) {
	cleanPath := filepath.Clean(path)
	switch ext := filepath.Ext(cleanPath); ext {
	case ".json", ".yaml", ".yml", ".toml":
	default:
		return "", fmt.Errorf("config file must have .json, .yaml, .yml or .toml extension, got %q", ext)
	}

	fileInfo, err := fsys.Stat(cleanPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return "", fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}
	return cleanPath, nil
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.Dev == "" && strings.TrimSpace(c.Device) == "" {
		return fmt.Errorf("device must not be empty")
	}
	if _, err := arduinosa.ParseProtocol(c.Protocol); err != nil {
		return err
	}

	switch c.Mode {
	case ModePlot, ModeForever, ModeSingle:
	default:
		return fmt.Errorf("unknown mode %q: expected %s, %s or %s", c.Mode, ModePlot, ModeForever, ModeSingle)
	}
	switch c.Display {
	case DisplayPNG, DisplayHTML, DisplayTerm:
	default:
		return fmt.Errorf("unknown display %q: expected %s, %s or %s", c.Display, DisplayPNG, DisplayHTML, DisplayTerm)
	}

	if _, err := c.PortOptions().Normalise(); err != nil {
		return err
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must be non-negative, got %s", c.Interval)
	}
	if c.ResetPulse < 0 {
		return fmt.Errorf("reset_pulse must be non-negative, got %s", c.ResetPulse)
	}
	if c.HandshakeTimeout < 0 {
		return fmt.Errorf("handshake_timeout must be non-negative, got %s", c.HandshakeTimeout)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// PortOptions returns the serial settings for Device.
func (c *Config) PortOptions() serialport.PortOptions {
	return serialport.PortOptions{BaudRate: c.Baud, ReadTimeout: c.ReadTimeout}
}

// OutputPath returns Output, or the default file for the display back end.
func (c *Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}
	switch c.Display {
	case DisplayHTML:
		return "arduinosa.html"
	case DisplayPNG:
		return "arduinosa.png"
	}
	return ""
}
