// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the daemon configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Playback PlaybackConfig `yaml:"playback"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig represents the RPC listener configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" default:"127.0.0.1:4747"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	DefaultVolume float64 `yaml:"default_volume" default:"1.0" validate:"gte=0,lte=1"`
}

// OutputConfig represents the audio output backend configuration.
type OutputConfig struct {
	Backend  string         `yaml:"backend" default:"oto" validate:"oneof=oto null"`
	Settings map[string]any `yaml:"settings"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Output string `yaml:"output" default:"stdout"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() (*Config, error) {
	var cfg Config
	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}
	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("QPLAY_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("QPLAY_OUTPUT"); v != "" {
		c.Output.Backend = v
	}
	if v := os.Getenv("QPLAY_VOLUME"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Playback.DefaultVolume = f
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
