package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// config holds the settings shared by every subcommand. Values come from the optional
// YAML file; flags given on the command line override them.
type config struct {
	Addr     string `yaml:"addr"`
	Mouse    bool   `yaml:"mouse"`
	Keys     bool   `yaml:"keys"`
	LogLevel string `yaml:"log_level"`
	Workers  int    `yaml:"workers"`
	Profile  bool   `yaml:"profile"`
}

func defaultConfig() config {
	return config{
		Addr:     "127.0.0.1:8080",
		Mouse:    true,
		Keys:     true,
		LogLevel: "info",
	}
}

// loadConfig reads a YAML config file over the defaults. An empty path returns the
// defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}
	return cfg, nil
}

func (c config) level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, errors.Wrapf(err, "invalid log level %q", c.LogLevel)
	}
	return level, nil
}
