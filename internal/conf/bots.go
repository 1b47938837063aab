package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// BotsConfig contains the per-bot texts and schedules loaded from YAML
type BotsConfig struct {
	Casio      CasioConfig      `yaml:"casio"`
	Grotebroer GrotebroerConfig `yaml:"grotebroer"`
	Msvlieland MsvlielandConfig `yaml:"msvlieland"`
	Convertbot ConvertbotConfig `yaml:"convertbot"`

	// Source is the file the config was read from, empty for defaults
	Source string `yaml:"-"`
}

// CasioConfig configures the alarm clock
type CasioConfig struct {
	AlarmKeyword string `yaml:"alarm_keyword"`
}

// GrotebroerConfig configures the keyword watcher
type GrotebroerConfig struct {
	Usage          string `yaml:"usage"`
	FilterStrategy string `yaml:"filter_strategy"`
	QueueSize      int    `yaml:"queue_size"`
	DedupeMinutes  int    `yaml:"dedupe_minutes"`
}

// MsvlielandConfig configures the ferry horn
type MsvlielandConfig struct {
	HornText   string   `yaml:"horn_text"`
	Departures []string `yaml:"departures"` // "HH:MM", local time
}

// ConvertbotConfig configures the radix clock
type ConvertbotConfig struct {
	Odds int `yaml:"odds"` // one post per this many minutes on average
}

// LoadBotsConfig loads bot configuration from YAML file
func LoadBotsConfig(configPath string) (*BotsConfig, error) {
	// Try multiple paths
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/bots.yaml",
			"/etc/robotzoo/bots.yaml",
		}
		// Add path relative to executable
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "bots.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err == nil {
			data, loadedPath = b, p
			break
		}
	}

	if data == nil {
		if configPath != "" {
			return nil, &ConfigError{Field: "BOTS_CONFIG_PATH", Message: "cannot read " + configPath}
		}
		return DefaultBotsConfig(), nil
	}

	// Keys absent from the file keep their defaults; an explicit empty
	// alarm keyword survives (bare times anywhere)
	config := *DefaultBotsConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
	}
	config.Source = loadedPath

	// Fill in defaults for empty values
	config.fillDefaults()

	return &config, nil
}

// fillDefaults fills in default values for empty fields
func (c *BotsConfig) fillDefaults() {
	defaults := DefaultBotsConfig()

	if c.Grotebroer.Usage == "" {
		c.Grotebroer.Usage = defaults.Grotebroer.Usage
	}
	if c.Grotebroer.QueueSize == 0 {
		c.Grotebroer.QueueSize = defaults.Grotebroer.QueueSize
	}
	if c.Grotebroer.DedupeMinutes == 0 {
		c.Grotebroer.DedupeMinutes = defaults.Grotebroer.DedupeMinutes
	}

	if c.Msvlieland.HornText == "" {
		c.Msvlieland.HornText = defaults.Msvlieland.HornText
	}
	if len(c.Msvlieland.Departures) == 0 {
		c.Msvlieland.Departures = defaults.Msvlieland.Departures
	}

	if c.Convertbot.Odds == 0 {
		c.Convertbot.Odds = defaults.Convertbot.Odds
	}
}

// Validate checks schedules and sizes
func (c *BotsConfig) Validate() error {
	for _, d := range c.Msvlieland.Departures {
		if _, err := time.Parse("15:04", d); err != nil {
			return &ConfigError{Field: "msvlieland.departures", Message: fmt.Sprintf("invalid time %q", d)}
		}
	}
	if c.Grotebroer.QueueSize < 1 {
		return &ConfigError{Field: "grotebroer.queue_size", Message: "must be positive"}
	}
	if c.Convertbot.Odds < 1 {
		return &ConfigError{Field: "convertbot.odds", Message: "must be positive"}
	}
	return nil
}

// DefaultBotsConfig returns the default bot configuration
func DefaultBotsConfig() *BotsConfig {
	return &BotsConfig{
		Casio: CasioConfig{
			AlarmKeyword: "alarm",
		},
		Grotebroer: GrotebroerConfig{
			Usage:         "Usage: +term | -term | ? | N%",
			QueueSize:     100,
			DedupeMinutes: 5,
		},
		Msvlieland: MsvlielandConfig{
			HornText:   "TOET TOET TOET",
			Departures: []string{"08:30", "14:00", "19:00"},
		},
		Convertbot: ConvertbotConfig{
			Odds: 2001,
		},
	}
}
