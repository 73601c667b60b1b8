// Package config loads dusk settings from YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/dusk/internal/platform"
	"github.com/aretw0/dusk/pkg/window"
)

// Config represents the complete dusk configuration.
type Config struct {
	// Data is the data directory (default: .dusk)
	Data string `yaml:"data"`
	// Adapter selects the storage backend: fs, memory, pebble or sqlite
	Adapter  string          `yaml:"adapter"`
	Schedule window.Schedule `yaml:"schedule"`
	Board    BoardConfig     `yaml:"board"`
	Filler   FillerConfig    `yaml:"filler"`
}

// BoardConfig configures the twilight board.
type BoardConfig struct {
	// Capacity is how many messages are kept (default: 50)
	Capacity int `yaml:"capacity"`
	// Retention is how long messages survive a prune, e.g. "7d" or "36h"
	Retention Duration `yaml:"retention"`
}

// FillerConfig configures synthetic messages.
type FillerConfig struct {
	// Count is how many filler messages each feed gets (default: 8)
	Count int `yaml:"count"`
	// Seed makes filler deterministic when non-zero
	Seed uint64 `yaml:"seed"`
}

// Duration is a time.Duration that also accepts a day suffix ("7d").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseRetention(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	td := time.Duration(d)
	if td > 0 && td%(24*time.Hour) == 0 {
		return fmt.Sprintf("%dd", td/(24*time.Hour)), nil
	}
	return td.String(), nil
}

// ParseRetention parses durations such as "7d", "36h" or "90m".
// An empty string yields the default of seven days.
func ParseRetention(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 7 * 24 * time.Hour, nil
	}
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid days retention %q: %w", s, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Data:     platform.DefaultDataDir,
		Adapter:  platform.AdapterFS,
		Schedule: window.Default,
		Board: BoardConfig{
			Capacity:  50,
			Retention: Duration(7 * 24 * time.Hour),
		},
		Filler: FillerConfig{
			Count: 8,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	known := false
	for _, a := range platform.Adapters() {
		if c.Adapter == a {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("adapter must be one of %s, got %q", strings.Join(platform.Adapters(), ", "), c.Adapter)
	}
	if err := c.Schedule.Validate(); err != nil {
		return fmt.Errorf("schedule: %w", err)
	}
	if c.Board.Capacity < 1 {
		return fmt.Errorf("board.capacity must be positive")
	}
	if c.Board.Retention <= 0 {
		return fmt.Errorf("board.retention must be positive")
	}
	if c.Filler.Count < 0 {
		return fmt.Errorf("filler.count must not be negative")
	}
	return nil
}

// partial mirrors Config with pointers so a file can override a default
// with a zero value (e.g. open_hour: 0).
type partial struct {
	Data     *string `yaml:"data"`
	Adapter  *string `yaml:"adapter"`
	Schedule struct {
		OpenHour  *int `yaml:"open_hour"`
		CloseHour *int `yaml:"close_hour"`
	} `yaml:"schedule"`
	Board struct {
		Capacity  *int      `yaml:"capacity"`
		Retention *Duration `yaml:"retention"`
	} `yaml:"board"`
	Filler struct {
		Count *int    `yaml:"count"`
		Seed  *uint64 `yaml:"seed"`
	} `yaml:"filler"`
}

func (c *Config) merge(p *partial) {
	set(&c.Data, p.Data)
	set(&c.Adapter, p.Adapter)
	set(&c.Schedule.OpenHour, p.Schedule.OpenHour)
	set(&c.Schedule.CloseHour, p.Schedule.CloseHour)
	set(&c.Board.Capacity, p.Board.Capacity)
	set(&c.Board.Retention, p.Board.Retention)
	set(&c.Filler.Count, p.Filler.Count)
	set(&c.Filler.Seed, p.Filler.Seed)
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// MergeFile applies the values present in the YAML file at path.
func (c *Config) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var p partial
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.merge(&p)
	return nil
}

// LoadFromFile loads configuration from a YAML file on top of the defaults.
func LoadFromFile(path string) (*Config, error) {
	c := DefaultConfig()
	if err := c.MergeFile(path); err != nil {
		return nil, err
	}
	return c, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Options translates the configuration into platform options.
func (c *Config) Options() []platform.Option {
	opts := []platform.Option{
		platform.WithAdapter(c.Adapter),
		platform.WithSchedule(c.Schedule),
		platform.WithBoardCapacity(c.Board.Capacity),
		platform.WithRetention(time.Duration(c.Board.Retention)),
	}
	if c.Filler.Count == 0 {
		opts = append(opts, platform.WithFillerCount(-1))
	} else {
		opts = append(opts, platform.WithFillerCount(c.Filler.Count))
	}
	if c.Filler.Seed != 0 {
		opts = append(opts, platform.WithSeed(c.Filler.Seed))
	}
	return opts
}
