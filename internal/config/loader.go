package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/dusk/internal/platform"
)

const (
	// UserConfigDir is the directory for user-level config, relative to home.
	UserConfigDir = ".config/dusk"
	// UserConfigFile is the name of the user-level config file.
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *slog.Logger
	home   string
	start  string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithHome overrides the home directory used for the user config.
func WithHome(dir string) LoaderOption {
	return func(l *Loader) { l.home = dir }
}

// WithStartDir sets where the project config search begins (default: cwd).
func WithStartDir(dir string) LoaderOption {
	return func(l *Loader) { l.start = dir }
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	l := &Loader{logger: logger}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load builds the configuration:
//  1. defaults
//  2. user config (~/.config/dusk/config.yaml)
//  3. project config (dusk.yaml in the start directory or a parent), or
//     explicit when non-empty
//
// Flags are applied by the caller on top of the result.
func (l *Loader) Load(explicit string) (*Config, error) {
	cfg := DefaultConfig()

	if path := l.userConfigPath(); path != "" {
		err := cfg.MergeFile(path)
		switch {
		case err == nil:
			l.logger.Debug("loaded user config", "path", path)
		case errors.Is(err, fs.ErrNotExist):
		default:
			l.logger.Warn("failed to load user config", "path", path, "error", err)
		}
	}

	if explicit != "" {
		if err := cfg.MergeFile(explicit); err != nil {
			return nil, err
		}
		l.logger.Debug("loaded config", "path", explicit)
	} else if path := l.findProjectConfig(); path != "" {
		if err := cfg.MergeFile(path); err != nil {
			l.logger.Warn("failed to load project config", "path", path, "error", err)
		} else {
			l.logger.Debug("loaded project config", "path", path)
			// A relative data dir is anchored at the project root.
			if !filepath.IsAbs(cfg.Data) {
				cfg.Data = filepath.Join(filepath.Dir(path), cfg.Data)
			}
		}
	} else {
		l.logger.Debug("no project config found")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) userConfigPath() string {
	home := l.home
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

func (l *Loader) findProjectConfig() string {
	start := l.start
	if start == "" {
		var err error
		if start, err = os.Getwd(); err != nil {
			return ""
		}
	}
	root, err := platform.FindRoot(start)
	if err != nil {
		return ""
	}
	path := filepath.Join(root, platform.ConfigFile)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
