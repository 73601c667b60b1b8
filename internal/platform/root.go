package platform

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	// DefaultDataDir is the data directory used when none is given.
	DefaultDataDir = ".dusk"

	// ConfigFile is the project configuration file name.
	ConfigFile = "dusk.yaml"
)

// ErrRootNotFound is returned when no project root exists above the start dir.
var ErrRootNotFound = errors.New("root not found")

// FindRoot looks upwards from startDir for a directory holding a .dusk
// directory or a dusk.yaml file and returns its absolute path.
func FindRoot(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		if hasFile(dir, DefaultDataDir) || hasFile(dir, ConfigFile) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", ErrRootNotFound
}

func hasFile(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}
