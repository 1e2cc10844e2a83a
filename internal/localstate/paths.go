package localstate

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	envHome    = "PANTRY_STATE_HOME" // override for tests
	dirName    = ".pantry"           // default under $HOME
	dbFilename = "pantry.db"
)

// DataDir returns the directory holding local pantry state, ~/.pantry unless
// PANTRY_STATE_HOME overrides it. The directory is created on first use.
func DataDir() (string, error) {
	if custom := os.Getenv(envHome); custom != "" {
		return ensureDir(custom)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user home: %w", err)
	}
	return ensureDir(filepath.Join(home, dirName))
}

// DBPath returns the absolute path to the SQLite database file.
func DBPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFilename), nil
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}
