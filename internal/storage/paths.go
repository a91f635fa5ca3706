// Package storage persists extracted feature samples and extraction runs.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "xqplay"

// GetDataDir returns the platform-specific data directory for the application.
// - macOS: ~/Library/Application Support/xqplay/
// - Linux: ~/.local/share/xqplay/
// - Windows: %APPDATA%/xqplay/
func GetDataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(homeDir, "Library", "Application Support")

	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, "AppData", "Roaming")
		}

	default:
		// Check XDG_DATA_HOME first
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(homeDir, ".local", "share")
		}
	}

	dataDir := filepath.Join(baseDir, appName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	return dataDir, nil
}

// GetNNUEDir returns the directory for storing NNUE network files.
func GetNNUEDir() (string, error) {
	return subDir("nnue")
}

// GetDatabaseDir returns the directory for storing the BadgerDB database.
func GetDatabaseDir() (string, error) {
	return subDir("db")
}

func subDir(name string) (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(dataDir, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}
