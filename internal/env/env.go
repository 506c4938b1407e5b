package env

import (
	"os"
	"path/filepath"
)

// WorkDir returns sapphire's working directory under the user cache dir.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".sapphire"), nil
}

// CellarDir returns the root directory packages are installed into, creating
// it on first use. Each package installs to CellarDir/<name>/<version>.
func CellarDir() (string, error) {
	workDir, err := WorkDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(workDir, "Cellar")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}
