package config

import (
	"os"
	"path/filepath"
	"strconv"
)

const (
	runtimeEnv = "SAMARA_RUNTIME_PATH"
	debugEnv   = "SAMARA_DEBUG"

	defaultRuntimeDir = ".samara"
)

// GetRuntimePath resolves the runtime directory before any config is parsed,
// so the .env file inside it can be loaded.
func GetRuntimePath() string {
	return resolveRuntimePath(os.Getenv(runtimeEnv))
}

// Relative paths are taken from the user's home directory.
func resolveRuntimePath(path string) string {
	if path == "" {
		path = defaultRuntimeDir
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}

// IsDebug reports whether SAMARA_DEBUG holds a true value.
func IsDebug() bool {
	on, _ := strconv.ParseBool(os.Getenv(debugEnv))
	return on
}
