package config

import (
	"os"
	"path/filepath"
)

func IsDebug() bool {
	return os.Getenv("BREEZE_DEBUG") == "1"
}

func GetRuntimePath() string {
	path := os.Getenv("BREEZE_RUNTIME_PATH")
	if path == "" {
		path = ".breezebot"
	}

	if !filepath.IsAbs(path) {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path)
	}
	return path
}
