package config

import (
	"os"
	"path/filepath"
)

// AppName names the config file, the env prefix and the XDG directories.
const AppName = "mathdrill"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// ConfigDir is the per-user directory searched for mathdrill.toml.
func ConfigDir() string {
	return filepath.Join(XDGConfigHome(), AppName)
}

// DefaultConfigPath is where `config init` writes by default.
func DefaultConfigPath() string {
	return filepath.Join(ConfigDir(), AppName+".toml")
}
