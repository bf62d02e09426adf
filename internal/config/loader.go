package config

import (
	"os"
	"path/filepath"
)

// Loader finds and reads the RC file.
type Loader struct {
	Version      string // "dev" enables the working-directory .notedisrc
	OverridePath string
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
	}
}

// Load parses the first RC file found, or returns defaults.
func (l *Loader) Load() (*Config, error) {
	path := l.GetConfigPath()
	if path == "" {
		return New(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// GetConfigPath returns the RC file to use, or "" when none exists.
func (l *Loader) GetConfigPath() string {
	if l.OverridePath != "" {
		if _, err := os.Stat(l.OverridePath); err == nil {
			return l.OverridePath
		}
	}

	if l.Version == "dev" {
		wd, _ := os.Getwd()
		local := filepath.Join(wd, ".notedisrc")
		if _, err := os.Stat(local); err == nil {
			return local
		}
	}

	xdg := DefaultPath()
	if _, err := os.Stat(xdg); err == nil {
		return xdg
	}
	return ""
}

// DefaultPath is where `config save` writes.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "notedis", "config.rc")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "notedis", "config.rc")
}

// Save writes cfg to path, creating parent directories.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(cfg.String()), 0o644)
}
