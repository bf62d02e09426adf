package theme

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/notedis/assets"
)

// Loader finds themes by name or path.
type Loader struct {
	ConfigDir string
}

// NewLoader looks in ~/.config/notedis/themes after the built-in themes.
func NewLoader() *Loader {
	home, _ := os.UserHomeDir()
	return &Loader{ConfigDir: filepath.Join(home, ".config", "notedis", "themes")}
}

// Load resolves name as a file path, then a built-in theme, then a file in
// ConfigDir. An empty name is the default theme.
func (l *Loader) Load(name string) (*Theme, error) {
	if name == "" || name == "default" {
		return Default(), nil
	}
	if _, err := os.Stat(name); err == nil {
		return l.loadFile(name)
	}
	base := strings.TrimSuffix(name, ".theme")
	if data, err := assets.Theme(base); err == nil {
		return Parse(strings.NewReader(string(data)))
	}
	if l.ConfigDir != "" {
		path := filepath.Join(l.ConfigDir, base+".theme")
		if _, err := os.Stat(path); err == nil {
			return l.loadFile(path)
		}
	}
	return nil, fmt.Errorf("theme '%s' not found", name)
}

func (l *Loader) loadFile(path string) (*Theme, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}
