package assets

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

// Built-in editor themes.
//
//go:embed themes/*.theme
var embeddedThemes embed.FS

// Theme returns the raw definition of the built-in theme name.
func Theme(name string) ([]byte, error) {
	data, err := embeddedThemes.ReadFile(path.Join("themes", name+".theme"))
	if err != nil {
		return nil, fmt.Errorf("theme %q not embedded", name)
	}
	return data, nil
}

// ThemeNames lists the built-in themes.
func ThemeNames() []string {
	entries, err := fs.ReadDir(embeddedThemes, "themes")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".theme"))
	}
	sort.Strings(names)
	return names
}
