package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/notedis/internal/theme"
)

// Widget defaults.
const (
	DefaultAPIURL   = "https://notedis.com"
	DefaultPosition = "bottom-right"
	DefaultColor    = "#3B82F6"
)

// Positions are the corners the feedback button may sit in.
var Positions = []string{"bottom-right", "bottom-left", "top-right", "top-left"}

// Notify holds desktop notice settings.
type Notify struct {
	Capture bool
	Submit  bool
	Copy    bool
}

// Capture holds screen capture and upload settings.
type Capture struct {
	Backend     string
	MaxUploadMB int
}

// Plugin holds the host page injection rules.
type Plugin struct {
	ShowInAdmin  bool
	LoggedInOnly bool
	WidgetSource string
	LocalURL     string
}

// Config holds the application configuration.
type Config struct {
	SiteKey   string
	APIURL    string
	Position  string
	Color     string
	Theme     string
	SaveDir   string
	PrefsPath string

	Notify  Notify
	Capture Capture
	Plugin  Plugin
	Themes  map[string]*theme.Theme
}

// New creates a Config with defaults. Widget fields stay empty so later
// sources can tell whether they were set; Validate fills them in.
func New() *Config {
	return &Config{
		Capture: Capture{Backend: "auto", MaxUploadMB: 25},
		Plugin:  Plugin{WidgetSource: "local", LocalURL: "/notedis/widget.js"},
		Themes:  make(map[string]*theme.Theme),
	}
}

// MaxUploadBytes is the configured upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	if c.Capture.MaxUploadMB <= 0 {
		return 25 << 20
	}
	return int64(c.Capture.MaxUploadMB) << 20
}

// String returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	root := []struct{ key, value string }{
		{"site_key", c.SiteKey},
		{"api_url", c.APIURL},
		{"position", c.Position},
		{"color", c.Color},
		{"theme", c.Theme},
		{"save_dir", c.SaveDir},
		{"prefs_path", c.PrefsPath},
	}
	for _, kv := range root {
		if kv.value != "" {
			fmt.Fprintf(&sb, "%s = %s\n", kv.key, kv.value)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "capture = %v\n", c.Notify.Capture)
	fmt.Fprintf(&sb, "submit = %v\n", c.Notify.Submit)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	sb.WriteString("\n")

	sb.WriteString("[capture]\n")
	fmt.Fprintf(&sb, "backend = %s\n", c.Capture.Backend)
	fmt.Fprintf(&sb, "max_upload_mb = %d\n", c.Capture.MaxUploadMB)
	sb.WriteString("\n")

	sb.WriteString("[plugin]\n")
	fmt.Fprintf(&sb, "show_in_admin = %v\n", c.Plugin.ShowInAdmin)
	fmt.Fprintf(&sb, "logged_in_only = %v\n", c.Plugin.LoggedInOnly)
	fmt.Fprintf(&sb, "widget_source = %s\n", c.Plugin.WidgetSource)
	fmt.Fprintf(&sb, "local_url = %s\n", c.Plugin.LocalURL)
	sb.WriteString("\n")

	names := make([]string, 0, len(c.Themes))
	for name := range c.Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, field := range theme.Fields(t) {
			col, _ := theme.Get(t, field)
			fmt.Fprintf(&sb, "%s: %s\n", field, theme.Hex(col))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
