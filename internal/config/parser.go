package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/notedis/internal/theme"
)

// Parse reads an RC file: `key = value` (or `key: value`) lines grouped
// under `[section]` headers.
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var section string
	var current *theme.Theme
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			current = nil
			if name, ok := strings.CutPrefix(section, "theme."); ok {
				current = theme.Default()
				current.Name = name
				cfg.Themes[name] = current
			}
			continue
		}

		sep := strings.IndexAny(line, "=:")
		if sep < 0 {
			continue
		}
		key := strings.TrimSpace(line[:sep])
		value := strings.TrimSpace(line[sep+1:])
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}

		var err error
		switch {
		case current != nil:
			err = theme.SetField(current, key, value)
		case section == "":
			setRootField(cfg, key, value)
		case section == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		case section == "capture":
			err = setCaptureField(&cfg.Capture, key, value)
		case section == "plugin":
			err = setPluginField(&cfg.Plugin, key, value)
		}
		if err != nil {
			return nil, fmt.Errorf("line %d in section [%s]: %w", lineNo, section, err)
		}
	}
	return cfg, scanner.Err()
}

func setRootField(cfg *Config, key, value string) {
	switch strings.ToLower(key) {
	case "site_key":
		cfg.SiteKey = value
	case "api_url":
		cfg.APIURL = value
	case "position":
		cfg.Position = value
	case "color":
		cfg.Color = value
	case "theme":
		cfg.Theme = value
	case "save_dir":
		cfg.SaveDir = value
	case "prefs_path":
		cfg.PrefsPath = value
	}
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "capture":
		n.Capture = b
	case "submit":
		n.Submit = b
	case "copy":
		n.Copy = b
	}
	return nil
}

func setCaptureField(c *Capture, key, value string) error {
	switch strings.ToLower(key) {
	case "backend":
		c.Backend = strings.ToLower(value)
	case "max_upload_mb":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid max_upload_mb %q", value)
		}
		c.MaxUploadMB = n
	}
	return nil
}

func setPluginField(p *Plugin, key, value string) error {
	switch strings.ToLower(key) {
	case "show_in_admin", "logged_in_only":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean for key %s: %w", key, err)
		}
		if strings.EqualFold(key, "show_in_admin") {
			p.ShowInAdmin = b
		} else {
			p.LoggedInOnly = b
		}
	case "widget_source":
		p.WidgetSource = strings.ToLower(value)
	case "local_url":
		p.LocalURL = value
	}
	return nil
}
