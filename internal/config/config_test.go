package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
site_key = abc123
api_url = "http://localhost:8080"
position = top-left
save_dir = /tmp/shots

[notify]
capture = true
submit = false
copy = true

[capture]
backend = X11
max_upload_mb = 10

[plugin]
show_in_admin = true
widget_source = cdn

[theme.custom]
Background = #111111
ButtonActive: #FF0000
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.SiteKey != "abc123" || cfg.APIURL != "http://localhost:8080" || cfg.Position != "top-left" {
		t.Errorf("root fields = %+v", cfg)
	}
	if cfg.SaveDir != "/tmp/shots" {
		t.Errorf("save_dir = %q", cfg.SaveDir)
	}
	if !cfg.Notify.Capture || cfg.Notify.Submit || !cfg.Notify.Copy {
		t.Errorf("notify = %+v", cfg.Notify)
	}
	if cfg.Capture.Backend != "x11" || cfg.MaxUploadBytes() != 10<<20 {
		t.Errorf("capture = %+v", cfg.Capture)
	}
	if !cfg.Plugin.ShowInAdmin || cfg.Plugin.LoggedInOnly || cfg.Plugin.WidgetSource != "cdn" {
		t.Errorf("plugin = %+v", cfg.Plugin)
	}
	th, ok := cfg.Themes["custom"]
	if !ok {
		t.Fatal("Expected theme 'custom' to be loaded")
	}
	if th.Background.R != 0x11 || th.ButtonActive.R != 0xff {
		t.Errorf("theme colours = %v %v", th.Background, th.ButtonActive)
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"[notify]\ncapture = maybe\n",
		"[capture]\nmax_upload_mb = -1\n",
		"[theme.x]\nBackground = red\n",
	} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestCircular(t *testing.T) {
	input := `site_key = k1
color = #10B981

[notify]
capture = true
submit = true
copy = false

[capture]
backend = portal
max_upload_mb = 5

[theme.custom]
Name = custom
Background = #000000
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}
	cfg2, err := Parse(strings.NewReader(cfg.String()))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}
	if cfg.SiteKey != cfg2.SiteKey || cfg.Color != cfg2.Color {
		t.Errorf("root mismatch: %+v vs %+v", cfg, cfg2)
	}
	if cfg.Notify != cfg2.Notify || cfg.Capture != cfg2.Capture || cfg.Plugin != cfg2.Plugin {
		t.Errorf("section mismatch")
	}
	t1, t2 := cfg.Themes["custom"], cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if *t1 != *t2 {
		t.Errorf("theme mismatch: %+v vs %+v", t1, t2)
	}
}

func TestValidate(t *testing.T) {
	cfg := New()
	cfg.SiteKey = "k"
	cfg.Color = "10b981"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Color != "#10b981" || cfg.Position != DefaultPosition || cfg.APIURL != DefaultAPIURL {
		t.Fatalf("defaults not applied: %+v", cfg)
	}

	tests := []struct {
		name string
		edit func(*Config)
		want error
	}{
		{"missing key", func(c *Config) { c.SiteKey = "" }, ErrConfigMissing},
		{"position", func(c *Config) { c.Position = "middle" }, ErrInvalidPosition},
		{"short colour", func(c *Config) { c.Color = "#FFF" }, ErrInvalidColor},
		{"api url", func(c *Config) { c.APIURL = "notedis.com" }, ErrInvalidAPIURL},
		{"source", func(c *Config) { c.Plugin.WidgetSource = "ftp" }, ErrInvalidSource},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := New()
			c.SiteKey = "k"
			tc.edit(c)
			if err := c.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPrecedence(t *testing.T) {
	// RC sets the colour, boot sets position and colour, env sets the key.
	cfg, err := Parse(strings.NewReader("color = #111111\n"))
	if err != nil {
		t.Fatal(err)
	}
	boot, err := ParseBoot(strings.NewReader(`{"siteKey":"from-boot","position":"top-right","color":"#222222"}`))
	if err != nil {
		t.Fatal(err)
	}
	cfg.ApplyBoot(boot)
	cfg.ApplyEnv(func(k string) string {
		if k == "NOTEDIS_SITE_KEY" {
			return "from-env"
		}
		return ""
	})
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.SiteKey != "from-env" || cfg.Position != "top-right" || cfg.Color != "#111111" {
		t.Fatalf("precedence wrong: %+v", cfg.Boot())
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("NOTEDIS_TEST_DOTENV=hello\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("NOTEDIS_TEST_DOTENV") })
	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if os.Getenv("NOTEDIS_TEST_DOTENV") != "hello" {
		t.Fatalf("variable not loaded")
	}
}

func TestLoaderOverrideAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.rc")
	cfg := New()
	cfg.SiteKey = "saved"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := NewLoader("v1", path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.SiteKey != "saved" {
		t.Fatalf("site key = %q", got.SiteKey)
	}
}
