package main

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/notedis/internal/config"
	"github.com/example/notedis/internal/devapi"
)

func devServer(t *testing.T, sites ...devapi.Site) (string, devapi.Store) {
	t.Helper()
	store := devapi.NewMemoryStore()
	for _, s := range sites {
		if err := store.PutSite(context.Background(), s); err != nil {
			t.Fatal(err)
		}
	}
	srv := httptest.NewServer(devapi.NewServer(store).Router())
	t.Cleanup(srv.Close)
	return srv.URL, store
}

func siteRoot(t *testing.T, apiURL, key string) (*root, *strings.Builder) {
	t.Helper()
	r, _ := testRoot(t)
	var out strings.Builder
	r.out = &out
	r.config.APIURL = apiURL
	r.config.SiteKey = key
	return r, &out
}

func TestStatusCommand(t *testing.T) {
	url, _ := devServer(t, devapi.Site{Key: "on", Active: true}, devapi.Site{Key: "off"})
	tests := []struct {
		key  string
		want string
	}{
		{"on", "on: active\n"},
		{"off", "off: inactive\n"},
		{"unknown", "unknown: inactive\n"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			r, out := siteRoot(t, url, tc.key)
			cmd, err := parseStatusCmd(nil, r)
			if err != nil {
				t.Fatal(err)
			}
			if err := cmd.Run(); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if out.String() != tc.want {
				t.Fatalf("got %q want %q", out.String(), tc.want)
			}
		})
	}
}

func TestStatusMissingSiteKey(t *testing.T) {
	r, _ := siteRoot(t, "https://example.com", "")
	cmd, err := parseStatusCmd(nil, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); !errors.Is(err, config.ErrConfigMissing) {
		t.Fatalf("expected ErrConfigMissing, got %v", err)
	}
}

func TestStatusBootFile(t *testing.T) {
	url, _ := devServer(t, devapi.Site{Key: "boot-key", Active: true})
	boot := filepath.Join(t.TempDir(), "boot.json")
	if err := os.WriteFile(boot, []byte(`{"siteKey":"boot-key","apiUrl":"`+url+`"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	r, out := siteRoot(t, "", "")
	cmd, err := parseStatusCmd([]string{"-boot", boot}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.String() != "boot-key: active\n" {
		t.Fatalf("got %q", out.String())
	}
}

func TestSnippetCommand(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		plugin config.Plugin
		key    string
		want   string
	}{
		{"local", nil, config.Plugin{WidgetSource: "local", LocalURL: "/notedis/widget.js"}, "site-1", `src="/notedis/widget.js"`},
		{"cdn", nil, config.Plugin{WidgetSource: "cdn"}, "site-1", `src="https://notedis.com/js/widget.js"`},
		{"admin hidden", []string{"-admin"}, config.Plugin{WidgetSource: "cdn"}, "site-1", ""},
		{"admin shown", []string{"-admin"}, config.Plugin{WidgetSource: "cdn", ShowInAdmin: true}, "site-1", "window.notedisConfig"},
		{"logged in only", nil, config.Plugin{WidgetSource: "cdn", LoggedInOnly: true}, "site-1", ""},
		{"logged in", []string{"-logged-in"}, config.Plugin{WidgetSource: "cdn", LoggedInOnly: true}, "site-1", `"siteKey":"site-1"`},
		{"no key", nil, config.Plugin{WidgetSource: "cdn"}, "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, out := siteRoot(t, "", tc.key)
			r.config.Plugin = tc.plugin
			cmd, err := parseSnippetCmd(tc.args, r)
			if err != nil {
				t.Fatal(err)
			}
			if err := cmd.Run(); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if tc.want == "" {
				if out.Len() != 0 {
					t.Fatalf("expected no output, got %q", out.String())
				}
				return
			}
			if !strings.Contains(out.String(), tc.want) {
				t.Fatalf("output %q missing %q", out.String(), tc.want)
			}
		})
	}
}

func TestSubmitCommand(t *testing.T) {
	url, store := devServer(t, devapi.Site{Key: "site-1", Active: true})
	r, out := siteRoot(t, url, "site-1")
	cmd, err := parseSubmitCmd([]string{
		"-title", "Broken link",
		"-message", "The footer link 404s",
		"-category", "bug",
		"-file", writePNG(t, 12, 12),
		"-url", "https://example.com/about",
	}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "Thank you") {
		t.Fatalf("missing success notice: %q", out.String())
	}
	entries, _ := store.Entries(context.Background(), "site-1")
	if len(entries) != 1 {
		t.Fatalf("entries = %+v", entries)
	}
	e := entries[0]
	if e.Title != "Broken link" || e.URL != "https://example.com/about" || e.HasScreenshot || !e.HasUpload {
		t.Fatalf("entry = %+v", e)
	}
}

func TestSubmitAnnotatedScreenshot(t *testing.T) {
	stubWindow(t, pressEscape)
	url, store := devServer(t, devapi.Site{Key: "site-1", Active: true})
	r, _ := siteRoot(t, url, "site-1")
	cmd, err := parseSubmitCmd([]string{
		"-title", "Layout", "-message", "Overlap", "-screenshot", writePNG(t, 30, 20), "-annotate",
	}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	entries, _ := store.Entries(context.Background(), "site-1")
	if len(entries) != 1 || !entries[0].HasScreenshot || entries[0].HasUpload {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestSubmitInactiveSite(t *testing.T) {
	url, _ := devServer(t, devapi.Site{Key: "site-1"})
	r, _ := siteRoot(t, url, "site-1")
	cmd, err := parseSubmitCmd([]string{"-title", "a", "-message", "b"}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err == nil || !strings.Contains(err.Error(), "not active") {
		t.Fatalf("expected inactive error, got %v", err)
	}
}

func TestSubmitQuotaPrintsUpsell(t *testing.T) {
	url, store := devServer(t, devapi.Site{Key: "site-1", Active: true, Quota: 1, OwnerEmail: "owner@example.com"})
	first, _ := siteRoot(t, url, "site-1")
	cmd, err := parseSubmitCmd([]string{"-title", "one", "-message", "first"}, first)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	r, out := siteRoot(t, url, "site-1")
	cmd, err = parseSubmitCmd([]string{
		"-title", "two", "-message", "second", "-email", "me@example.com", "-request-upgrade",
	}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), devapi.DefaultPricingURL) || !strings.Contains(out.String(), "sent to the site owner") {
		t.Fatalf("output = %q", out.String())
	}
	reqs, _ := store.UpgradeRequests(context.Background(), "site-1")
	if len(reqs) != 1 || reqs[0].SenderEmail != "me@example.com" {
		t.Fatalf("upgrade requests = %+v", reqs)
	}
}

func TestParseSubmitErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"two screenshots", []string{"-screenshot", "a.png", "-capture"}, "cannot be combined"},
		{"annotate alone", []string{"-annotate"}, "-annotate needs"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := testRoot(t)
			_, err := parseSubmitCmd(tc.args, r)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q, got %v", tc.want, err)
			}
		})
	}
}

func TestDevAPIRegister(t *testing.T) {
	r, _ := siteRoot(t, "", "configured")
	tests := []struct {
		name string
		args []string
		keys []string
	}{
		{"flags", []string{"-site", "a", "-site", "b", "-quota", "3"}, []string{"a", "b"}},
		{"config fallback", nil, []string{"configured"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cmd, err := parseDevAPICmd(tc.args, r)
			if err != nil {
				t.Fatal(err)
			}
			store := devapi.NewMemoryStore()
			if err := cmd.register(context.Background(), store); err != nil {
				t.Fatal(err)
			}
			for _, k := range tc.keys {
				s, err := store.Site(context.Background(), k)
				if err != nil || !s.Active || s.Quota != cmd.quota {
					t.Fatalf("site %s = %+v, %v", k, s, err)
				}
			}
		})
	}
}

func TestParseDevAPIErrors(t *testing.T) {
	r, _ := testRoot(t)
	if _, err := parseDevAPICmd([]string{"-quota", "-1"}, r); err == nil {
		t.Fatalf("expected negative quota error")
	}
	if _, err := parseDevAPICmd([]string{"-site", " "}, r); err == nil {
		t.Fatalf("expected empty site error")
	}
}

func TestDevAPISQLiteStore(t *testing.T) {
	r, _ := testRoot(t)
	cmd, err := parseDevAPICmd([]string{"-db", filepath.Join(t.TempDir(), "dev.db"), "-site", "k"}, r)
	if err != nil {
		t.Fatal(err)
	}
	store, err := cmd.openStore()
	if err != nil {
		t.Fatalf("openStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if err := cmd.register(context.Background(), store); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Site(context.Background(), "k"); err != nil {
		t.Fatalf("site not stored: %v", err)
	}
}

func TestConfigPrintAndSave(t *testing.T) {
	r, out := siteRoot(t, "https://api.example.com", "site-9")
	r.configPath = filepath.Join(t.TempDir(), "notedis.rc")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cmd, err := parseConfigCmd([]string{"print"}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "site-9") {
		t.Fatalf("print output = %q", out.String())
	}

	cmd, err = parseConfigCmd([]string{"save"}, r)
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(config.DefaultPath())
	if err != nil {
		t.Fatalf("saved file: %v", err)
	}
	loaded, err := config.Parse(strings.NewReader(string(data)))
	if err != nil || loaded.SiteKey != "site-9" {
		t.Fatalf("reloaded = %+v, %v", loaded, err)
	}
}

func TestConfigUnknownSubcommand(t *testing.T) {
	r, _ := testRoot(t)
	cmd, err := parseConfigCmd([]string{"edit"}, r)
	if err != nil {
		t.Fatal(err)
	}
	var uerr *UsageError
	if err := cmd.Run(); !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	r, _ := testRoot(t)
	var out strings.Builder
	r.out = &out
	if err := (&versionCmd{root: r}).Run(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "notedis version "+version) {
		t.Fatalf("got %q", out.String())
	}
}
