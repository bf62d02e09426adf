package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
)

var (
	ErrConfigMissing   = errors.New("missing configuration: site key is required")
	ErrInvalidPosition = errors.New("invalid widget position")
	ErrInvalidColor    = errors.New("invalid widget color")
	ErrInvalidAPIURL   = errors.New("invalid api url")
	ErrInvalidSource   = errors.New("invalid widget source")
)

var colorPattern = regexp.MustCompile(`^#?[0-9A-Fa-f]{6}$`)

// Boot is the configuration object the host page publishes as
// window.notedisConfig.
type Boot struct {
	SiteKey  string `json:"siteKey"`
	APIURL   string `json:"apiUrl,omitempty"`
	Position string `json:"position,omitempty"`
	Color    string `json:"color,omitempty"`
}

// ParseBoot decodes a boot object.
func ParseBoot(r io.Reader) (*Boot, error) {
	var b Boot
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("decode boot config: %w", err)
	}
	return &b, nil
}

// ApplyBoot fills fields that are still unset.
func (c *Config) ApplyBoot(b *Boot) {
	if b == nil {
		return
	}
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&c.SiteKey, b.SiteKey)
	fill(&c.APIURL, b.APIURL)
	fill(&c.Position, b.Position)
	fill(&c.Color, b.Color)
}

// Boot returns the object rendered into the host page.
func (c *Config) Boot() Boot {
	return Boot{SiteKey: c.SiteKey, APIURL: c.APIURL, Position: c.Position, Color: c.Color}
}

// LoadDotEnv loads .env style files into the process environment without
// replacing variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

// ApplyEnv overrides fields from NOTEDIS_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.SiteKey, "NOTEDIS_SITE_KEY")
	set(&c.APIURL, "NOTEDIS_API_URL")
	set(&c.Position, "NOTEDIS_POSITION")
	set(&c.Color, "NOTEDIS_COLOR")
	set(&c.Theme, "NOTEDIS_THEME")
	set(&c.SaveDir, "NOTEDIS_SAVE_DIR")
	set(&c.PrefsPath, "NOTEDIS_PREFS_PATH")
	set(&c.Capture.Backend, "NOTEDIS_CAPTURE_BACKEND")
}

// Validate fills widget defaults and normalizes the colour. A missing site
// key is reported as ErrConfigMissing after the other fields are checked.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.Position == "" {
		c.Position = DefaultPosition
	}
	if c.Color == "" {
		c.Color = DefaultColor
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidAPIURL, c.APIURL)
	}
	if !validPosition(c.Position) {
		return fmt.Errorf("%w: %q", ErrInvalidPosition, c.Position)
	}
	if !colorPattern.MatchString(c.Color) {
		return fmt.Errorf("%w: %q", ErrInvalidColor, c.Color)
	}
	if !strings.HasPrefix(c.Color, "#") {
		c.Color = "#" + c.Color
	}
	switch c.Plugin.WidgetSource {
	case "", "local", "cdn":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSource, c.Plugin.WidgetSource)
	}
	if strings.TrimSpace(c.SiteKey) == "" {
		return ErrConfigMissing
	}
	return nil
}

func validPosition(p string) bool {
	for _, v := range Positions {
		if v == p {
			return true
		}
	}
	return false
}
