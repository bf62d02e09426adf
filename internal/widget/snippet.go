package widget

import (
	"encoding/json"
	"fmt"
	"html"

	"github.com/example/notedis/internal/config"
)

// CDNScriptURL is the hosted widget script.
const CDNScriptURL = "https://notedis.com/js/widget.js"

// Request describes the page being rendered by the host.
type Request struct {
	Admin    bool // control panel page
	LoggedIn bool
}

// ScriptURL picks the widget script for the configured source.
func ScriptURL(p config.Plugin) string {
	if p.WidgetSource == "cdn" {
		return CDNScriptURL
	}
	if p.LocalURL == "" {
		return "/notedis/widget.js"
	}
	return p.LocalURL
}

// Snippet renders the tags the host injects at the end of the body. It
// returns false when nothing should be injected.
func Snippet(cfg *config.Config, req Request) (string, bool, error) {
	if cfg.SiteKey == "" {
		return "", false, nil
	}
	if req.Admin && !cfg.Plugin.ShowInAdmin {
		return "", false, nil
	}
	if cfg.Plugin.LoggedInOnly && !req.LoggedIn {
		return "", false, nil
	}
	if err := cfg.Validate(); err != nil {
		return "", false, err
	}
	boot, err := json.Marshal(cfg.Boot())
	if err != nil {
		return "", false, err
	}
	return fmt.Sprintf(`<script>window.notedisConfig = %s;</script><script src="%s" defer></script>`,
		boot, html.EscapeString(ScriptURL(cfg.Plugin))), true, nil
}
