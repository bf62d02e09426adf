// Package widget drives the feedback button and form: boot checks, button
// placement, the form state machine and the host page snippet.
package widget

import (
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/notedis/internal/config"
	"github.com/example/notedis/internal/feedback"
	"github.com/example/notedis/internal/theme"
)

var (
	ErrConfigMissing = config.ErrConfigMissing
	ErrSiteInactive  = errors.New("site is inactive")
	ErrAlreadyOpen   = errors.New("feedback form already open")
)

// Button geometry.
const (
	ButtonSize   = 56
	ButtonMargin = 20
	ButtonTitle  = "Send Feedback"
)

// API is the part of the feedback client the widget needs.
type API interface {
	Active(ctx context.Context) bool
	Submit(ctx context.Context, p *feedback.Payload) error
	RequestUpgrade(ctx context.Context, senderEmail string) (string, error)
}

// Widget is a booted, active widget for one site.
type Widget struct {
	Boot config.Boot

	api   API
	log   *logrus.Entry
	after AfterFunc

	mu   sync.Mutex
	open *Modal
}

// Option configures a Widget.
type Option func(*Widget)

// WithLogger sets the base log entry.
func WithLogger(l *logrus.Entry) Option { return func(w *Widget) { w.log = l } }

// WithAfterFunc replaces time.AfterFunc for the form's delayed transitions.
func WithAfterFunc(fn AfterFunc) Option { return func(w *Widget) { w.after = fn } }

// Start validates cfg and asks the API whether the site is active. The
// widget is not created when the site key is missing or the site is
// inactive; both are logged at debug level only.
func Start(ctx context.Context, cfg *config.Config, api API, opts ...Option) (*Widget, error) {
	w := &Widget{api: api}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = logrus.NewEntry(logrus.StandardLogger())
	}
	if w.after == nil {
		w.after = systemAfter
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, ErrConfigMissing) {
			w.log.Debug("widget disabled: missing configuration")
		}
		return nil, err
	}
	w.Boot = cfg.Boot()
	w.log = w.log.WithField("site_key", w.Boot.SiteKey)
	if !api.Active(ctx) {
		w.log.Debug("widget disabled: site is inactive")
		return nil, ErrSiteInactive
	}
	w.log.WithField("position", w.Boot.Position).Info("widget ready")
	return w, nil
}

// Button returns where the floating button sits inside frame.
func (w *Widget) Button(frame image.Rectangle) image.Rectangle {
	return ButtonRect(frame, w.Boot.Position)
}

// ButtonColor is the configured fill of the button.
func (w *Widget) ButtonColor() color.RGBA {
	c, err := theme.ParseColor(w.Boot.Color)
	if err != nil {
		c, _ = theme.ParseColor(config.DefaultColor)
	}
	return c
}

// ButtonRect places a ButtonSize square ButtonMargin away from the corner
// named by position.
func ButtonRect(frame image.Rectangle, position string) image.Rectangle {
	x := frame.Max.X - ButtonMargin - ButtonSize
	if strings.Contains(position, "left") {
		x = frame.Min.X + ButtonMargin
	}
	y := frame.Max.Y - ButtonMargin - ButtonSize
	if strings.HasPrefix(position, "top") {
		y = frame.Min.Y + ButtonMargin
	}
	return image.Rect(x, y, x+ButtonSize, y+ButtonSize)
}

// Open starts a form for the page. Only one form is open at a time.
func (w *Widget) Open(page feedback.PageContext) (*Modal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.open != nil && w.open.State() != StateClosed {
		return w.open, ErrAlreadyOpen
	}
	m := newModal(w.Boot.SiteKey, w.api, page, w.after, w.log)
	m.onClose = func() {
		w.mu.Lock()
		if w.open == m {
			w.open = nil
		}
		w.mu.Unlock()
	}
	w.open = m
	w.log.WithField("url", page.URL).Debug("feedback form opened")
	return m, nil
}

// AfterFunc schedules f after d and returns a function that cancels it.
type AfterFunc func(d time.Duration, f func()) (stop func() bool)

func systemAfter(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
