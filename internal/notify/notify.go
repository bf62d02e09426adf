// Package notify raises desktop notices for capture, submission and
// clipboard events.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/notedis/internal/config"
	"github.com/example/notedis/internal/platform"
)

// Event identifies a notice trigger.
type Event string

const (
	EventCapture Event = "capture"
	EventSubmit  Event = "submit"
	EventCopy    Event = "copy"
)

// Preferences holds the notice title and one body template per event.
type Preferences struct {
	Title     string
	Templates map[Event]string
}

// DefaultPreferences returns the built-in wording.
func DefaultPreferences() Preferences {
	return Preferences{
		Title: platform.AppName,
		Templates: map[Event]string{
			EventCapture: "Captured %s",
			EventSubmit:  "Feedback sent: %s",
			EventCopy:    "Copied %s to clipboard",
		},
	}
}

// LoadPreferences overlays NOTEDIS_NOTIFY_* environment values on the
// defaults.
func LoadPreferences(getenv func(string) string) Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(getenv("NOTEDIS_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for _, ev := range []Event{EventCapture, EventSubmit, EventCopy} {
		key := "NOTEDIS_NOTIFY_" + strings.ToUpper(string(ev)) + "_TEXT"
		if v := strings.TrimSpace(getenv(key)); v != "" {
			prefs.Templates[ev] = v
		}
	}
	return prefs
}

// Sender delivers a notice. platform.Notify is the default.
type Sender func(title, body string, opts platform.Options) error

// Notifier sends notices for the events enabled on it.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	send    Sender
	log     logrus.FieldLogger
}

// New creates a Notifier with every event disabled.
func New(prefs Preferences) *Notifier {
	n := &Notifier{
		prefs:   Preferences{Title: prefs.Title, Templates: make(map[Event]string, len(prefs.Templates))},
		enabled: make(map[Event]bool),
		send:    platform.Notify,
		log:     logrus.StandardLogger(),
	}
	for k, v := range prefs.Templates {
		n.prefs.Templates[k] = v
	}
	return n
}

// FromConfig builds a Notifier with the events switched on in cfg.
func FromConfig(cfg config.Notify, prefs Preferences) *Notifier {
	n := New(prefs)
	n.Enable(EventCapture, cfg.Capture)
	n.Enable(EventSubmit, cfg.Submit)
	n.Enable(EventCopy, cfg.Copy)
	return n
}

// WithSender replaces the delivery function.
func (n *Notifier) WithSender(s Sender) *Notifier {
	n.send = s
	return n
}

// Enable toggles notices for event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.enabled[event] = enabled
}

// Capture announces a capture, attaching a preview of img when given.
func (n *Notifier) Capture(detail string, img image.Image) {
	if !n.enabledFor(EventCapture) {
		return
	}
	opts := platform.Options{}
	if img != nil {
		path, cleanup, err := writePreview(img)
		if err != nil {
			n.log.WithError(err).Warn("Failed to write notice preview")
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventCapture, detail, opts)
}

// Submitted announces a successful submission.
func (n *Notifier) Submitted(title string) {
	n.dispatch(EventSubmit, title, platform.Options{})
}

// Copy announces a clipboard write.
func (n *Notifier) Copy(detail string) {
	if strings.TrimSpace(detail) == "" {
		detail = "image"
	}
	n.dispatch(EventCopy, detail, platform.Options{})
}

func (n *Notifier) enabledFor(event Event) bool {
	return n != nil && n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if !n.enabledFor(event) {
		return
	}
	tmpl := strings.TrimSpace(n.prefs.Templates[event])
	if tmpl == "" {
		return
	}
	body := tmpl
	if strings.Contains(tmpl, "%") {
		body = fmt.Sprintf(tmpl, strings.TrimSpace(detail))
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}
	if err := n.send(n.prefs.Title, body, opts); err != nil {
		n.log.WithError(err).WithField("event", event).Warn("Desktop notice failed")
	}
}

func writePreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "notedis-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", nil, err
	}
	return path, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).WithField("path", path).Debug("Failed to remove notice preview")
		}
	}, nil
}
