package ui

import (
	"image"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/shiny/driver"
	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/notedis/internal/editor"
	"github.com/example/notedis/internal/theme"
)

// MaxInitialSize bounds the window opened for large captures.
var MaxInitialSize = image.Pt(1600, 1000)

// Window shows one editor session. The session is only touched from the
// window's event loop.
type Window struct {
	Title string

	session *editor.Session
	theme   *theme.Theme
	notice  *Notice
	layout  Layout
	log     *logrus.Entry

	// confirmArmed is set by the first Clear click.
	confirmArmed bool
}

// New creates a window using th. notice, when non-nil, is shown on open.
func New(th *theme.Theme, notice *Notice) *Window {
	if th == nil {
		th = theme.Default()
	}
	return &Window{
		Title:  "Notedis: annotate screenshot",
		theme:  th,
		notice: notice,
		log:    logrus.WithField("component", "ui"),
	}
}

// Attach sets the session to display.
func (w *Window) Attach(s *editor.Session) {
	w.session = s
	w.log = w.log.WithField("session_id", s.ID)
}

// Confirm is passed to editor.WithConfirm. The first call arms a notice
// and declines; a second call while armed accepts.
func (w *Window) Confirm(prompt string) bool {
	if w.confirmArmed {
		w.confirmArmed = false
		w.notice = nil
		return true
	}
	w.confirmArmed = true
	w.notice = &Notice{Text: prompt + " Click Clear again to confirm."}
	return false
}

// InitialSize is the window size that shows surface at native size when it
// fits within MaxInitialSize.
func InitialSize(surface image.Point) image.Point {
	w := surface.X
	h := surface.Y + toolbarHeight + statusHeight
	if w < 640 {
		w = 640
	}
	if w > MaxInitialSize.X {
		w = MaxInitialSize.X
	}
	if h > MaxInitialSize.Y {
		h = MaxInitialSize.Y
	}
	return image.Pt(w, h)
}

// Run blocks in shiny's driver until the session closes or the window is
// destroyed.
func (w *Window) Run() { driver.Main(w.Main) }

// Main is the shiny entry point.
func (w *Window) Main(s screen.Screen) {
	base := w.session.Store().Base().Bounds().Size()
	sz := InitialSize(base)
	win, err := s.NewWindow(&screen.NewWindowOptions{Width: sz.X, Height: sz.Y, Title: w.Title})
	if err != nil {
		w.log.WithError(err).Error("Failed to open editor window")
		w.session.Discard()
		return
	}
	defer win.Release()
	w.resize(sz.X, sz.Y)

	for {
		switch e := win.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				w.session.Discard()
				return
			}
			if e.Crosses(lifecycle.StageFocused) == lifecycle.CrossOff {
				w.session.BlurText()
				win.Send(paint.Event{})
			}
		case size.Event:
			w.resize(e.WidthPx, e.HeightPx)
			win.Send(paint.Event{})
		case paint.Event:
			w.paint(s, win)
		case mouse.Event:
			if w.Mouse(e) {
				win.Send(paint.Event{})
			}
		case key.Event:
			if w.Key(e) {
				win.Send(paint.Event{})
			}
		case error:
			w.log.WithError(e).Warn("Window event error")
		}
		if w.session.State() == editor.StateClosed {
			return
		}
	}
}

func (w *Window) resize(width, height int) {
	w.layout = NewLayout(width, height, w.session.Tool())
	w.session.Resize(editor.FitDisplay(w.session.Viewport().Surface, w.layout.Canvas))
}

func (w *Window) paint(s screen.Screen, win screen.Window) {
	// The second toolbar row depends on the tool.
	w.layout = NewLayout(w.layout.Width, w.layout.Height, w.session.Tool())
	b, err := s.NewBuffer(image.Pt(w.layout.Width, w.layout.Height))
	if err != nil {
		w.log.WithError(err).Warn("Failed to allocate frame buffer")
		return
	}
	defer b.Release()
	Paint(b.RGBA(), w.layout, w.session, w.theme, w.notice)
	win.Upload(image.Point{}, b, b.Bounds())
	win.Publish()
}

// Mouse routes e to the toolbar, the notice or the session and reports
// whether a repaint is needed.
func (w *Window) Mouse(e mouse.Event) bool {
	p := image.Pt(int(e.X), int(e.Y))
	if e.Direction == mouse.DirPress && w.session.State() != editor.StateDragging {
		switch {
		case p.In(w.layout.Toolbar):
			if e.Button != mouse.ButtonLeft {
				return false
			}
			c, ok := w.layout.Hit(p)
			if !ok {
				return false
			}
			if w.session.State() == editor.StateTextEditing {
				w.session.BlurText()
			}
			if c.Kind != ControlClear {
				w.confirmArmed = false
			}
			Apply(c, w.session)
			return true
		case p.In(w.layout.Status):
			if w.notice != nil {
				w.notice = nil
				w.confirmArmed = false
				return true
			}
			return false
		}
	}
	w.session.Mouse(e)
	return e.Direction != mouse.DirNone || w.session.State() == editor.StateDragging
}

// Key forwards e to the session. Escape first dismisses a visible notice.
func (w *Window) Key(e key.Event) bool {
	if e.Direction == key.DirPress && e.Code == key.CodeEscape && w.notice != nil &&
		w.session.State() != editor.StateTextEditing {
		w.notice = nil
		w.confirmArmed = false
		return true
	}
	return w.session.Key(e)
}
