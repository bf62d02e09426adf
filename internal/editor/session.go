// Package editor drives one screenshot annotation session: tool selection,
// pointer gestures, the text box overlay and keyboard shortcuts.
package editor

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/notedis/internal/annotate"
	"github.com/example/notedis/internal/prefs"
)

// State is the tool controller state.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateTextEditing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateTextEditing:
		return "text-editing"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// MinShapeExtent is the smallest drag, in surface units on either axis,
// that commits a shape.
const MinShapeExtent = 3.0

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Result is handed to the close callback.
type Result struct {
	Image     *image.RGBA
	Annotated bool
	Discarded bool
}

type drag struct {
	tool  annotate.Kind
	start annotate.Point
	end   annotate.Point
	color color.NRGBA
	size  annotate.SizeClass
}

// Session is the editor for one capture. It is driven from a single
// goroutine.
type Session struct {
	ID string

	store    *annotate.Store
	view     Viewport
	tool     annotate.Kind
	color    color.NRGBA
	size     annotate.SizeClass
	fontSize float64
	state    State
	drag     drag
	box      *TextBox

	prefs    prefs.Store
	clock    Clock
	log      *logrus.Entry
	confirm  func(prompt string) bool
	onChange func()
	onClose  func(Result)
}

// Option configures a Session.
type Option func(*Session)

// WithPreferences loads and saves style choices through store.
func WithPreferences(store prefs.Store) Option { return func(s *Session) { s.prefs = store } }

// WithClock replaces the wall clock.
func WithClock(c Clock) Option { return func(s *Session) { s.clock = c } }

// WithLogger sets the base log entry.
func WithLogger(l *logrus.Entry) Option { return func(s *Session) { s.log = l } }

// WithConfirm sets the prompt used before clearing all records.
func WithConfirm(fn func(prompt string) bool) Option { return func(s *Session) { s.confirm = fn } }

// WithOnChange is called whenever the frame needs repainting.
func WithOnChange(fn func()) Option { return func(s *Session) { s.onChange = fn } }

// WithOnClose receives the outcome when the session ends.
func WithOnClose(fn func(Result)) Option { return func(s *Session) { s.onClose = fn } }

// WithColor sets the initial drawing colour.
func WithColor(c color.NRGBA) Option { return func(s *Session) { s.color = c } }

// New opens a session over base shown at display.
func New(base image.Image, display annotate.Rect, opts ...Option) *Session {
	b := base.Bounds()
	s := &Session{
		ID:       uuid.NewString(),
		store:    annotate.NewStore(base),
		view:     NewViewport(image.Pt(b.Dx(), b.Dy()), display),
		tool:     annotate.KindArrow,
		color:    annotate.DefaultColor(),
		size:     annotate.DefaultSize,
		fontSize: annotate.DefaultFontSize,
		clock:    systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logrus.NewEntry(logrus.StandardLogger())
	}
	s.log = s.log.WithField("session_id", s.ID)
	style, err := LoadStyle(s.prefs)
	if err != nil {
		s.log.WithError(err).Warn("using default annotation style")
	}
	s.size = style.Arrow
	s.fontSize = style.FontSize()
	s.log.WithFields(logrus.Fields{
		"width":     b.Dx(),
		"height":    b.Dy(),
		"size":      s.size,
		"font_size": s.fontSize,
	}).Debug("editor opened")
	return s
}

func (s *Session) State() State               { return s.state }
func (s *Session) Tool() annotate.Kind        { return s.tool }
func (s *Session) Color() color.NRGBA         { return s.color }
func (s *Session) Size() annotate.SizeClass   { return s.size }
func (s *Session) FontSize() float64          { return s.fontSize }
func (s *Session) Viewport() Viewport         { return s.view }
func (s *Session) Store() *annotate.Store     { return s.store }
func (s *Session) Records() []annotate.Record { return s.store.Records() }

// TextBox returns the open text box or nil.
func (s *Session) TextBox() *TextBox { return s.box }

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// SetTool selects the active tool. Drags already in progress keep the tool
// they started with.
func (s *Session) SetTool(k annotate.Kind) {
	if k == annotate.KindMarquee || s.tool == k {
		return
	}
	s.tool = k
	s.log.WithField("tool", k).Debug("tool selected")
	s.changed()
}

// SetColor changes the colour used by the next gesture.
func (s *Session) SetColor(c color.NRGBA) {
	s.color = annotate.Opaque(c)
	s.changed()
}

// SetSize changes the arrow, rectangle and circle size and remembers it.
func (s *Session) SetSize(size annotate.SizeClass) {
	if !size.Valid() || size == s.size {
		return
	}
	s.size = size
	s.saveStyle()
	s.changed()
}

// SetFontSize changes the text size and remembers it.
func (s *Session) SetFontSize(fs float64) {
	if fs <= 0 || fs == s.fontSize {
		return
	}
	s.fontSize = fs
	s.saveStyle()
	s.changed()
}

func (s *Session) saveStyle() {
	style := Style{Arrow: s.size, Text: formatFontSize(s.fontSize)}
	if err := SaveStyle(s.prefs, style); err != nil {
		s.log.WithError(err).Warn("annotation style not saved")
	}
}

// Resize records a new on-screen placement for the canvas.
func (s *Session) Resize(display annotate.Rect) {
	s.view.Display = display
	if s.box != nil {
		s.box.place(s.view)
	}
	s.changed()
}

// PointerDown starts a gesture at display point p.
func (s *Session) PointerDown(p annotate.Point) {
	switch s.state {
	case StateTextEditing:
		switch {
		case s.box.Checkmark().Contains(p):
			s.ConfirmText()
			return
		case s.box.Screen.Contains(p):
			return
		}
		s.BlurText()
		if s.box != nil {
			// Still inside the grace period: the new gesture replaces it.
			s.log.Debug("uncommitted text box removed")
			s.box = nil
			s.state = StateIdle
		}
	case StateIdle:
	default:
		return
	}
	pt := s.view.ToSurface(p)
	s.drag = drag{tool: s.tool, start: pt, end: pt, color: s.color, size: s.size}
	s.state = StateDragging
}

// PointerMove updates the provisional record while dragging.
func (s *Session) PointerMove(p annotate.Point) {
	if s.state != StateDragging {
		return
	}
	s.drag.end = s.view.ToSurface(p)
	s.changed()
}

// PointerUp finishes the gesture. Shapes are committed; the text tool opens
// a text box over the dragged bounds.
func (s *Session) PointerUp(p annotate.Point) {
	if s.state != StateDragging {
		return
	}
	s.drag.end = s.view.ToSurface(p)
	s.state = StateIdle
	d := s.drag
	s.drag = drag{}
	if d.tool == annotate.KindText {
		s.openTextBox(annotate.RectFromPoints(d.start, d.end))
		s.changed()
		return
	}
	if math.Abs(d.end.X-d.start.X) < MinShapeExtent && math.Abs(d.end.Y-d.start.Y) < MinShapeExtent {
		s.log.WithField("tool", d.tool).Debug("drag too small, discarded")
		s.changed()
		return
	}
	rec, err := annotate.NewShape(d.tool, d.start, d.end, d.color, d.size)
	if err != nil {
		s.log.WithError(err).Warn("drag discarded")
		s.changed()
		return
	}
	s.store.Append(rec)
	s.log.WithFields(logrus.Fields{"tool": d.tool, "records": s.store.Len()}).Debug("record committed")
	s.changed()
}

// CancelDrag drops an in-progress gesture.
func (s *Session) CancelDrag() {
	if s.state != StateDragging {
		return
	}
	s.state = StateIdle
	s.drag = drag{}
	s.changed()
}

// Provisional returns the record being previewed, if any.
func (s *Session) Provisional() annotate.Record {
	if s.state != StateDragging {
		return nil
	}
	d := s.drag
	if d.tool == annotate.KindText {
		return annotate.Marquee{Start: d.start, End: d.end}
	}
	rec, err := annotate.NewShape(d.tool, d.start, d.end, d.color, d.size)
	if err != nil {
		return nil
	}
	return rec
}

// Frame renders the current surface including any provisional record.
func (s *Session) Frame() *image.RGBA {
	if s.state == StateClosed {
		return s.store.Finalize()
	}
	return annotate.RenderPreview(s.store.Base(), s.store.Records(), s.Provisional())
}

// Undo removes the most recent record.
func (s *Session) Undo() bool {
	if _, ok := s.store.Undo(); !ok {
		return false
	}
	s.log.WithField("records", s.store.Len()).Debug("undo")
	s.changed()
	return true
}

// ClearAll asks for confirmation and then removes every record.
func (s *Session) ClearAll() bool {
	confirm := func() bool {
		return s.confirm != nil && s.confirm("Clear all annotations?")
	}
	if !s.store.ClearAll(confirm) {
		return false
	}
	s.log.Debug("annotations cleared")
	s.changed()
	return true
}

// Close drops uncommitted state, flattens the records and ends the session.
func (s *Session) Close() Result {
	if s.state == StateClosed {
		return Result{Image: s.store.Finalize(), Annotated: s.store.Len() > 0}
	}
	s.drag = drag{}
	s.box = nil
	s.state = StateClosed
	res := Result{Image: s.store.Finalize(), Annotated: s.store.Len() > 0}
	s.log.WithField("records", s.store.Len()).Info("editor closed")
	if s.onClose != nil {
		s.onClose(res)
	}
	return res
}

// Discard ends the session without producing an image.
func (s *Session) Discard() {
	if s.state == StateClosed {
		return
	}
	s.drag = drag{}
	s.box = nil
	s.state = StateClosed
	s.log.Info("editor discarded")
	if s.onClose != nil {
		s.onClose(Result{Discarded: true})
	}
}
