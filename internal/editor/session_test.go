package editor

import (
	"image"
	"math"
	"testing"
	"time"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/notedis/internal/annotate"
	"github.com/example/notedis/internal/prefs"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newSession(t *testing.T, opts ...Option) (*Session, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	base := image.NewRGBA(image.Rect(0, 0, 800, 600))
	// Displayed at half size with a 10,20 offset.
	display := annotate.Rect{X: 10, Y: 20, Width: 400, Height: 300}
	opts = append([]Option{WithClock(clock)}, opts...)
	return New(base, display, opts...), clock
}

func pt(x, y float64) annotate.Point { return annotate.Point{X: x, Y: y} }

func TestViewportRoundTrip(t *testing.T) {
	v := NewViewport(image.Pt(1920, 1080), annotate.Rect{X: 33, Y: 7, Width: 700, Height: 393.75})
	for _, p := range []annotate.Point{{X: 0, Y: 0}, {X: 123.5, Y: 77.25}, {X: 1919, Y: 1079}} {
		back := v.ToSurface(v.ToDisplay(p))
		if math.Abs(back.X-p.X) > 1e-9 || math.Abs(back.Y-p.Y) > 1e-9 {
			t.Fatalf("round trip of %v gave %v", p, back)
		}
	}
}

func TestFitDisplayKeepsAspect(t *testing.T) {
	r := FitDisplay(image.Pt(1600, 900), image.Rect(0, 0, 800, 800))
	if r.Width != 800 || r.Height != 450 || r.Y != 175 {
		t.Fatalf("FitDisplay = %+v", r)
	}
	r = FitDisplay(image.Pt(100, 100), image.Rect(0, 0, 800, 800))
	if r.Width != 100 {
		t.Fatalf("small images should not be enlarged: %+v", r)
	}
}

func TestArrowDragCommitsInSurfaceSpace(t *testing.T) {
	s, _ := newSession(t)
	s.PointerDown(pt(10, 20))
	if s.State() != StateDragging {
		t.Fatalf("state = %v, want dragging", s.State())
	}
	s.PointerMove(pt(40, 50))
	if _, ok := s.Provisional().(annotate.Arrow); !ok {
		t.Fatalf("expected arrow preview, got %#v", s.Provisional())
	}
	if s.Store().Len() != 0 {
		t.Fatalf("preview must not be committed")
	}
	s.PointerUp(pt(60, 70))
	recs := s.Records()
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	a := recs[0].(annotate.Arrow)
	if a.Start != pt(0, 0) || a.End != pt(100, 100) {
		t.Fatalf("arrow = %v -> %v, want (0,0) -> (100,100)", a.Start, a.End)
	}
	if a.Size != annotate.SizeLarge {
		t.Fatalf("size = %v, want large", a.Size)
	}
}

func TestStyleSnapshotAtPointerDown(t *testing.T) {
	s, _ := newSession(t)
	s.SetTool(annotate.KindRectangle)
	s.PointerDown(pt(10, 20))
	s.SetTool(annotate.KindCircle)
	s.SetSize(annotate.SizeXS)
	s.PointerUp(pt(110, 120))
	r, ok := s.Records()[0].(annotate.Rectangle)
	if !ok {
		t.Fatalf("expected rectangle, got %#v", s.Records()[0])
	}
	if r.Size != annotate.SizeLarge {
		t.Fatalf("size changed mid-drag: %v", r.Size)
	}
}

func TestTinyDragIsDiscarded(t *testing.T) {
	s, _ := newSession(t)
	s.PointerDown(pt(50, 50))
	s.PointerUp(pt(50, 50))
	if s.Store().Len() != 0 {
		t.Fatalf("zero-length drag committed")
	}
	if s.State() != StateIdle {
		t.Fatalf("state = %v", s.State())
	}
}

func TestHighlightUsesFixedAlpha(t *testing.T) {
	s, _ := newSession(t)
	s.SetTool(annotate.KindHighlight)
	s.PointerDown(pt(10, 20))
	s.PointerUp(pt(50, 60))
	h := s.Records()[0].(annotate.Highlight)
	if h.Color.A != annotate.HighlightAlpha {
		t.Fatalf("alpha = %d", h.Color.A)
	}
}

func TestSmallTextBoxEmitsNothing(t *testing.T) {
	s, _ := newSession(t)
	s.SetTool(annotate.KindText)
	s.PointerDown(pt(10, 20))
	s.PointerUp(pt(24, 29)) // 28x18 surface units
	if s.TextBox() != nil || s.State() != StateIdle {
		t.Fatalf("text box opened for 28x18 surface units")
	}
	if s.Store().Len() != 0 {
		t.Fatalf("record emitted")
	}
}

func openBox(t *testing.T, s *Session) *TextBox {
	t.Helper()
	s.SetTool(annotate.KindText)
	// Dragged right-to-left to exercise normalisation.
	s.PointerDown(pt(110, 120))
	s.PointerUp(pt(10, 20))
	b := s.TextBox()
	if b == nil {
		t.Fatalf("text box not opened")
	}
	return b
}

func TestTextBoxGeometry(t *testing.T) {
	s, _ := newSession(t)
	b := openBox(t, s)
	if b.Bounds != (annotate.Rect{X: 0, Y: 0, Width: 200, Height: 200}) {
		t.Fatalf("bounds = %+v", b.Bounds)
	}
	if b.Screen != (annotate.Rect{X: 10, Y: 20, Width: 100, Height: 100}) {
		t.Fatalf("screen = %+v", b.Screen)
	}
	if b.DisplayFontSize != annotate.DefaultFontSize/2 {
		t.Fatalf("display font size = %v", b.DisplayFontSize)
	}
	if c := b.Checkmark(); c.X != 92 || c.Y != 2 || c.Width != 36 {
		t.Fatalf("checkmark = %+v", c)
	}
}

func TestTextBoxCommitGrowsHeight(t *testing.T) {
	s, _ := newSession(t)
	s.SetTool(annotate.KindText)
	s.PointerDown(pt(10, 20))
	s.PointerUp(pt(110, 40)) // 200x40 surface
	for _, r := range "  one\ntwo\nthree  " {
		if r == '\n' {
			s.Key(key.Event{Code: key.CodeReturnEnter, Direction: key.DirPress})
			continue
		}
		s.Key(key.Event{Rune: r, Direction: key.DirPress})
	}
	s.Key(key.Event{Code: key.CodeReturnEnter, Modifiers: key.ModControl, Direction: key.DirPress})
	recs := s.Records()
	if len(recs) != 1 {
		t.Fatalf("got %d records", len(recs))
	}
	txt := recs[0].(annotate.Text)
	if txt.Text != "one\ntwo\nthree" {
		t.Fatalf("text = %q, want trimmed", txt.Text)
	}
	if want := 3*annotate.DefaultFontSize*annotate.LineHeightFactor + 16; math.Abs(txt.Box.Height-want) > 1e-9 {
		t.Fatalf("height = %v, want %v", txt.Box.Height, want)
	}
	if s.State() != StateIdle {
		t.Fatalf("state = %v", s.State())
	}
}

func TestBlankTextIsDiscarded(t *testing.T) {
	s, _ := newSession(t)
	openBox(t, s)
	s.TypeText("   \n ")
	s.ConfirmText()
	if s.Store().Len() != 0 {
		t.Fatalf("blank text committed")
	}
}

func TestBlurRespectsGracePeriod(t *testing.T) {
	s, clock := newSession(t)
	openBox(t, s)
	s.TypeText("hi")
	s.BlurText()
	if s.TextBox() == nil {
		t.Fatalf("blur inside grace period closed the box")
	}
	clock.Advance(ReadyDelay)
	s.BlurText()
	if s.TextBox() != nil || s.Store().Len() != 1 {
		t.Fatalf("blur after grace period should commit")
	}
}

func TestEscapeCancelsTextBox(t *testing.T) {
	s, _ := newSession(t)
	openBox(t, s)
	s.TypeText("draft")
	s.Key(key.Event{Code: key.CodeEscape, Direction: key.DirPress})
	if s.TextBox() != nil || s.Store().Len() != 0 {
		t.Fatalf("escape should discard the text box")
	}
	if s.State() != StateIdle {
		t.Fatalf("escape in text box must not close the editor, state = %v", s.State())
	}
}

func TestCheckmarkClickCommits(t *testing.T) {
	s, _ := newSession(t)
	b := openBox(t, s)
	s.TypeText("done")
	c := b.Checkmark()
	s.PointerDown(pt(c.X+c.Width/2, c.Y+c.Height/2))
	if s.Store().Len() != 1 {
		t.Fatalf("checkmark did not commit")
	}
	if s.State() != StateIdle {
		t.Fatalf("state = %v", s.State())
	}
}

func TestNewDragReplacesUnreadyBox(t *testing.T) {
	s, _ := newSession(t)
	openBox(t, s)
	s.TypeText("lost")
	s.PointerDown(pt(300, 250))
	if s.TextBox() != nil {
		t.Fatalf("old box should be removed")
	}
	if s.State() != StateDragging {
		t.Fatalf("state = %v, want dragging", s.State())
	}
	if s.Store().Len() != 0 {
		t.Fatalf("unready box must not commit")
	}
}

func TestShortcutsDisabledWhileEditingText(t *testing.T) {
	s, _ := newSession(t)
	openBox(t, s)
	s.Key(key.Event{Rune: '4', Code: key.Code4, Direction: key.DirPress})
	if s.Tool() != annotate.KindText {
		t.Fatalf("tool switched while typing")
	}
	if s.TextBox().Text != "4" {
		t.Fatalf("digit not typed into box: %q", s.TextBox().Text)
	}
}

func TestToolShortcuts(t *testing.T) {
	s, _ := newSession(t)
	want := map[rune]annotate.Kind{
		'1': annotate.KindArrow,
		'2': annotate.KindText,
		'3': annotate.KindHighlight,
		'4': annotate.KindRectangle,
		'5': annotate.KindCircle,
	}
	for r, k := range want {
		s.Key(key.Event{Rune: r, Direction: key.DirPress})
		if s.Tool() != k {
			t.Fatalf("key %q selected %v, want %v", r, s.Tool(), k)
		}
	}
}

func TestUndoShortcut(t *testing.T) {
	s, _ := newSession(t)
	s.Mouse(mouse.Event{X: 10, Y: 20, Button: mouse.ButtonLeft, Direction: mouse.DirPress})
	s.Mouse(mouse.Event{X: 100, Y: 100, Direction: mouse.DirNone})
	s.Mouse(mouse.Event{X: 100, Y: 100, Button: mouse.ButtonLeft, Direction: mouse.DirRelease})
	if s.Store().Len() != 1 {
		t.Fatalf("mouse drag did not commit")
	}
	s.Key(key.Event{Rune: 'z', Code: key.CodeZ, Modifiers: key.ModMeta, Direction: key.DirPress})
	if s.Store().Len() != 0 {
		t.Fatalf("cmd+z did not undo")
	}
}

func TestEscapeClosesAndFinalizes(t *testing.T) {
	var got *Result
	s, _ := newSession(t, WithOnClose(func(r Result) { got = &r }))
	s.PointerDown(pt(10, 20))
	s.PointerUp(pt(100, 100))
	s.PointerDown(pt(200, 200))
	s.Key(key.Event{Code: key.CodeEscape, Direction: key.DirPress})
	if got == nil || !got.Annotated || got.Image == nil {
		t.Fatalf("close result = %+v", got)
	}
	if s.State() != StateClosed {
		t.Fatalf("state = %v", s.State())
	}
	if s.Store().Len() != 1 {
		t.Fatalf("in-progress drag leaked into the store")
	}
}

func TestClearAllAsksFirst(t *testing.T) {
	answer := false
	s, _ := newSession(t, WithConfirm(func(string) bool { return answer }))
	s.PointerDown(pt(10, 20))
	s.PointerUp(pt(100, 100))
	if s.ClearAll() || s.Store().Len() != 1 {
		t.Fatalf("clear without confirmation")
	}
	answer = true
	if !s.ClearAll() || s.Store().Len() != 0 {
		t.Fatalf("clear with confirmation failed")
	}
}

func TestStylePersistence(t *testing.T) {
	store := prefs.NewMemory()
	s, _ := newSession(t, WithPreferences(store))
	if s.Size() != annotate.SizeLarge || s.FontSize() != 32 {
		t.Fatalf("defaults = %v/%v", s.Size(), s.FontSize())
	}
	s.SetSize(annotate.SizeSmall)
	s.SetFontSize(48)
	raw, err := store.Get(StyleKey)
	if err != nil {
		t.Fatalf("style not saved: %v", err)
	}
	if raw != `{"arrow":"small","text":"48"}` {
		t.Fatalf("stored %s", raw)
	}
	next, _ := newSession(t, WithPreferences(store))
	if next.Size() != annotate.SizeSmall || next.FontSize() != 48 {
		t.Fatalf("reloaded = %v/%v", next.Size(), next.FontSize())
	}
}

func TestLoadStyleIgnoresBadValues(t *testing.T) {
	store := prefs.NewMemory()
	_ = store.Set(StyleKey, `{"arrow":"gigantic","text":"abc"}`)
	style, err := LoadStyle(store)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if style != DefaultStyle() {
		t.Fatalf("style = %+v, want defaults", style)
	}
	_ = store.Set(StyleKey, `not json`)
	if _, err := LoadStyle(store); err == nil {
		t.Fatalf("expected decode error")
	}
}
