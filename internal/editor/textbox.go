package editor

import (
	"image/color"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/notedis/internal/annotate"
)

const (
	// MinTextWidth and MinTextHeight reject accidental clicks with the text
	// tool, in surface units.
	MinTextWidth  = 30.0
	MinTextHeight = 20.0

	// ReadyDelay is how long a new text box ignores focus loss.
	ReadyDelay = 100 * time.Millisecond

	checkmarkSize = 36.0
)

// TextBox is the overlay editor for one text record.
type TextBox struct {
	// Bounds is the normalised box in surface units.
	Bounds annotate.Rect
	// Screen is Bounds in display units.
	Screen annotate.Rect
	// FontSize is in surface units; DisplayFontSize is scaled for the overlay.
	FontSize        float64
	DisplayFontSize float64
	Color           color.NRGBA
	Text            string

	opened time.Time
}

func (b *TextBox) place(v Viewport) {
	b.Screen = v.RectToDisplay(b.Bounds)
	sx, _ := v.Scale()
	b.DisplayFontSize = b.FontSize / sx
}

// Checkmark is the confirm affordance, centred on the top-right corner.
func (b *TextBox) Checkmark() annotate.Rect {
	return annotate.Rect{
		X:      b.Screen.X + b.Screen.Width - checkmarkSize/2,
		Y:      b.Screen.Y - checkmarkSize/2,
		Width:  checkmarkSize,
		Height: checkmarkSize,
	}
}

func (s *Session) openTextBox(r annotate.Rect) bool {
	n := r.Normalize()
	if n.Width < MinTextWidth || n.Height < MinTextHeight {
		s.log.WithFields(logrus.Fields{"width": n.Width, "height": n.Height}).Debug("text box too small")
		return false
	}
	s.box = &TextBox{
		Bounds:   n,
		FontSize: s.fontSize,
		Color:    s.color,
		opened:   s.clock.Now(),
	}
	s.box.place(s.view)
	s.state = StateTextEditing
	return true
}

// TextReady reports whether the open text box has passed its grace period.
func (s *Session) TextReady() bool {
	if s.box == nil {
		return false
	}
	return s.clock.Now().Sub(s.box.opened) >= ReadyDelay
}

// TypeText appends to the open text box.
func (s *Session) TypeText(text string) {
	if s.box == nil {
		return
	}
	s.box.Text += text
	s.changed()
}

// Backspace removes the last rune from the open text box.
func (s *Session) Backspace() {
	if s.box == nil || s.box.Text == "" {
		return
	}
	r := []rune(s.box.Text)
	s.box.Text = string(r[:len(r)-1])
	s.changed()
}

// ConfirmText commits the open text box. Blank text is dropped.
func (s *Session) ConfirmText() {
	if s.box == nil {
		return
	}
	b := s.box
	s.box = nil
	s.state = StateIdle
	defer s.changed()

	text := strings.TrimSpace(b.Text)
	if text == "" {
		s.log.Debug("empty text discarded")
		return
	}
	measure, err := annotate.Measurer(b.FontSize)
	if err != nil {
		s.log.WithError(err).Warn("text discarded")
		return
	}
	lines := annotate.Wrap(text, annotate.WrapWidth(b.Bounds.Width), measure)
	box := b.Bounds
	box.Height = annotate.FitHeight(box.Height, len(lines), b.FontSize)
	s.store.Append(annotate.Text{Box: box, Text: text, FontSize: b.FontSize, Color: annotate.Opaque(b.Color)})
	s.log.WithFields(logrus.Fields{"lines": len(lines), "records": s.store.Len()}).Debug("text committed")
}

// BlurText handles focus leaving the text box. It commits once the box is
// ready and is ignored before that.
func (s *Session) BlurText() {
	if s.box == nil || !s.TextReady() {
		return
	}
	s.ConfirmText()
}

// CancelText closes the text box without committing.
func (s *Session) CancelText() {
	if s.box == nil {
		return
	}
	s.box = nil
	s.state = StateIdle
	s.changed()
}
