package editor

import (
	"unicode"

	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/mouse"

	"github.com/example/notedis/internal/annotate"
)

var toolKeys = map[key.Code]annotate.Kind{
	key.Code1: annotate.KindArrow,
	key.Code2: annotate.KindText,
	key.Code3: annotate.KindHighlight,
	key.Code4: annotate.KindRectangle,
	key.Code5: annotate.KindCircle,
}

var toolRunes = map[rune]annotate.Kind{
	'1': annotate.KindArrow,
	'2': annotate.KindText,
	'3': annotate.KindHighlight,
	'4': annotate.KindRectangle,
	'5': annotate.KindCircle,
}

func commandHeld(m key.Modifiers) bool {
	return m&(key.ModControl|key.ModMeta) != 0
}

func isEnter(e key.Event) bool {
	return e.Code == key.CodeReturnEnter || e.Code == key.CodeKeypadEnter
}

// Key handles a key event and reports whether it was consumed. While a text
// box has focus every key goes to it and the shortcuts are off.
func (s *Session) Key(e key.Event) bool {
	if e.Direction == key.DirRelease || s.state == StateClosed {
		return false
	}
	if s.state == StateTextEditing {
		return s.textKey(e)
	}
	if commandHeld(e.Modifiers) {
		switch {
		case e.Code == key.CodeZ || unicode.ToLower(e.Rune) == 'z':
			s.Undo()
			return true
		case isEnter(e):
			s.Close()
			return true
		}
		return false
	}
	if e.Code == key.CodeEscape {
		s.Close()
		return true
	}
	if k, ok := toolRunes[e.Rune]; ok {
		s.SetTool(k)
		return true
	}
	if k, ok := toolKeys[e.Code]; ok {
		s.SetTool(k)
		return true
	}
	return false
}

func (s *Session) textKey(e key.Event) bool {
	switch {
	case e.Code == key.CodeEscape:
		s.CancelText()
	case isEnter(e) && commandHeld(e.Modifiers):
		s.ConfirmText()
	case isEnter(e):
		s.TypeText("\n")
	case e.Code == key.CodeDeleteBackspace:
		s.Backspace()
	case e.Rune > 0 && !commandHeld(e.Modifiers) && unicode.IsPrint(e.Rune):
		s.TypeText(string(e.Rune))
	}
	return true
}

// Mouse routes a left-button mouse event in display coordinates.
func (s *Session) Mouse(e mouse.Event) {
	p := annotate.Point{X: float64(e.X), Y: float64(e.Y)}
	switch e.Direction {
	case mouse.DirPress:
		if e.Button == mouse.ButtonLeft {
			s.PointerDown(p)
		}
	case mouse.DirRelease:
		if e.Button == mouse.ButtonLeft {
			s.PointerUp(p)
		}
	case mouse.DirNone:
		s.PointerMove(p)
	}
}
