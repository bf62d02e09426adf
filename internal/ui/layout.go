// Package ui hosts the annotation editor in a desktop window.
package ui

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/example/notedis/internal/annotate"
	"github.com/example/notedis/internal/editor"
)

const (
	rowHeight     = 28
	rowGap        = 4
	buttonPad     = 8
	swatchSize    = 22
	toolbarHeight = 2*rowHeight + 3*rowGap
	statusHeight  = 24
)

// ControlKind identifies what a toolbar control does.
type ControlKind int

const (
	ControlTool ControlKind = iota
	ControlSize
	ControlFontSize
	ControlColor
	ControlUndo
	ControlClear
	ControlDone
	ControlCancel
)

// Control is one hit-testable toolbar element.
type Control struct {
	Kind     ControlKind
	Label    string
	Rect     image.Rectangle
	Tool     annotate.Kind
	Size     annotate.SizeClass
	FontSize float64
	Color    color.NRGBA
}

// Layout splits the window into toolbar, canvas and status areas.
type Layout struct {
	Width, Height int
	Toolbar       image.Rectangle
	Canvas        image.Rectangle
	Status        image.Rectangle
	Controls      []Control
}

var toolLabels = map[annotate.Kind]string{
	annotate.KindArrow:     "1 Arrow",
	annotate.KindText:      "2 Text",
	annotate.KindHighlight: "3 Highlight",
	annotate.KindRectangle: "4 Rect",
	annotate.KindCircle:    "5 Circle",
}

func labelWidth(s string) int {
	return font.MeasureString(basicfont.Face7x13, s).Ceil() + 2*buttonPad
}

// NewLayout places the controls for a window of the given size. The second
// row offers font sizes when the text tool is active and stroke sizes
// otherwise.
func NewLayout(width, height int, tool annotate.Kind) Layout {
	l := Layout{
		Width:   width,
		Height:  height,
		Toolbar: image.Rect(0, 0, width, toolbarHeight),
		Canvas:  image.Rect(0, toolbarHeight, width, height-statusHeight),
		Status:  image.Rect(0, height-statusHeight, width, height),
	}
	if l.Canvas.Empty() {
		l.Canvas = image.Rectangle{}
	}

	x, y := rowGap, rowGap
	add := func(c Control, w int) {
		c.Rect = image.Rect(x, y, x+w, y+rowHeight)
		l.Controls = append(l.Controls, c)
		x += w + rowGap
	}

	for _, k := range annotate.Tools() {
		add(Control{Kind: ControlTool, Label: toolLabels[k], Tool: k}, labelWidth(toolLabels[k]))
	}
	// Undo, Clear, Done and Cancel are right aligned on the first row.
	right := []Control{
		{Kind: ControlUndo, Label: "Undo"},
		{Kind: ControlClear, Label: "Clear"},
		{Kind: ControlCancel, Label: "Cancel"},
		{Kind: ControlDone, Label: "Done"},
	}
	rx := width - rowGap
	for i := len(right) - 1; i >= 0; i-- {
		w := labelWidth(right[i].Label)
		rx -= w
		right[i].Rect = image.Rect(rx, y, rx+w, y+rowHeight)
		rx -= rowGap
	}
	l.Controls = append(l.Controls, right...)

	x, y = rowGap, rowGap*2+rowHeight
	if tool == annotate.KindText {
		for _, fs := range annotate.FontSizes() {
			lbl := fmt.Sprintf("%gpx", fs)
			add(Control{Kind: ControlFontSize, Label: lbl, FontSize: fs}, labelWidth(lbl))
		}
	} else {
		for _, sc := range annotate.SizeClasses() {
			add(Control{Kind: ControlSize, Label: string(sc), Size: sc}, labelWidth(string(sc)))
		}
	}
	x += rowGap * 2
	for _, pc := range annotate.Palette() {
		c := Control{Kind: ControlColor, Label: pc.Name, Color: pc.Color}
		c.Rect = image.Rect(x, y+(rowHeight-swatchSize)/2, x+swatchSize, y+(rowHeight+swatchSize)/2)
		l.Controls = append(l.Controls, c)
		x += swatchSize + rowGap
	}
	return l
}

// Hit returns the control under p.
func (l Layout) Hit(p image.Point) (Control, bool) {
	for _, c := range l.Controls {
		if p.In(c.Rect) {
			return c, true
		}
	}
	return Control{}, false
}

// Active reports whether c reflects the session's current selection.
func Active(c Control, s *editor.Session) bool {
	switch c.Kind {
	case ControlTool:
		return s.Tool() == c.Tool
	case ControlSize:
		return s.Size() == c.Size
	case ControlFontSize:
		return s.FontSize() == c.FontSize
	case ControlColor:
		return annotate.Opaque(s.Color()) == c.Color
	}
	return false
}

// Apply performs c against the session.
func Apply(c Control, s *editor.Session) {
	switch c.Kind {
	case ControlTool:
		s.SetTool(c.Tool)
	case ControlSize:
		s.SetSize(c.Size)
	case ControlFontSize:
		s.SetFontSize(c.FontSize)
	case ControlColor:
		s.SetColor(c.Color)
	case ControlUndo:
		s.Undo()
	case ControlClear:
		s.ClearAll()
	case ControlDone:
		s.Close()
	case ControlCancel:
		s.Discard()
	}
}
