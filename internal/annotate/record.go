package annotate

import (
	"fmt"
	"image/color"
	"math"
	"strings"
)

// Kind identifies the variant of an annotation record. It doubles as the
// drawing tool that produces records of that variant.
type Kind int

const (
	KindArrow Kind = iota
	KindText
	KindHighlight
	KindRectangle
	KindCircle
	// KindMarquee is the dashed text-box outline shown while dragging. It is
	// never stored.
	KindMarquee
)

var kindNames = map[Kind]string{
	KindArrow:     "arrow",
	KindText:      "text",
	KindHighlight: "highlight",
	KindRectangle: "rectangle",
	KindCircle:    "circle",
	KindMarquee:   "marquee",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Tools lists the drawing tools in shortcut order.
func Tools() []Kind {
	return []Kind{KindArrow, KindText, KindHighlight, KindRectangle, KindCircle}
}

// ParseKind resolves a tool name. "rect" is accepted for rectangle.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "rect" {
		return KindRectangle, nil
	}
	for _, k := range Tools() {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", s)
}

// Point is a position in surface coordinates unless stated otherwise.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned box described by its origin and extent. Width and
// Height may be negative until Normalize is applied.
type Rect struct {
	X, Y, Width, Height float64
}

// RectFromPoints spans a and b.
func RectFromPoints(a, b Point) Rect {
	return Rect{X: a.X, Y: a.Y, Width: b.X - a.X, Height: b.Y - a.Y}
}

// Normalize returns r with a top-left origin and non-negative extent.
func (r Rect) Normalize() Rect {
	return Rect{
		X:      math.Min(r.X, r.X+r.Width),
		Y:      math.Min(r.Y, r.Y+r.Height),
		Width:  math.Abs(r.Width),
		Height: math.Abs(r.Height),
	}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	n := r.Normalize()
	return p.X >= n.X && p.X <= n.X+n.Width && p.Y >= n.Y && p.Y <= n.Y+n.Height
}

// Record is one committed annotation. Implementations are immutable values.
type Record interface {
	Kind() Kind
}

// Arrow is a line with a two-stroke chevron at End.
type Arrow struct {
	Start, End Point
	Color      color.NRGBA
	Size       SizeClass
}

// Rectangle is a stroked box spanning Start and End.
type Rectangle struct {
	Start, End Point
	Color      color.NRGBA
	Size       SizeClass
}

// Circle is centred on the midpoint of Start and End with half their distance
// as radius.
type Circle struct {
	Start, End Point
	Color      color.NRGBA
	Size       SizeClass
}

// Highlight is a translucent filled box. Color carries the fixed highlight
// alpha.
type Highlight struct {
	Start, End Point
	Color      color.NRGBA
}

// Text is a block of text reflowed into its box at render time.
type Text struct {
	Box      Rect
	Text     string
	FontSize float64
	Color    color.NRGBA
}

// Marquee is the dashed outline drawn while a text box is being sized.
type Marquee struct {
	Start, End Point
}

func (Arrow) Kind() Kind     { return KindArrow }
func (Rectangle) Kind() Kind { return KindRectangle }
func (Circle) Kind() Kind    { return KindCircle }
func (Highlight) Kind() Kind { return KindHighlight }
func (Text) Kind() Kind      { return KindText }
func (Marquee) Kind() Kind   { return KindMarquee }

// Center returns the circle centre.
func (c Circle) Center() Point {
	return Point{X: (c.Start.X + c.End.X) / 2, Y: (c.Start.Y + c.End.Y) / 2}
}

// Radius returns half the Euclidean distance between Start and End.
func (c Circle) Radius() float64 {
	return math.Hypot(c.End.X-c.Start.X, c.End.Y-c.Start.Y) / 2
}

// Bounds returns the normalised highlight area.
func (h Highlight) Bounds() Rect {
	return RectFromPoints(h.Start, h.End).Normalize()
}

// NewShape builds the record for a completed drag with a shape tool.
func NewShape(kind Kind, start, end Point, c color.NRGBA, size SizeClass) (Record, error) {
	switch kind {
	case KindArrow:
		return Arrow{Start: start, End: end, Color: Opaque(c), Size: size}, nil
	case KindRectangle:
		return Rectangle{Start: start, End: end, Color: Opaque(c), Size: size}, nil
	case KindCircle:
		return Circle{Start: start, End: end, Color: Opaque(c), Size: size}, nil
	case KindHighlight:
		return Highlight{Start: start, End: end, Color: HighlightColor(c)}, nil
	}
	return nil, fmt.Errorf("%s is not a shape tool", kind)
}
