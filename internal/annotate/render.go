package annotate

import (
	"image"
	"image/draw"
	"math"

	"github.com/fogleman/gg"
	"github.com/sirupsen/logrus"
)

const (
	// arrowSpread is the angle between the shaft and each chevron stroke.
	arrowSpread = math.Pi / 6

	marqueeWidth = 2.0
	marqueeDash  = 5.0
)

// Render draws base and then every record in order onto a fresh surface of
// the same size. Nothing is carried over from earlier frames.
func Render(base image.Image, records []Record) *image.RGBA {
	b := base.Bounds()
	surface := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(surface, surface.Bounds(), base, b.Min, draw.Src)
	dc := gg.NewContextForRGBA(surface)
	for _, r := range records {
		drawRecord(dc, r)
	}
	return surface
}

// RenderPreview renders records followed by a provisional record that is not
// part of the store. A nil provisional behaves like Render.
func RenderPreview(base image.Image, records []Record, provisional Record) *image.RGBA {
	if provisional == nil {
		return Render(base, records)
	}
	all := make([]Record, 0, len(records)+1)
	all = append(all, records...)
	all = append(all, provisional)
	return Render(base, all)
}

func drawRecord(dc *gg.Context, r Record) {
	dc.Push()
	defer dc.Pop()
	switch v := r.(type) {
	case Arrow:
		drawArrow(dc, v)
	case Rectangle:
		m := v.Size.Metrics()
		dc.SetColor(v.Color)
		dc.SetLineWidth(m.LineWidth)
		dc.DrawRectangle(v.Start.X, v.Start.Y, v.End.X-v.Start.X, v.End.Y-v.Start.Y)
		dc.Stroke()
	case Circle:
		m := v.Size.Metrics()
		c := v.Center()
		dc.SetColor(v.Color)
		dc.SetLineWidth(m.LineWidth)
		dc.DrawCircle(c.X, c.Y, v.Radius())
		dc.Stroke()
	case Highlight:
		box := v.Bounds()
		dc.SetColor(v.Color)
		dc.DrawRectangle(box.X, box.Y, box.Width, box.Height)
		dc.Fill()
	case Text:
		drawText(dc, v)
	case Marquee:
		dc.SetColor(DefaultColor())
		dc.SetLineWidth(marqueeWidth)
		dc.SetDash(marqueeDash, marqueeDash)
		dc.DrawRectangle(v.Start.X, v.Start.Y, v.End.X-v.Start.X, v.End.Y-v.Start.Y)
		dc.Stroke()
	}
}

func drawArrow(dc *gg.Context, a Arrow) {
	m := a.Size.Metrics()
	dc.SetColor(a.Color)
	dc.SetLineWidth(m.LineWidth)
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)
	dc.DrawLine(a.Start.X, a.Start.Y, a.End.X, a.End.Y)
	dc.Stroke()

	angle := math.Atan2(a.End.Y-a.Start.Y, a.End.X-a.Start.X)
	for _, side := range []float64{-arrowSpread, arrowSpread} {
		x := a.End.X - m.HeadLength*math.Cos(angle+side)
		y := a.End.Y - m.HeadLength*math.Sin(angle+side)
		dc.DrawLine(a.End.X, a.End.Y, x, y)
		dc.Stroke()
	}
}

func drawText(dc *gg.Context, t Text) {
	face, err := Face(t.FontSize)
	if err != nil {
		logrus.WithError(err).Warn("text face unavailable")
		return
	}
	measure, _ := Measurer(t.FontSize)
	dc.SetFontFace(face)
	dc.SetColor(t.Color)
	lh := LineHeight(t.FontSize)
	for i, line := range Wrap(t.Text, WrapWidth(t.Box.Width), measure) {
		if line == "" {
			continue
		}
		// ay=1 puts the top of the glyph box at y.
		dc.DrawStringAnchored(line, t.Box.X+TextPadding, t.Box.Y+TextPadding+float64(i)*lh, 0, 1)
	}
}
