package ui

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/notedis/internal/annotate"
	"github.com/example/notedis/internal/editor"
	"github.com/example/notedis/internal/theme"
)

const (
	overlayDash  = 5.0
	overlayWidth = 2.0
	caret        = "|"
)

// Notice is a banner shown in the status area until dismissed.
type Notice struct {
	Text  string
	Error bool
}

// scaler picks the resampling filter. A drag in progress uses the cheaper
// filter so preview frames keep up with the pointer.
func scaler(s *editor.Session) xdraw.Scaler {
	if s.State() == editor.StateDragging {
		return xdraw.ApproxBiLinear
	}
	return xdraw.CatmullRom
}

// Paint draws one window frame into dst.
func Paint(dst *image.RGBA, l Layout, s *editor.Session, th *theme.Theme, notice *Notice) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(th.Background), image.Point{}, draw.Src)

	frame := s.Frame()
	d := s.Viewport().Display
	target := image.Rect(int(d.X), int(d.Y), int(d.X+d.Width), int(d.Y+d.Height))
	scaler(s).Scale(dst, target, frame, frame.Bounds(), draw.Src, nil)

	if box := s.TextBox(); box != nil {
		paintTextBox(dst, box, th)
	}
	paintToolbar(dst, l, s, th)
	paintStatus(dst, l, s, th, notice)
}

func paintToolbar(dst *image.RGBA, l Layout, s *editor.Session, th *theme.Theme) {
	draw.Draw(dst, l.Toolbar, image.NewUniform(th.ToolbarBackground), image.Point{}, draw.Src)
	for _, c := range l.Controls {
		active := Active(c, s)
		if c.Kind == ControlColor {
			border := th.ButtonBorder
			if active {
				border = th.ButtonActive
			}
			draw.Draw(dst, c.Rect.Inset(-2), image.NewUniform(border), image.Point{}, draw.Src)
			draw.Draw(dst, c.Rect, image.NewUniform(c.Color), image.Point{}, draw.Src)
			continue
		}
		bg, fg := th.ButtonBackground, th.ButtonText
		if active {
			bg, fg = th.ButtonActive, th.ButtonTextActive
		}
		draw.Draw(dst, c.Rect, image.NewUniform(th.ButtonBorder), image.Point{}, draw.Src)
		draw.Draw(dst, c.Rect.Inset(1), image.NewUniform(bg), image.Point{}, draw.Src)
		label(dst, c.Label, image.Pt(c.Rect.Min.X+buttonPad, c.Rect.Min.Y+(rowHeight+9)/2), fg)
	}
}

func paintStatus(dst *image.RGBA, l Layout, s *editor.Session, th *theme.Theme, notice *Notice) {
	if l.Status.Empty() {
		return
	}
	bg, fg := th.ToolbarBackground, th.Foreground
	text := statusLine(s)
	if notice != nil && notice.Text != "" {
		bg, fg, text = th.NoticeBackground, th.NoticeText, notice.Text
		if notice.Error {
			bg = th.ErrorBackground
		}
	}
	draw.Draw(dst, l.Status, image.NewUniform(bg), image.Point{}, draw.Src)
	label(dst, text, image.Pt(l.Status.Min.X+buttonPad, l.Status.Min.Y+(statusHeight+9)/2), fg)
}

func statusLine(s *editor.Session) string {
	switch s.State() {
	case editor.StateTextEditing:
		return "Type your note. Ctrl+Enter or the check mark to place it, Esc to cancel."
	case editor.StateDragging:
		return "Release to place the " + s.Tool().String() + "."
	}
	return "Drag on the screenshot to annotate. Ctrl+Z undo, Ctrl+Enter done, Esc close."
}

func label(dst *image.RGBA, s string, at image.Point, c color.Color) {
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: basicfont.Face7x13, Dot: fixed.P(at.X, at.Y)}
	d.DrawString(s)
}

// paintTextBox draws the dashed overlay, the wrapped text typed so far with
// a caret, and the confirm checkmark, all in display space.
func paintTextBox(dst *image.RGBA, box *editor.TextBox, th *theme.Theme) {
	dc := gg.NewContextForRGBA(dst)
	r := box.Screen

	dc.SetColor(th.TextBoxBorder)
	dc.SetLineWidth(overlayWidth)
	dc.SetDash(overlayDash, overlayDash)
	dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	dc.Stroke()
	dc.SetDash()

	if face, err := annotate.Face(box.DisplayFontSize); err == nil {
		dc.SetFontFace(face)
		measure := func(s string) float64 {
			w, _ := dc.MeasureString(s)
			return w
		}
		inset := annotate.TextPadding * box.DisplayFontSize / box.FontSize
		lines := annotate.Wrap(box.Text+caret, r.Width-2*inset, measure)
		dc.SetColor(box.Color)
		lh := annotate.LineHeight(box.DisplayFontSize)
		for i, line := range lines {
			dc.DrawStringAnchored(line, r.X+inset, r.Y+inset+float64(i)*lh, 0, 1)
		}
	}

	cm := box.Checkmark()
	cx, cy := cm.X+cm.Width/2, cm.Y+cm.Height/2
	dc.SetColor(th.Checkmark)
	dc.DrawCircle(cx, cy, cm.Width/2)
	dc.Fill()
	dc.SetColor(color.White)
	dc.SetLineWidth(3)
	dc.SetLineCapRound()
	dc.MoveTo(cx-cm.Width/5, cy)
	dc.LineTo(cx-cm.Width/16, cy+cm.Height/6)
	dc.LineTo(cx+cm.Width/5, cy-cm.Height/6)
	dc.Stroke()
}
