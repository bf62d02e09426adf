package theme

import (
	"image/color"
)

// Theme is the palette of the editor window chrome.
type Theme struct {
	Name string

	Background color.RGBA // behind the fitted screenshot
	Foreground color.RGBA

	ToolbarBackground color.RGBA
	ButtonBackground  color.RGBA
	ButtonActive      color.RGBA // selected tool, size and swatch
	ButtonText        color.RGBA
	ButtonTextActive  color.RGBA
	ButtonBorder      color.RGBA

	NoticeBackground  color.RGBA
	NoticeText        color.RGBA
	ErrorBackground   color.RGBA
	SuccessBackground color.RGBA

	TextBoxBorder color.RGBA
	Checkmark     color.RGBA
}

// Default returns the light theme with the widget's default blue accent.
func Default() *Theme {
	return &Theme{
		Name:              "light",
		Background:        color.RGBA{31, 41, 55, 255},
		Foreground:        color.RGBA{17, 24, 39, 255},
		ToolbarBackground: color.RGBA{255, 255, 255, 255},
		ButtonBackground:  color.RGBA{243, 244, 246, 255},
		ButtonActive:      color.RGBA{59, 130, 246, 255},
		ButtonText:        color.RGBA{55, 65, 81, 255},
		ButtonTextActive:  color.RGBA{255, 255, 255, 255},
		ButtonBorder:      color.RGBA{229, 231, 235, 255},
		NoticeBackground:  color.RGBA{59, 130, 246, 255},
		NoticeText:        color.RGBA{255, 255, 255, 255},
		ErrorBackground:   color.RGBA{239, 68, 68, 255},
		SuccessBackground: color.RGBA{16, 185, 129, 255},
		TextBoxBorder:     color.RGBA{59, 130, 246, 255},
		Checkmark:         color.RGBA{16, 185, 129, 255},
	}
}

// WithAccent returns a copy of t whose active and notice colours follow
// accent.
func (t *Theme) WithAccent(accent color.RGBA) *Theme {
	c := *t
	c.ButtonActive = accent
	c.NoticeBackground = accent
	c.TextBoxBorder = accent
	return &c
}
