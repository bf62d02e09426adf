package annotate

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
)

var (
	fontOnce sync.Once
	textFont *truetype.Font
	fontErr  error

	facesMu sync.Mutex
	faces   = map[float64]font.Face{}
)

// Face returns the annotation text face at size. Faces are cached per size.
func Face(size float64) (font.Face, error) {
	fontOnce.Do(func() {
		textFont, fontErr = truetype.Parse(gobold.TTF)
	})
	if fontErr != nil {
		return nil, fontErr
	}
	facesMu.Lock()
	defer facesMu.Unlock()
	if f, ok := faces[size]; ok {
		return f, nil
	}
	f := truetype.NewFace(textFont, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	faces[size] = f
	return f, nil
}

// Measurer returns a MeasureFunc bound to the annotation face at size.
func Measurer(size float64) (MeasureFunc, error) {
	face, err := Face(size)
	if err != nil {
		return nil, err
	}
	return func(s string) float64 {
		return float64(font.MeasureString(face, s)) / 64
	}, nil
}
