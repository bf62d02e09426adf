// Package export writes a finalized annotation image to disk.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Format is an output file format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatPDF  Format = "pdf"
)

// JPEGQuality is used for .jpg output.
const JPEGQuality = 92

var ErrUnknownFormat = errors.New("unknown output format")

// FormatFromPath picks the format from the file extension. Paths without an
// extension are written as PNG.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case "", ".png":
		return FormatPNG, nil
	case ".jpg", ".jpeg":
		return FormatJPEG, nil
	case ".pdf":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

// DefaultName returns a timestamped file name such as
// notedis-20250102-150405.png.
func DefaultName(now time.Time, f Format) string {
	ext := string(f)
	if f == FormatJPEG {
		ext = "jpg"
	}
	return fmt.Sprintf("notedis-%s.%s", now.Format("20060102-150405"), ext)
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
	case FormatPDF:
		return writePDF(w, img)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// Save writes img to path, creating parent directories. The format follows
// the extension.
func Save(path string, img image.Image) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(out, img, f); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", f, err)
	}
	return out.Close()
}

// SaveInDir writes img under dir with DefaultName and returns the path used.
func SaveInDir(dir string, img image.Image, f Format, now time.Time) (string, error) {
	if strings.HasPrefix(dir, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, dir[1:])
		}
	}
	path := filepath.Join(dir, DefaultName(now, f))
	return path, Save(path, img)
}

// writePDF places img on a single page sized to the image, one point per
// pixel.
func writePDF(w io.Writer, img image.Image) error {
	b := img.Bounds()
	if b.Empty() {
		return errors.New("empty image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	wd, ht := float64(b.Dx()), float64(b.Dy())
	orientation := "P"
	if wd > ht {
		orientation = "L"
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: orientation,
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: wd, Ht: ht},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("notedis", true)
	pdf.AddPage()
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("annotated", opts, &buf)
	pdf.ImageOptions("annotated", 0, 0, wd, ht, false, opts, 0, "")
	return pdf.Output(w)
}
