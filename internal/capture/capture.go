// Package capture produces the surface to annotate, either by grabbing the
// screen or by validating an uploaded image file.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	ErrPermissionDenied = errors.New("screenshot permission denied")
	ErrUnsupported      = errors.New("screen capture not supported")
	ErrCancelled        = errors.New("screenshot capture cancelled")
	ErrTooLarge         = errors.New("file too large")
	ErrWrongType        = errors.New("file is not an image")
)

// Message returns the notice shown to the user for a capture or upload
// error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return "Screenshot permission denied. Please grant permission or upload a screenshot manually."
	case errors.Is(err, ErrUnsupported):
		return "Screen capture is not supported on this device. Please upload a screenshot manually."
	case errors.Is(err, ErrCancelled):
		return "Screenshot capture cancelled. You can upload a screenshot manually if needed."
	case errors.Is(err, ErrTooLarge):
		return fmt.Sprintf("File is too large. Maximum size is %dMB.", MaxUploadBytes>>20)
	case errors.Is(err, ErrWrongType):
		return "Please select an image file."
	case err == nil:
		return ""
	}
	return "Failed to capture screenshot. Please try uploading manually."
}

// Backend names accepted by Options.
const (
	BackendAuto   = "auto"
	BackendPortal = "portal"
	BackendX11    = "x11"
)

// Options selects how the screen is captured.
type Options struct {
	Backend string
}

var (
	portalScreenshotFn = portalScreenshot
	x11ScreenshotFn    = x11Screenshot
	displayAvailable   = func() bool { return os.Getenv("DISPLAY") != "" }
)

// Screen captures one frame of the desktop at native resolution. In auto
// mode the desktop portal is asked first and the X11 root window is used
// when the portal is unavailable.
func Screen(ctx context.Context, opts Options) (*image.RGBA, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	switch backend {
	case BackendPortal:
		return portalScreenshotFn(ctx)
	case BackendX11:
		return x11ScreenshotFn(ctx)
	case "", BackendAuto:
	default:
		return nil, fmt.Errorf("unknown capture backend %q", opts.Backend)
	}

	img, err := portalScreenshotFn(ctx)
	if err == nil {
		return img, nil
	}
	if !errors.Is(err, ErrUnsupported) || !displayAvailable() {
		return nil, err
	}
	logrus.WithError(err).Debug("portal unavailable, trying x11")
	img, xerr := x11ScreenshotFn(ctx)
	if xerr != nil {
		return nil, fmt.Errorf("%w; x11 fallback: %v", err, xerr)
	}
	return img, nil
}

// ToRGBA returns img as an *image.RGBA anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
