package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func stubBackends(t *testing.T, portal, x11 func(context.Context) (*image.RGBA, error), display bool) {
	t.Helper()
	prevPortal, prevX11, prevDisplay := portalScreenshotFn, x11ScreenshotFn, displayAvailable
	portalScreenshotFn = portal
	x11ScreenshotFn = x11
	displayAvailable = func() bool { return display }
	t.Cleanup(func() {
		portalScreenshotFn = prevPortal
		x11ScreenshotFn = prevX11
		displayAvailable = prevDisplay
	})
}

func TestScreenFallsBackToX11WhenPortalUnsupported(t *testing.T) {
	want := image.NewRGBA(image.Rect(0, 0, 4, 4))
	called := false
	stubBackends(t,
		func(context.Context) (*image.RGBA, error) { return nil, ErrUnsupported },
		func(context.Context) (*image.RGBA, error) { called = true; return want, nil },
		true)

	got, err := Screen(context.Background(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || got != want {
		t.Fatalf("expected x11 image")
	}
}

func TestScreenDoesNotFallBackOnDenial(t *testing.T) {
	stubBackends(t,
		func(context.Context) (*image.RGBA, error) { return nil, ErrPermissionDenied },
		func(context.Context) (*image.RGBA, error) {
			t.Fatalf("x11 must not be tried after a denial")
			return nil, nil
		},
		true)

	_, err := Screen(context.Background(), Options{Backend: BackendAuto})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestScreenFallbackFailureKeepsPortalError(t *testing.T) {
	stubBackends(t,
		func(context.Context) (*image.RGBA, error) { return nil, ErrUnsupported },
		func(context.Context) (*image.RGBA, error) { return nil, errors.New("no root") },
		true)

	_, err := Screen(context.Background(), Options{})
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if !strings.Contains(err.Error(), "x11 fallback: no root") {
		t.Fatalf("expected fallback detail, got %v", err)
	}
}

func TestScreenWithoutDisplaySkipsX11(t *testing.T) {
	stubBackends(t,
		func(context.Context) (*image.RGBA, error) { return nil, ErrUnsupported },
		func(context.Context) (*image.RGBA, error) {
			t.Fatalf("x11 tried without DISPLAY")
			return nil, nil
		},
		false)
	if _, err := Screen(context.Background(), Options{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestScreenUnknownBackend(t *testing.T) {
	if _, err := Screen(context.Background(), Options{Backend: "pipewire"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestMessagesAreDistinct(t *testing.T) {
	seen := map[string]error{}
	for _, err := range []error{ErrPermissionDenied, ErrUnsupported, ErrCancelled, ErrTooLarge, ErrWrongType} {
		msg := Message(err)
		if msg == "" {
			t.Fatalf("no message for %v", err)
		}
		if prev, ok := seen[msg]; ok {
			t.Fatalf("%v and %v share a message", prev, err)
		}
		seen[msg] = err
	}
	if Message(nil) != "" {
		t.Fatalf("nil error should have no message")
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.RGBA{10, 20, 30, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUploadAcceptsImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shot.png")
	if err := os.WriteFile(path, pngBytes(t, 3, 2), 0o644); err != nil {
		t.Fatal(err)
	}
	u, err := ReadUpload(path, 0)
	if err != nil {
		t.Fatalf("ReadUpload: %v", err)
	}
	if u.Name != "shot.png" || u.Type != "image/png" {
		t.Fatalf("upload = %q %q", u.Name, u.Type)
	}
	img, err := u.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 3 || img.RGBAAt(1, 1).G != 20 {
		t.Fatalf("decoded image mismatch")
	}
}

func TestUploadRejectsLargeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.png")
	if err := os.WriteFile(path, pngBytes(t, 8, 8), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadUpload(path, 10); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	if _, err := NewUpload("notes.txt", []byte("hello there"), 0); !errors.Is(err, ErrWrongType) {
		t.Fatalf("expected ErrWrongType, got %v", err)
	}
}

func TestDetectTypeFallsBackToExtension(t *testing.T) {
	if got := DetectType("scan.tiff", []byte("II*\x00")); got != "image/tiff" {
		t.Fatalf("DetectType = %q", got)
	}
}
