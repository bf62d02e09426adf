package main

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

	"golang.org/x/mobile/event/key"

	"github.com/example/notedis/internal/capture"
	"github.com/example/notedis/internal/config"
	"github.com/example/notedis/internal/ui"
)

func testRoot(t *testing.T) (*root, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	cfg := config.New()
	cfg.PrefsPath = filepath.Join(t.TempDir(), "prefs.ini")
	cfg.SaveDir = t.TempDir()
	return &root{program: "notedis", out: &out, config: cfg}, &out
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	path := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func stubWindow(t *testing.T, fn func(w *ui.Window)) {
	t.Helper()
	original := runWindowFn
	runWindowFn = fn
	t.Cleanup(func() { runWindowFn = original })
}

func pressEscape(w *ui.Window) {
	w.Key(key.Event{Code: key.CodeEscape, Direction: key.DirPress})
}

func TestAnnotateRunCaptureError(t *testing.T) {
	original := captureScreenFn
	sentinel := errors.New("denied")
	captureScreenFn = func(context.Context, capture.Options) (*image.RGBA, error) { return nil, sentinel }
	t.Cleanup(func() { captureScreenFn = original })

	r, _ := testRoot(t)
	cmd := &annotateCmd{action: "capture", root: r}
	err := cmd.Run()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	if want := "annotate capture screen"; !strings.Contains(err.Error(), want) {
		t.Fatalf("expected message context, got %v", err)
	}
}

func TestAnnotateOpenMissingFile(t *testing.T) {
	r, _ := testRoot(t)
	missing := filepath.Join(t.TempDir(), "nope.png")
	cmd := &annotateCmd{action: "open", file: missing, root: r}
	err := cmd.Run()
	if err == nil || !strings.Contains(err.Error(), missing) {
		t.Fatalf("expected error naming the file, got %v", err)
	}
}

func TestAnnotateOpenSavesOnEscape(t *testing.T) {
	stubWindow(t, pressEscape)
	r, out := testRoot(t)
	dst := filepath.Join(t.TempDir(), "out.png")
	cmd, err := parseAnnotateCmd([]string{"-output", dst, "open", writePNG(t, 40, 30)}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != dst {
		t.Fatalf("printed %q, want %q", got, dst)
	}
	f, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil || cfg.Width != 40 || cfg.Height != 30 {
		t.Fatalf("output = %+v, %v", cfg, err)
	}
}

func TestAnnotateWindowClosedWithoutDoneDiscards(t *testing.T) {
	stubWindow(t, func(*ui.Window) {})
	r, out := testRoot(t)
	cmd := &annotateCmd{action: "open", file: writePNG(t, 10, 10), root: r}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("nothing should be saved, got %q", out.String())
	}
	entries, _ := os.ReadDir(r.config.SaveDir)
	if len(entries) != 0 {
		t.Fatalf("save dir has %d files", len(entries))
	}
}

func TestParseAnnotateErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"open without file", []string{"open"}, "open needs an image file"},
		{"unknown action", []string{"paint"}, `unknown annotate action "paint"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := testRoot(t)
			_, err := parseAnnotateCmd(tc.args, r)
			var uerr *UsageError
			if !errors.As(err, &uerr) || uerr.msg != tc.want {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestParseDrawErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no file", []string{"rect", "0", "0", "5", "5"}, "-file is required"},
		{"no shape", []string{"-file", "a.png"}, "missing shape"},
		{"bad shape", []string{"-file", "a.png", "blob", "0", "0", "5", "5"}, "blob"},
		{"few coords", []string{"-file", "a.png", "arrow", "0", "0"}, "expected 4 coordinates"},
		{"bad coord", []string{"-file", "a.png", "arrow", "0", "x", "1", "1"}, `invalid coordinate "x"`},
		{"text missing", []string{"-file", "a.png", "text", "0", "0", "100", "40"}, "text needs"},
		{"bad colour", []string{"-file", "a.png", "-color", "nope!", "rect", "0", "0", "5", "5"}, "nope!"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _ := testRoot(t)
			_, err := parseDrawCmd(tc.args, r)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestDrawRunWritesOutput(t *testing.T) {
	r, _ := testRoot(t)
	src := writePNG(t, 60, 40)
	dst := filepath.Join(t.TempDir(), "out.png")
	cmd, err := parseDrawCmd([]string{"-file", src, "-output", dst, "-color", "#FF0000", "rect", "5", "5", "50", "30"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	f, err := os.Open(dst)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	r0, g0, b0, _ := img.At(5, 20).RGBA()
	if r0>>8 < 200 || g0>>8 > 80 || b0>>8 > 80 {
		t.Fatalf("expected red border at (5,20), got %d %d %d", r0>>8, g0>>8, b0>>8)
	}
	if c := color.RGBAModel.Convert(img.At(30, 20)).(color.RGBA); c.R != 0xff || c.G != 0xff {
		t.Fatalf("interior should stay white, got %v", c)
	}
}

func TestDrawRunCopyFailureIsReported(t *testing.T) {
	original := copyImageFn
	copyImageFn = func(image.Image) error { return errors.New("no display") }
	t.Cleanup(func() { copyImageFn = original })

	r, _ := testRoot(t)
	src := writePNG(t, 20, 20)
	cmd, err := parseDrawCmd([]string{"-file", src, "-copy", "arrow", "1", "1", "15", "15"}, r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cmd.Run(); err == nil || !strings.Contains(err.Error(), "no display") {
		t.Fatalf("expected copy error, got %v", err)
	}
}

func TestRootUnknownCommand(t *testing.T) {
	r := newRoot()
	r.out = &bytes.Buffer{}
	err := r.Run([]string{"-env", filepath.Join(t.TempDir(), "missing.env"), "frobnicate"})
	var uerr *UsageError
	if !errors.As(err, &uerr) {
		t.Fatalf("expected usage error, got %v", err)
	}
	if !strings.Contains(err.Error(), "Commands:") {
		t.Fatalf("help not rendered: %v", err)
	}
}

func TestSubcommandHelpRenders(t *testing.T) {
	r, _ := testRoot(t)
	tests := []HelpData{
		&annotateCmd{root: r.subcommand("annotate")},
		&drawCmd{root: r.subcommand("draw")},
		&submitCmd{root: r.subcommand("submit")},
		&statusCmd{root: r.subcommand("status")},
		&snippetCmd{root: r.subcommand("snippet")},
		&devAPICmd{root: r.subcommand("devapi")},
		&configCmd{root: r.subcommand("config")},
		&versionCmd{root: r.subcommand("version")},
	}
	for _, h := range tests {
		t.Run(h.Template(), func(t *testing.T) {
			help, err := (&UsageError{of: h}).renderHelp()
			if err != nil {
				t.Fatalf("render: %v", err)
			}
			if !strings.Contains(help, h.Program()) {
				t.Fatalf("help for %s missing program name:\n%s", h.Template(), help)
			}
		})
	}
}
