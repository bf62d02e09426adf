package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/notedis/internal/annotate"
	"github.com/example/notedis/internal/capture"
	"github.com/example/notedis/internal/clipboard"
	"github.com/example/notedis/internal/editor"
	"github.com/example/notedis/internal/export"
	"github.com/example/notedis/internal/prefs"
	"github.com/example/notedis/internal/ui"
)

var (
	captureScreenFn = capture.Screen
	runWindowFn     = func(w *ui.Window) { w.Run() }
	copyImageFn     = clipboard.WriteImage
)

// annotateCmd captures or opens an image and edits it in a window.
type annotateCmd struct {
	action  string
	file    string
	output  string
	backend string
	color   string
	copy    bool
	*root
	fs *flag.FlagSet
}

func (a *annotateCmd) FlagSet() *flag.FlagSet {
	return a.fs
}

func parseAnnotateCmd(args []string, r *root) (*annotateCmd, error) {
	fs := flag.NewFlagSet("annotate", flag.ContinueOnError)
	a := &annotateCmd{root: r, fs: fs}
	fs.StringVar(&a.output, "output", "", "file to write the result to (.png, .jpg or .pdf); default is a timestamped PNG in the save directory")
	fs.StringVar(&a.backend, "backend", "", "capture backend: auto, portal or x11")
	fs.StringVar(&a.color, "color", "", "initial drawing colour")
	fs.BoolVar(&a.copy, "copy", false, "copy the result to the clipboard")
	fs.Usage = usageFunc(a)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	rest := fs.Args()
	if len(rest) < 1 {
		return nil, &UsageError{of: a}
	}
	a.action = rest[0]
	switch a.action {
	case "capture":
	case "open":
		if len(rest) < 2 {
			return nil, &UsageError{of: a, msg: "open needs an image file"}
		}
		a.file = rest[1]
	default:
		return nil, &UsageError{of: a, msg: fmt.Sprintf("unknown annotate action %q", a.action)}
	}
	return a, nil
}

func (a *annotateCmd) source(ctx context.Context) (*image.RGBA, error) {
	if a.action == "open" {
		limit := int64(0)
		if a.config != nil {
			limit = a.config.MaxUploadBytes()
		}
		up, err := capture.ReadUpload(a.file, limit)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", a.file, err)
		}
		return up.Decode()
	}
	backend := a.backend
	if backend == "" && a.config != nil {
		backend = a.config.Capture.Backend
	}
	img, err := captureScreenFn(ctx, capture.Options{Backend: backend})
	if err != nil {
		return nil, fmt.Errorf("annotate capture screen: %w", err)
	}
	a.notifier.Capture("screen", img)
	return img, nil
}

func (a *annotateCmd) Run() error {
	img, err := a.source(context.Background())
	if err != nil {
		if a.action == "capture" {
			fmt.Fprintf(os.Stderr, "warning: %s\n", capture.Message(err))
		}
		return err
	}
	_, res, err := a.edit(img, a.color)
	if err != nil {
		return err
	}
	if res.Discarded || res.Image == nil {
		logrus.Info("Annotation discarded")
		return nil
	}
	return a.finish(res.Image)
}

// edit runs the editor window over img until it is closed or discarded.
func (r *root) edit(img *image.RGBA, colorSpec string) (*editor.Session, editor.Result, error) {
	var res editor.Result
	win := ui.New(r.activeTheme, nil)
	opts := []editor.Option{
		editor.WithPreferences(r.prefsStore()),
		editor.WithConfirm(win.Confirm),
		editor.WithOnClose(func(out editor.Result) { res = out }),
	}
	if colorSpec != "" {
		c, err := annotate.ParseColor(colorSpec)
		if err != nil {
			return nil, res, err
		}
		opts = append(opts, editor.WithColor(c))
	}
	b := img.Bounds()
	session := editor.New(img, annotate.Rect{Width: float64(b.Dx()), Height: float64(b.Dy())}, opts...)
	win.Attach(session)
	runWindowFn(win)
	if session.State() != editor.StateClosed {
		session.Discard()
	}
	return session, res, nil
}

func (r *root) prefsStore() prefs.Store {
	if r.config != nil && r.config.PrefsPath != "" {
		return prefs.NewFile(r.config.PrefsPath)
	}
	return prefs.NewFile(prefs.DefaultPath())
}

func (a *annotateCmd) finish(img *image.RGBA) error {
	path := a.output
	if path == "" {
		dir := "."
		if a.config != nil && a.config.SaveDir != "" {
			dir = a.config.SaveDir
		}
		var err error
		path, err = export.SaveInDir(dir, img, export.FormatPNG, time.Now())
		if err != nil {
			return fmt.Errorf("save: %w", err)
		}
	} else if err := export.Save(path, img); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	fmt.Fprintln(a.out, path)

	if a.copy {
		if err := copyImageFn(img); err != nil {
			fmt.Fprintf(os.Stderr, "warning: copy to clipboard: %v\n", err)
		} else {
			a.notifier.Copy("annotated screenshot")
		}
	}
	return nil
}
