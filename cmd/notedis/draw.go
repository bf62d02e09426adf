package main

import (
	"flag"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/example/notedis/internal/annotate"
	"github.com/example/notedis/internal/capture"
	"github.com/example/notedis/internal/export"
)

// drawCmd applies one annotation record to an image file without opening
// a window.
type drawCmd struct {
	file     string
	output   string
	color    color.NRGBA
	size     annotate.SizeClass
	fontSize float64
	copy     bool
	record   annotate.Record
	*root
	fs *flag.FlagSet
}

func (d *drawCmd) FlagSet() *flag.FlagSet {
	return d.fs
}

func parseCoords(args []string, n int) ([]float64, error) {
	if len(args) < n {
		return nil, fmt.Errorf("expected %d coordinates, got %d", n, len(args))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid coordinate %q", args[i])
		}
		out[i] = v
	}
	return out, nil
}

func parseDrawCmd(args []string, r *root) (*drawCmd, error) {
	fs := flag.NewFlagSet("draw", flag.ContinueOnError)
	d := &drawCmd{root: r, fs: fs}
	var colorSpec, sizeSpec, fontSpec string
	fs.StringVar(&d.file, "file", "", "image to draw on")
	fs.StringVar(&d.output, "output", "", "output file (.png, .jpg or .pdf); defaults to -file")
	fs.StringVar(&colorSpec, "color", annotate.Hex(annotate.DefaultColor()), "colour name or #rrggbb")
	fs.StringVar(&sizeSpec, "size", string(annotate.DefaultSize), "size class for arrow, rect and circle: xs, small, medium, large, xl")
	fs.StringVar(&fontSpec, "font-size", "32px", "text size")
	fs.BoolVar(&d.copy, "copy", false, "also copy the result to the clipboard")
	fs.Usage = usageFunc(d)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if d.file == "" {
		return nil, &UsageError{of: d, msg: "-file is required"}
	}
	if d.output == "" {
		d.output = d.file
	}

	var err error
	if d.color, err = annotate.ParseColor(colorSpec); err != nil {
		return nil, err
	}
	if d.size, err = annotate.ParseSizeClass(sizeSpec); err != nil {
		return nil, err
	}
	if d.fontSize, err = annotate.ParseFontSize(fontSpec); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) < 1 {
		return nil, &UsageError{of: d, msg: "missing shape"}
	}
	kind, err := annotate.ParseKind(rest[0])
	if err != nil {
		return nil, &UsageError{of: d, msg: err.Error()}
	}
	if kind == annotate.KindText {
		c, err := parseCoords(rest[1:], 4)
		if err != nil {
			return nil, err
		}
		if len(rest) < 6 || strings.TrimSpace(strings.Join(rest[5:], " ")) == "" {
			return nil, fmt.Errorf("text needs x y width height TEXT")
		}
		d.record, err = d.textRecord(annotate.Rect{X: c[0], Y: c[1], Width: c[2], Height: c[3]}, strings.Join(rest[5:], " "))
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	c, err := parseCoords(rest[1:], 4)
	if err != nil {
		return nil, err
	}
	d.record, err = annotate.NewShape(kind, annotate.Point{X: c[0], Y: c[1]}, annotate.Point{X: c[2], Y: c[3]}, d.color, d.size)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// textRecord sizes the box the same way the editor does on commit.
func (d *drawCmd) textRecord(box annotate.Rect, text string) (annotate.Record, error) {
	box = box.Normalize()
	text = strings.ReplaceAll(strings.TrimSpace(text), `\n`, "\n")
	measure, err := annotate.Measurer(d.fontSize)
	if err != nil {
		return nil, err
	}
	lines := annotate.Wrap(text, annotate.WrapWidth(box.Width), measure)
	box.Height = annotate.FitHeight(box.Height, len(lines), d.fontSize)
	return annotate.Text{Box: box, Text: text, FontSize: d.fontSize, Color: annotate.Opaque(d.color)}, nil
}

func (d *drawCmd) Run() error {
	up, err := capture.ReadUpload(d.file, 0)
	if err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	img, err := up.Decode()
	if err != nil {
		return fmt.Errorf("draw: %w", err)
	}
	store := annotate.NewStore(img)
	store.Append(d.record)
	out := store.Finalize()
	if err := export.Save(d.output, out); err != nil {
		return fmt.Errorf("draw: save %s: %w", d.output, err)
	}
	if d.copy {
		if err := copyImageFn(out); err != nil {
			return fmt.Errorf("draw: copy: %w", err)
		}
		d.notifier.Copy(d.output)
	}
	return nil
}
