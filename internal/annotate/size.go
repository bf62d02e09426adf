package annotate

import (
	"fmt"
	"strconv"
	"strings"
)

// SizeClass selects stroke width and arrowhead length for arrow, rectangle
// and circle records.
type SizeClass string

const (
	SizeXS     SizeClass = "xs"
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
	SizeXL     SizeClass = "xl"
)

const (
	DefaultSize     = SizeLarge
	DefaultFontSize = 32.0
)

// Metrics is one row of the size table.
type Metrics struct {
	LineWidth  float64
	HeadLength float64
}

var sizeTable = map[SizeClass]Metrics{
	SizeXS:     {LineWidth: 1, HeadLength: 8},
	SizeSmall:  {LineWidth: 2, HeadLength: 12},
	SizeMedium: {LineWidth: 4, HeadLength: 18},
	SizeLarge:  {LineWidth: 6, HeadLength: 25},
	SizeXL:     {LineWidth: 8, HeadLength: 35},
}

// SizeClasses lists the classes from smallest to largest.
func SizeClasses() []SizeClass {
	return []SizeClass{SizeXS, SizeSmall, SizeMedium, SizeLarge, SizeXL}
}

// Metrics returns the table row for s. Unknown classes use medium.
func (s SizeClass) Metrics() Metrics {
	if m, ok := sizeTable[s]; ok {
		return m
	}
	return sizeTable[SizeMedium]
}

// Valid reports whether s names a row of the table.
func (s SizeClass) Valid() bool {
	_, ok := sizeTable[s]
	return ok
}

// ParseSizeClass accepts a class name such as "large" or "xl".
func ParseSizeClass(v string) (SizeClass, error) {
	s := SizeClass(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown size %q", v)
	}
	return s, nil
}

// FontSizes are the text sizes offered by the editor, in surface pixels.
func FontSizes() []float64 {
	return []float64{16, 24, 32, 48, 64}
}

// ParseFontSize accepts "32" or "32px".
func ParseFontSize(v string) (float64, error) {
	s := strings.TrimSuffix(strings.TrimSpace(v), "px")
	fs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid font size %q: %w", v, err)
	}
	if fs <= 0 {
		return 0, fmt.Errorf("invalid font size %q", v)
	}
	return fs, nil
}
