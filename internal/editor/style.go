package editor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/example/notedis/internal/annotate"
	"github.com/example/notedis/internal/prefs"
)

// StyleKey is the preference key holding the remembered size choices.
const StyleKey = "notedis_annotation_sizes"

// Style is the persisted pair of size choices.
type Style struct {
	Arrow annotate.SizeClass `json:"arrow"`
	Text  string             `json:"text"`
}

// DefaultStyle is large arrows and 32px text.
func DefaultStyle() Style {
	return Style{Arrow: annotate.DefaultSize, Text: formatFontSize(annotate.DefaultFontSize)}
}

// FontSize parses Text, falling back to the default size.
func (s Style) FontSize() float64 {
	fs, err := annotate.ParseFontSize(s.Text)
	if err != nil {
		return annotate.DefaultFontSize
	}
	return fs
}

// LoadStyle reads the stored style. Missing or invalid fields fall back to
// their defaults.
func LoadStyle(store prefs.Store) (Style, error) {
	style := DefaultStyle()
	if store == nil {
		return style, nil
	}
	raw, err := store.Get(StyleKey)
	if errors.Is(err, prefs.ErrNotFound) {
		return style, nil
	}
	if err != nil {
		return style, fmt.Errorf("load style: %w", err)
	}
	var saved Style
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		return style, fmt.Errorf("decode style: %w", err)
	}
	if saved.Arrow.Valid() {
		style.Arrow = saved.Arrow
	}
	if _, err := annotate.ParseFontSize(saved.Text); err == nil {
		style.Text = saved.Text
	}
	return style, nil
}

// SaveStyle writes style under StyleKey.
func SaveStyle(store prefs.Store, style Style) error {
	if store == nil {
		return nil
	}
	data, err := json.Marshal(style)
	if err != nil {
		return err
	}
	if err := store.Set(StyleKey, string(data)); err != nil {
		return fmt.Errorf("save style: %w", err)
	}
	return nil
}

func formatFontSize(fs float64) string {
	return strconv.FormatFloat(fs, 'f', -1, 64)
}
