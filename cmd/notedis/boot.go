package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/example/notedis/internal/config"
	"github.com/example/notedis/internal/feedback"
	"github.com/example/notedis/internal/widget"
)

var newClientFn = func(apiURL, siteKey string) widget.API {
	return feedback.NewClient(apiURL, siteKey)
}

// applyBoot fills empty config fields from a boot JSON file. "-" reads
// standard input.
func (r *root) applyBoot(path string) error {
	if path == "" {
		return nil
	}
	var in io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("boot config: %w", err)
		}
		defer f.Close()
		in = f
	}
	b, err := config.ParseBoot(in)
	if err != nil {
		return fmt.Errorf("boot config %s: %w", path, err)
	}
	r.config.ApplyBoot(b)
	return nil
}

// validated checks the widget settings and explains a missing site key.
func (r *root) validated() error {
	if err := r.config.Validate(); err != nil {
		if errors.Is(err, config.ErrConfigMissing) {
			return fmt.Errorf("%w: set site_key in the config, NOTEDIS_SITE_KEY or -boot", err)
		}
		return err
	}
	return nil
}

// noTimers drops the form's delayed transitions; a CLI run ends before
// they would fire.
func noTimers(time.Duration, func()) func() bool {
	return func() bool { return false }
}
