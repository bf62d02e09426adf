package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/example/notedis/internal/feedback"
)

var siteStatusFn = func(ctx context.Context, apiURL, siteKey string) (bool, error) {
	return feedback.NewClient(apiURL, siteKey).Status(ctx)
}

// statusCmd asks the API whether the configured site is active.
type statusCmd struct {
	boot    string
	timeout time.Duration
	*root
	fs *flag.FlagSet
}

func (s *statusCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func parseStatusCmd(args []string, r *root) (*statusCmd, error) {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	s := &statusCmd{root: r, fs: fs}
	fs.StringVar(&s.boot, "boot", "", "boot config JSON file; - for stdin")
	fs.DurationVar(&s.timeout, "timeout", 10*time.Second, "request timeout")
	fs.Usage = usageFunc(s)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *statusCmd) Run() error {
	if err := s.applyBoot(s.boot); err != nil {
		return err
	}
	if err := s.validated(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	active, err := siteStatusFn(ctx, s.config.APIURL, s.config.SiteKey)
	if err != nil {
		return fmt.Errorf("site status: %w", err)
	}
	state := "inactive"
	if active {
		state = "active"
	}
	fmt.Fprintf(s.out, "%s: %s\n", s.config.SiteKey, state)
	return nil
}
