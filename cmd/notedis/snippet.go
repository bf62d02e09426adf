package main

import (
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/example/notedis/internal/widget"
)

// snippetCmd prints the script tags a host page injects.
type snippetCmd struct {
	boot string
	req  widget.Request
	*root
	fs *flag.FlagSet
}

func (s *snippetCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func parseSnippetCmd(args []string, r *root) (*snippetCmd, error) {
	fs := flag.NewFlagSet("snippet", flag.ContinueOnError)
	s := &snippetCmd{root: r, fs: fs}
	fs.StringVar(&s.boot, "boot", "", "boot config JSON file; - for stdin")
	fs.BoolVar(&s.req.Admin, "admin", false, "render for a control panel page")
	fs.BoolVar(&s.req.LoggedIn, "logged-in", false, "render for a logged in visitor")
	fs.Usage = usageFunc(s)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *snippetCmd) Run() error {
	if err := s.applyBoot(s.boot); err != nil {
		return err
	}
	out, ok, err := widget.Snippet(s.config, s.req)
	if err != nil {
		return err
	}
	if !ok {
		logrus.Debug("Snippet not injected for this page")
		return nil
	}
	fmt.Fprintln(s.out, out)
	return nil
}
