package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/example/notedis/internal/config"
	"github.com/example/notedis/internal/notify"
	"github.com/example/notedis/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs       *flag.FlagSet
	program  string
	out      io.Writer
	notifier *notify.Notifier
	config   *config.Config

	configPath    string
	envFile       string
	logLevel      string
	themeName     string
	captureAlerts bool
	submitAlerts  bool
	copyAlerts    bool
	activeTheme   *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func (r *root) subcommand(name string) *root {
	c := *r
	c.fs = nil
	c.program = strings.TrimSpace(r.program + " " + name)
	return &c
}

func newRoot() *root {
	r := &root{
		fs:      flag.NewFlagSet("notedis", flag.ContinueOnError),
		program: "notedis",
		out:     os.Stdout,
		config:  config.New(),
	}
	r.fs.StringVar(&r.configPath, "config", configPathOverride, "RC file to load instead of the default search path")
	r.fs.StringVar(&r.envFile, "env", ".env", "dotenv file loaded before NOTEDIS_* variables are read")
	r.fs.StringVar(&r.logLevel, "log-level", "", "logging level: debug, info, warn, error (env NOTEDIS_LOG_LEVEL)")
	r.fs.StringVar(&r.themeName, "theme", "", "editor theme: light, dark, high_contrast or a .theme file")
	r.fs.BoolVar(&r.captureAlerts, "notify-capture", false, "show a desktop notice after capturing the screen")
	r.fs.BoolVar(&r.submitAlerts, "notify-submit", false, "show a desktop notice after feedback is sent")
	r.fs.BoolVar(&r.copyAlerts, "notify-copy", false, "show a desktop notice after copying to the clipboard")
	r.fs.Usage = usageFunc(r)
	return r
}

// load reads the RC file, the dotenv file and the environment, in that
// order. Flags set on the command line win over all of them.
func (r *root) load() {
	if err := config.LoadDotEnv(r.envFile); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", r.envFile, err)
	}

	level := r.logLevel
	if level == "" {
		level = os.Getenv("NOTEDIS_LOG_LEVEL")
	}
	if level != "" {
		if lvl, err := logrus.ParseLevel(level); err != nil {
			fmt.Fprintf(os.Stderr, "warning: invalid log level %q\n", level)
		} else {
			logrus.SetLevel(lvl)
		}
	}

	cfg, err := config.NewLoader(version, r.configPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}
	cfg.ApplyEnv(os.Getenv)
	r.config = cfg

	set := map[string]bool{}
	r.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	n := cfg.Notify
	if set["notify-capture"] {
		n.Capture = r.captureAlerts
	}
	if set["notify-submit"] {
		n.Submit = r.submitAlerts
	}
	if set["notify-copy"] {
		n.Copy = r.copyAlerts
	}
	r.notifier = notify.FromConfig(n, notify.LoadPreferences(os.Getenv))
	r.activeTheme = r.resolveTheme()
}

func (r *root) resolveTheme() *theme.Theme {
	name := r.themeName
	if name == "" {
		name = r.config.Theme
	}
	if t, ok := r.config.Themes[name]; ok {
		return t
	}
	t, err := theme.NewLoader().Load(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", name, err)
		t = theme.Default()
	}
	if accent, err := theme.ParseColor(r.config.Color); err == nil && r.config.Color != "" {
		t = t.WithAccent(accent)
	}
	return t
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	r.load()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "annotate":
		cmd, err = parseAnnotateCmd(subArgs, r.subcommand(cmdName))
	case "draw":
		cmd, err = parseDrawCmd(subArgs, r.subcommand(cmdName))
	case "submit":
		cmd, err = parseSubmitCmd(subArgs, r.subcommand(cmdName))
	case "status":
		cmd, err = parseStatusCmd(subArgs, r.subcommand(cmdName))
	case "snippet":
		cmd, err = parseSnippetCmd(subArgs, r.subcommand(cmdName))
	case "devapi":
		cmd, err = parseDevAPICmd(subArgs, r.subcommand(cmdName))
	case "config":
		cmd, err = parseConfigCmd(subArgs, r.subcommand(cmdName))
	case "version":
		cmd = &versionCmd{root: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
