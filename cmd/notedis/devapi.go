package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/notedis/internal/devapi"
)

// siteList collects repeated -site flags.
type siteList []string

func (s *siteList) String() string { return strings.Join(*s, ",") }

func (s *siteList) Set(v string) error {
	if strings.TrimSpace(v) == "" {
		return errors.New("site key cannot be empty")
	}
	*s = append(*s, v)
	return nil
}

// devAPICmd serves a local feedback API for trying the widget.
type devAPICmd struct {
	addr       string
	db         string
	sites      siteList
	quota      int
	trial      bool
	owner      string
	pricingURL string
	*root
	fs *flag.FlagSet
}

func (d *devAPICmd) FlagSet() *flag.FlagSet {
	return d.fs
}

func parseDevAPICmd(args []string, r *root) (*devAPICmd, error) {
	fs := flag.NewFlagSet("devapi", flag.ContinueOnError)
	d := &devAPICmd{root: r, fs: fs}
	fs.StringVar(&d.addr, "addr", ":8787", "listen address")
	fs.StringVar(&d.db, "db", "", "SQLite database file; empty keeps everything in memory")
	fs.Var(&d.sites, "site", "active site key to register (repeatable)")
	fs.IntVar(&d.quota, "quota", 0, "submissions accepted per site; 0 is unlimited")
	fs.BoolVar(&d.trial, "trial", false, "report an expired trial instead of a reached limit")
	fs.StringVar(&d.owner, "owner", "", "site owner email, enables upgrade requests")
	fs.StringVar(&d.pricingURL, "pricing-url", devapi.DefaultPricingURL, "pricing page returned with quota errors")
	fs.Usage = usageFunc(d)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if d.quota < 0 {
		return nil, &UsageError{of: d, msg: "-quota cannot be negative"}
	}
	return d, nil
}

func (d *devAPICmd) openStore() (devapi.Store, error) {
	if d.db == "" {
		return devapi.NewMemoryStore(), nil
	}
	return devapi.NewSQLiteStore(d.db)
}

// register adds the -site keys, plus the configured site key when none are
// given.
func (d *devAPICmd) register(ctx context.Context, store devapi.Store) error {
	keys := []string(d.sites)
	if len(keys) == 0 && d.config != nil && d.config.SiteKey != "" {
		keys = []string{d.config.SiteKey}
	}
	for _, k := range keys {
		site := devapi.Site{Key: k, Active: true, Quota: d.quota, Trial: d.trial, OwnerEmail: d.owner}
		if err := store.PutSite(ctx, site); err != nil {
			return fmt.Errorf("register site %s: %w", k, err)
		}
		logrus.WithField("site_key", k).Info("Registered site")
	}
	return nil
}

func (d *devAPICmd) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := d.openStore()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close store")
		}
	}()
	if err := d.register(ctx, store); err != nil {
		return err
	}

	api := devapi.NewServer(store)
	api.PricingURL = d.pricingURL
	srv := &http.Server{
		Addr:              d.addr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logrus.WithField("addr", d.addr).Info("Dev API listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logrus.Info("Shutting down dev API")
	return srv.Shutdown(shutdownCtx)
}
