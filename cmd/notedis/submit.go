package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/notedis/internal/annotate"
	"github.com/example/notedis/internal/capture"
	"github.com/example/notedis/internal/feedback"
	"github.com/example/notedis/internal/widget"
)

// submitCmd sends one piece of feedback through the widget form.
type submitCmd struct {
	boot           string
	form           feedback.Form
	screenshot     string
	captureScreen  bool
	annotate       bool
	upload         string
	pageURL        string
	pageTitle      string
	userAgent      string
	requestUpgrade bool
	timeout        time.Duration
	captureErr     error
	*root
	fs *flag.FlagSet
}

func (s *submitCmd) FlagSet() *flag.FlagSet {
	return s.fs
}

func parseSubmitCmd(args []string, r *root) (*submitCmd, error) {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	s := &submitCmd{root: r, fs: fs, form: feedback.NewForm()}
	fs.StringVar(&s.boot, "boot", "", "boot config JSON file ({\"siteKey\": ...}); - for stdin")
	fs.StringVar(&s.form.Title, "title", "", "feedback title")
	fs.StringVar(&s.form.Category, "category", s.form.Category, "bug, feature, improvement or question")
	fs.StringVar(&s.form.Priority, "priority", s.form.Priority, "low, medium, high or urgent")
	fs.StringVar(&s.form.Message, "message", "", "feedback message")
	fs.StringVar(&s.form.Email, "email", "", "your email address")
	fs.StringVar(&s.screenshot, "screenshot", "", "image file to attach as the screenshot")
	fs.BoolVar(&s.captureScreen, "capture", false, "capture the screen as the screenshot")
	fs.BoolVar(&s.annotate, "annotate", false, "open the editor on the screenshot before sending")
	fs.StringVar(&s.upload, "file", "", "image file to attach as an upload")
	fs.StringVar(&s.pageURL, "url", "", "page the feedback is about")
	fs.StringVar(&s.pageTitle, "page-title", "", "title of that page")
	fs.StringVar(&s.userAgent, "user-agent", "", "user agent to report")
	fs.BoolVar(&s.requestUpgrade, "request-upgrade", false, "ask the site owner to upgrade when the quota is reached")
	fs.DurationVar(&s.timeout, "timeout", 60*time.Second, "request timeout")
	fs.Usage = usageFunc(s)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if s.screenshot != "" && s.captureScreen {
		return nil, &UsageError{of: s, msg: "-screenshot and -capture cannot be combined"}
	}
	if s.annotate && s.screenshot == "" && !s.captureScreen {
		return nil, &UsageError{of: s, msg: "-annotate needs -screenshot or -capture"}
	}
	return s, nil
}

func (s *submitCmd) Run() error {
	if err := s.applyBoot(s.boot); err != nil {
		return err
	}
	if err := s.validated(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	api := newClientFn(s.config.APIURL, s.config.SiteKey)
	w, err := widget.Start(ctx, s.config, api, widget.WithAfterFunc(noTimers))
	if err != nil {
		if errors.Is(err, widget.ErrSiteInactive) {
			return fmt.Errorf("site %s is not active", s.config.SiteKey)
		}
		return err
	}

	shot, err := s.screenshotImage(ctx)
	if err != nil {
		return err
	}
	viewport := image.Point{}
	if shot != nil {
		viewport = shot.Bounds().Size()
	}
	page := feedback.NewPageContext(s.pageURL, s.pageTitle, viewport, s.userAgent, time.Now())
	m, err := w.Open(page)
	if err != nil {
		return err
	}
	defer m.Close()
	m.SetUploadLimit(s.config.MaxUploadBytes())
	if err := m.SetForm(s.form); err != nil {
		return err
	}

	if s.captureScreen && shot == nil {
		m.CaptureFailed(s.captureErr)
		fmt.Fprintf(os.Stderr, "warning: %s\n", m.Notice().Text)
	}
	if shot != nil {
		store := annotate.NewStore(shot)
		if s.annotate {
			session, res, err := s.edit(shot, "")
			if err != nil {
				return err
			}
			if res.Discarded {
				return errors.New("annotation discarded, nothing sent")
			}
			store = session.Store()
		}
		m.AttachScreenshot(store)
	}
	if s.upload != "" {
		data, err := os.ReadFile(s.upload)
		if err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		if err := m.AttachUpload(filepath.Base(s.upload), data); err != nil {
			return fmt.Errorf("%s: %w", capture.Message(err), err)
		}
	}

	err = m.Submit(ctx)
	if n := m.Notice(); n != nil {
		fmt.Fprintln(s.out, n.Text)
	}
	if err == nil {
		s.notifier.Submitted(s.form.Title)
		return nil
	}
	if q := m.Quota(); q != nil {
		return s.upsell(ctx, m, q)
	}
	return err
}

func (s *submitCmd) screenshotImage(ctx context.Context) (*image.RGBA, error) {
	switch {
	case s.screenshot != "":
		up, err := capture.ReadUpload(s.screenshot, s.config.MaxUploadBytes())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", capture.Message(err), err)
		}
		return up.Decode()
	case s.captureScreen:
		img, err := captureScreenFn(ctx, capture.Options{Backend: s.config.Capture.Backend})
		if err != nil {
			logrus.WithError(err).Warn("Screen capture failed")
			s.captureErr = err
			return nil, nil
		}
		s.notifier.Capture("screen", img)
		return img, nil
	}
	return nil, nil
}

func (s *submitCmd) upsell(ctx context.Context, m *widget.Modal, q *feedback.QuotaError) error {
	if q.PricingURL != "" {
		fmt.Fprintf(s.out, "Upgrade: %s\n", q.PricingURL)
	}
	if !s.requestUpgrade {
		return q
	}
	if !m.CanRequestUpgrade() {
		return fmt.Errorf("%w (no site owner to notify)", q)
	}
	msg, err := m.RequestUpgrade(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, msg)
	return nil
}
