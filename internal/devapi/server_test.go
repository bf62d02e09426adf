package devapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/example/notedis/internal/feedback"
)

func newTestServer(t *testing.T, store Store, sites ...Site) *feedback.Client {
	t.Helper()
	for _, s := range sites {
		if err := store.PutSite(context.Background(), s); err != nil {
			t.Fatal(err)
		}
	}
	srv := httptest.NewServer(NewServer(store).Router())
	t.Cleanup(srv.Close)
	return feedback.NewClient(srv.URL, "site-1")
}

func payload() *feedback.Payload {
	shot := "iVBORw0KGgo="
	return &feedback.Payload{
		SiteKey:          "site-1",
		Title:            "Typo",
		Category:         "bug",
		Priority:         "low",
		Message:          "Header says 'Welcom'",
		ScreenshotBase64: &shot,
	}
}

func TestStatusEndpoint(t *testing.T) {
	c := newTestServer(t, NewMemoryStore(), Site{Key: "site-1", Active: true}, Site{Key: "off", Active: false})
	if !c.Active(context.Background()) {
		t.Fatalf("site-1 should be active")
	}
	c.SiteKey = "off"
	if c.Active(context.Background()) {
		t.Fatalf("off should be inactive")
	}
	c.SiteKey = "unknown"
	if c.Active(context.Background()) {
		t.Fatalf("unknown should be inactive")
	}
}

func TestSubmitStoresEntry(t *testing.T) {
	store := NewMemoryStore()
	c := newTestServer(t, store, Site{Key: "site-1", Active: true})
	if err := c.Submit(context.Background(), payload()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	entries, _ := store.Entries(context.Background(), "site-1")
	if len(entries) != 1 || !entries[0].HasScreenshot || entries[0].HasUpload || entries[0].ID == "" {
		t.Fatalf("entries = %+v", entries)
	}
	if !strings.Contains(string(entries[0].Payload), `"uploaded_file_base64":null`) {
		t.Fatalf("payload not kept verbatim: %s", entries[0].Payload)
	}
}

func TestSubmitValidation(t *testing.T) {
	c := newTestServer(t, NewMemoryStore(), Site{Key: "site-1", Active: true})
	p := payload()
	p.Title = ""
	err := c.Submit(context.Background(), p)
	var se *feedback.StatusError
	if !errors.As(err, &se) || se.Code != http.StatusUnprocessableEntity {
		t.Fatalf("err = %v", err)
	}
}

func TestQuotaErrors(t *testing.T) {
	tests := []struct {
		name string
		site Site
		want string
	}{
		{"limit", Site{Key: "site-1", Active: true, Quota: 1, OwnerEmail: "o@example.com"}, feedback.ErrorTypeLimitExceeded},
		{"trial", Site{Key: "site-1", Active: true, Quota: 1, Trial: true}, feedback.ErrorTypeTrialExpired},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newTestServer(t, NewMemoryStore(), tc.site)
			if err := c.Submit(context.Background(), payload()); err != nil {
				t.Fatalf("first submit: %v", err)
			}
			err := c.Submit(context.Background(), payload())
			var qe *feedback.QuotaError
			if !errors.As(err, &qe) || qe.Type != tc.want {
				t.Fatalf("err = %v", err)
			}
			if qe.PricingURL != DefaultPricingURL || qe.OwnerEmail != tc.site.OwnerEmail {
				t.Fatalf("metadata = %+v", qe)
			}
		})
	}
}

func TestRequestUpgradeEndpoint(t *testing.T) {
	store := NewMemoryStore()
	c := newTestServer(t, store, Site{Key: "site-1", Active: true})
	msg, err := c.RequestUpgrade(context.Background(), "me@example.com")
	if err != nil || msg == "" {
		t.Fatalf("RequestUpgrade = %q, %v", msg, err)
	}
	reqs, _ := store.UpgradeRequests(context.Background(), "site-1")
	if len(reqs) != 1 || reqs[0].SenderEmail != "me@example.com" {
		t.Fatalf("requests = %+v", reqs)
	}
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "dev.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	if _, err := store.Site(ctx, "site-1"); !errors.Is(err, ErrSiteNotFound) {
		t.Fatalf("expected ErrSiteNotFound, got %v", err)
	}
	if err := store.PutSite(ctx, Site{Key: "site-1", Active: true, Quota: 3, OwnerEmail: "o@example.com"}); err != nil {
		t.Fatal(err)
	}
	if err := store.PutSite(ctx, Site{Key: "site-1", Active: true, Quota: 5}); err != nil {
		t.Fatal(err)
	}
	site, err := store.Site(ctx, "site-1")
	if err != nil || site.Quota != 5 || !site.Active {
		t.Fatalf("site = %+v, %v", site, err)
	}

	c := newTestServer(t, store)
	for i := 0; i < 2; i++ {
		if err := c.Submit(ctx, payload()); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}
	n, err := store.CountEntries(ctx, "site-1")
	if err != nil || n != 2 {
		t.Fatalf("count = %d, %v", n, err)
	}
	entries, err := store.Entries(ctx, "site-1")
	if err != nil || len(entries) != 2 || entries[0].Title != "Typo" || !entries[0].HasScreenshot {
		t.Fatalf("entries = %+v, %v", entries, err)
	}
	if _, err := c.RequestUpgrade(ctx, "me@example.com"); err != nil {
		t.Fatal(err)
	}
	reqs, err := store.UpgradeRequests(ctx, "site-1")
	if err != nil || len(reqs) != 1 {
		t.Fatalf("requests = %+v, %v", reqs, err)
	}
}
