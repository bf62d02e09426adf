// Package devapi is a local stand-in for the Notedis feedback API, used to
// develop against the widget without a real account.
package devapi

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/example/notedis/internal/feedback"
)

var ErrSiteNotFound = errors.New("site not found")

// Site is a registered site key.
type Site struct {
	Key        string `json:"site_key"`
	Active     bool   `json:"active"`
	OwnerEmail string `json:"owner_email,omitempty"`
	// Quota is the number of submissions accepted; 0 means unlimited.
	Quota int  `json:"quota"`
	Trial bool `json:"trial"`
}

// Entry is a stored submission.
type Entry struct {
	ID            string    `json:"id"`
	SiteKey       string    `json:"site_key"`
	Title         string    `json:"title"`
	Category      string    `json:"category"`
	Priority      string    `json:"priority"`
	URL           string    `json:"url"`
	HasScreenshot bool      `json:"has_screenshot"`
	HasUpload     bool      `json:"has_upload"`
	CreatedAt     time.Time `json:"created_at"`
	Payload       []byte    `json:"-"`
}

// UpgradeRequest is a stored request-upgrade call.
type UpgradeRequest struct {
	ID          string    `json:"id"`
	SiteKey     string    `json:"site_key"`
	SenderEmail string    `json:"sender_email"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists sites and submissions.
type Store interface {
	PutSite(ctx context.Context, s Site) error
	Site(ctx context.Context, key string) (*Site, error)
	AddEntry(ctx context.Context, e *Entry) (string, error)
	Entries(ctx context.Context, siteKey string) ([]Entry, error)
	CountEntries(ctx context.Context, siteKey string) (int, error)
	AddUpgradeRequest(ctx context.Context, r *UpgradeRequest) (string, error)
	UpgradeRequests(ctx context.Context, siteKey string) ([]UpgradeRequest, error)
	Close() error
}

// NewEntry summarizes p and keeps its JSON form.
func NewEntry(p *feedback.Payload, now time.Time) (*Entry, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return &Entry{
		ID:            ulid.Make().String(),
		SiteKey:       p.SiteKey,
		Title:         p.Title,
		Category:      p.Category,
		Priority:      p.Priority,
		URL:           p.URL,
		HasScreenshot: p.ScreenshotBase64 != nil,
		HasUpload:     p.UploadedFileBase64 != nil,
		CreatedAt:     now.UTC(),
		Payload:       raw,
	}, nil
}
