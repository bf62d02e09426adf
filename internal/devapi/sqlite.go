package devapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sites (
	site_key TEXT PRIMARY KEY,
	active INTEGER NOT NULL,
	owner_email TEXT,
	quota INTEGER NOT NULL DEFAULT 0,
	trial INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS feedback (
	id TEXT PRIMARY KEY,
	site_key TEXT NOT NULL,
	title TEXT,
	category TEXT,
	priority TEXT,
	url TEXT,
	has_screenshot INTEGER NOT NULL,
	has_upload INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	payload BLOB
);
CREATE INDEX IF NOT EXISTS feedback_site ON feedback (site_key, created_at);
CREATE TABLE IF NOT EXISTS upgrade_requests (
	id TEXT PRIMARY KEY,
	site_key TEXT NOT NULL,
	sender_email TEXT NOT NULL,
	created_at DATETIME NOT NULL
);`

type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) the database at dataSourceName.
func NewSQLiteStore(dataSourceName string) (Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	logrus.WithField("dsn", dataSourceName).Info("Using SQLite dev API store")
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) PutSite(ctx context.Context, site Site) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sites (site_key, active, owner_email, quota, trial) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(site_key) DO UPDATE SET active = excluded.active, owner_email = excluded.owner_email,
		 quota = excluded.quota, trial = excluded.trial`,
		site.Key, site.Active, site.OwnerEmail, site.Quota, site.Trial)
	return err
}

func (s *sqliteStore) Site(ctx context.Context, key string) (*Site, error) {
	var site Site
	var owner sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT site_key, active, owner_email, quota, trial FROM sites WHERE site_key = ?", key).
		Scan(&site.Key, &site.Active, &owner, &site.Quota, &site.Trial)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSiteNotFound
	}
	if err != nil {
		return nil, err
	}
	site.OwnerEmail = owner.String
	return &site, nil
}

func (s *sqliteStore) AddEntry(ctx context.Context, e *Entry) (string, error) {
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	log := logrus.WithFields(logrus.Fields{
		"entry_id":    e.ID,
		"site_key":    e.SiteKey,
		"data_length": len(e.Payload),
	})
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, site_key, title, category, priority, url, has_screenshot, has_upload, created_at, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.SiteKey, e.Title, e.Category, e.Priority, e.URL, e.HasScreenshot, e.HasUpload, e.CreatedAt, e.Payload)
	if err != nil {
		log.WithError(err).Error("Failed to store feedback")
		return "", err
	}
	log.Debug("Feedback stored")
	return e.ID, nil
}

func (s *sqliteStore) Entries(ctx context.Context, siteKey string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, site_key, title, category, priority, url, has_screenshot, has_upload, created_at, payload
		 FROM feedback WHERE site_key = ? ORDER BY created_at, id`, siteKey)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			logrus.WithError(cerr).Warn("Failed to close feedback rows")
		}
	}()
	var out []Entry
	for rows.Next() {
		var e Entry
		var title, category, priority, url sql.NullString
		if err := rows.Scan(&e.ID, &e.SiteKey, &title, &category, &priority, &url,
			&e.HasScreenshot, &e.HasUpload, &e.CreatedAt, &e.Payload); err != nil {
			return nil, err
		}
		e.Title, e.Category, e.Priority, e.URL = title.String, category.String, priority.String, url.String
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *sqliteStore) CountEntries(ctx context.Context, siteKey string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedback WHERE site_key = ?", siteKey).Scan(&n)
	return n, err
}

func (s *sqliteStore) AddUpgradeRequest(ctx context.Context, r *UpgradeRequest) (string, error) {
	if r.ID == "" {
		r.ID = ulid.Make().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO upgrade_requests (id, site_key, sender_email, created_at) VALUES (?, ?, ?, ?)",
		r.ID, r.SiteKey, r.SenderEmail, r.CreatedAt)
	if err != nil {
		return "", err
	}
	return r.ID, nil
}

func (s *sqliteStore) UpgradeRequests(ctx context.Context, siteKey string) ([]UpgradeRequest, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, site_key, sender_email, created_at FROM upgrade_requests WHERE site_key = ? ORDER BY created_at, id",
		siteKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []UpgradeRequest
	for rows.Next() {
		var r UpgradeRequest
		if err := rows.Scan(&r.ID, &r.SiteKey, &r.SenderEmail, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Close() error { return s.db.Close() }
