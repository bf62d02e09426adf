package devapi

import (
	"context"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

type memoryStore struct {
	mu       sync.RWMutex
	sites    map[string]Site
	entries  []Entry
	upgrades []UpgradeRequest
}

// NewMemoryStore keeps everything in process memory.
func NewMemoryStore() Store {
	logrus.Info("Using in-memory dev API store")
	return &memoryStore{sites: make(map[string]Site)}
}

func (m *memoryStore) PutSite(_ context.Context, s Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites[s.Key] = s
	return nil
}

func (m *memoryStore) Site(_ context.Context, key string) (*Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sites[key]
	if !ok {
		return nil, ErrSiteNotFound
	}
	return &s, nil
}

func (m *memoryStore) AddEntry(_ context.Context, e *Entry) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	m.entries = append(m.entries, *e)
	logrus.WithFields(logrus.Fields{
		"entry_id": e.ID,
		"site_key": e.SiteKey,
	}).Debug("Feedback stored")
	return e.ID, nil
}

func (m *memoryStore) Entries(_ context.Context, siteKey string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Entry
	for _, e := range m.entries {
		if e.SiteKey == siteKey {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memoryStore) CountEntries(ctx context.Context, siteKey string) (int, error) {
	entries, err := m.Entries(ctx, siteKey)
	return len(entries), err
}

func (m *memoryStore) AddUpgradeRequest(_ context.Context, r *UpgradeRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = ulid.Make().String()
	}
	m.upgrades = append(m.upgrades, *r)
	return r.ID, nil
}

func (m *memoryStore) UpgradeRequests(_ context.Context, siteKey string) ([]UpgradeRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []UpgradeRequest
	for _, r := range m.upgrades {
		if r.SiteKey == siteKey {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) Close() error { return nil }
