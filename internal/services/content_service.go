package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"expertgate/internal/models"
	"expertgate/internal/realtime"
	"expertgate/internal/repositories"
)

const contentRefetchTimeout = 5 * time.Second

// ContentService is a read-through cache of site_content. It loads every row
// on first read and is kept current by changefeed events, which name a key
// that is then refetched.
type ContentService struct {
	repo repositories.ContentRepository

	loadMu sync.Mutex // serialises loads

	mu      sync.RWMutex
	entries map[string]string
	loaded  bool
	loading bool
	pending []string // keys changed while a load was in flight
	gen     uint64   // bumped on reset
}

func NewContentService(repo repositories.ContentRepository) *ContentService {
	return &ContentService{repo: repo}
}

func (s *ContentService) Get(ctx context.Context, key string) (string, error) {
	var (
		v  string
		ok bool
	)
	err := s.read(ctx, func(entries map[string]string) {
		v, ok = entries[key]
	})
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrContentNotFound
	}
	return v, nil
}

// All returns a sorted snapshot of every entry.
func (s *ContentService) All(ctx context.Context) ([]models.ContentEntry, error) {
	var out []models.ContentEntry
	err := s.read(ctx, func(entries map[string]string) {
		out = make([]models.ContentEntry, 0, len(entries))
		for k, v := range entries {
			out = append(out, models.ContentEntry{Key: k, Value: v})
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// read calls fn with the loaded entries while holding the read lock, loading
// first if needed. A reset between the load and the read triggers another load.
func (s *ContentService) read(ctx context.Context, fn func(map[string]string)) error {
	for {
		s.mu.RLock()
		if s.loaded {
			fn(s.entries)
			s.mu.RUnlock()
			return nil
		}
		s.mu.RUnlock()

		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.ensureLoaded(ctx); err != nil {
			return err
		}
	}
}

// HandleEvent applies one changefeed event. Subscribe it to a realtime.Feed;
// the feed delivers events one at a time, so refetches are applied in order.
func (s *ContentService) HandleEvent(ev realtime.Event) {
	s.mu.Lock()
	switch {
	case ev.Op == realtime.OpReset:
		s.resetLocked()
		s.mu.Unlock()
		return
	case s.loading:
		s.pending = append(s.pending, ev.Key)
		s.mu.Unlock()
		return
	case !s.loaded:
		// next read loads a fresh snapshot
		s.mu.Unlock()
		return
	case ev.Op == realtime.OpDelete:
		delete(s.entries, ev.Key)
		s.mu.Unlock()
		return
	}
	gen := s.gen
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), contentRefetchTimeout)
	defer cancel()
	e, err := s.repo.Get(ctx, ev.Key)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || !s.loaded {
		return
	}
	if err != nil {
		// the change is lost; start over from a full snapshot
		s.resetLocked()
		return
	}
	s.setLocked(ev.Key, e)
}

func (s *ContentService) resetLocked() {
	s.entries = nil
	s.loaded = false
	s.pending = nil
	s.gen++
}

func (s *ContentService) setLocked(key string, e *models.ContentEntry) {
	if e == nil {
		delete(s.entries, key)
		return
	}
	s.entries[key] = e.Value
}

// ensureLoaded takes a full snapshot, then refetches keys that changed while
// it was being taken until none are left. The cache is published under the
// same lock that observed the empty backlog. A reset during the load leaves
// the cache unloaded and the caller reads again.
func (s *ContentService) ensureLoaded(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	if s.loaded {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.pending = nil
	gen := s.gen
	s.mu.Unlock()

	fail := func(err error) error {
		s.mu.Lock()
		s.loading = false
		s.pending = nil
		s.mu.Unlock()
		return fmt.Errorf("load content: %w", err)
	}

	rows, err := s.repo.List(ctx)
	if err != nil {
		return fail(err)
	}
	entries := make(map[string]string, len(rows))
	for _, r := range rows {
		entries[r.Key] = r.Value
	}

	for {
		s.mu.Lock()
		if gen != s.gen {
			s.loading = false
			s.pending = nil
			s.mu.Unlock()
			return nil
		}
		keys := s.pending
		s.pending = nil
		if len(keys) == 0 {
			s.entries = entries
			s.loaded = true
			s.loading = false
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()

		for _, k := range keys {
			e, err := s.repo.Get(ctx, k)
			if err != nil {
				return fail(err)
			}
			if e == nil {
				delete(entries, k)
			} else {
				entries[k] = e.Value
			}
		}
	}
}
