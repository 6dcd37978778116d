// Package storage persists the two local documents the aggregator keeps
// between runs: the favorites/refresh-state document and the offer
// cache. Both live under a per-user cache directory and are written
// wholesale, never patched.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"offer-aggregator-api/internal/dealers"
	"offer-aggregator-api/internal/models"
)

const favoritesFile = "userdata.json"

// FavoritesStore holds the user's chosen dealers plus the bookkeeping
// that drives the "is a refresh needed" decision. Every mutation is
// written through to disk immediately.
type FavoritesStore struct {
	mu sync.Mutex

	path        string
	favorites   map[dealers.Dealer]struct{}
	lastRefresh models.Date
	changed     bool
}

type favoritesDoc struct {
	Favorites         []string    `json:"favorites"`
	DateOfLastRefresh models.Date `json:"date_of_last_refresh"`
	FavoritesChanged  bool        `json:"favorites_changed"`
}

// OpenFavorites loads the favorites document from dir, or starts empty
// when no document exists yet. An empty store has a zero last-refresh
// date and is therefore always stale.
func OpenFavorites(dir string) (*FavoritesStore, error) {
	s := &FavoritesStore{
		path:      filepath.Join(dir, favoritesFile),
		favorites: make(map[dealers.Dealer]struct{}),
	}

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}

	var doc favoritesDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("favorites document is invalid JSON: %w", err)
	}

	for _, name := range doc.Favorites {
		dealer, err := dealers.Parse(name)
		if err != nil {
			// An entry from an older dealer set; drop it rather than
			// refusing to start.
			continue
		}
		s.favorites[dealer] = struct{}{}
	}
	s.lastRefresh = doc.DateOfLastRefresh
	s.changed = doc.FavoritesChanged
	return s, nil
}

// Add inserts dealers into the set and reports whether it actually grew.
// Adding a present dealer is a no-op.
func (s *FavoritesStore) Add(ds ...dealers.Dealer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grew := false
	for _, d := range ds {
		if _, ok := s.favorites[d]; !ok {
			s.favorites[d] = struct{}{}
			grew = true
		}
	}
	if !grew {
		return false, nil
	}
	s.changed = true
	return true, s.persist()
}

// Remove deletes dealers from the set and reports whether it shrank.
func (s *FavoritesStore) Remove(ds ...dealers.Dealer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shrank := false
	for _, d := range ds {
		if _, ok := s.favorites[d]; ok {
			delete(s.favorites, d)
			shrank = true
		}
	}
	if !shrank {
		return false, nil
	}
	s.changed = true
	return true, s.persist()
}

// List returns the favorite dealers sorted by name.
func (s *FavoritesStore) List() []dealers.Dealer {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]dealers.Dealer, 0, len(s.favorites))
	for d := range s.favorites {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ShouldRefresh reports whether the cached offers can no longer be
// trusted: the favorites set changed since the last successful refresh,
// or the last refresh happened on an earlier calendar day.
func (s *FavoritesStore) ShouldRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed || s.lastRefresh.Before(models.Today())
}

// MarkRefreshed records today as the last refresh and clears the
// changed flag.
func (s *FavoritesStore) MarkRefreshed() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastRefresh = models.Today()
	s.changed = false
	return s.persist()
}

func (s *FavoritesStore) persist() error {
	names := make([]string, 0, len(s.favorites))
	for d := range s.favorites {
		names = append(names, d.String())
	}
	sort.Strings(names)

	doc := favoritesDoc{
		Favorites:         names,
		DateOfLastRefresh: s.lastRefresh,
		FavoritesChanged:  s.changed,
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal favorites: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write favorites: %w", err)
	}
	return nil
}
