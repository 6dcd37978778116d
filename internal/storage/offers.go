package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"offer-aggregator-api/internal/models"
)

const offerCacheFile = "offer_cache.json"

var (
	// ErrCacheMissing means no offer snapshot has been written yet.
	ErrCacheMissing = errors.New("offer cache missing")
	// ErrCacheCorrupt means the snapshot exists but cannot be decoded.
	ErrCacheCorrupt = errors.New("offer cache corrupt")
)

// OfferCache persists the most recently acquired offer set as one JSON
// array. A refresh replaces the whole document; there is no incremental
// update.
type OfferCache struct {
	path string
}

func NewOfferCache(dir string) *OfferCache {
	return &OfferCache{path: filepath.Join(dir, offerCacheFile)}
}

// Load reads the cached snapshot. The fetch time is the document's mod
// time, which is when Store last ran.
func (c *OfferCache) Load() (models.CacheRecord, error) {
	data, err := os.ReadFile(c.path)
	if os.IsNotExist(err) {
		return models.CacheRecord{}, ErrCacheMissing
	}
	if err != nil {
		return models.CacheRecord{}, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	var offers []models.Offer
	if err := json.Unmarshal(data, &offers); err != nil {
		return models.CacheRecord{}, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}

	record := models.CacheRecord{Offers: offers}
	if info, err := os.Stat(c.path); err == nil {
		record.FetchedAt = info.ModTime()
	}
	return record, nil
}

// Store overwrites the snapshot with a fresh offer set.
func (c *OfferCache) Store(offers []models.Offer) error {
	if offers == nil {
		offers = []models.Offer{}
	}

	data, err := json.Marshal(offers)
	if err != nil {
		return fmt.Errorf("marshal offer cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write offer cache: %w", err)
	}
	return nil
}
