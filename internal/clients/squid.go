// Package clients talks to the shared tjek.com ("squid") catalog API.
// The API has two read-only endpoints: the catalog listing for a dealer
// and the hotspot (raw offer) listing for a catalog.
package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"offer-aggregator-api/internal/dealers"
	"offer-aggregator-api/internal/models"
)

// SquidClient fetches catalogs and hotspots for one dealer at a time.
// All outbound requests share one rate limiter so a large favorites set
// cannot hammer the API.
type SquidClient struct {
	http    *http.Client
	baseURL string
	limiter *rate.Limiter
	log     *logrus.Entry
}

func NewSquidClient(baseURL string, rps float64, burst int, log *logrus.Logger) *SquidClient {
	if rps <= 0 {
		rps = 10
	}
	if burst <= 0 {
		burst = 1
	}
	return &SquidClient{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		log:     log.WithField("component", "squid_client"),
	}
}

// FetchCatalogs lists the currently active catalogs of a dealer. A
// non-200 status is a soft failure: it is logged and the dealer simply
// contributes zero catalogs this cycle. Connection failures and
// undecodable bodies are returned to the caller.
func (c *SquidClient) FetchCatalogs(ctx context.Context, dealer dealers.Dealer) ([]models.Catalog, error) {
	endpoint := fmt.Sprintf("%s/catalogs?dealer_ids=%s", c.baseURL, url.QueryEscape(dealer.ID()))

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch catalogs for %s: %w", dealer, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.WithFields(logrus.Fields{
			"dealer": dealer.String(),
			"status": resp.StatusCode,
		}).Warn("catalog endpoint returned non-200, treating as zero catalogs")
		return []models.Catalog{}, nil
	}

	var catalogs []models.Catalog
	if err := json.NewDecoder(resp.Body).Decode(&catalogs); err != nil {
		return nil, fmt.Errorf("decode catalogs for %s: %w", dealer, err)
	}
	return catalogs, nil
}

// FetchHotspots lists the raw offer records of one catalog. Any failure
// is returned to the caller, which degrades the catalog to zero offers.
func (c *SquidClient) FetchHotspots(ctx context.Context, catalog models.Catalog) ([]models.RawOfferRecord, error) {
	endpoint := fmt.Sprintf("%s/catalogs/%s/hotspots", c.baseURL, url.PathEscape(catalog.ID))

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch hotspots for catalog %s: %w", catalog.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("hotspot endpoint for catalog %s returned status %d", catalog.ID, resp.StatusCode)
	}

	var hotspots []models.Hotspot
	if err := json.NewDecoder(resp.Body).Decode(&hotspots); err != nil {
		return nil, fmt.Errorf("decode hotspots for catalog %s: %w", catalog.ID, err)
	}

	records := make([]models.RawOfferRecord, 0, len(hotspots))
	for _, h := range hotspots {
		records = append(records, h.Offer)
	}
	return records, nil
}

func (c *SquidClient) get(ctx context.Context, endpoint string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	return c.http.Do(req)
}
