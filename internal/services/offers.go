package services

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"offer-aggregator-api/internal/clients"
	"offer-aggregator-api/internal/dealers"
	"offer-aggregator-api/internal/models"
	"offer-aggregator-api/internal/normalize"
	"offer-aggregator-api/internal/storage"
)

// OfferService decides between the cached snapshot and a remote refresh,
// and drives the two-level fan-out (dealer → catalog → offers) on the
// refresh path.
type OfferService struct {
	client    *clients.SquidClient
	favorites *storage.FavoritesStore
	cache     *storage.OfferCache
	log       *logrus.Entry

	// One acquisition cycle at a time; the persisted documents have a
	// single controlling writer.
	mu sync.Mutex
}

func NewOfferService(client *clients.SquidClient, favorites *storage.FavoritesStore, cache *storage.OfferCache, log *logrus.Logger) *OfferService {
	return &OfferService{
		client:    client,
		favorites: favorites,
		cache:     cache,
		log:       log.WithField("component", "offer_service"),
	}
}

// GetOffers returns the current offer set. A missing or corrupt cache
// unconditionally forces a remote refresh; otherwise the refresh runs
// only when the favorites store says the snapshot can no longer be
// trusted. refreshed tells the caller which path was taken. A non-nil
// error is a persistence failure: the returned offers are still valid
// for this invocation, they just could not be saved for the next one.
func (s *OfferService) GetOffers(ctx context.Context) (offers []models.Offer, refreshed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, loadErr := s.cache.Load()
	if loadErr != nil {
		if errors.Is(loadErr, storage.ErrCacheMissing) {
			s.log.Info("offer cache missing, forcing refresh")
		} else {
			s.log.WithError(loadErr).Warn("offer cache unreadable, forcing refresh")
		}
		offers, err = s.refreshAndStore(ctx)
		return offers, true, err
	}

	if s.favorites.ShouldRefresh() {
		offers, err = s.refreshAndStore(ctx)
		return offers, true, err
	}

	return record.Offers, false, nil
}

func (s *OfferService) refreshAndStore(ctx context.Context) ([]models.Offer, error) {
	offers := s.Refresh(ctx, s.favorites.List())

	if err := s.cache.Store(offers); err != nil {
		s.log.WithError(err).Error("failed to persist offer cache")
		return offers, err
	}
	if err := s.favorites.MarkRefreshed(); err != nil {
		s.log.WithError(err).Error("failed to persist refresh bookkeeping")
		return offers, err
	}
	return offers, nil
}

// Refresh fans out across the favorite dealers concurrently and flattens
// everything they contribute. A failing dealer or catalog is logged and
// contributes nothing; it never aborts its siblings. The result carries
// no ordering guarantee.
func (s *OfferService) Refresh(ctx context.Context, favorites []dealers.Dealer) []models.Offer {
	allOffers := make([]models.Offer, 0)
	var wg sync.WaitGroup
	var mu sync.Mutex

	addOffers := func(offers []models.Offer, dealer dealers.Dealer) {
		mu.Lock()
		allOffers = append(allOffers, offers...)
		mu.Unlock()
		s.log.WithFields(logrus.Fields{
			"dealer": dealer.String(),
			"count":  len(offers),
		}).Info("dealer fetch completed")
	}

	for _, dealer := range favorites {
		wg.Add(1)
		go func(dealer dealers.Dealer) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.WithField("dealer", dealer.String()).Errorf("dealer fetch panic recovered: %v", r)
				}
			}()

			addOffers(s.offersForDealer(ctx, dealer), dealer)
		}(dealer)
	}

	wg.Wait()

	s.log.WithField("total", len(allOffers)).Info("refresh completed")
	return allOffers
}

// offersForDealer fetches the dealer's catalogs, then fans out once more
// with one task per catalog.
func (s *OfferService) offersForDealer(ctx context.Context, dealer dealers.Dealer) []models.Offer {
	catalogs, err := s.client.FetchCatalogs(ctx, dealer)
	if err != nil {
		s.log.WithError(err).WithField("dealer", dealer.String()).Warn("dealer contributes nothing this cycle")
		return nil
	}

	var mu sync.Mutex
	var offers []models.Offer

	g, ctx := errgroup.WithContext(ctx)
	for _, catalog := range catalogs {
		catalog := catalog
		g.Go(func() error {
			records, err := s.client.FetchHotspots(ctx, catalog)
			if err != nil {
				// Best effort: a broken catalog must not abort the refresh.
				s.log.WithError(err).WithField("catalog", catalog.ID).Warn("catalog contributes nothing this cycle")
				return nil
			}

			batch := make([]models.Offer, 0, len(records))
			for _, raw := range records {
				offer, err := normalize.Normalize(raw, dealer)
				if err != nil {
					s.log.WithError(err).WithField("catalog", catalog.ID).Debug("skipping unparsable offer record")
					continue
				}
				batch = append(batch, offer)
			}

			mu.Lock()
			offers = append(offers, batch...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return offers
}
