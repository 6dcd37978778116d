package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"offer-aggregator-api/internal/dealers"
	"offer-aggregator-api/internal/models"
	"offer-aggregator-api/pkg/cache"
)

// SearchService runs term-based searches over the current offer set,
// with an optional Redis cache in front of the whole response.
type SearchService struct {
	offers *OfferService
	cache  *cache.RedisCache
	log    *logrus.Entry
}

func NewSearchService(offers *OfferService, redisCache *cache.RedisCache, log *logrus.Logger) *SearchService {
	return &SearchService{
		offers: offers,
		cache:  redisCache,
		log:    log.WithField("component", "search_service"),
	}
}

// Search resolves the offer set (cached or freshly fetched), filters it
// by the given terms and applies the requested presentation ordering.
func (s *SearchService) Search(ctx context.Context, terms []string, byDealer bool, sortField, sortOrder string) (*models.SearchResponse, error) {
	startTime := time.Now()

	if err := validateSort(sortField, sortOrder); err != nil {
		return nil, err
	}

	cacheKey := ""
	if s.cache.IsAvailable() {
		cacheKey = s.cache.SearchKey(terms, byDealer, sortField, sortOrder)
		if cached, err := s.cache.GetSearchResults(ctx, cacheKey); err == nil && cached != nil {
			cached.Duration = fmt.Sprintf("%s (cached)", time.Since(startTime).String())
			s.log.WithField("key", cacheKey).Debug("response cache hit")
			return cached, nil
		}
	}

	offers, refreshed, persistErr := s.offers.GetOffers(ctx)
	matched, unmatched := Filter(offers, terms, byDealer)
	for _, term := range unmatched {
		s.log.WithField("term", term).Warn("search term did not match any known dealer")
	}

	if sortField != "" {
		SortOffers(matched, sortField, sortOrder)
	}

	source := "cache"
	if refreshed {
		source = "remote"
	}

	response := &models.SearchResponse{
		Terms:          terms,
		ByDealer:       byDealer,
		Offers:         matched,
		Total:          len(matched),
		UnmatchedTerms: unmatched,
		Source:         source,
		Duration:       time.Since(startTime).String(),
	}
	if persistErr != nil {
		response.Warning = fmt.Sprintf("results could not be saved for the next run: %v", persistErr)
	}

	if s.cache.IsAvailable() && cacheKey != "" {
		if err := s.cache.SetSearchResults(ctx, cacheKey, response); err != nil {
			s.log.WithError(err).Debug("failed to cache search response")
		}
	}

	return response, nil
}

// Filter keeps the offers matching any of the terms. With byDealer set,
// each term is parsed as a dealer name and matched exactly; a term that
// parses to no known dealer is reported back and contributes nothing,
// without aborting the remaining terms. Otherwise terms match as
// case-insensitive, trimmed substrings of the offer name. Per-term
// matches are unioned and deduplicated. An empty term list returns the
// input unchanged.
func Filter(offers []models.Offer, terms []string, byDealer bool) (matched []models.Offer, unmatched []string) {
	if len(terms) == 0 {
		return offers, nil
	}

	perTerm := make([][]models.Offer, 0, len(terms))
	for _, term := range terms {
		if byDealer {
			dealer, err := dealers.Parse(term)
			if err != nil {
				unmatched = append(unmatched, term)
				continue
			}
			perTerm = append(perTerm, lo.Filter(offers, func(o models.Offer, _ int) bool {
				return o.Dealer == dealer
			}))
			continue
		}

		needle := strings.ToLower(strings.TrimSpace(term))
		perTerm = append(perTerm, lo.Filter(offers, func(o models.Offer, _ int) bool {
			return strings.Contains(strings.ToLower(o.Name), needle)
		}))
	}

	return Dedup(lo.Flatten(perTerm)), unmatched
}

// Dedup sorts offers by (name, dealer) and removes adjacent duplicates
// under the Offer identity contract. Overlapping search terms produce
// repeats; this collapses them. Idempotent.
func Dedup(offers []models.Offer) []models.Offer {
	out := make([]models.Offer, len(offers))
	copy(out, offers)

	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Dealer < out[j].Dealer
	})

	deduped := out[:0]
	for _, offer := range out {
		if len(deduped) > 0 && deduped[len(deduped)-1].Same(offer) {
			continue
		}
		deduped = append(deduped, offer)
	}
	return deduped
}

// SortOffers orders offers in place for presentation. Valid fields are
// cost, price and name; valid orders asc and desc.
func SortOffers(offers []models.Offer, field, order string) {
	sort.Slice(offers, func(i, j int) bool {
		switch field {
		case "cost":
			if order == "desc" {
				return offers[i].CostPerUnit > offers[j].CostPerUnit
			}
			return offers[i].CostPerUnit < offers[j].CostPerUnit

		case "price":
			if order == "desc" {
				return offers[i].Price > offers[j].Price
			}
			return offers[i].Price < offers[j].Price

		case "name":
			if order == "desc" {
				return offers[i].Name > offers[j].Name
			}
			return offers[i].Name < offers[j].Name

		default:
			return false
		}
	})
}

func validateSort(field, order string) error {
	if field == "" {
		return nil
	}

	validFields := []string{"cost", "price", "name"}

	if !lo.Contains(validFields, field) {
		return fmt.Errorf("invalid sort field: %s. Valid fields: %s", field, strings.Join(validFields, ", "))
	}
	if order != "" && order != "asc" && order != "desc" {
		return fmt.Errorf("invalid sort order: %s. Valid orders: asc, desc", order)
	}
	return nil
}
