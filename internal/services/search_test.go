package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"offer-aggregator-api/internal/dealers"
	"offer-aggregator-api/internal/models"
	"offer-aggregator-api/internal/services"
)

func mustDate(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func sampleOffers(t *testing.T) []models.Offer {
	t.Helper()
	from := mustDate(t, "2024-01-01")
	till := mustDate(t, "2024-01-08")

	return []models.Offer{
		{ID: "1", Name: "Skummetmælk", Dealer: dealers.Netto, Price: 10, CostPerUnit: 10, Unit: "l", RunFrom: from, RunTill: till},
		{ID: "2", Name: "Letmælk", Dealer: dealers.Bilka, Price: 12, CostPerUnit: 12, Unit: "l", RunFrom: from, RunTill: till},
		{ID: "3", Name: "Rugbrød", Dealer: dealers.Netto, Price: 18, CostPerUnit: 22.5, Unit: "kg", RunFrom: from, RunTill: till},
		{ID: "4", Name: "Smør", Dealer: dealers.Lidl, Price: 22, CostPerUnit: 88, Unit: "kg", RunFrom: from, RunTill: till},
	}
}

func TestFilterEmptyTermsReturnsInput(t *testing.T) {
	rq := require.New(t)
	offers := sampleOffers(t)

	matched, unmatched := services.Filter(offers, nil, false)
	rq.Equal(offers, matched)
	rq.Empty(unmatched)
}

func TestFilterNameSubstringCaseInsensitive(t *testing.T) {
	rq := require.New(t)
	offers := sampleOffers(t)

	matched, unmatched := services.Filter(offers, []string{"MÆLK"}, false)
	rq.Empty(unmatched)
	rq.Len(matched, 2)
	for _, o := range matched {
		rq.Contains([]string{"Skummetmælk", "Letmælk"}, o.Name)
	}

	matched, _ = services.Filter(offers, []string{"  smør "}, false)
	rq.Len(matched, 1)
	rq.Equal("Smør", matched[0].Name)
}

func TestFilterUnionsOverlappingTermsWithoutDuplicates(t *testing.T) {
	rq := require.New(t)
	offers := sampleOffers(t)

	// "mælk" and "let" both match Letmælk; the union must carry it once.
	matched, _ := services.Filter(offers, []string{"mælk", "let"}, false)
	rq.Len(matched, 2)
}

func TestFilterByDealer(t *testing.T) {
	rq := require.New(t)
	offers := sampleOffers(t)

	matched, unmatched := services.Filter(offers, []string{"netto"}, true)
	rq.Empty(unmatched)
	rq.Len(matched, 2)
	for _, o := range matched {
		rq.Equal(dealers.Netto, o.Dealer)
	}
}

func TestFilterByDealerReportsUnknownTermsAndContinues(t *testing.T) {
	rq := require.New(t)
	offers := sampleOffers(t)

	matched, unmatched := services.Filter(offers, []string{"walmart", "lidl"}, true)
	rq.Equal([]string{"walmart"}, unmatched)
	rq.Len(matched, 1)
	rq.Equal(dealers.Lidl, matched[0].Dealer)
}

func TestDedupCollapsesById(t *testing.T) {
	rq := require.New(t)
	offers := sampleOffers(t)
	doubled := append(append([]models.Offer{}, offers...), offers...)

	deduped := services.Dedup(doubled)
	rq.Len(deduped, len(offers))
}

func TestDedupCollapsesByTupleWithoutIds(t *testing.T) {
	rq := require.New(t)
	from := mustDate(t, "2024-02-01")
	till := mustDate(t, "2024-02-07")

	a := models.Offer{Name: "Kaffe", Dealer: dealers.Meny, RunFrom: from, RunTill: till, Price: 50}
	b := a // same (dealer, name, run_from, run_till), no id
	c := a
	c.Name = "Te"

	deduped := services.Dedup([]models.Offer{a, b, c})
	rq.Len(deduped, 2)
}

func TestDedupIdempotent(t *testing.T) {
	rq := require.New(t)
	offers := sampleOffers(t)
	doubled := append(append([]models.Offer{}, offers...), offers...)

	once := services.Dedup(doubled)
	twice := services.Dedup(once)
	rq.Equal(once, twice)
}

func TestDedupOrdersByNameThenDealer(t *testing.T) {
	rq := require.New(t)
	offers := sampleOffers(t)

	deduped := services.Dedup(offers)
	for i := 1; i < len(deduped); i++ {
		prev, cur := deduped[i-1], deduped[i]
		rq.True(prev.Name < cur.Name || (prev.Name == cur.Name && prev.Dealer <= cur.Dealer))
	}
}

func TestSortOffersByCost(t *testing.T) {
	rq := require.New(t)
	offers := sampleOffers(t)

	services.SortOffers(offers, "cost", "asc")
	for i := 1; i < len(offers); i++ {
		rq.LessOrEqual(offers[i-1].CostPerUnit, offers[i].CostPerUnit)
	}

	services.SortOffers(offers, "cost", "desc")
	for i := 1; i < len(offers); i++ {
		rq.GreaterOrEqual(offers[i-1].CostPerUnit, offers[i].CostPerUnit)
	}
}

func TestSortOffersByName(t *testing.T) {
	rq := require.New(t)
	offers := sampleOffers(t)

	services.SortOffers(offers, "name", "asc")
	for i := 1; i < len(offers); i++ {
		rq.LessOrEqual(offers[i-1].Name, offers[i].Name)
	}
}
