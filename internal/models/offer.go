package models

import (
	"fmt"
	"time"

	"offer-aggregator-api/internal/dealers"
	"offer-aggregator-api/pkg/utils"
)

// Offer is the canonical, normalized form of one promotional offer.
// Sizes are already converted into the SI base unit of the offer's unit
// symbol and CostPerUnit is computed once at normalization time.
type Offer struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Dealer      dealers.Dealer `json:"dealer"`
	Price       float64        `json:"price"`
	CostPerUnit float64        `json:"cost_per_unit"`
	Unit        string         `json:"unit"`
	MinSize     float64        `json:"min_size"`
	MaxSize     float64        `json:"max_size"`
	MinAmount   int            `json:"min_amount"`
	MaxAmount   int            `json:"max_amount"`
	RunFrom     Date           `json:"run_from"`
	RunTill     Date           `json:"run_till"`
}

// Same reports whether two offers describe the same promotion: matching
// ids, or, when no id is available, a matching (dealer, name, run_from,
// run_till) tuple.
func (o Offer) Same(other Offer) bool {
	if o.ID != "" && o.ID == other.ID {
		return true
	}
	return o.Dealer == other.Dealer &&
		o.Name == other.Name &&
		o.RunFrom.Equal(other.RunFrom) &&
		o.RunTill.Equal(other.RunTill)
}

func (o Offer) String() string {
	return fmt.Sprintf("%s - %s - %s: %s: %s - %s - %s",
		o.RunFrom.Format("02/01"),
		o.RunTill.Format("02/01"),
		o.Dealer,
		o.Name,
		utils.FormatPrice(o.Price),
		utils.FormatCostPerUnit(o.CostPerUnit, o.Unit),
		utils.FormatSizeRange(o.MinSize, o.MaxSize, o.Unit),
	)
}

// CacheRecord is the most recently acquired offer set plus the moment it
// was fetched. A refresh always replaces the whole record.
type CacheRecord struct {
	Offers    []Offer   `json:"offers"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Catalog is one currently published, time-boxed offer collection of a
// dealer, as listed by the catalog endpoint.
type Catalog struct {
	ID     string        `json:"id"`
	Dealer CatalogDealer `json:"dealer"`
}

type CatalogDealer struct {
	Name string `json:"name"`
}

// Hotspot wraps one raw offer record inside a catalog's hotspot listing.
type Hotspot struct {
	Offer RawOfferRecord `json:"offer"`
}

// RawOfferRecord is the wire shape of one offer as the hotspot endpoint
// returns it, before normalization.
type RawOfferRecord struct {
	ID      string   `json:"id"`
	Heading string   `json:"heading"`
	Pricing Pricing  `json:"pricing"`
	RunFrom string   `json:"run_from"`
	RunTill string   `json:"run_till"`
	Qty     Quantity `json:"quantity"`
}

type Pricing struct {
	Price float64 `json:"price"`
}

type Quantity struct {
	Pieces PieceRange `json:"pieces"`
	Size   SizeRange  `json:"size"`
	Unit   UnitInfo   `json:"unit"`
}

type PieceRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

type SizeRange struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

type UnitInfo struct {
	SI SIUnit `json:"si"`
}

// SIUnit carries the display symbol and the multiplicative factor that
// converts a dealer-declared size into the SI base unit.
type SIUnit struct {
	Symbol string  `json:"symbol"`
	Factor float64 `json:"factor"`
}

// SearchResponse is the envelope returned by the search and offers
// endpoints.
type SearchResponse struct {
	Terms          []string `json:"terms,omitempty"`
	ByDealer       bool     `json:"by_dealer,omitempty"`
	Offers         []Offer  `json:"offers"`
	Total          int      `json:"total"`
	UnmatchedTerms []string `json:"unmatched_terms,omitempty"`
	Source         string   `json:"source"`
	Warning        string   `json:"warning,omitempty"`
	Duration       string   `json:"duration"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
