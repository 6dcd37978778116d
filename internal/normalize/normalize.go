// Package normalize converts raw wire offer records into canonical
// Offers with SI-converted sizes and a comparable cost-per-unit figure.
package normalize

import (
	"fmt"
	"math"
	"strings"

	"offer-aggregator-api/internal/dealers"
	"offer-aggregator-api/internal/models"
)

// UndefinedCost is the cost-per-unit sentinel for offers whose size or
// piece count is zero. MaxFloat64 rather than +Inf so the value survives
// the JSON offer cache, and so undefined costs sort last under ascending
// cost ordering.
const UndefinedCost = math.MaxFloat64

// Normalize reshapes one raw record from a dealer's catalog into a
// canonical Offer. Sizes are multiplied by the unit's SI factor and the
// cost per unit is fixed here, never recomputed later. The run dates
// keep only the calendar-day part of the wire timestamps.
func Normalize(raw models.RawOfferRecord, dealer dealers.Dealer) (models.Offer, error) {
	factor := raw.Qty.Unit.SI.Factor
	minSize := raw.Qty.Size.From * factor
	maxSize := raw.Qty.Size.To * factor

	costPerUnit := UndefinedCost
	if maxSize != 0 && raw.Qty.Pieces.To != 0 {
		costPerUnit = raw.Pricing.Price / maxSize / float64(raw.Qty.Pieces.To)
	}

	runFrom, err := dateOf(raw.RunFrom)
	if err != nil {
		return models.Offer{}, fmt.Errorf("offer %q run_from: %w", raw.Heading, err)
	}
	runTill, err := dateOf(raw.RunTill)
	if err != nil {
		return models.Offer{}, fmt.Errorf("offer %q run_till: %w", raw.Heading, err)
	}

	return models.Offer{
		ID:          raw.ID,
		Name:        raw.Heading,
		Dealer:      dealer,
		Price:       raw.Pricing.Price,
		CostPerUnit: costPerUnit,
		Unit:        raw.Qty.Unit.SI.Symbol,
		MinSize:     minSize,
		MaxSize:     maxSize,
		MinAmount:   raw.Qty.Pieces.From,
		MaxAmount:   raw.Qty.Pieces.To,
		RunFrom:     runFrom,
		RunTill:     runTill,
	}, nil
}

// dateOf takes the date component preceding the time separator of an
// ISO timestamp, discarding time-of-day and zone.
func dateOf(timestamp string) (models.Date, error) {
	day, _, _ := strings.Cut(timestamp, "T")
	return models.ParseDate(day)
}
