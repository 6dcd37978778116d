package utils

import (
	"fmt"
	"math"
	"strconv"
)

// FormatPrice renders a price in kroner with two decimals.
func FormatPrice(price float64) string {
	return fmt.Sprintf("%.2f kr", price)
}

// FormatCostPerUnit renders a cost-per-unit figure, e.g. "10.00 kr/l".
// The undefined-cost sentinel renders as "n/a".
func FormatCostPerUnit(cost float64, unit string) string {
	if cost == math.MaxFloat64 {
		return fmt.Sprintf("n/a kr/%s", unit)
	}
	return fmt.Sprintf("%.2f kr/%s", cost, unit)
}

// FormatSize renders a converted size. Whole sizes drop the decimals,
// fractional ones keep three.
func FormatSize(size float64) string {
	if size-math.Trunc(size) > 0.01 {
		return fmt.Sprintf("%.3f", size)
	}
	return strconv.FormatFloat(size, 'f', -1, 64)
}

// FormatSizeRange collapses equal bounds into a single figure.
func FormatSizeRange(minSize, maxSize float64, unit string) string {
	if maxSize-minSize < 0.001 {
		return fmt.Sprintf("%s %s", FormatSize(minSize), unit)
	}
	return fmt.Sprintf("%s-%s %s", FormatSize(minSize), FormatSize(maxSize), unit)
}

// FormatCountRange renders a piece-count range, collapsing equal bounds.
func FormatCountRange(minAmount, maxAmount int) string {
	if minAmount == maxAmount {
		return strconv.Itoa(minAmount)
	}
	return fmt.Sprintf("%d-%d", minAmount, maxAmount)
}
