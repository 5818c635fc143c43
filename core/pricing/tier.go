// Package pricing scores usage against tiered price rows and accumulates
// the resulting line items into a PricingResult.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"pricecalc/internal/errors"
)

// Infinity is the end-range spelling the price lists use for an open top tier
const Infinity = "Inf"

// TierRow is one raw price row as a store returns it. Ranges and prices are
// kept as the source strings; an empty BeginRange means 0 and an empty or
// "Inf" EndRange means unbounded.
type TierRow struct {
	BeginRange       string            `json:"beginRange"`
	EndRange         string            `json:"endRange"`
	PricePerUnit     string            `json:"pricePerUnit"`
	PriceDescription string            `json:"priceDescription"`
	RateCode         string            `json:"rateCode"`
	Unit             string            `json:"unit,omitempty"`
	Attributes       map[string]string `json:"attributes,omitempty"`
}

// PriceDimension is one parsed tier of a SKU's pricing schedule
type PriceDimension struct {
	// BeginRange is the inclusive lower bound
	BeginRange decimal.Decimal

	// EndRange is the upper bound; nil means unbounded
	EndRange *decimal.Decimal

	// PricePerUnit is the USD price per unit in this tier
	PricePerUnit decimal.Decimal

	PriceDescription string
	RateCode         string
	Unit             string
}

// Unbounded reports whether this is an open-ended top tier
func (d PriceDimension) Unbounded() bool {
	return d.EndRange == nil
}

// ParseTier converts a raw row into a PriceDimension, rejecting negative or
// inverted bounds and negative prices.
func ParseTier(row TierRow) (PriceDimension, error) {
	dim := PriceDimension{
		PriceDescription: row.PriceDescription,
		RateCode:         row.RateCode,
		Unit:             row.Unit,
	}

	begin := strings.TrimSpace(row.BeginRange)
	if begin == "" {
		dim.BeginRange = decimal.Zero
	} else {
		d, err := decimal.NewFromString(begin)
		if err != nil {
			return PriceDimension{}, errors.InvalidRange("rate %s: malformed begin range %q", row.RateCode, row.BeginRange)
		}
		dim.BeginRange = d
	}
	if dim.BeginRange.IsNegative() {
		return PriceDimension{}, errors.InvalidRange("rate %s: negative begin range %s", row.RateCode, dim.BeginRange)
	}

	end := strings.TrimSpace(row.EndRange)
	if end != "" && !strings.EqualFold(end, Infinity) {
		d, err := decimal.NewFromString(end)
		if err != nil {
			return PriceDimension{}, errors.InvalidRange("rate %s: malformed end range %q", row.RateCode, row.EndRange)
		}
		if d.LessThan(dim.BeginRange) {
			return PriceDimension{}, errors.InvalidRange("rate %s: end range %s is below begin range %s", row.RateCode, d, dim.BeginRange)
		}
		dim.EndRange = &d
	}

	price, err := decimal.NewFromString(strings.TrimSpace(row.PricePerUnit))
	if err != nil {
		return PriceDimension{}, errors.InvalidRange("rate %s: malformed price per unit %q", row.RateCode, row.PricePerUnit)
	}
	if price.IsNegative() {
		return PriceDimension{}, errors.InvalidRange("rate %s: negative price per unit %s", row.RateCode, price)
	}
	dim.PricePerUnit = price

	return dim, nil
}
