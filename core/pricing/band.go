package pricing

import (
	"github.com/shopspring/decimal"

	"pricecalc/internal/errors"
)

// Band is the part of a usage amount that falls inside one tier
type Band struct {
	BillableUnits decimal.Decimal
	UnitPrice     decimal.Decimal
	Charge        decimal.Decimal
}

// Billable reports whether any usage landed in the tier
func (b Band) Billable() bool {
	return b.BillableUnits.IsPositive()
}

// ScoreBand computes how much of usage falls inside tier and what it costs.
//
// For an unbounded tier every unit above BeginRange is billable. For a finite
// tier, usage in (begin, end] bills usage-begin and usage above end bills the
// whole tier width. Usage at or below begin bills nothing. The charge is not
// rounded.
func ScoreBand(tier PriceDimension, usage decimal.Decimal) (Band, error) {
	if usage.IsNegative() {
		return Band{}, errors.InvalidUsage("usage amount " + usage.String() + " is negative")
	}
	if tier.BeginRange.IsNegative() {
		return Band{}, errors.InvalidRange("rate %s: negative begin range %s", tier.RateCode, tier.BeginRange)
	}
	if tier.EndRange != nil && tier.EndRange.LessThan(tier.BeginRange) {
		return Band{}, errors.InvalidRange("rate %s: end range %s is below begin range %s", tier.RateCode, *tier.EndRange, tier.BeginRange)
	}

	begin := tier.BeginRange
	units := decimal.Zero

	switch {
	case tier.EndRange == nil:
		if begin.LessThan(usage) {
			units = usage.Sub(begin)
		}
	case begin.LessThan(usage) && usage.LessThanOrEqual(*tier.EndRange):
		units = usage.Sub(begin)
	case usage.GreaterThan(*tier.EndRange):
		units = tier.EndRange.Sub(begin)
	}

	band := Band{
		BillableUnits: units,
		UnitPrice:     tier.PricePerUnit,
		Charge:        decimal.Zero,
	}
	if units.IsPositive() {
		band.Charge = units.Mul(tier.PricePerUnit)
	}
	return band, nil
}
