package pricing

import (
	"github.com/shopspring/decimal"
)

// AmountPlaces is the number of decimal places a record's amount is rounded to
const AmountPlaces = 4

// PricingRecord is one line item: a tier that contributed a non-zero charge
type PricingRecord struct {
	Service          string          `json:"service"`
	Amount           decimal.Decimal `json:"amount"`
	PriceDescription string          `json:"priceDescription"`
	PricePerUnit     decimal.Decimal `json:"pricePerUnit"`
	Usage            decimal.Decimal `json:"usage"`
	RateCode         string          `json:"rateCode"`
}

// NewPricingRecord materializes a scored band, rounding the amount
func NewPricingRecord(service string, tier PriceDimension, band Band) PricingRecord {
	return PricingRecord{
		Service:          service,
		Amount:           band.Charge.Round(AmountPlaces),
		PriceDescription: tier.PriceDescription,
		PricePerUnit:     band.UnitPrice,
		Usage:            band.BillableUnits,
		RateCode:         tier.RateCode,
	}
}

// PricingResult is the running total and line items of one or more queries.
// The zero value is an empty result. Methods never mutate the receiver's
// backing arrays, so a result handed to a fold stays valid if the fold fails.
type PricingResult struct {
	TotalCost      decimal.Decimal `json:"totalCost"`
	PricingRecords []PricingRecord `json:"pricingRecords"`
}

// Len returns the number of line items
func (r PricingResult) Len() int {
	return len(r.PricingRecords)
}

// Merge returns the combination of r and other; other's records follow r's.
func (r PricingResult) Merge(other PricingResult) PricingResult {
	records := make([]PricingRecord, 0, len(r.PricingRecords)+len(other.PricingRecords))
	records = append(records, r.PricingRecords...)
	records = append(records, other.PricingRecords...)
	return PricingResult{
		TotalCost:      r.TotalCost.Add(other.TotalCost),
		PricingRecords: records,
	}
}
