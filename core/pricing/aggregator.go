package pricing

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pricecalc/internal/errors"
	"pricecalc/internal/logging"
)

// Fold scores every row against usage and returns acc extended with one
// record per billable tier. Tiers the usage never reaches add nothing. On
// error acc is returned unchanged.
func Fold(service string, rows []TierRow, usage decimal.Decimal, acc PricingResult) (PricingResult, error) {
	if usage.IsNegative() {
		return acc, errors.InvalidUsage("usage amount " + usage.String() + " is negative")
	}

	records := make([]PricingRecord, len(acc.PricingRecords), len(acc.PricingRecords)+len(rows))
	copy(records, acc.PricingRecords)
	total := acc.TotalCost

	for _, row := range rows {
		tier, err := ParseTier(row)
		if err != nil {
			return acc, err
		}
		band, err := ScoreBand(tier, usage)
		if err != nil {
			return acc, err
		}
		if !band.Billable() {
			continue
		}
		records = append(records, NewPricingRecord(service, tier, band))
		total = total.Add(band.Charge)
	}

	return PricingResult{TotalCost: total, PricingRecords: records}, nil
}

// PriceQuery runs q against store and folds the matching rows into acc.
// A query with no matching rows is a NoDataFound error; acc is returned
// unchanged in that case and on any other failure.
func PriceQuery(ctx context.Context, store Store, q Query, usage decimal.Decimal, acc PricingResult) (PricingResult, error) {
	rows, err := store.Search(ctx, q)
	if err != nil {
		var domainErr *errors.Error
		if errors.As(err, &domainErr) {
			return acc, err
		}
		return acc, errors.Store("search price rows for "+q.Service, err)
	}
	if len(rows) == 0 {
		return acc, errors.NoData(q.Service, q)
	}

	result, err := Fold(q.Service, rows, usage, acc)
	if err != nil {
		return acc, err
	}

	logging.Debug("priced query",
		zap.String("service", q.Service),
		zap.Stringer("query", q),
		zap.Int("rows", len(rows)),
		zap.Int("records", result.Len()-acc.Len()),
		zap.String("cost", result.TotalCost.Sub(acc.TotalCost).String()),
	)
	return result, nil
}
