// Package report turns priced line items into a SKU table.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"pricecalc/core/pricing"
)

// Header is the column header of a SKU table
const Header = "Price | Description | Price Per Unit | Usage | Rate Code"

// DefaultCurrency prefixes every amount
const DefaultCurrency = "$"

// Table is a rendered SKU breakdown
type Table struct {
	Header string
	Rows   []string
	Total  decimal.Decimal
}

// Records returns the rows as one newline-terminated block
func (t Table) Records() string {
	var b strings.Builder
	for _, r := range t.Rows {
		b.WriteString(r)
		b.WriteByte('\n')
	}
	return b.String()
}

// WriteTo writes the header and rows to w
func (t Table) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, t.Header+"\n"+t.Records())
	return int64(n), err
}

// Builder renders SKU tables
type Builder struct {
	// Currency prefixes each amount; empty means DefaultCurrency
	Currency string
}

// BuildTable renders records with the default currency
func BuildTable(records []pricing.PricingRecord) Table {
	return Builder{}.Build(records)
}

// Build sorts a copy of records by (amount, description, unit price, usage,
// rate code) ascending, renders one pipe-delimited row per record and sums
// the amounts.
func (b Builder) Build(records []pricing.PricingRecord) Table {
	currency := b.Currency
	if currency == "" {
		currency = DefaultCurrency
	}

	sorted := make([]pricing.PricingRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})

	table := Table{
		Header: Header,
		Rows:   make([]string, len(sorted)),
		Total:  decimal.Zero,
	}
	for i, r := range sorted {
		table.Rows[i] = fmt.Sprintf("%s%s|%s|%s|%s|%s",
			currency, r.Amount, r.PriceDescription, r.PricePerUnit, r.Usage, r.RateCode)
		table.Total = table.Total.Add(r.Amount)
	}
	return table
}

func less(a, b pricing.PricingRecord) bool {
	if c := a.Amount.Cmp(b.Amount); c != 0 {
		return c < 0
	}
	if a.PriceDescription != b.PriceDescription {
		return a.PriceDescription < b.PriceDescription
	}
	if c := a.PricePerUnit.Cmp(b.PricePerUnit); c != 0 {
		return c < 0
	}
	if c := a.Usage.Cmp(b.Usage); c != 0 {
		return c < 0
	}
	return a.RateCode < b.RateCode
}
