package report

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"

	"pricecalc/core/pricing"
)

func record(amount, desc, price, usage, rate string) pricing.PricingRecord {
	return pricing.PricingRecord{
		Service:          "AmazonS3",
		Amount:           decimal.RequireFromString(amount),
		PriceDescription: desc,
		PricePerUnit:     decimal.RequireFromString(price),
		Usage:            decimal.RequireFromString(usage),
		RateCode:         rate,
	}
}

func TestBuildTableOrdersByAmount(t *testing.T) {
	records := []pricing.PricingRecord{
		record("30", "thirty", "3", "10", "R30"),
		record("10", "ten", "1", "10", "R10"),
		record("20", "twenty", "2", "10", "R20"),
	}

	table := BuildTable(records)

	want := []string{
		"$10|ten|1|10|R10",
		"$20|twenty|2|10|R20",
		"$30|thirty|3|10|R30",
	}
	if len(table.Rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(table.Rows))
	}
	for i := range want {
		if table.Rows[i] != want[i] {
			t.Errorf("row %d: expected %q, got %q", i, want[i], table.Rows[i])
		}
	}
	if !table.Total.Equal(decimal.NewFromInt(60)) {
		t.Errorf("expected total 60, got %s", table.Total)
	}
	if table.Header != Header {
		t.Errorf("unexpected header %q", table.Header)
	}

	// input order is left alone
	if records[0].RateCode != "R30" {
		t.Error("BuildTable reordered its input")
	}
}

func TestBuildTableTieBreakers(t *testing.T) {
	records := []pricing.PricingRecord{
		record("5", "b", "1", "5", "X"),
		record("5", "a", "2", "2.5", "Z"),
		record("5", "a", "1", "5", "Y"),
		record("5", "a", "1", "5", "W"),
	}

	table := BuildTable(records)

	want := []string{"$5|a|1|5|W", "$5|a|1|5|Y", "$5|a|2|2.5|Z", "$5|b|1|5|X"}
	for i := range want {
		if table.Rows[i] != want[i] {
			t.Errorf("row %d: expected %q, got %q", i, want[i], table.Rows[i])
		}
	}
}

func TestBuildTableEmpty(t *testing.T) {
	table := BuildTable(nil)

	if len(table.Rows) != 0 {
		t.Errorf("expected no rows, got %d", len(table.Rows))
	}
	if !table.Total.IsZero() {
		t.Errorf("expected zero total, got %s", table.Total)
	}
	if table.Records() != "" {
		t.Errorf("expected empty records block, got %q", table.Records())
	}
}

func TestBuilderCurrencyAndWriteTo(t *testing.T) {
	table := Builder{Currency: "€"}.Build([]pricing.PricingRecord{record("1.2345", "desc", "0.5", "2.469", "R")})

	var buf bytes.Buffer
	if _, err := table.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	want := Header + "\n€1.2345|desc|0.5|2.469|R\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}
