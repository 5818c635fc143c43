package awsapi

import (
	"encoding/json"
	"sort"

	"pricecalc/core/dimensions"
	"pricecalc/core/partition"
	"pricecalc/core/pricing"
	"pricecalc/internal/errors"
)

// Currency is the price currency read from pricePerUnit
const Currency = "USD"

// Attribute names the store adds to product attributes
const (
	AttrSKU           = "sku"
	AttrProductFamily = "productFamily"
	AttrTermType      = "termType"
	AttrLocation      = "location"
	AttrFromLocation  = "fromLocation"
	AttrTenancy       = "tenancy"
	AttrOfferingClass = "OfferingClass"
	AttrPurchaseOpt   = "PurchaseOption"
)

// PriceItem is one document from a GetProducts price list
type PriceItem struct {
	ServiceCode string                     `json:"serviceCode"`
	Product     Product                    `json:"product"`
	Terms       map[string]map[string]Term `json:"terms"`
	Version     string                     `json:"version"`
}

// Product is the SKU being priced
type Product struct {
	SKU           string            `json:"sku"`
	ProductFamily string            `json:"productFamily"`
	Attributes    map[string]string `json:"attributes"`
}

// Term is one offer for a product, e.g. a 1yr no-upfront reservation
type Term struct {
	OfferTermCode   string                    `json:"offerTermCode"`
	SKU             string                    `json:"sku"`
	EffectiveDate   string                    `json:"effectiveDate"`
	PriceDimensions map[string]PriceDimension `json:"priceDimensions"`
	TermAttributes  map[string]string         `json:"termAttributes"`
}

// PriceDimension is one tier of a term
type PriceDimension struct {
	RateCode     string            `json:"rateCode"`
	Description  string            `json:"description"`
	BeginRange   string            `json:"beginRange"`
	EndRange     string            `json:"endRange"`
	Unit         string            `json:"unit"`
	PricePerUnit map[string]string `json:"pricePerUnit"`
	AppliesTo    []string          `json:"appliesTo"`
}

// ParsePriceItem decodes one price list entry
func ParsePriceItem(doc string) (*PriceItem, error) {
	var item PriceItem
	if err := json.Unmarshal([]byte(doc), &item); err != nil {
		return nil, errors.Parsing("decode price list entry", err)
	}
	return &item, nil
}

// Rows flattens the item into one row per term and price dimension, in
// term-type, offer and rate code order. Each row carries its partition key.
func (p *PriceItem) Rows() []KeyedRow {
	var rows []KeyedRow
	for _, termType := range sortedKeys(p.Terms) {
		offers := p.Terms[termType]
		for _, offerCode := range sortedKeys(offers) {
			term := offers[offerCode]
			attrs := p.attributes(termType, term)
			key := rowKey(attrs)

			for _, rateCode := range sortedKeys(term.PriceDimensions) {
				dim := term.PriceDimensions[rateCode]
				rows = append(rows, KeyedRow{
					Key: key,
					Row: pricing.TierRow{
						BeginRange:       dim.BeginRange,
						EndRange:         dim.EndRange,
						PricePerUnit:     dim.PricePerUnit[Currency],
						PriceDescription: dim.Description,
						RateCode:         dim.RateCode,
						Unit:             dim.Unit,
						Attributes:       attrs,
					},
				})
			}
		}
	}
	return rows
}

// KeyedRow is a price row and the shard it belongs to
type KeyedRow struct {
	Key partition.Key
	Row pricing.TierRow
}

func (p *PriceItem) attributes(termType string, term Term) map[string]string {
	attrs := make(map[string]string, len(p.Product.Attributes)+len(term.TermAttributes)+3)
	for k, v := range p.Product.Attributes {
		attrs[k] = v
	}
	for k, v := range term.TermAttributes {
		attrs[k] = v
	}
	attrs[AttrSKU] = p.Product.SKU
	attrs[AttrProductFamily] = p.Product.ProductFamily
	attrs[AttrTermType] = termType
	return attrs
}

// rowKey places a row in its partition. Data Transfer products have no
// location; they are keyed by the region the traffic leaves.
func rowKey(attrs map[string]string) partition.Key {
	location := attrs[AttrLocation]
	if location == "" {
		location = attrs[AttrFromLocation]
	}
	codes := []string{location, attrs[AttrTermType], attrs[AttrProductFamily]}
	if attrs[AttrTermType] == dimensions.ReservedTermCode {
		codes = append(codes, attrs[AttrOfferingClass], attrs[AttrTenancy], attrs[AttrPurchaseOpt])
	}
	return partition.Encode(codes...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
