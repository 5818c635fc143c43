// Package partition derives the shard keys a pricing query has to open.
//
// A key is the ordered tuple (region, term, product family) for on-demand
// style terms, or (region, term, product family, offering class, tenancy,
// purchase option) for the reserved term, with whitespace stripped from every
// code and the codes joined by Separator.
package partition

import (
	"strings"

	"pricecalc/core/dimensions"
	"pricecalc/internal/errors"
)

// Separator joins the codes of a key. No canonical code may contain it, so
// two different tuples can never encode to the same key.
const Separator = "_"

// Key identifies one shard of the price dataset
type Key string

// String implements fmt.Stringer
func (k Key) String() string {
	return string(k)
}

// Extra narrows the reserved-term dimensions. A nil or empty slice means
// every canonical value of that dimension. Values are human-facing keys
// (e.g. "partial-upfront"), mapped through the dimension set.
type Extra struct {
	OfferingClasses []string
	Tenancies       []string
	PurchaseOptions []string
}

// Generator enumerates partition keys over a fixed dimension set
type Generator struct {
	dims *dimensions.Set
}

// NewGenerator validates that every code in dims can be encoded without
// ambiguity and returns a generator over it.
func NewGenerator(dims *dimensions.Set) (*Generator, error) {
	if dims == nil {
		return nil, errors.New(errors.TypeConfig, "partition generator needs a dimension set")
	}
	if err := dims.Validate(); err != nil {
		return nil, err
	}

	for _, m := range []*dimensions.Map{dims.Regions, dims.Terms, dims.OfferingClasses, dims.Tenancies, dims.PurchaseOptions} {
		if err := checkEncodable(string(m.Dimension()), m.Codes()); err != nil {
			return nil, err
		}
	}
	if err := checkEncodable("product family", dims.ProductFamilies); err != nil {
		return nil, err
	}

	return &Generator{dims: dims}, nil
}

// Keys returns every partition key that could back a query. An empty region
// or term means "all". Keys come back in a stable order: region, term,
// product family, then offering class, tenancy and purchase option.
func (g *Generator) Keys(region, term string, extra Extra) ([]Key, error) {
	regions, err := g.restrict(g.dims.Regions, region)
	if err != nil {
		return nil, err
	}
	terms, err := g.restrict(g.dims.Terms, term)
	if err != nil {
		return nil, err
	}

	offeringClasses, err := g.override(g.dims.OfferingClasses, extra.OfferingClasses)
	if err != nil {
		return nil, err
	}
	tenancies, err := g.override(g.dims.Tenancies, extra.Tenancies)
	if err != nil {
		return nil, err
	}
	purchaseOptions, err := g.override(g.dims.PurchaseOptions, extra.PurchaseOptions)
	if err != nil {
		return nil, err
	}

	var keys []Key
	for _, r := range regions {
		for _, t := range terms {
			for _, pf := range g.dims.ProductFamilies {
				if t != g.dims.ReservedTerm {
					keys = append(keys, Encode(r, t, pf))
					continue
				}
				// Reserved capacity is sharded further by how it was bought
				for _, oc := range offeringClasses {
					for _, ten := range tenancies {
						for _, po := range purchaseOptions {
							keys = append(keys, Encode(r, t, pf, oc, ten, po))
						}
					}
				}
			}
		}
	}

	return keys, nil
}

// Encode serializes an ordered tuple of canonical codes into a key.
func Encode(codes ...string) Key {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = stripSpace(c)
	}
	return Key(strings.Join(parts, Separator))
}

func (g *Generator) restrict(m *dimensions.Map, value string) ([]string, error) {
	if value == "" {
		return m.Codes(), nil
	}
	code, err := m.Code(value)
	if err != nil {
		return nil, err
	}
	return []string{code}, nil
}

func (g *Generator) override(m *dimensions.Map, values []string) ([]string, error) {
	if len(values) == 0 {
		return m.Codes(), nil
	}

	seen := make(map[string]bool, len(values))
	codes := make([]string, 0, len(values))
	for _, v := range values {
		code, err := m.Code(v)
		if err != nil {
			return nil, err
		}
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}
	return codes, nil
}

func checkEncodable(dimension string, codes []string) error {
	stripped := make(map[string]string, len(codes))
	for _, c := range codes {
		s := stripSpace(c)
		if s == "" {
			return errors.Newf(errors.TypeConfig, "%s code %q is blank", dimension, c)
		}
		if strings.Contains(s, Separator) {
			return errors.Newf(errors.TypeConfig, "%s code %q contains the key separator %q", dimension, c, Separator)
		}
		if other, dup := stripped[s]; dup {
			return errors.Newf(errors.TypeConfig, "%s codes %q and %q collide once whitespace is removed", dimension, other, c)
		}
		stripped[s] = c
	}
	return nil
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
