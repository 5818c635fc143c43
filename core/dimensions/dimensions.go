// Package dimensions holds the canonical vocabularies that price data is
// partitioned by: region, term type, offering class, tenancy, purchase option
// and the supported product families.
//
// A Set is built once at startup and is read-only afterwards, so it can be
// shared between goroutines without locking.
package dimensions

import (
	"fmt"

	"pricecalc/internal/errors"
)

// Dimension names a pricing dimension
type Dimension string

const (
	Region         Dimension = "region"
	Term           Dimension = "term"
	OfferingClass  Dimension = "offering class"
	Tenancy        Dimension = "tenancy"
	PurchaseOption Dimension = "purchase option"
)

// Entry maps one human-facing value to its canonical code
type Entry struct {
	Key  string
	Code string
}

// Map is an immutable, ordered mapping from human-facing values to canonical codes.
type Map struct {
	dimension Dimension
	entries   []Entry
	byKey     map[string]string
}

// NewMap builds a Map. Keys and codes must both be unique and non-empty.
func NewMap(dimension Dimension, entries ...Entry) (*Map, error) {
	m := &Map{
		dimension: dimension,
		entries:   make([]Entry, 0, len(entries)),
		byKey:     make(map[string]string, len(entries)),
	}

	codes := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Key == "" || e.Code == "" {
			return nil, errors.Newf(errors.TypeConfig, "%s map: empty key or code in entry %+v", dimension, e)
		}
		if _, dup := m.byKey[e.Key]; dup {
			return nil, errors.Newf(errors.TypeConfig, "%s map: duplicate key %q", dimension, e.Key)
		}
		if other, dup := codes[e.Code]; dup {
			return nil, errors.Newf(errors.TypeConfig, "%s map: code %q used by both %q and %q", dimension, e.Code, other, e.Key)
		}
		codes[e.Code] = e.Key
		m.byKey[e.Key] = e.Code
		m.entries = append(m.entries, e)
	}

	return m, nil
}

// MustMap is NewMap for static tables; it panics on an invalid table.
func MustMap(dimension Dimension, entries ...Entry) *Map {
	m, err := NewMap(dimension, entries...)
	if err != nil {
		panic(fmt.Sprintf("dimensions: %v", err))
	}
	return m
}

// Dimension returns which dimension this map describes
func (m *Map) Dimension() Dimension {
	return m.dimension
}

// Code returns the canonical code for key, or an UnknownDimensionValue error.
func (m *Map) Code(key string) (string, error) {
	code, ok := m.byKey[key]
	if !ok {
		return "", errors.UnknownDimension(string(m.dimension), key)
	}
	return code, nil
}

// Codes returns every canonical code in declaration order.
func (m *Map) Codes() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Code
	}
	return out
}

// Entries returns a copy of the map's entries in declaration order.
func (m *Map) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Len returns the number of entries
func (m *Map) Len() int {
	return len(m.entries)
}

// Set bundles every vocabulary the partition key generator needs.
type Set struct {
	Regions         *Map
	Terms           *Map
	OfferingClasses *Map
	Tenancies       *Map
	PurchaseOptions *Map

	// ProductFamilies is always iterated in full
	ProductFamilies []string

	// ReservedTerm is the term code that expands into offering class,
	// tenancy and purchase option
	ReservedTerm string
}

// Validate checks that the set is complete and self-consistent
func (s *Set) Validate() error {
	for _, m := range []*Map{s.Regions, s.Terms, s.OfferingClasses, s.Tenancies, s.PurchaseOptions} {
		if m == nil || m.Len() == 0 {
			return errors.New(errors.TypeConfig, "dimension set has a missing or empty map")
		}
	}
	if len(s.ProductFamilies) == 0 {
		return errors.New(errors.TypeConfig, "dimension set has no product families")
	}

	seen := make(map[string]bool, len(s.ProductFamilies))
	for _, pf := range s.ProductFamilies {
		if pf == "" || seen[pf] {
			return errors.Newf(errors.TypeConfig, "invalid or duplicate product family %q", pf)
		}
		seen[pf] = true
	}

	for _, code := range s.Terms.Codes() {
		if code == s.ReservedTerm {
			return nil
		}
	}
	return errors.Newf(errors.TypeConfig, "reserved term %q is not a term code", s.ReservedTerm)
}
