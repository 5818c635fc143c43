package partition

import (
	"strings"
	"testing"
	"testing/quick"

	"pricecalc/core/dimensions"
	"pricecalc/internal/errors"
)

func newTestGenerator(t *testing.T) (*Generator, *dimensions.Set) {
	t.Helper()
	set := dimensions.Default()
	g, err := NewGenerator(set)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return g, set
}

func TestKeyCardinality(t *testing.T) {
	g, set := newTestGenerator(t)

	regions := set.Regions.Len()
	families := len(set.ProductFamilies)
	reservedFanout := set.OfferingClasses.Len() * set.Tenancies.Len() * set.PurchaseOptions.Len()

	tests := []struct {
		name     string
		region   string
		term     string
		extra    Extra
		expected int
	}{
		{
			name:     "all regions, reserved",
			term:     "reserved",
			expected: regions * families * reservedFanout,
		},
		{
			name:     "all regions, on-demand",
			term:     "on-demand",
			expected: regions * families,
		},
		{
			name:     "one region, on-demand",
			region:   "eu-west-1",
			term:     "on-demand",
			expected: families,
		},
		{
			name:     "one region, all terms",
			region:   "us-east-1",
			expected: families + families*reservedFanout,
		},
		{
			name:     "reserved with overrides",
			region:   "us-east-1",
			term:     "reserved",
			extra:    Extra{OfferingClasses: []string{"standard"}, PurchaseOptions: []string{"no-upfront", "all-upfront"}},
			expected: families * 1 * set.Tenancies.Len() * 2,
		},
		{
			name:     "duplicate overrides collapse",
			region:   "us-east-1",
			term:     "reserved",
			extra:    Extra{Tenancies: []string{"shared", "shared"}},
			expected: families * set.OfferingClasses.Len() * 1 * set.PurchaseOptions.Len(),
		},
		{
			name:     "overrides ignored for on-demand",
			region:   "us-east-1",
			term:     "on-demand",
			extra:    Extra{Tenancies: []string{"dedicated"}},
			expected: families,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := g.Keys(tt.region, tt.term, tt.extra)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(keys) != tt.expected {
				t.Errorf("expected %d keys, got %d", tt.expected, len(keys))
			}
		})
	}
}

func TestKeysAreUniqueAcrossFullSpace(t *testing.T) {
	g, _ := newTestGenerator(t)

	keys, err := g.Keys("", "", Extra{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := make(map[Key]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			t.Fatalf("duplicate key %q", k)
		}
		seen[k] = true
	}
}

func TestEncodeIsInjectiveOverRandomTuples(t *testing.T) {
	_, set := newTestGenerator(t)

	pick := func(codes []string, i uint8) string { return codes[int(i)%len(codes)] }
	regions := set.Regions.Codes()
	terms := set.Terms.Codes()
	ocs := set.OfferingClasses.Codes()
	tens := set.Tenancies.Codes()
	pos := set.PurchaseOptions.Codes()

	seen := make(map[Key]string)
	property := func(r, tm, pf, oc, ten, po uint8) bool {
		tuple := []string{pick(regions, r), pick(terms, tm), pick(set.ProductFamilies, pf)}
		if tuple[1] == set.ReservedTerm {
			tuple = append(tuple, pick(ocs, oc), pick(tens, ten), pick(pos, po))
		}
		id := strings.Join(tuple, "\x00")
		key := Encode(tuple...)
		if prev, ok := seen[key]; ok && prev != id {
			t.Logf("collision: %q and %q both encode to %q", prev, id, key)
			return false
		}
		seen[key] = id
		return true
	}

	if err := quick.Check(property, &quick.Config{MaxCount: 5000}); err != nil {
		t.Error(err)
	}
}

func TestEncodeAvoidsNaiveConcatenationCollision(t *testing.T) {
	a := Encode("US", "EAST")
	b := Encode("USE", "AST")
	if a == b {
		t.Errorf("expected distinct keys, both were %q", a)
	}
}

func TestEncodeStripsWhitespace(t *testing.T) {
	key := Encode("US East (N. Virginia)", "OnDemand", "Compute Instance")
	want := Key("USEast(N.Virginia)_OnDemand_ComputeInstance")
	if key != want {
		t.Errorf("expected %q, got %q", want, key)
	}
}

func TestKeysStableOrder(t *testing.T) {
	g, set := newTestGenerator(t)

	keys, err := g.Keys("us-east-1", "reserved", Extra{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := Encode("US East (N. Virginia)", "Reserved", set.ProductFamilies[0],
		set.OfferingClasses.Codes()[0], set.Tenancies.Codes()[0], set.PurchaseOptions.Codes()[0])
	if keys[0] != first {
		t.Errorf("expected first key %q, got %q", first, keys[0])
	}

	again, _ := g.Keys("us-east-1", "reserved", Extra{})
	for i := range keys {
		if keys[i] != again[i] {
			t.Fatalf("key order changed between calls at %d", i)
		}
	}
}

func TestKeysUnknownDimensionValue(t *testing.T) {
	g, _ := newTestGenerator(t)

	tests := []struct {
		name   string
		region string
		term   string
		extra  Extra
	}{
		{name: "region", region: "mars-north-1"},
		{name: "term", term: "spot"},
		{name: "offering class", term: "reserved", extra: Extra{OfferingClasses: []string{"premium"}}},
		{name: "tenancy", term: "reserved", extra: Extra{Tenancies: []string{"shared-ish"}}},
		{name: "purchase option", term: "reserved", extra: Extra{PurchaseOptions: []string{"pay-later"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := g.Keys(tt.region, tt.term, tt.extra)
			if err == nil {
				t.Fatalf("expected error, got %d keys", len(keys))
			}
			if !errors.IsType(err, errors.TypeUnknownDimension) {
				t.Errorf("expected %s, got %v", errors.TypeUnknownDimension, err)
			}
		})
	}
}

func TestNewGeneratorRejectsAmbiguousCodes(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*dimensions.Set)
	}{
		{
			name: "separator in code",
			mutate: func(s *dimensions.Set) {
				s.Tenancies = dimensions.MustMap(dimensions.Tenancy, dimensions.Entry{Key: "shared", Code: "Shared_Host"})
			},
		},
		{
			name: "whitespace collision",
			mutate: func(s *dimensions.Set) {
				s.Regions = dimensions.MustMap(dimensions.Region,
					dimensions.Entry{Key: "a", Code: "US East"},
					dimensions.Entry{Key: "b", Code: "USEast"},
				)
			},
		},
		{
			name: "product family collision",
			mutate: func(s *dimensions.Set) {
				s.ProductFamilies = []string{"Data Transfer", "DataTransfer"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := dimensions.Default()
			tt.mutate(set)
			if _, err := NewGenerator(set); err == nil {
				t.Error("expected error")
			}
		})
	}
}
