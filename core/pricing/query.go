package pricing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"pricecalc/core/partition"
)

// Store answers "give me every price row matching this query". How rows are
// persisted or indexed is up to the implementation.
type Store interface {
	Search(ctx context.Context, q Query) ([]TierRow, error)
}

// StoreFunc adapts a function to the Store interface
type StoreFunc func(ctx context.Context, q Query) ([]TierRow, error)

// Search implements Store
func (f StoreFunc) Search(ctx context.Context, q Query) ([]TierRow, error) {
	return f(ctx, q)
}

// Query selects price rows: the shards to look in plus attribute equality
// filters that must all hold.
type Query struct {
	// Service is the price list service code, e.g. "AmazonS3"
	Service string

	// Partitions are the shards that may hold matching rows
	Partitions []partition.Key

	// Filters maps attribute (column) names to required values
	Filters map[string]string
}

// Matches reports whether attrs satisfies every filter
func (q Query) Matches(attrs map[string]string) bool {
	for k, v := range q.Filters {
		if attrs[k] != v {
			return false
		}
	}
	return true
}

// String renders the query deterministically for logs and errors
func (q Query) String() string {
	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	filters := make([]string, len(keys))
	for i, k := range keys {
		filters[i] = fmt.Sprintf("%s=%s", k, q.Filters[k])
	}
	return fmt.Sprintf("partitions=%d filters={%s}", len(q.Partitions), strings.Join(filters, ","))
}
