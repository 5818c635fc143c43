// Package awsapi serves price rows straight from the AWS Price List Query
// API. Products are fetched with GetProducts, flattened into tier rows and
// kept only when they fall in one of the query's partitions.
package awsapi

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"go.uber.org/zap"

	"pricecalc/core/partition"
	corepricing "pricecalc/core/pricing"
	"pricecalc/internal/errors"
	"pricecalc/internal/logging"
)

// DefaultRegion hosts the Price List Query API endpoint
const DefaultRegion = "us-east-1"

const (
	formatVersion = "aws_v1"
	pageSize      = 100
)

// Store implements pricing.Store over the Price List Query API
type Store struct {
	client pricing.GetProductsAPIClient
	log    *zap.Logger
}

// New loads the default AWS credential chain and returns a store whose
// client talks to region.
func New(ctx context.Context, region string) (*Store, error) {
	if region == "" {
		region = DefaultRegion
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, errors.Config("load AWS configuration", err)
	}
	return NewWithClient(pricing.NewFromConfig(cfg)), nil
}

// NewWithClient wraps an existing GetProducts client
func NewWithClient(client pricing.GetProductsAPIClient) *Store {
	return &Store{
		client: client,
		log:    logging.Named("awsapi"),
	}
}

// Search implements pricing.Store. Product attribute filters are sent as
// TERM_MATCH filters; every filter, term attributes included, is then
// checked against each decoded row. A query with no partitions matches
// nothing and makes no API call.
func (s *Store) Search(ctx context.Context, q corepricing.Query) ([]corepricing.TierRow, error) {
	if q.Service == "" {
		return nil, errors.New(errors.TypeStore, "price list query names no service")
	}
	if len(q.Partitions) == 0 {
		return nil, nil
	}

	wanted := make(map[partition.Key]bool, len(q.Partitions))
	for _, k := range q.Partitions {
		wanted[k] = true
	}

	input := &pricing.GetProductsInput{
		ServiceCode:   aws.String(q.Service),
		FormatVersion: aws.String(formatVersion),
		Filters:       termMatch(q.Filters),
		MaxResults:    aws.Int32(pageSize),
	}

	var (
		out   []corepricing.TierRow
		pages int
		items int
	)
	paginator := pricing.NewGetProductsPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Store("get products for "+q.Service, err)
		}
		pages++

		for _, doc := range page.PriceList {
			item, err := ParsePriceItem(doc)
			if err != nil {
				return nil, err
			}
			items++

			for _, kr := range item.Rows() {
				if !wanted[kr.Key] {
					continue
				}
				if q.Matches(kr.Row.Attributes) {
					out = append(out, kr.Row)
				}
			}
		}
	}

	s.log.Debug("price list searched",
		zap.String("service", q.Service),
		zap.Int("pages", pages),
		zap.Int("products", items),
		zap.Int("rows", len(out)),
	)
	return out, nil
}

// termOnly attributes live on terms, not products, so the API cannot
// filter on them
var termOnly = map[string]bool{
	AttrOfferingClass:     true,
	AttrPurchaseOpt:       true,
	AttrTermType:          true,
	"LeaseContractLength": true,
}

func termMatch(filters map[string]string) []types.Filter {
	if len(filters) == 0 {
		return nil
	}
	out := make([]types.Filter, 0, len(filters))
	for _, field := range sortedKeys(filters) {
		if termOnly[field] {
			continue
		}
		out = append(out, types.Filter{
			Field: aws.String(field),
			Type:  types.FilterTypeTermMatch,
			Value: aws.String(filters[field]),
		})
	}
	return out
}
