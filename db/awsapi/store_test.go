package awsapi

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricecalc/core/partition"
	corepricing "pricecalc/core/pricing"
	"pricecalc/internal/errors"
)

const s3Item = `{
  "serviceCode": "AmazonS3",
  "version": "20240101000000",
  "product": {
    "sku": "S3STD",
    "productFamily": "Storage",
    "attributes": {"location": "US East (N. Virginia)", "volumeType": "Standard", "storageClass": "General Purpose"}
  },
  "terms": {
    "OnDemand": {
      "S3STD.JRTCKXETXF": {
        "offerTermCode": "JRTCKXETXF",
        "sku": "S3STD",
        "priceDimensions": {
          "S3STD.JRTCKXETXF.PGHJ3S3EYE": {"rateCode": "S3STD.JRTCKXETXF.PGHJ3S3EYE", "description": "next 450 TB", "beginRange": "51200", "endRange": "512000", "unit": "GB-Mo", "pricePerUnit": {"USD": "0.0220000000"}},
          "S3STD.JRTCKXETXF.D42MF2PVJS": {"rateCode": "S3STD.JRTCKXETXF.D42MF2PVJS", "description": "first 50 TB", "beginRange": "0", "endRange": "51200", "unit": "GB-Mo", "pricePerUnit": {"USD": "0.0230000000"}},
          "S3STD.JRTCKXETXF.WGH4VSJ6TV": {"rateCode": "S3STD.JRTCKXETXF.WGH4VSJ6TV", "description": "over 500 TB", "beginRange": "512000", "endRange": "Inf", "unit": "GB-Mo", "pricePerUnit": {"USD": "0.0210000000"}}
        },
        "termAttributes": {}
      }
    }
  }
}`

const ec2Item = `{
  "serviceCode": "AmazonEC2",
  "product": {
    "sku": "EC2M5",
    "productFamily": "Compute Instance",
    "attributes": {"location": "EU (Ireland)", "instanceType": "m5.large", "tenancy": "Shared"}
  },
  "terms": {
    "OnDemand": {
      "EC2M5.OD": {"priceDimensions": {"EC2M5.OD.1": {"rateCode": "EC2M5.OD.1", "description": "m5.large on demand", "beginRange": "0", "endRange": "Inf", "unit": "Hrs", "pricePerUnit": {"USD": "0.107"}}}}
    },
    "Reserved": {
      "EC2M5.NU": {
        "priceDimensions": {"EC2M5.NU.1": {"rateCode": "EC2M5.NU.1", "description": "m5.large reserved", "beginRange": "0", "endRange": "Inf", "unit": "Hrs", "pricePerUnit": {"USD": "0.067"}}},
        "termAttributes": {"LeaseContractLength": "1yr", "OfferingClass": "standard", "PurchaseOption": "No Upfront"}
      },
      "EC2M5.AU": {
        "priceDimensions": {"EC2M5.AU.1": {"rateCode": "EC2M5.AU.1", "description": "m5.large upfront fee", "beginRange": "0", "endRange": "Inf", "unit": "Quantity", "pricePerUnit": {"USD": "530"}}},
        "termAttributes": {"LeaseContractLength": "1yr", "OfferingClass": "standard", "PurchaseOption": "All Upfront"}
      }
    }
  }
}`

const transferItem = `{
  "serviceCode": "AmazonEC2",
  "product": {
    "sku": "DTOUT",
    "productFamily": "Data Transfer",
    "attributes": {"fromLocation": "US East (N. Virginia)", "toLocation": "External", "transferType": "AWS Outbound"}
  },
  "terms": {
    "OnDemand": {
      "DTOUT.OD": {"priceDimensions": {"DTOUT.OD.1": {"rateCode": "DTOUT.OD.1", "description": "first 10 TB out", "beginRange": "0", "endRange": "10240", "unit": "GB", "pricePerUnit": {"USD": "0.09"}}}}
    }
  }
}`

// fakeClient serves one page per entry of pages
type fakeClient struct {
	pages  [][]string
	err    error
	inputs []*pricing.GetProductsInput
}

func (f *fakeClient) GetProducts(ctx context.Context, in *pricing.GetProductsInput, _ ...func(*pricing.Options)) (*pricing.GetProductsOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}

	page := 0
	if in.NextToken != nil {
		fmt.Sscanf(*in.NextToken, "page-%d", &page)
	}
	out := &pricing.GetProductsOutput{PriceList: f.pages[page]}
	if page+1 < len(f.pages) {
		out.NextToken = aws.String(fmt.Sprintf("page-%d", page+1))
	}
	return out, nil
}

func TestPriceItemRows(t *testing.T) {
	item, err := ParsePriceItem(s3Item)
	require.NoError(t, err)

	rows := item.Rows()
	require.Len(t, rows, 3)

	// rate codes come back sorted
	assert.Equal(t, "first 50 TB", rows[0].Row.PriceDescription)
	assert.Equal(t, "next 450 TB", rows[1].Row.PriceDescription)
	assert.Equal(t, "over 500 TB", rows[2].Row.PriceDescription)

	for _, kr := range rows {
		assert.Equal(t, partition.Key("USEast(N.Virginia)_OnDemand_Storage"), kr.Key)
		assert.Equal(t, "Standard", kr.Row.Attributes["volumeType"])
		assert.Equal(t, "OnDemand", kr.Row.Attributes[AttrTermType])
	}

	tier, err := corepricing.ParseTier(rows[2].Row)
	require.NoError(t, err)
	assert.True(t, tier.Unbounded())
	assert.Equal(t, "0.021", tier.PricePerUnit.String())
}

func TestPriceItemReservedKey(t *testing.T) {
	item, err := ParsePriceItem(ec2Item)
	require.NoError(t, err)

	keys := map[partition.Key]string{}
	for _, kr := range item.Rows() {
		keys[kr.Key] = kr.Row.RateCode
	}

	assert.Equal(t, map[partition.Key]string{
		"EU(Ireland)_OnDemand_ComputeInstance":                            "EC2M5.OD.1",
		"EU(Ireland)_Reserved_ComputeInstance_standard_Shared_NoUpfront":  "EC2M5.NU.1",
		"EU(Ireland)_Reserved_ComputeInstance_standard_Shared_AllUpfront": "EC2M5.AU.1",
	}, keys)
}

func TestPriceItemDataTransferKey(t *testing.T) {
	item, err := ParsePriceItem(transferItem)
	require.NoError(t, err)

	rows := item.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, partition.Key("USEast(N.Virginia)_OnDemand_DataTransfer"), rows[0].Key)

	store := NewWithClient(&fakeClient{pages: [][]string{{transferItem}}})
	found, err := store.Search(context.Background(), corepricing.Query{
		Service:    "AmazonEC2",
		Partitions: []partition.Key{"USEast(N.Virginia)_OnDemand_DataTransfer"},
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "DTOUT.OD.1", found[0].RateCode)
}

func TestParsePriceItemInvalid(t *testing.T) {
	_, err := ParsePriceItem("{not json")
	assert.True(t, errors.IsType(err, errors.TypeParsing))
}

func TestSearchPaginatesAndSelectsPartitions(t *testing.T) {
	client := &fakeClient{pages: [][]string{{s3Item}, {ec2Item}}}
	store := NewWithClient(client)

	rows, err := store.Search(context.Background(), corepricing.Query{
		Service:    "AmazonEC2",
		Partitions: []partition.Key{"EU(Ireland)_Reserved_ComputeInstance_standard_Shared_NoUpfront"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "EC2M5.NU.1", rows[0].RateCode)

	require.Len(t, client.inputs, 2)
	assert.Equal(t, "AmazonEC2", aws.ToString(client.inputs[0].ServiceCode))
	assert.Equal(t, "page-1", aws.ToString(client.inputs[1].NextToken))
}

func TestSearchFilters(t *testing.T) {
	client := &fakeClient{pages: [][]string{{ec2Item}}}
	store := NewWithClient(client)

	rows, err := store.Search(context.Background(), corepricing.Query{
		Service:    "AmazonEC2",
		Partitions: []partition.Key{
			"EU(Ireland)_OnDemand_ComputeInstance",
			"EU(Ireland)_Reserved_ComputeInstance_standard_Shared_NoUpfront",
			"EU(Ireland)_Reserved_ComputeInstance_standard_Shared_AllUpfront",
		},
		Filters: map[string]string{"instanceType": "m5.large", "PurchaseOption": "All Upfront"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "530", rows[0].PricePerUnit)

	// term attributes are not sent to the API
	filters := client.inputs[0].Filters
	require.Len(t, filters, 1)
	assert.Equal(t, "instanceType", aws.ToString(filters[0].Field))
	assert.Equal(t, "m5.large", aws.ToString(filters[0].Value))
}

func TestSearchNoPartitions(t *testing.T) {
	client := &fakeClient{pages: [][]string{{s3Item, ec2Item}}}
	store := NewWithClient(client)

	rows, err := store.Search(context.Background(), corepricing.Query{Service: "AmazonS3"})
	require.NoError(t, err)
	assert.Nil(t, rows)
	assert.Empty(t, client.inputs)
}

func TestSearchErrors(t *testing.T) {
	q := corepricing.Query{Service: "AmazonS3", Partitions: []partition.Key{"USEast(N.Virginia)_OnDemand_Storage"}}
	store := NewWithClient(&fakeClient{err: fmt.Errorf("throttled")})

	_, err := store.Search(context.Background(), q)
	assert.True(t, errors.IsType(err, errors.TypeStore))

	_, err = store.Search(context.Background(), corepricing.Query{})
	assert.True(t, errors.IsType(err, errors.TypeStore))

	bad := NewWithClient(&fakeClient{pages: [][]string{{"[]"}}})
	_, err = bad.Search(context.Background(), q)
	assert.True(t, errors.IsType(err, errors.TypeParsing))
}
