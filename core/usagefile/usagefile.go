// Package usagefile reads HCL files that describe several service usages to
// price in one estimate:
//
//	defaults {
//	  region = "us-east-1"
//	  term   = "on-demand"
//	}
//
//	estimate "assets" {
//	  service = "AmazonS3"
//	  usage   = 1500
//	  filters = {
//	    "Volume Type" = "Standard"
//	  }
//	}
package usagefile

import (
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"pricecalc/core/partition"
	"pricecalc/core/pricing"
	"pricecalc/internal/errors"
)

type fileSchema struct {
	Defaults  *defaultsBlock  `hcl:"defaults,block"`
	Estimates []estimateBlock `hcl:"estimate,block"`
}

type defaultsBlock struct {
	Region string `hcl:"region,optional"`
	Term   string `hcl:"term,optional"`
}

type estimateBlock struct {
	Name            string            `hcl:"name,label"`
	Service         string            `hcl:"service"`
	Usage           cty.Value         `hcl:"usage"`
	Region          string            `hcl:"region,optional"`
	Term            string            `hcl:"term,optional"`
	OfferingClasses []string          `hcl:"offering_classes,optional"`
	Tenancies       []string          `hcl:"tenancies,optional"`
	PurchaseOptions []string          `hcl:"purchase_options,optional"`
	Filters         map[string]string `hcl:"filters,optional"`
}

// Load reads and decodes the usage file at path
func Load(path string) ([]pricing.Request, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Parsing("read usage file "+path, err)
	}
	return Parse(src, path)
}

// Parse decodes usage file source. filename is only used in diagnostics.
func Parse(src []byte, filename string) ([]pricing.Request, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Parsing("parse usage file "+filename, diags)
	}

	var schema fileSchema
	if diags := gohcl.DecodeBody(file.Body, nil, &schema); diags.HasErrors() {
		return nil, errors.Parsing("decode usage file "+filename, diags)
	}

	var defaults defaultsBlock
	if schema.Defaults != nil {
		defaults = *schema.Defaults
	}

	seen := make(map[string]bool, len(schema.Estimates))
	reqs := make([]pricing.Request, 0, len(schema.Estimates))
	for _, block := range schema.Estimates {
		if seen[block.Name] {
			return nil, errors.Parsing("decode usage file "+filename, hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Duplicate estimate block",
				Detail:   "An estimate named " + block.Name + " was already declared.",
			}})
		}
		seen[block.Name] = true

		usage, err := usageAmount(block.Usage)
		if err != nil {
			return nil, errors.Parsing("estimate "+block.Name+": invalid usage", err)
		}
		if usage.IsNegative() {
			return nil, errors.InvalidUsage("estimate " + block.Name + " has negative usage " + usage.String())
		}

		req := pricing.Request{
			Name:    block.Name,
			Service: block.Service,
			Usage:   usage,
			Region:  firstNonEmpty(block.Region, defaults.Region),
			Term:    firstNonEmpty(block.Term, defaults.Term),
			Extra: partition.Extra{
				OfferingClasses: block.OfferingClasses,
				Tenancies:       block.Tenancies,
				PurchaseOptions: block.PurchaseOptions,
			},
			Filters: block.Filters,
		}
		reqs = append(reqs, req)
	}

	return reqs, nil
}

func usageAmount(v cty.Value) (decimal.Decimal, error) {
	n, err := convert.Convert(v, cty.Number)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if n.IsNull() || !n.IsKnown() {
		return decimal.Decimal{}, errors.New(errors.TypeParsing, "usage must be a known number")
	}
	return decimal.NewFromString(n.AsBigFloat().Text('f', -1))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
