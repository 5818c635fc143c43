package usagefile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"pricecalc/internal/errors"
)

const sample = `
defaults {
  region = "us-east-1"
  term   = "on-demand"
}

estimate "assets" {
  service = "AmazonS3"
  usage   = 1500.25
  filters = {
    "Volume Type" = "Standard"
  }
}

estimate "reserved-web" {
  service          = "AmazonEC2"
  usage            = "8760"
  region           = "eu-west-1"
  term             = "reserved"
  offering_classes = ["standard"]
  tenancies        = ["shared"]
  purchase_options = ["no-upfront", "all-upfront"]
}
`

func TestParse(t *testing.T) {
	reqs, err := Parse([]byte(sample), "usage.hcl")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(reqs))
	}

	s3 := reqs[0]
	if s3.Name != "assets" || s3.Service != "AmazonS3" {
		t.Errorf("unexpected identity %q/%q", s3.Name, s3.Service)
	}
	if !s3.Usage.Equal(decimal.RequireFromString("1500.25")) {
		t.Errorf("expected usage 1500.25, got %s", s3.Usage)
	}
	if s3.Region != "us-east-1" || s3.Term != "on-demand" {
		t.Errorf("defaults not applied: region=%q term=%q", s3.Region, s3.Term)
	}
	if s3.Filters["Volume Type"] != "Standard" {
		t.Errorf("expected filter to be decoded, got %v", s3.Filters)
	}

	ec2 := reqs[1]
	if !ec2.Usage.Equal(decimal.NewFromInt(8760)) {
		t.Errorf("expected string usage to convert, got %s", ec2.Usage)
	}
	if ec2.Region != "eu-west-1" || ec2.Term != "reserved" {
		t.Errorf("block values should override defaults: region=%q term=%q", ec2.Region, ec2.Term)
	}
	if len(ec2.Extra.PurchaseOptions) != 2 || ec2.Extra.OfferingClasses[0] != "standard" || ec2.Extra.Tenancies[0] != "shared" {
		t.Errorf("unexpected extra dimensions %+v", ec2.Extra)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want errors.Type
	}{
		{name: "syntax error", src: `estimate "x" {`, want: errors.TypeParsing},
		{name: "missing service", src: `estimate "x" { usage = 1 }`, want: errors.TypeParsing},
		{name: "non numeric usage", src: `estimate "x" {
  service = "AmazonS3"
  usage   = "lots"
}`, want: errors.TypeParsing},
		{name: "negative usage", src: `estimate "x" {
  service = "AmazonS3"
  usage   = -4
}`, want: errors.TypeInvalidUsage},
		{name: "duplicate names", src: `estimate "x" {
  service = "AmazonS3"
  usage   = 1
}
estimate "x" {
  service = "AmazonS3"
  usage   = 2
}`, want: errors.TypeParsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.src), "bad.hcl")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.IsType(err, tt.want) {
				t.Errorf("expected %s, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage.hcl")
	if err := os.WriteFile(path, []byte(sample), 0644); err != nil {
		t.Fatal(err)
	}

	reqs, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(reqs) != 2 {
		t.Errorf("expected 2 requests, got %d", len(reqs))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.hcl")); !errors.IsType(err, errors.TypeParsing) {
		t.Errorf("expected parsing error for missing file, got %v", err)
	}
}
