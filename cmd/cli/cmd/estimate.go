// Package cmd - estimate command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pricecalc/core/dimensions"
	"pricecalc/core/partition"
	"pricecalc/core/pricing"
	"pricecalc/core/report"
	"pricecalc/core/usagefile"
	"pricecalc/internal/config"
	"pricecalc/internal/errors"
	"pricecalc/internal/logging"
	"pricecalc/internal/metrics"
)

var (
	service         string
	usageAmount     string
	region          string
	term            string
	filters         map[string]string
	offeringClasses []string
	tenancies       []string
	purchaseOptions []string
	usageFile       string
	outputFormat    string
	metricsFile     string
)

// estimateCmd represents the estimate command
var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Price a usage amount, or every estimate in a usage file",
	Long: `Price usage against the tiered price rows of a service.

Either name one service with --service and --usage, or pass an HCL usage
file with --file to price several services in one estimate.

Examples:
  pricecalc estimate --service AmazonS3 --usage 1500 --region us-east-1 --term on-demand \
    --filter "Volume Type=Standard"
  pricecalc estimate --service AmazonEC2 --usage 8760 --region us-east-1 --term reserved \
    --offering-class standard --purchase-option no-upfront
  pricecalc estimate --file usage.hcl --format json`,
	Args: cobra.NoArgs,
	RunE: runEstimate,
}

func init() {
	estimateCmd.Flags().StringVarP(&service, "service", "s", "", "price list service code, e.g. AmazonS3")
	estimateCmd.Flags().StringVarP(&usageAmount, "usage", "u", "", "usage amount in the service's billing unit")
	estimateCmd.Flags().StringVarP(&region, "region", "r", "", "region key, e.g. us-east-1 (default all regions)")
	estimateCmd.Flags().StringVarP(&term, "term", "t", "", "term key: on-demand or reserved (default all terms)")
	estimateCmd.Flags().StringToStringVar(&filters, "filter", nil, "attribute filter as name=value, repeatable")
	estimateCmd.Flags().StringSliceVar(&offeringClasses, "offering-class", nil, "reserved offering classes (default all)")
	estimateCmd.Flags().StringSliceVar(&tenancies, "tenancy", nil, "reserved tenancies (default all)")
	estimateCmd.Flags().StringSliceVar(&purchaseOptions, "purchase-option", nil, "reserved purchase options (default all)")
	estimateCmd.Flags().StringVarP(&usageFile, "file", "f", "", "HCL usage file with one or more estimate blocks")
	estimateCmd.Flags().StringVarP(&outputFormat, "format", "o", "table", "output format (table, json)")
	estimateCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile")
}

func runEstimate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Get()

	reqs, err := buildRequests()
	if err != nil {
		return err
	}

	keys, err := partition.NewGenerator(dimensions.Default())
	if err != nil {
		return err
	}

	sp := startSpinner(fmt.Sprintf("Opening %s price store ...", cfg.Store.Backend))
	store, closeStore, err := openStore(ctx, cfg.Store)
	sp.Stop()
	if err != nil {
		return err
	}
	defer closeStore()

	recorder := metrics.NewRecorder()
	searcher := recorder.InstrumentStore(string(cfg.Store.Backend), store)
	var cache *pricing.CachedStore
	if cfg.Store.CacheTTL > 0 {
		cache = pricing.NewCachedStore(searcher, pricing.CachePolicy{
			TTL:        cfg.Store.CacheTTL,
			MaxEntries: cfg.Store.CacheEntries,
		})
		for svc, ttl := range cfg.Store.ServiceCacheTTL {
			cache.SetServiceTTL(svc, ttl)
		}
		searcher = cache
	}

	estimator := pricing.NewEstimator(keys, searcher,
		pricing.WithWorkers(cfg.Estimate.Workers),
		pricing.WithDefaultTerm(cfg.Estimate.DefaultTerm),
	)

	sp = startSpinner(fmt.Sprintf("Pricing %d request(s) ...", len(reqs)))
	est, err := estimator.Estimate(ctx, reqs)
	sp.Stop()

	if cache != nil {
		stats := cache.Stats()
		logging.Debug("search cache", zap.Int("hits", stats.Hits), zap.Int("misses", stats.Misses))
	}

	var result pricing.PricingResult
	if est != nil {
		result = est.Result
	}
	recorder.ObserveEstimate(len(reqs), result, err)
	if metricsFile != "" {
		if werr := recorder.WriteTextfile(metricsFile); werr != nil {
			logging.Warn("could not write metrics", zap.String("path", metricsFile), zap.Error(werr))
		}
	}
	if err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		return writeJSON(cmd.OutOrStdout(), est)
	case "table":
		return writeTable(cmd.OutOrStdout(), est, cfg)
	default:
		return errors.Newf(errors.TypeConfig, "unsupported output format: %q", outputFormat)
	}
}

func buildRequests() ([]pricing.Request, error) {
	if usageFile != "" {
		if service != "" {
			return nil, errors.New(errors.TypeConfig, "use either --file or --service, not both")
		}
		return usagefile.Load(usageFile)
	}

	if service == "" {
		return nil, errors.New(errors.TypeConfig, "--service or --file is required")
	}
	if usageAmount == "" {
		return nil, errors.InvalidUsage("--usage is required with --service")
	}
	usage, err := decimal.NewFromString(usageAmount)
	if err != nil {
		return nil, errors.InvalidUsage(fmt.Sprintf("usage %q is not a number", usageAmount))
	}

	return []pricing.Request{{
		Service: service,
		Usage:   usage,
		Region:  region,
		Term:    term,
		Extra: partition.Extra{
			OfferingClasses: offeringClasses,
			Tenancies:       tenancies,
			PurchaseOptions: purchaseOptions,
		},
		Filters: filters,
	}}, nil
}

func writeTable(w io.Writer, est *pricing.Estimate, cfg *config.Config) error {
	builder := report.Builder{Currency: cfg.Estimate.Currency}

	if cfg.Output.ShowDetails {
		if _, err := builder.Build(est.Result.PricingRecords).WriteTo(w); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	if len(est.Breakdown) > 1 {
		for _, s := range est.Breakdown {
			fmt.Fprintf(w, "  %-24s %s%s\n", s.Name, cfg.Estimate.Currency, formatAmount(s.Result.TotalCost))
		}
	}
	fmt.Fprintf(w, "Total: %s%s (%d records, estimate %s)\n",
		cfg.Estimate.Currency, formatAmount(est.Result.TotalCost), est.Result.Len(), est.ID)
	return nil
}

func formatAmount(d decimal.Decimal) string {
	f, _ := d.Round(pricing.AmountPlaces).Float64()
	return humanize.CommafWithDigits(f, pricing.AmountPlaces)
}

func writeJSON(w io.Writer, est *pricing.Estimate) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(est)
}
