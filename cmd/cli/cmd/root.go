// Package cmd provides the CLI commands for pricecalc.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pricecalc/internal/config"
	"pricecalc/internal/logging"
)

// Version is the CLI version
const Version = "0.3.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pricecalc",
	Short: "Price cloud service usage from partitioned price lists",
	Long: `pricecalc prices a usage amount against tiered cloud price lists.

Price rows are sharded by region, term and product family. A query opens
only the shards it needs, bills usage across each matching tier and prints
a SKU table of every charge.

Examples:
  pricecalc estimate --service AmazonS3 --usage 1500 --region us-east-1 --term on-demand
  pricecalc estimate --file usage.hcl
  pricecalc partitions --region eu-west-1 --term reserved --purchase-option no-upfront`,
	SilenceUsage: true,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus PRICECALC_* env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(partitionsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
}

func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	config.Set(cfg)

	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "pricecalc version %s\n", Version)
	},
}

// configCmd prints the effective configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "store.backend         = %s\n", cfg.Store.Backend)
		fmt.Fprintf(out, "store.data_dir        = %s\n", cfg.Store.DataDir)
		fmt.Fprintf(out, "store.api_region      = %s\n", cfg.Store.APIRegion)
		fmt.Fprintf(out, "store.cache_ttl       = %s\n", cfg.Store.CacheTTL)
		for svc, ttl := range cfg.Store.ServiceCacheTTL {
			fmt.Fprintf(out, "store.service_cache_ttl.%s = %s\n", svc, ttl)
		}
		fmt.Fprintf(out, "estimate.workers      = %d\n", cfg.Estimate.Workers)
		fmt.Fprintf(out, "estimate.default_term = %s\n", cfg.Estimate.DefaultTerm)
		fmt.Fprintf(out, "estimate.currency     = %s\n", cfg.Estimate.Currency)
		fmt.Fprintf(out, "output.show_details   = %t\n", cfg.Output.ShowDetails)
		fmt.Fprintf(out, "logging.level         = %s\n", cfg.Logging.Level)
	},
}
