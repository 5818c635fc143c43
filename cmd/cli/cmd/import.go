package cmd

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pricecalc/core/dimensions"
	"pricecalc/core/partition"
	"pricecalc/db/csvstore"
	"pricecalc/db/postgres"
	"pricecalc/internal/config"
	"pricecalc/internal/errors"
	"pricecalc/internal/logging"
)

var migrate bool

// openPriceDB is swapped in tests
var openPriceDB = postgres.Open

// importCmd copies CSV shards into the postgres store
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy a service's CSV shards into PostgreSQL",
	Long: `Read every CSV shard of a service from store.data_dir and insert its
rows into the price_rows table at store.dsn, keyed by partition. Shards
already in the table are replaced, so re-running an import is safe.

Examples:
  pricecalc import --service AmazonS3 --migrate
  pricecalc import --service AmazonEC2 --region us-east-1 --term reserved`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&service, "service", "s", "", "price list service code to import")
	importCmd.Flags().StringVarP(&region, "region", "r", "", "region key (default all regions)")
	importCmd.Flags().StringVarP(&term, "term", "t", "", "term key (default all terms)")
	importCmd.Flags().BoolVar(&migrate, "migrate", false, "create the price_rows table first")
	importCmd.MarkFlagRequired("service")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := config.Get()
	if cfg.Store.DSN == "" {
		return errors.New(errors.TypeConfig, "store.dsn is required to import")
	}

	gen, err := partition.NewGenerator(dimensions.Default())
	if err != nil {
		return err
	}
	keys, err := gen.Keys(region, term, partition.Extra{})
	if err != nil {
		return err
	}

	db, err := openPriceDB(ctx, cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := db.Migrate(ctx); err != nil {
			return err
		}
	}

	src := csvstore.New(cfg.Store.DataDir)
	meta, err := src.Metadata(service)
	if err != nil {
		return err
	}

	var shards, total int
	sp := startSpinner(fmt.Sprintf("Importing %s ...", service))
	for _, key := range keys {
		if !meta.Has(key) {
			continue
		}
		rows, err := src.Rows(service, key)
		if err != nil {
			sp.Stop()
			return err
		}
		if len(rows) == 0 {
			continue
		}
		if err := db.ReplaceShard(ctx, service, key, rows); err != nil {
			sp.Stop()
			return err
		}
		shards++
		total += len(rows)
		logging.Debug("imported shard", zap.String("partition", string(key)), zap.Int("rows", len(rows)))
	}
	sp.Stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s rows from %d shards of %s\n",
		humanize.Comma(int64(total)), shards, service)
	return nil
}
