package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pricecalc/core/dimensions"
	"pricecalc/core/partition"
)

var countOnly bool

// partitionsCmd lists the shard keys a query would open
var partitionsCmd = &cobra.Command{
	Use:   "partitions",
	Short: "List the partition keys a query would open",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		gen, err := partition.NewGenerator(dimensions.Default())
		if err != nil {
			return err
		}

		keys, err := gen.Keys(region, term, partition.Extra{
			OfferingClasses: offeringClasses,
			Tenancies:       tenancies,
			PurchaseOptions: purchaseOptions,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if countOnly {
			fmt.Fprintln(out, len(keys))
			return nil
		}
		for _, k := range keys {
			fmt.Fprintln(out, k)
		}
		return nil
	},
}

func init() {
	partitionsCmd.Flags().StringVarP(&region, "region", "r", "", "region key (default all regions)")
	partitionsCmd.Flags().StringVarP(&term, "term", "t", "", "term key (default all terms)")
	partitionsCmd.Flags().StringSliceVar(&offeringClasses, "offering-class", nil, "reserved offering classes (default all)")
	partitionsCmd.Flags().StringSliceVar(&tenancies, "tenancy", nil, "reserved tenancies (default all)")
	partitionsCmd.Flags().StringSliceVar(&purchaseOptions, "purchase-option", nil, "reserved purchase options (default all)")
	partitionsCmd.Flags().BoolVar(&countOnly, "count", false, "print only the number of keys")
}
