package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"pricecalc/core/pricing"
	"pricecalc/db/awsapi"
	"pricecalc/db/csvstore"
	"pricecalc/db/postgres"
	"pricecalc/internal/config"
	"pricecalc/internal/errors"
)

// openStore returns the configured store and a function releasing it
func openStore(ctx context.Context, cfg config.StoreConfig) (pricing.Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendCSV:
		return csvstore.New(cfg.DataDir), noop, nil

	case config.BackendPostgres:
		s, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.BackendAWSAPI:
		s, err := awsapi.New(ctx, cfg.APIRegion)
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	}

	return nil, nil, errors.Newf(errors.TypeConfig, "unsupported store backend: %q", cfg.Backend)
}

// startSpinner shows progress on stderr unless verbose logging is on
func startSpinner(msg string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = fmt.Sprintf(" %s", msg)
	if !verbose {
		s.Start()
	}
	return s
}
