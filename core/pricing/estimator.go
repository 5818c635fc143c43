package pricing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pricecalc/core/partition"
	"pricecalc/internal/errors"
	"pricecalc/internal/logging"
)

// Request describes the usage of one service to price
type Request struct {
	// Name labels the request in breakdowns; defaults to Service
	Name    string
	Service string
	Usage   decimal.Decimal

	// Region and Term narrow the shards opened; empty means all
	Region string
	Term   string
	Extra  partition.Extra

	// Filters are passed to the store unchanged
	Filters map[string]string
}

// Label returns Name, or Service when Name is empty
func (r Request) Label() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Service
}

// ServiceEstimate is the priced outcome of one Request
type ServiceEstimate struct {
	Name   string        `json:"name"`
	Result PricingResult `json:"result"`
}

// Estimate is the outcome of pricing a batch of requests
type Estimate struct {
	ID        string            `json:"id"`
	Result    PricingResult     `json:"result"`
	Breakdown []ServiceEstimate `json:"breakdown"`
}

// EstimatorOption configures an Estimator
type EstimatorOption func(*Estimator)

// WithWorkers bounds how many requests are priced concurrently
func WithWorkers(n int) EstimatorOption {
	return func(e *Estimator) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithDefaultTerm sets the term used by requests that name none
func WithDefaultTerm(term string) EstimatorOption {
	return func(e *Estimator) {
		e.defaultTerm = term
	}
}

// Estimator prices batches of requests. Each request is folded into its own
// accumulator; results are merged in request order once all have finished.
type Estimator struct {
	keys        *partition.Generator
	store       Store
	workers     int
	defaultTerm string
}

// NewEstimator creates an estimator
func NewEstimator(keys *partition.Generator, store Store, opts ...EstimatorOption) *Estimator {
	e := &Estimator{
		keys:    keys,
		store:   store,
		workers: 1,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Query builds the store query for req
func (e *Estimator) Query(req Request) (Query, error) {
	term := req.Term
	if term == "" {
		term = e.defaultTerm
	}

	keys, err := e.keys.Keys(req.Region, term, req.Extra)
	if err != nil {
		return Query{}, err
	}
	return Query{
		Service:    req.Service,
		Partitions: keys,
		Filters:    req.Filters,
	}, nil
}

// Price prices a single request into acc
func (e *Estimator) Price(ctx context.Context, req Request, acc PricingResult) (PricingResult, error) {
	if req.Service == "" {
		return acc, errors.InvalidUsage("request " + req.Label() + " names no service")
	}
	if req.Usage.IsNegative() {
		return acc, errors.InvalidUsage("request " + req.Label() + " has negative usage " + req.Usage.String())
	}

	q, err := e.Query(req)
	if err != nil {
		return acc, err
	}
	return PriceQuery(ctx, e.store, q, req.Usage, acc)
}

// Estimate prices every request. The first failure cancels the rest and is
// returned; no partial estimate is produced.
func (e *Estimator) Estimate(ctx context.Context, reqs []Request) (*Estimate, error) {
	id := uuid.NewString()
	log := logging.With(zap.String("estimate_id", id))
	start := time.Now()
	log.Debug("estimate started", zap.Int("requests", len(reqs)), zap.Int("workers", e.workers))

	results := make([]PricingResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r, err := e.Price(gctx, req, PricingResult{})
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Debug("estimate failed", zap.Error(err))
		return nil, err
	}

	est := &Estimate{
		ID:        id,
		Breakdown: make([]ServiceEstimate, len(reqs)),
	}
	for i, req := range reqs {
		est.Breakdown[i] = ServiceEstimate{Name: req.Label(), Result: results[i]}
		est.Result = est.Result.Merge(results[i])
	}

	log.Info("estimate finished",
		zap.Int("requests", len(reqs)),
		zap.Int("records", est.Result.Len()),
		zap.String("total", est.Result.TotalCost.String()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return est, nil
}
