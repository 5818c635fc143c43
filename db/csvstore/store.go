// Package csvstore serves price rows from CSV shards on disk. Each service
// has a directory holding one <partition-key>.csv file per shard and an
// optional index_metadata.json.
package csvstore

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"pricecalc/core/partition"
	"pricecalc/core/pricing"
	"pricecalc/internal/errors"
	"pricecalc/internal/logging"
)

// Column names of a price list CSV export
const (
	ColumnStartingRange    = "StartingRange"
	ColumnEndingRange      = "EndingRange"
	ColumnPricePerUnit     = "PricePerUnit"
	ColumnPriceDescription = "PriceDescription"
	ColumnRateCode         = "RateCode"
	ColumnUnit             = "Unit"
)

// Store reads shards lazily and keeps every parsed shard in memory
type Store struct {
	dataDir string

	mu       sync.Mutex
	shards   map[string][]pricing.TierRow
	metadata map[string]*IndexMetadata
}

// New creates a store rooted at dataDir
func New(dataDir string) *Store {
	return &Store{
		dataDir:  dataDir,
		shards:   make(map[string][]pricing.TierRow),
		metadata: make(map[string]*IndexMetadata),
	}
}

// ServiceDir returns the directory holding a service's shards
func (s *Store) ServiceDir(service string) string {
	return filepath.Join(s.dataDir, service)
}

// Search implements pricing.Store. Shards listed in q.Partitions are read
// and every row whose columns satisfy q.Filters is returned. A shard with no
// file on disk holds no rows.
func (s *Store) Search(ctx context.Context, q pricing.Query) ([]pricing.TierRow, error) {
	if q.Service == "" {
		return nil, errors.New(errors.TypeStore, "csv store query names no service")
	}

	meta, err := s.Metadata(q.Service)
	if err != nil {
		return nil, err
	}

	var out []pricing.TierRow
	for _, key := range q.Partitions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !meta.Has(key) {
			continue
		}

		rows, err := s.Rows(q.Service, key)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if q.Matches(row.Attributes) {
				out = append(out, row)
			}
		}
	}
	return out, nil
}

// Rows returns every row of one shard, reading it on first use
func (s *Store) Rows(service string, key partition.Key) ([]pricing.TierRow, error) {
	cacheKey := service + "/" + string(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	if rows, ok := s.shards[cacheKey]; ok {
		return rows, nil
	}

	path := filepath.Join(s.ServiceDir(service), string(key)+".csv")
	rows, err := readShard(path)
	if err != nil {
		return nil, err
	}
	s.shards[cacheKey] = rows

	logging.Debug("loaded price shard",
		zap.String("service", service),
		zap.String("partition", string(key)),
		zap.Int("rows", len(rows)),
	)
	return rows, nil
}

func readShard(path string) ([]pricing.TierRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Store("open shard "+path, err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, errors.Parsing("read shard "+path, err)
	}
	return rows, nil
}

// ReadRows parses a price list CSV with a header line. Every column is kept
// in the row's Attributes so filters can match on any of them.
func ReadRows(r io.Reader) ([]pricing.TierRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var rows []pricing.TierRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		attrs := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				attrs[col] = record[i]
			}
		}
		rows = append(rows, pricing.TierRow{
			BeginRange:       attrs[ColumnStartingRange],
			EndRange:         attrs[ColumnEndingRange],
			PricePerUnit:     attrs[ColumnPricePerUnit],
			PriceDescription: attrs[ColumnPriceDescription],
			RateCode:         attrs[ColumnRateCode],
			Unit:             attrs[ColumnUnit],
			Attributes:       attrs,
		})
	}
	return rows, nil
}
