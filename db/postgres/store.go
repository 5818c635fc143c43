// Package postgres serves price rows from a PostgreSQL table. Rows are
// indexed by service and partition key; every other column of the source
// price list lives in a jsonb attributes document.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"pricecalc/core/partition"
	"pricecalc/core/pricing"
	"pricecalc/internal/errors"
	"pricecalc/internal/logging"
)

// Schema creates the price table
const Schema = `CREATE TABLE IF NOT EXISTS price_rows (
	id                BIGSERIAL PRIMARY KEY,
	service           TEXT  NOT NULL,
	partition_key     TEXT  NOT NULL,
	begin_range       TEXT  NOT NULL DEFAULT '',
	end_range         TEXT  NOT NULL DEFAULT '',
	price_per_unit    TEXT  NOT NULL,
	price_description TEXT  NOT NULL DEFAULT '',
	rate_code         TEXT  NOT NULL DEFAULT '',
	unit              TEXT  NOT NULL DEFAULT '',
	attributes        JSONB NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS price_rows_shard ON price_rows (service, partition_key);
CREATE INDEX IF NOT EXISTS price_rows_attributes ON price_rows USING GIN (attributes);`

const searchQuery = `SELECT begin_range, end_range, price_per_unit, price_description, rate_code, unit, attributes
FROM price_rows
WHERE service = $1 AND partition_key = ANY($2) AND attributes @> $3::jsonb
ORDER BY id`

const deleteShardQuery = `DELETE FROM price_rows WHERE service = $1 AND partition_key = $2`

const insertQuery = `INSERT INTO price_rows
	(service, partition_key, begin_range, end_range, price_per_unit, price_description, rate_code, unit, attributes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// Store implements pricing.Store over a *sql.DB
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open connects with the lib/pq driver and checks the connection
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Store("open postgres", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Store("ping postgres", err)
	}
	return New(db), nil
}

// New wraps an open database handle
func New(db *sql.DB) *Store {
	return &Store{db: db, log: logging.Named("postgres")}
}

// Close closes the underlying handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the price table and its indexes if missing
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return errors.Store("migrate price_rows", err)
	}
	return nil
}

// Search implements pricing.Store. Filters become a jsonb containment test,
// which is exact equality on every filtered attribute.
func (s *Store) Search(ctx context.Context, q pricing.Query) ([]pricing.TierRow, error) {
	if q.Service == "" {
		return nil, errors.New(errors.TypeStore, "postgres query names no service")
	}
	if len(q.Partitions) == 0 {
		return nil, nil
	}

	filters := q.Filters
	if filters == nil {
		filters = map[string]string{}
	}
	doc, err := json.Marshal(filters)
	if err != nil {
		return nil, errors.Internal("encode filters", err)
	}

	keys := make([]string, len(q.Partitions))
	for i, k := range q.Partitions {
		keys[i] = string(k)
	}

	rows, err := s.db.QueryContext(ctx, searchQuery, q.Service, pq.Array(keys), string(doc))
	if err != nil {
		return nil, errors.Store("search price_rows", err)
	}
	defer rows.Close()

	var out []pricing.TierRow
	for rows.Next() {
		var (
			row   pricing.TierRow
			attrs []byte
		)
		if err := rows.Scan(&row.BeginRange, &row.EndRange, &row.PricePerUnit, &row.PriceDescription, &row.RateCode, &row.Unit, &attrs); err != nil {
			return nil, errors.Store("scan price row", err)
		}
		if err := json.Unmarshal(attrs, &row.Attributes); err != nil {
			return nil, errors.Parsing("decode price row attributes", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Store("iterate price rows", err)
	}

	s.log.Debug("price rows searched",
		zap.String("service", q.Service),
		zap.Int("partitions", len(keys)),
		zap.Int("rows", len(out)),
	)
	return out, nil
}

// ReplaceShard swaps the rows stored under one shard for rows in a single
// transaction, so importing the same shard twice leaves one copy.
func (s *Store) ReplaceShard(ctx context.Context, service string, key partition.Key, rows []pricing.TierRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Store("begin insert", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, deleteShardQuery, service, string(key))
	if err != nil {
		return errors.Store("clear shard "+string(key), err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		s.log.Debug("replacing shard", zap.String("partition", string(key)), zap.Int64("old_rows", n))
	}

	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return errors.Store("prepare insert", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		attrs := row.Attributes
		if attrs == nil {
			attrs = map[string]string{}
		}
		doc, err := json.Marshal(attrs)
		if err != nil {
			return errors.Internal("encode attributes", err)
		}
		if _, err := stmt.ExecContext(ctx, service, string(key), row.BeginRange, row.EndRange,
			row.PricePerUnit, row.PriceDescription, row.RateCode, row.Unit, string(doc)); err != nil {
			return errors.Store("insert price row", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Store("commit insert", err)
	}
	return nil
}
