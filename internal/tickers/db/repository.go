// Package db stores the ticker directory in PostgreSQL.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	platformdb "github.com/tracemoney/tracemoney/internal/platform/db"
	"github.com/tracemoney/tracemoney/internal/tickers"
)

//go:embed schema.sql
var schema string

var errNotInitialised = errors.New("tickers/db: repository not initialised")

// Repository implements tickers.Repository on the sec_tickers table.
type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewRepository constructs a Postgres backed repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, now: time.Now}
}

// EnsureSchema creates the table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if r == nil || r.pool == nil {
		return errNotInitialised
	}
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("tickers/db: ensure schema: %w", err)
	}
	return nil
}

// List returns every stored company in upstream order.
func (r *Repository) List(ctx context.Context) ([]tickers.Company, error) {
	if r == nil || r.pool == nil {
		return nil, errNotInitialised
	}
	const query = `SELECT ticker, name, cik FROM sec_tickers ORDER BY position, ticker`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []tickers.Company
	for rows.Next() {
		var c tickers.Company
		if err := rows.Scan(&c.Ticker, &c.Name, &c.CIK); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ReplaceAll upserts the companies and drops rows that are no longer listed,
// in one transaction.
func (r *Repository) ReplaceAll(ctx context.Context, companies []tickers.Company) error {
	if r == nil || r.pool == nil {
		return errNotInitialised
	}
	stamp := r.now().UTC()
	const upsert = `
INSERT INTO sec_tickers (ticker, name, cik, position, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (ticker)
DO UPDATE SET name = EXCLUDED.name, cik = EXCLUDED.cik, position = EXCLUDED.position, updated_at = EXCLUDED.updated_at`
	return platformdb.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for i, c := range companies {
			ticker := tickers.NormalizeTicker(c.Ticker)
			if ticker == "" {
				return fmt.Errorf("tickers/db: empty ticker at position %d", i)
			}
			batch.Queue(upsert, ticker, c.Name, c.CIK, i, stamp)
		}
		if batch.Len() > 0 {
			results := tx.SendBatch(ctx, batch)
			for range companies {
				if _, err := results.Exec(); err != nil {
					_ = results.Close()
					return fmt.Errorf("tickers/db: upsert: %w", err)
				}
			}
			if err := results.Close(); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM sec_tickers WHERE updated_at < $1`, stamp); err != nil {
			return fmt.Errorf("tickers/db: prune: %w", err)
		}
		return nil
	})
}
