package fxrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that no rate row matched.
var ErrNotFound = errors.New("fx rate not found")

// ErrInvalidRate indicates a rate rejected before it reached storage.
var ErrInvalidRate = errors.New("invalid fx rate")

// Source tells where a rate row came from.
type Source string

const (
	SourceFetched Source = "fetched"
	SourceManual  Source = "manual"
)

// Rate is one stored FX row.
type Rate struct {
	Currency  string          `json:"currency"`
	Source    Source          `json:"source"`
	ToUSD     decimal.Decimal `json:"toUSD"`
	ToILS     decimal.Decimal `json:"toILS"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Repository defines persistent storage for FX rates.
type Repository interface {
	SaveRate(ctx context.Context, r Rate) error
	GetAllRates(ctx context.Context) ([]Rate, error)
	DeleteRate(ctx context.Context, currency string, source Source) error
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL FX rate repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) SaveRate(ctx context.Context, rate Rate) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO fx_rates (currency, source, to_usd, to_ils, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (currency, source) DO UPDATE SET to_usd = $3, to_ils = $4, updated_at = $5`,
		rate.Currency, string(rate.Source), rate.ToUSD, rate.ToILS, rate.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving %s rate for %s: %w", rate.Source, rate.Currency, err)
	}
	return nil
}

func (r *PgRepository) GetAllRates(ctx context.Context) ([]Rate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT currency, source, to_usd, to_ils, updated_at FROM fx_rates ORDER BY currency, source`)
	if err != nil {
		return nil, fmt.Errorf("getting all rates: %w", err)
	}
	defer rows.Close()

	var rates []Rate
	for rows.Next() {
		var rt Rate
		var source string
		if err := rows.Scan(&rt.Currency, &source, &rt.ToUSD, &rt.ToILS, &rt.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning rate: %w", err)
		}
		rt.Source = Source(source)
		rates = append(rates, rt)
	}
	return rates, rows.Err()
}

func (r *PgRepository) DeleteRate(ctx context.Context, currency string, source Source) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM fx_rates WHERE currency = $1 AND source = $2`, currency, string(source))
	if err != nil {
		return fmt.Errorf("deleting %s rate for %s: %w", source, currency, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
