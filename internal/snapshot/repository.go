package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/wealth/internal/domain"
)

// ErrNotFound indicates that the requested snapshot was not found.
var ErrNotFound = errors.New("snapshot not found")

// Summary is the listing view of a stored snapshot, without its assets.
type Summary struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Totals      domain.PortfolioTotals `json:"totals"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// Repository defines persistent storage for snapshots.
type Repository interface {
	Save(ctx context.Context, s *domain.PortfolioSnapshot) error
	Get(ctx context.Context, id uuid.UUID) (*domain.PortfolioSnapshot, error)
	List(ctx context.Context, limit int) ([]Summary, error)
	Latest(ctx context.Context, n int) ([]domain.PortfolioSnapshot, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PgRepository implements Repository with PostgreSQL.
// Assets, rates and totals are stored as jsonb.
type PgRepository struct {
	pool *pgxpool.Pool
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func (r *PgRepository) Save(ctx context.Context, s *domain.PortfolioSnapshot) error {
	assets, err := json.Marshal(s.Assets)
	if err != nil {
		return fmt.Errorf("marshaling assets: %w", err)
	}
	rates, err := json.Marshal(s.FXRates)
	if err != nil {
		return fmt.Errorf("marshaling fx rates: %w", err)
	}
	totals, err := json.Marshal(s.Totals)
	if err != nil {
		return fmt.Errorf("marshaling totals: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO portfolio_snapshots (id, name, description, assets, fx_rates, totals, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6::jsonb, $7)`,
		s.ID, s.Name, s.Description, assets, rates, totals, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	return nil
}

const selectSnapshot = `SELECT id, name, description, assets, fx_rates, totals, created_at FROM portfolio_snapshots`

func scanSnapshot(row pgx.Row) (*domain.PortfolioSnapshot, error) {
	var s domain.PortfolioSnapshot
	var assets, rates, totals []byte
	if err := row.Scan(&s.ID, &s.Name, &s.Description, &assets, &rates, &totals, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(assets, &s.Assets); err != nil {
		return nil, fmt.Errorf("decoding assets of %s: %w", s.ID, err)
	}
	if err := json.Unmarshal(rates, &s.FXRates); err != nil {
		return nil, fmt.Errorf("decoding fx rates of %s: %w", s.ID, err)
	}
	if err := json.Unmarshal(totals, &s.Totals); err != nil {
		return nil, fmt.Errorf("decoding totals of %s: %w", s.ID, err)
	}
	return &s, nil
}

func (r *PgRepository) Get(ctx context.Context, id uuid.UUID) (*domain.PortfolioSnapshot, error) {
	s, err := scanSnapshot(r.pool.QueryRow(ctx, selectSnapshot+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting snapshot %s: %w", id, err)
	}
	return s, nil
}

func (r *PgRepository) List(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 30
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, totals, created_at
		 FROM portfolio_snapshots
		 ORDER BY created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		var totals []byte
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &totals, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		if err := json.Unmarshal(totals, &s.Totals); err != nil {
			return nil, fmt.Errorf("decoding totals of %s: %w", s.ID, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return out, nil
}

// Latest returns up to n full snapshots, newest first.
func (r *PgRepository) Latest(ctx context.Context, n int) ([]domain.PortfolioSnapshot, error) {
	rows, err := r.pool.Query(ctx, selectSnapshot+` ORDER BY created_at DESC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("getting latest snapshots: %w", err)
	}
	defer rows.Close()

	var out []domain.PortfolioSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return out, nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM portfolio_snapshots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting snapshot %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
