// Package snapshot captures, stores and compares immutable portfolio snapshots.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/wealth/internal/aggregate"
	"github.com/mtlprog/wealth/internal/compare"
	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/liquidity"
	"github.com/mtlprog/wealth/internal/valuation"
)

// ErrUnknownDimension is returned when an aggregation names a dimension that does not exist.
var ErrUnknownDimension = errors.New("unknown dimension")

// RateSource provides the FX table currently in force.
type RateSource interface {
	Current(ctx context.Context) (domain.FXRates, error)
}

// AssetError reports validation failures of one asset in a capture request.
type AssetError struct {
	Index  int
	Name   string
	Errors valuation.ValidationErrors
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("asset %d (%q): %s", e.Index, e.Name, e.Errors.Error())
}

func (e *AssetError) Unwrap() error { return e.Errors }

// Capture builds an immutable snapshot: assets and rates are deep-copied and totals are
// computed once in the view currency.
func Capture(name, description string, assets []domain.Asset, fx domain.FXRates, view string, now time.Time) *domain.PortfolioSnapshot {
	copied := domain.CloneAssets(assets)
	rates := fx.Clone()
	return &domain.PortfolioSnapshot{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Assets:      copied,
		FXRates:     rates,
		Totals:      aggregate.ComputeTotals(copied, rates, view).PortfolioTotals(view),
		CreatedAt:   now.UTC(),
	}
}

// Options configure report views of the snapshot service.
type Options struct {
	ViewCurrency  string
	Registry      *domain.EntityRegistry
	Classifier    *liquidity.Classifier
	Beneficiaries []string
}

// Service manages snapshot capture, retrieval and comparison.
type Service struct {
	repo  Repository
	rates RateSource
	opts  Options
	now   func() time.Time
}

// NewService creates a new snapshot service. Missing options fall back to a USD view,
// the built-in entity table and a classifier without overrides.
func NewService(repo Repository, rates RateSource, opts Options) *Service {
	if opts.ViewCurrency == "" {
		opts.ViewCurrency = domain.CurrencyUSD
	}
	if opts.Registry == nil {
		opts.Registry = domain.DefaultEntityRegistry()
	}
	if opts.Classifier == nil {
		opts.Classifier = liquidity.NewClassifier(nil, nil)
	}
	if len(opts.Beneficiaries) == 0 {
		opts.Beneficiaries = opts.Registry.Beneficiaries()
	}
	return &Service{repo: repo, rates: rates, opts: opts, now: time.Now}
}

// Create finalizes and validates the assets, captures them under the current FX table and
// stores the snapshot. Beneficiaries are derived from the entity registry, overriding input.
// Every invalid asset is reported; nothing is stored unless all pass.
func (s *Service) Create(ctx context.Context, name, description string, input []domain.Asset) (*domain.PortfolioSnapshot, error) {
	assets := make([]domain.Asset, 0, len(input))
	var errs []error
	for i, in := range input {
		a, v := valuation.Edit(in, s.opts.Registry).Finalize()
		if len(v) > 0 {
			errs = append(errs, &AssetError{Index: i, Name: in.Name, Errors: v})
			continue
		}
		if in.Beneficiary != "" && in.Beneficiary != a.Beneficiary {
			slog.Warn("beneficiary replaced by entity's", "asset", in.Name, "entity", a.AccountEntity,
				"given", in.Beneficiary, "derived", a.Beneficiary)
		}
		assets = append(assets, a)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	fx, err := s.rates.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting current rates: %w", err)
	}
	if missing := valuation.MissingRates(assets, fx, s.opts.ViewCurrency); len(missing) > 0 {
		slog.Warn("capturing snapshot with missing fx rates", "name", name, "currencies", missing)
	}

	snap := Capture(name, description, assets, fx, s.opts.ViewCurrency, s.now())
	if err := s.repo.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}
	slog.Info("snapshot captured", "id", snap.ID, "name", name, "assets", len(assets), "total", snap.Totals.Total)
	return snap, nil
}

// Get retrieves a snapshot by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.PortfolioSnapshot, error) {
	return s.repo.Get(ctx, id)
}

// List retrieves recent snapshot summaries.
func (s *Service) List(ctx context.Context, limit int) ([]Summary, error) {
	return s.repo.List(ctx, limit)
}

// Delete removes a snapshot.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Compare revalues two stored snapshots under the current FX table.
func (s *Service) Compare(ctx context.Context, idA, idB uuid.UUID, scope compare.Scope, top int) (compare.Report, error) {
	a, err := s.repo.Get(ctx, idA)
	if err != nil {
		return compare.Report{}, fmt.Errorf("loading snapshot A: %w", err)
	}
	b, err := s.repo.Get(ctx, idB)
	if err != nil {
		return compare.Report{}, fmt.Errorf("loading snapshot B: %w", err)
	}
	fx, err := s.rates.Current(ctx)
	if err != nil {
		return compare.Report{}, fmt.Errorf("getting current rates: %w", err)
	}
	return compare.NewEngine(a, b, fx).Report(scope, top), nil
}

// CompareLatest compares the two most recent snapshots, older as A.
// ok is false when fewer than two snapshots exist.
func (s *Service) CompareLatest(ctx context.Context, top int) (compare.Report, bool, error) {
	latest, err := s.repo.Latest(ctx, 2)
	if err != nil {
		return compare.Report{}, false, fmt.Errorf("loading latest snapshots: %w", err)
	}
	if len(latest) < 2 {
		return compare.Report{}, false, nil
	}
	fx, err := s.rates.Current(ctx)
	if err != nil {
		return compare.Report{}, false, fmt.Errorf("getting current rates: %w", err)
	}
	return compare.NewEngine(&latest[1], &latest[0], fx).Report(compare.ScopeAll, top), true, nil
}

// Liquidity builds the liquidity matrix of a snapshot under its own stored rates.
func (s *Service) Liquidity(ctx context.Context, id uuid.UUID) (liquidity.Matrix, error) {
	snap, err := s.repo.Get(ctx, id)
	if err != nil {
		return liquidity.Matrix{}, err
	}
	return liquidity.BuildMatrix(snap.Assets, s.opts.Classifier, snap.FXRates, s.opts.ViewCurrency, s.opts.Beneficiaries), nil
}

// Aggregate groups a snapshot's assets under its own stored rates.
func (s *Service) Aggregate(ctx context.Context, id uuid.UUID, dimension string, denom aggregate.Denominator, filters aggregate.Filters) (aggregate.Groups, error) {
	snap, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dim, ok := s.dimension(dimension, snap.CreatedAt)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownDimension, dimension)
	}
	return aggregate.AggregateScoped(snap.Assets, dim, snap.FXRates, s.opts.ViewCurrency, filters, denom), nil
}

func (s *Service) dimension(name string, asOf time.Time) (aggregate.Dimension, bool) {
	if name == "liquidity" {
		return s.opts.Classifier.Dimension(), true
	}
	return aggregate.DimensionByName(name, asOf)
}
