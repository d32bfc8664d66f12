// Package fxrate stores the ILS-anchored FX table and resolves the rates currently in force.
//
// Two rows may exist per currency: one written by a rate refresh and one entered by hand.
// The manual row always wins. ILS is the anchor and is pinned to 1 whatever is stored.
package fxrate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/domain"
)

// Service reads and writes FX rates.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new FX rate service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Current returns the merged rate table in force now.
func (s *Service) Current(ctx context.Context) (domain.FXRates, error) {
	rows, err := s.repo.GetAllRates(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading fx rates: %w", err)
	}
	return Merge(rows), nil
}

// SaveFetched records a rate produced by an automatic refresh.
func (s *Service) SaveFetched(ctx context.Context, currency string, toILS, toUSD decimal.Decimal) error {
	return s.save(ctx, currency, SourceFetched, toILS, toUSD)
}

// SetManual records a manual override, stamped with its own update time.
func (s *Service) SetManual(ctx context.Context, currency string, toILS, toUSD decimal.Decimal) error {
	return s.save(ctx, currency, SourceManual, toILS, toUSD)
}

// ClearManual removes a manual override so the fetched rate applies again.
func (s *Service) ClearManual(ctx context.Context, currency string) error {
	return s.repo.DeleteRate(ctx, strings.ToUpper(currency), SourceManual)
}

func (s *Service) save(ctx context.Context, currency string, source Source, toILS, toUSD decimal.Decimal) error {
	code := strings.ToUpper(currency)
	if !domain.IsKnownCurrency(code) {
		return fmt.Errorf("%w: unknown currency %q", ErrInvalidRate, currency)
	}
	if !toILS.IsPositive() {
		return fmt.Errorf("%w: rate for %s must be positive, got %s", ErrInvalidRate, code, toILS)
	}
	return s.repo.SaveRate(ctx, Rate{
		Currency:  code,
		Source:    source,
		ToUSD:     toUSD,
		ToILS:     toILS,
		UpdatedAt: s.now().UTC(),
	})
}

// Merge folds stored rows into a rate table. A manual row beats a fetched row for the
// same currency regardless of age. ILS is always present with ToILS = 1.
func Merge(rows []Rate) domain.FXRates {
	manual := lo.Filter(rows, func(r Rate, _ int) bool { return r.Source == SourceManual })
	fetched := lo.Filter(rows, func(r Rate, _ int) bool { return r.Source != SourceManual })

	seen := lo.SliceToMap(manual, func(r Rate) (string, bool) { return r.Currency, true })
	nonConflicting := lo.Filter(fetched, func(r Rate, _ int) bool { return !seen[r.Currency] })

	out := make(domain.FXRates, len(rows)+1)
	for _, r := range append(manual, nonConflicting...) {
		out[r.Currency] = domain.FXRate{
			ToUSD:       r.ToUSD,
			ToILS:       r.ToILS,
			LastUpdated: r.UpdatedAt,
			Manual:      r.Source == SourceManual,
		}
	}
	return Normalize(out)
}

// Normalize returns a copy of fx with the ILS anchor pinned to 1.
func Normalize(fx domain.FXRates) domain.FXRates {
	out := fx.Clone()
	if out == nil {
		out = make(domain.FXRates)
	}
	ils := out[domain.CurrencyILS]
	ils.ToILS = decimal.NewFromInt(1)
	if usd, ok := out[domain.CurrencyUSD]; ok && usd.ToILS.IsPositive() {
		ils.ToUSD = decimal.NewFromInt(1).Div(usd.ToILS)
	}
	out[domain.CurrencyILS] = ils
	return out
}

// LoadFile reads a rate table from a JSON file shaped like {"USD": {"toILS": "3.7", ...}}.
func LoadFile(path string) (domain.FXRates, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fx file: %w", err)
	}
	var fx domain.FXRates
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("decoding fx file %s: %w", path, err)
	}
	return Normalize(fx), nil
}
