// Package compare revalues two portfolio snapshots under one FX table and reports what changed.
//
// Both sides are always valued with the same current rates, never with the rates stored on
// each snapshot, so a delta reflects holdings and prices rather than currency drift.
// All values are reported in USD.
package compare

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/aggregate"
	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/valuation"
)

// Scope restricts a comparison to one asset class or to the whole portfolio.
type Scope string

const (
	ScopeCash          Scope = "cash"
	ScopeFixedIncome   Scope = "fixed_income"
	ScopePrivateEquity Scope = "private_equity"
	ScopeRealEstate    Scope = "real_estate"
	ScopePublicEquity  Scope = "public_equity"
	ScopeCommodities   Scope = "commodities"
	ScopeAll           Scope = "all"
)

var scopeClasses = map[Scope]domain.AssetClass{
	ScopeCash:          domain.ClassCash,
	ScopeFixedIncome:   domain.ClassFixedIncome,
	ScopePrivateEquity: domain.ClassPrivateEquity,
	ScopeRealEstate:    domain.ClassRealEstate,
	ScopePublicEquity:  domain.ClassPublicEquity,
	ScopeCommodities:   domain.ClassCommodities,
}

// Scopes lists every scope, per-class scopes first.
func Scopes() []Scope {
	return []Scope{
		ScopeCash, ScopeFixedIncome, ScopePrivateEquity, ScopeRealEstate,
		ScopePublicEquity, ScopeCommodities, ScopeAll,
	}
}

// ParseScope validates a scope name. An empty string means ScopeAll.
func ParseScope(s string) (Scope, error) {
	if s == "" {
		return ScopeAll, nil
	}
	sc := Scope(s)
	if sc == ScopeAll {
		return sc, nil
	}
	if _, ok := scopeClasses[sc]; !ok {
		return "", fmt.Errorf("unknown comparison scope %q", s)
	}
	return sc, nil
}

func (s Scope) filters() aggregate.Filters {
	class, ok := scopeClasses[s]
	if !ok {
		return aggregate.Filters{}
	}
	return aggregate.Filters{}.IncludeOnly(aggregate.FieldClass, string(class))
}

// Engine compares snapshot A (before) with snapshot B (after).
// When either snapshot is nil every method returns an empty result.
type Engine struct {
	a, b *domain.PortfolioSnapshot
	fx   domain.FXRates
}

// NewEngine prepares a comparison under the given FX table.
func NewEngine(a, b *domain.PortfolioSnapshot, currentFX domain.FXRates) *Engine {
	return &Engine{a: a, b: b, fx: currentFX}
}

func (e *Engine) ready() bool {
	return e != nil && e.a != nil && e.b != nil
}

func (e *Engine) value(a domain.Asset) decimal.Decimal {
	return valuation.DisplayValue(a, e.fx, domain.CurrencyUSD)
}

// position is the per-name state of one side of the comparison.
type position struct {
	first domain.Asset
	value decimal.Decimal
}

// byName sums values per asset name and remembers the first asset seen for each name.
func (e *Engine) byName(assets []domain.Asset) (map[string]*position, []string) {
	out := make(map[string]*position)
	var order []string
	for _, a := range assets {
		p, ok := out[a.Name]
		if !ok {
			p = &position{first: a}
			out[a.Name] = p
			order = append(order, a.Name)
		}
		p.value = p.value.Add(e.value(a))
	}
	return out, order
}

// CalculateDeltas returns one delta per asset name within scope, A's names first, then names only in B.
// A name missing from one side is valued at zero there.
func (e *Engine) CalculateDeltas(scope Scope) []domain.AssetDelta {
	if !e.ready() {
		return []domain.AssetDelta{}
	}
	f := scope.filters()
	posA, orderA := e.byName(f.Apply(e.a.Assets))
	posB, orderB := e.byName(f.Apply(e.b.Assets))

	names := lo.Uniq(append(orderA, orderB...))
	return lo.Map(names, func(name string, _ int) domain.AssetDelta {
		var valueA, valueB decimal.Decimal
		var ref domain.Asset
		if p, ok := posB[name]; ok {
			valueB = p.value
			ref = p.first
		}
		if p, ok := posA[name]; ok {
			valueA = p.value
			ref = p.first
		}
		return domain.AssetDelta{
			AssetName:      name,
			Class:          ref.Class,
			SubClass:       ref.SubClass,
			ValueA:         valueA,
			ValueB:         valueB,
			DeltaUSD:       valueB.Sub(valueA),
			OriginCurrency: ref.OriginCurrency,
		}
	})
}

// PublicEquityDeltas is CalculateDeltas for Public Equity with the unit price change of every name
// held on both sides. The price change is omitted when A's price is not positive.
func (e *Engine) PublicEquityDeltas() []domain.AssetDelta {
	deltas := e.CalculateDeltas(ScopePublicEquity)
	if len(deltas) == 0 {
		return deltas
	}
	f := ScopePublicEquity.filters()
	posA, _ := e.byName(f.Apply(e.a.Assets))
	posB, _ := e.byName(f.Apply(e.b.Assets))

	for i := range deltas {
		pa, okA := posA[deltas[i].AssetName]
		pb, okB := posB[deltas[i].AssetName]
		if !okA || !okB {
			continue
		}
		deltas[i].PriceChangePercent = PriceChangePercent(pa.first.Price, pb.first.Price)
	}
	return deltas
}

// PriceChangePercent returns (b/a − 1) × 100 rounded to two places, or nil when either price is
// missing or a is not positive.
func PriceChangePercent(a, b *decimal.Decimal) *decimal.Decimal {
	if a == nil || b == nil || !a.IsPositive() {
		return nil
	}
	pct := domain.RoundPercent(b.Div(*a).Sub(decimal.NewFromInt(1)).Mul(decimal.NewFromInt(100)))
	return &pct
}

// TopDeltas returns the n largest deltas by absolute value. Ties keep their input order.
// The input slice is not modified.
func TopDeltas(deltas []domain.AssetDelta, n int) []domain.AssetDelta {
	out := append([]domain.AssetDelta(nil), deltas...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DeltaUSD.Abs().GreaterThan(out[j].DeltaUSD.Abs())
	})
	if n < 0 {
		n = 0
	}
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// NewAndDeletedPositions lists names held only in A (deleted, first) and only in B (new).
// Values are each side's own total for the name.
func (e *Engine) NewAndDeletedPositions() []domain.PositionChange {
	if !e.ready() {
		return []domain.PositionChange{}
	}
	posA, orderA := e.byName(e.a.Assets)
	posB, orderB := e.byName(e.b.Assets)

	out := make([]domain.PositionChange, 0)
	for _, name := range orderA {
		if _, ok := posB[name]; !ok {
			out = append(out, change(posA[name], domain.ChangeDeleted))
		}
	}
	for _, name := range orderB {
		if _, ok := posA[name]; !ok {
			out = append(out, change(posB[name], domain.ChangeNew))
		}
	}
	return out
}

func change(p *position, t domain.ChangeType) domain.PositionChange {
	return domain.PositionChange{
		AssetName:      p.first.Name,
		Class:          p.first.Class,
		SubClass:       p.first.SubClass,
		Value:          p.value,
		OriginCurrency: p.first.OriginCurrency,
		ChangeType:     t,
	}
}
