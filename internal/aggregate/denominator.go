package aggregate

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/valuation"
)

// Denominator selects the total a percentage-of-scope is measured against.
// Views must pick one explicitly; the totals differ and must not be mixed.
type Denominator string

const (
	// DenominatorClassLocal divides by the total of the asset's own class.
	DenominatorClassLocal Denominator = "classLocal"
	// DenominatorExcludingPrivateAndRealEstate divides by the grand total without Private Equity and Real Estate.
	DenominatorExcludingPrivateAndRealEstate Denominator = "excludingPrivateAndRealEstate"
	// DenominatorExcludingPrivateEquity divides by the grand total without Private Equity.
	DenominatorExcludingPrivateEquity Denominator = "excludingPrivateEquity"
	// DenominatorAll divides by the grand total.
	DenominatorAll Denominator = "all"
)

// ParseDenominator validates a denominator name.
func ParseDenominator(s string) (Denominator, error) {
	d := Denominator(s)
	switch d {
	case DenominatorClassLocal, DenominatorExcludingPrivateAndRealEstate, DenominatorExcludingPrivateEquity, DenominatorAll:
		return d, nil
	default:
		return "", fmt.Errorf("unknown denominator %q", s)
	}
}

// Includes reports whether assets of the class count toward the denominator.
func (d Denominator) Includes(c domain.AssetClass) bool {
	switch d {
	case DenominatorExcludingPrivateAndRealEstate:
		return c != domain.ClassPrivateEquity && c != domain.ClassRealEstate
	case DenominatorExcludingPrivateEquity:
		return c != domain.ClassPrivateEquity
	default:
		return true
	}
}

// Totals holds the display-value totals needed by every denominator.
type Totals struct {
	All                           decimal.Decimal
	ExcludingPrivateEquity        decimal.Decimal
	ExcludingPrivateAndRealEstate decimal.Decimal
	ByClass                       map[domain.AssetClass]decimal.Decimal
	Count                         int
}

// ComputeTotals values every asset once and accumulates all totals.
func ComputeTotals(assets []domain.Asset, fx domain.FXRates, view string) Totals {
	t := Totals{ByClass: make(map[domain.AssetClass]decimal.Decimal), Count: len(assets)}
	for _, a := range assets {
		v := valuation.DisplayValue(a, fx, view)
		t.All = t.All.Add(v)
		t.ByClass[a.Class] = t.ByClass[a.Class].Add(v)
		if DenominatorExcludingPrivateEquity.Includes(a.Class) {
			t.ExcludingPrivateEquity = t.ExcludingPrivateEquity.Add(v)
		}
		if DenominatorExcludingPrivateAndRealEstate.Includes(a.Class) {
			t.ExcludingPrivateAndRealEstate = t.ExcludingPrivateAndRealEstate.Add(v)
		}
	}
	return t
}

// For returns the denominator value that applies to an asset of the given class.
func (t Totals) For(d Denominator, c domain.AssetClass) decimal.Decimal {
	switch d {
	case DenominatorClassLocal:
		return t.ByClass[c]
	case DenominatorExcludingPrivateAndRealEstate:
		return t.ExcludingPrivateAndRealEstate
	case DenominatorExcludingPrivateEquity:
		return t.ExcludingPrivateEquity
	default:
		return t.All
	}
}

// PortfolioTotals converts the totals into the shape stored on a snapshot.
func (t Totals) PortfolioTotals(view string) domain.PortfolioTotals {
	return domain.PortfolioTotals{
		ViewCurrency:                       view,
		Total:                              t.All,
		TotalExcludingPrivateEquity:        t.ExcludingPrivateEquity,
		TotalExcludingPrivateAndRealEstate: t.ExcludingPrivateAndRealEstate,
		AssetCount:                         t.Count,
	}
}

// Scope values every asset and fills PercentageOfScope against the denominator.
// Assets outside the denominator keep a zero percentage.
func Scope(assets []domain.Asset, fx domain.FXRates, view string, d Denominator) []domain.AssetCalculations {
	totals := ComputeTotals(assets, fx, view)
	return lo.Map(assets, func(a domain.Asset, _ int) domain.AssetCalculations {
		calc := valuation.Valuate(a, fx, view)
		if d.Includes(a.Class) {
			calc.PercentageOfScope = domain.PercentOf(calc.DisplayValue, totals.For(d, a.Class))
		}
		return calc
	})
}
