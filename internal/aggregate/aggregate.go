// Package aggregate groups and filters valued assets along arbitrary dimensions.
//
// Every report view (class breakdowns, entity tables, maturity ladders, snapshot
// totals) goes through Aggregate so grouping, filtering and percentage rules live
// in one place. Groups preserve the order in which their keys were first seen.
package aggregate

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/valuation"
)

// Group is one bucket of an aggregation.
type Group struct {
	Key        string          `json:"key"`
	Count      int             `json:"count"`
	Value      decimal.Decimal `json:"value"`
	Percentage decimal.Decimal `json:"percentage"`
}

// Groups is an aggregation result in first-encounter order.
type Groups []Group

// Get returns the group with the given key.
func (g Groups) Get(key string) (Group, bool) {
	return lo.Find(g, func(gr Group) bool { return gr.Key == key })
}

// Keys returns the group keys in order.
func (g Groups) Keys() []string {
	return lo.Map(g, func(gr Group, _ int) string { return gr.Key })
}

// Total sums the group values.
func (g Groups) Total() decimal.Decimal {
	return lo.Reduce(g, func(acc decimal.Decimal, gr Group, _ int) decimal.Decimal {
		return acc.Add(gr.Value)
	}, decimal.Zero)
}

// Aggregate filters the assets and sums their display values per dimension key.
// Percentages are left at zero; use AggregateScoped when a view needs them.
func Aggregate(assets []domain.Asset, dim Dimension, fx domain.FXRates, view string, filters Filters) Groups {
	return group(filters.Apply(assets), dim, func(a domain.Asset) (decimal.Decimal, decimal.Decimal) {
		return valuation.DisplayValue(a, fx, view), decimal.Zero
	})
}

// AggregateScoped is Aggregate plus a percentage per group measured against the declared denominator.
// The denominator is computed over the filtered assets. Each asset contributes its own share, so a
// class-local percentage of a sub-class group is its share of the parent class.
func AggregateScoped(assets []domain.Asset, dim Dimension, fx domain.FXRates, view string, filters Filters, d Denominator) Groups {
	scoped := filters.Apply(assets)
	totals := ComputeTotals(scoped, fx, view)
	return group(scoped, dim, func(a domain.Asset) (decimal.Decimal, decimal.Decimal) {
		v := valuation.DisplayValue(a, fx, view)
		if !d.Includes(a.Class) {
			return v, decimal.Zero
		}
		return v, domain.PercentOf(v, totals.For(d, a.Class))
	})
}

func group(assets []domain.Asset, dim Dimension, value func(domain.Asset) (decimal.Decimal, decimal.Decimal)) Groups {
	index := make(map[string]int)
	var out Groups
	for _, a := range assets {
		key := dim.Key(a)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, Group{Key: key})
		}
		v, pct := value(a)
		out[i].Count++
		out[i].Value = out[i].Value.Add(v)
		out[i].Percentage = out[i].Percentage.Add(pct)
	}
	return out
}

// WeightedYTW returns the value-weighted yield to worst of the fixed income assets that carry one.
// Returns zero when no such holding has a positive value.
func WeightedYTW(assets []domain.Asset, fx domain.FXRates, view string) decimal.Decimal {
	var weighted, total decimal.Decimal
	for _, a := range assets {
		if a.Class != domain.ClassFixedIncome || a.YTW == nil {
			continue
		}
		v := valuation.DisplayValue(a, fx, view)
		weighted = weighted.Add(a.YTW.Mul(v))
		total = total.Add(v)
	}
	return domain.SafeDiv(weighted, total)
}

// MaturityLadder groups fixed income holdings by maturity year, in first-encounter order.
func MaturityLadder(assets []domain.Asset, fx domain.FXRates, view string) Groups {
	filters := Filters{}.IncludeOnly(FieldClass, string(domain.ClassFixedIncome))
	return Aggregate(assets, ByMaturityYear, fx, view, filters)
}
