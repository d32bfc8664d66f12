package compare

import (
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/aggregate"
	"github.com/mtlprog/wealth/internal/domain"
)

// ClassChange is the value change of one asset class.
type ClassChange struct {
	Class  domain.AssetClass `json:"class"`
	ValueA decimal.Decimal   `json:"valueA"`
	ValueB decimal.Decimal   `json:"valueB"`
	Delta  decimal.Decimal   `json:"delta"`
}

// Summary is the headline of a comparison, in USD.
type Summary struct {
	SnapshotA    string          `json:"snapshotA"`
	SnapshotB    string          `json:"snapshotB"`
	TotalA       decimal.Decimal `json:"totalA"`
	TotalB       decimal.Decimal `json:"totalB"`
	Delta        decimal.Decimal `json:"delta"`
	DeltaPercent decimal.Decimal `json:"deltaPercent"`
	ByClass      []ClassChange   `json:"byClass"`
	NewCount     int             `json:"newCount"`
	DeletedCount int             `json:"deletedCount"`
}

// Summary totals both sides and breaks the change down by asset class in display order.
// Classes absent from both snapshots are omitted.
func (e *Engine) Summary() Summary {
	if !e.ready() {
		return Summary{ByClass: []ClassChange{}}
	}
	groupsA := aggregate.Aggregate(e.a.Assets, aggregate.ByClass, e.fx, domain.CurrencyUSD, aggregate.Filters{})
	groupsB := aggregate.Aggregate(e.b.Assets, aggregate.ByClass, e.fx, domain.CurrencyUSD, aggregate.Filters{})

	s := Summary{
		SnapshotA: e.a.Name,
		SnapshotB: e.b.Name,
		TotalA:    groupsA.Total(),
		TotalB:    groupsB.Total(),
		ByClass:   []ClassChange{},
	}
	s.Delta = s.TotalB.Sub(s.TotalA)
	s.DeltaPercent = domain.RoundPercent(domain.PercentOf(s.Delta, s.TotalA))

	for _, class := range domain.AssetClasses() {
		ga, okA := groupsA.Get(string(class))
		gb, okB := groupsB.Get(string(class))
		if !okA && !okB {
			continue
		}
		s.ByClass = append(s.ByClass, ClassChange{
			Class:  class,
			ValueA: ga.Value,
			ValueB: gb.Value,
			Delta:  gb.Value.Sub(ga.Value),
		})
	}

	for _, c := range e.NewAndDeletedPositions() {
		if c.ChangeType == domain.ChangeNew {
			s.NewCount++
		} else {
			s.DeletedCount++
		}
	}
	return s
}

// Report bundles every comparison view for export.
type Report struct {
	Summary      Summary                 `json:"summary"`
	Scope        Scope                   `json:"scope"`
	Deltas       []domain.AssetDelta     `json:"deltas"`
	PublicEquity []domain.AssetDelta     `json:"publicEquity"`
	TopMovers    []domain.AssetDelta     `json:"topMovers"`
	Positions    []domain.PositionChange `json:"positions"`
}

// Report runs every view of the engine. top limits the number of top movers.
func (e *Engine) Report(scope Scope, top int) Report {
	deltas := e.CalculateDeltas(scope)
	return Report{
		Summary:      e.Summary(),
		Scope:        scope,
		Deltas:       deltas,
		PublicEquity: e.PublicEquityDeltas(),
		TopMovers:    TopDeltas(deltas, top),
		Positions:    e.NewAndDeletedPositions(),
	}
}
