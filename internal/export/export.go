// Package export writes comparison reports to spreadsheets.
//
// Report contents are laid out once as plain tables by Tables; each writer only
// decides where the tables go.
package export

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/compare"
	"github.com/mtlprog/wealth/internal/domain"
)

// Sheet names of a comparison report, in workbook order.
const (
	SheetSummary      = "Summary"
	SheetDeltas       = "Deltas"
	SheetPublicEquity = "Public Equity"
	SheetTopMovers    = "Top Movers"
	SheetPositions    = "New & Deleted"
)

// ReportWriter writes a comparison report to a spreadsheet destination.
type ReportWriter interface {
	Write(ctx context.Context, r compare.Report) error
}

// Table is one sheet: a header row followed by data rows.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
}

// Values returns the header and rows as one grid.
func (t Table) Values() [][]any {
	out := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	out = append(out, header)
	return append(out, t.Rows...)
}

// Tables lays out every sheet of a comparison report.
func Tables(r compare.Report) []Table {
	return []Table{
		buildSummary(r.Summary),
		buildDeltas(SheetDeltas, r.Deltas),
		buildPublicEquity(r.PublicEquity),
		buildDeltas(SheetTopMovers, r.TopMovers),
		buildPositions(r.Positions),
	}
}

// buildSummary lays out the headline figures followed by the per-class breakdown.
// Columns: Item | A | B | Delta | Delta %
func buildSummary(s compare.Summary) Table {
	t := Table{
		Name:   SheetSummary,
		Header: []string{"Item", s.SnapshotA, s.SnapshotB, "Delta (USD)", "Delta %"},
	}
	t.Rows = append(t.Rows, []any{
		"Total", toFloat(s.TotalA), toFloat(s.TotalB), toFloat(s.Delta), toFloat(s.DeltaPercent),
	})
	for _, c := range s.ByClass {
		t.Rows = append(t.Rows, []any{
			string(c.Class), toFloat(c.ValueA), toFloat(c.ValueB), toFloat(c.Delta),
			toFloat(domain.RoundPercent(domain.PercentOf(c.Delta, c.ValueA))),
		})
	}
	t.Rows = append(t.Rows,
		[]any{"New positions", nil, s.NewCount, nil, nil},
		[]any{"Deleted positions", s.DeletedCount, nil, nil, nil},
	)
	return t
}

// buildDeltas lays out per-name deltas.
// Columns: Asset | Class | Sub-class | Currency | Value A | Value B | Delta (USD)
func buildDeltas(name string, deltas []domain.AssetDelta) Table {
	t := Table{
		Name:   name,
		Header: []string{"Asset", "Class", "Sub-class", "Currency", "Value A", "Value B", "Delta (USD)"},
		Rows:   make([][]any, 0, len(deltas)),
	}
	for _, d := range deltas {
		t.Rows = append(t.Rows, []any{
			d.AssetName, string(d.Class), d.SubClass, d.OriginCurrency,
			toFloat(d.ValueA), toFloat(d.ValueB), toFloat(d.DeltaUSD),
		})
	}
	return t
}

// buildPublicEquity is buildDeltas plus the unit price change.
// Columns: Asset | Sub-class | Currency | Value A | Value B | Delta (USD) | Price change %
func buildPublicEquity(deltas []domain.AssetDelta) Table {
	t := Table{
		Name:   SheetPublicEquity,
		Header: []string{"Asset", "Sub-class", "Currency", "Value A", "Value B", "Delta (USD)", "Price change %"},
		Rows:   make([][]any, 0, len(deltas)),
	}
	for _, d := range deltas {
		t.Rows = append(t.Rows, []any{
			d.AssetName, d.SubClass, d.OriginCurrency,
			toFloat(d.ValueA), toFloat(d.ValueB), toFloat(d.DeltaUSD),
			ptrFloat(d.PriceChangePercent),
		})
	}
	return t
}

// buildPositions lists opened and closed positions.
// Columns: Change | Asset | Class | Sub-class | Currency | Value (USD)
func buildPositions(changes []domain.PositionChange) Table {
	t := Table{
		Name:   SheetPositions,
		Header: []string{"Change", "Asset", "Class", "Sub-class", "Currency", "Value (USD)"},
		Rows:   make([][]any, 0, len(changes)),
	}
	for _, c := range changes {
		t.Rows = append(t.Rows, []any{
			string(c.ChangeType), c.AssetName, string(c.Class), c.SubClass, c.OriginCurrency, toFloat(c.Value),
		})
	}
	return t
}

// MultiWriter fans a report out to several writers. Every writer runs even if
// an earlier one fails; the failures are joined.
type MultiWriter []ReportWriter

func (m MultiWriter) Write(ctx context.Context, r compare.Report) error {
	var errs []error
	for _, w := range m {
		if err := w.Write(ctx, r); err != nil {
			slog.Error("export: writer failed", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func ptrFloat(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	f, _ := d.Float64()
	return f
}
