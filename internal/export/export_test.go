package export

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/wealth/internal/compare"
	"github.com/mtlprog/wealth/internal/domain"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func testReport() compare.Report {
	a := &domain.PortfolioSnapshot{Name: "Q1 2026", Assets: []domain.Asset{
		{Name: "AssetX", Class: domain.ClassPublicEquity, SubClass: "Stock", OriginCurrency: "USD", Quantity: d("10"), Price: dp("100")},
		{Name: "OldCo", Class: domain.ClassPublicEquity, SubClass: "ETF", OriginCurrency: "USD", Quantity: d("1"), Price: dp("40")},
	}}
	b := &domain.PortfolioSnapshot{Name: "Q2 2026", Assets: []domain.Asset{
		{Name: "AssetX", Class: domain.ClassPublicEquity, SubClass: "Stock", OriginCurrency: "USD", Quantity: d("10"), Price: dp("120")},
		{Name: "NewCo", Class: domain.ClassPublicEquity, SubClass: "Stock", OriginCurrency: "USD", Quantity: d("2"), Price: dp("30")},
	}}
	fx := domain.FXRates{"ILS": {ToILS: d("1")}, "USD": {ToILS: d("3.7")}}
	return compare.NewEngine(a, b, fx).Report(compare.ScopeAll, 2)
}

func TestTables(t *testing.T) {
	tables := Tables(testReport())

	names := make([]string, len(tables))
	for i, tb := range tables {
		names[i] = tb.Name
		for _, row := range tb.Rows {
			assert.Len(t, row, len(tb.Header), "%s row width", tb.Name)
		}
	}
	assert.Equal(t, []string{SheetSummary, SheetDeltas, SheetPublicEquity, SheetTopMovers, SheetPositions}, names)

	summary := tables[0]
	assert.Equal(t, []string{"Item", "Q1 2026", "Q2 2026", "Delta (USD)", "Delta %"}, summary.Header)
	assert.Equal(t, []any{"Total", 1040.0, 1260.0, 220.0, 21.15}, summary.Rows[0])

	pe := tables[2]
	require.Len(t, pe.Rows, 3)
	assert.Equal(t, "AssetX", pe.Rows[0][0])
	assert.Equal(t, 20.0, pe.Rows[0][6])
	assert.Nil(t, pe.Rows[1][6], "one-sided names have no price change")

	assert.Len(t, tables[3].Rows, 2)

	positions := tables[4]
	require.Len(t, positions.Rows, 2)
	assert.Equal(t, "deleted", positions.Rows[0][0])
	assert.Equal(t, "new", positions.Rows[1][0])
}

func TestTableValues(t *testing.T) {
	tb := Table{Header: []string{"a", "b"}, Rows: [][]any{{1, 2}}}
	assert.Equal(t, [][]any{{"a", "b"}, {1, 2}}, tb.Values())
}

func TestA1QuotesSheetNames(t *testing.T) {
	assert.Equal(t, "'New & Deleted'!A1", a1("New & Deleted", "A1"))
	assert.Equal(t, "'Bob''s'!A:Z", a1("Bob's", "A:Z"))
}

func TestAddSheetRequests(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		wanted   []string
		want     []string
	}{
		{name: "all missing", existing: []string{"Sheet1"}, wanted: []string{"Summary", "Deltas"}, want: []string{"Summary", "Deltas"}},
		{name: "some present", existing: []string{"Summary"}, wanted: []string{"Summary", "Deltas"}, want: []string{"Deltas"}},
		{name: "all present", existing: []string{"Summary", "Deltas"}, wanted: []string{"Deltas", "Summary"}, want: []string{}},
		{name: "duplicates requested once", wanted: []string{"Summary", "Summary"}, want: []string{"Summary"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requests := addSheetRequests(tt.existing, tt.wanted)
			titles := make([]string, 0, len(requests))
			for _, r := range requests {
				titles = append(titles, r.AddSheet.Properties.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestValueRangesStartAtA1(t *testing.T) {
	ranges := valueRanges([]Table{
		{Name: "Top Movers", Header: []string{"Asset"}, Rows: [][]any{{"x"}}},
	})
	require.Len(t, ranges, 1)
	assert.Equal(t, "'Top Movers'!A1", ranges[0].Range)
	assert.Equal(t, [][]any{{"Asset"}, {"x"}}, ranges[0].Values)
}

func TestFileName(t *testing.T) {
	at := time.Date(2026, 7, 1, 23, 0, 0, 0, time.UTC)
	r := compare.Report{Summary: compare.Summary{SnapshotA: "Q1 2026", SnapshotB: "../etc"}}
	assert.Equal(t, "comparison-Q1-2026-etc-20260701.xlsx", FileName(r, at))

	assert.Equal(t, "comparison-snapshot-snapshot-20260701.xlsx", FileName(compare.Report{}, at))
}

func TestXLSXWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewXLSXWriter(dir)
	w.now = func() time.Time { return time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, w.Write(context.Background(), testReport()))

	f, err := excelize.OpenFile(filepath.Join(dir, "comparison-Q1-2026-Q2-2026-20260701.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetDeltas, SheetPublicEquity, SheetTopMovers, SheetPositions}, f.GetSheetList())

	v, err := f.GetCellValue(SheetPositions, "B3")
	require.NoError(t, err)
	assert.Equal(t, "NewCo", v)
}

func TestWriteTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTo(&buf, testReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 5)
}

type stubWriter struct {
	calls int
	err   error
}

func (s *stubWriter) Write(_ context.Context, _ compare.Report) error {
	s.calls++
	return s.err
}

func TestMultiWriterRunsEveryWriter(t *testing.T) {
	failing := &stubWriter{err: errors.New("quota exceeded")}
	ok := &stubWriter{}

	err := MultiWriter{failing, ok}.Write(context.Background(), compare.Report{})

	assert.ErrorContains(t, err, "quota exceeded")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}
