package liquidity

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/valuation"
)

// Matrix is the liquidity report: display value per category and beneficiary.
type Matrix struct {
	ViewCurrency  string                                                  `json:"viewCurrency"`
	Categories    []domain.LiquidityCategory                              `json:"categories"`
	Beneficiaries []string                                                `json:"beneficiaries"`
	Cells         map[domain.LiquidityCategory]map[string]decimal.Decimal `json:"cells"`
	RowTotals     map[domain.LiquidityCategory]decimal.Decimal            `json:"rowTotals"`
	ColumnTotals  map[string]decimal.Decimal                              `json:"columnTotals"`
	GrandTotal    decimal.Decimal                                         `json:"grandTotal"`
	Skipped       int                                                     `json:"skipped"`
}

// Cell returns the value at the given category and beneficiary, zero when empty.
func (m Matrix) Cell(cat domain.LiquidityCategory, beneficiary string) decimal.Decimal {
	return m.Cells[cat][beneficiary]
}

// BuildMatrix accumulates display values into category rows and beneficiary columns.
// Assets whose beneficiary is not in beneficiaries are counted in Skipped and left out of every total.
// Every category and beneficiary is present in the result even when its total is zero.
func BuildMatrix(assets []domain.Asset, c *Classifier, fx domain.FXRates, view string, beneficiaries []string) Matrix {
	m := Matrix{
		ViewCurrency:  view,
		Categories:    domain.LiquidityCategories(),
		Beneficiaries: append([]string(nil), beneficiaries...),
		Cells:         make(map[domain.LiquidityCategory]map[string]decimal.Decimal),
		RowTotals:     make(map[domain.LiquidityCategory]decimal.Decimal),
		ColumnTotals:  make(map[string]decimal.Decimal),
	}
	for _, cat := range m.Categories {
		m.Cells[cat] = make(map[string]decimal.Decimal, len(beneficiaries))
		m.RowTotals[cat] = decimal.Zero
		for _, b := range beneficiaries {
			m.Cells[cat][b] = decimal.Zero
		}
	}
	for _, b := range beneficiaries {
		m.ColumnTotals[b] = decimal.Zero
	}

	for _, a := range assets {
		if !lo.Contains(beneficiaries, a.Beneficiary) {
			m.Skipped++
			continue
		}
		cat := c.Classify(a)
		v := valuation.DisplayValue(a, fx, view)
		m.Cells[cat][a.Beneficiary] = m.Cells[cat][a.Beneficiary].Add(v)
		m.RowTotals[cat] = m.RowTotals[cat].Add(v)
		m.ColumnTotals[a.Beneficiary] = m.ColumnTotals[a.Beneficiary].Add(v)
		m.GrandTotal = m.GrandTotal.Add(v)
	}
	return m
}
