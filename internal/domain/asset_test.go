package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsAllowedSubClass(t *testing.T) {
	tests := []struct {
		name  string
		class AssetClass
		sub   string
		want  bool
	}{
		{"cash currency", ClassCash, "EUR", true},
		{"cash lowercase code", ClassCash, "eur", false},
		{"cash unknown code", ClassCash, "XYZ", false},
		{"fixed income deposit", ClassFixedIncome, SubClassBankDeposit, true},
		{"fixed income with equity sub", ClassFixedIncome, "Stock", false},
		{"public equity etf", ClassPublicEquity, "ETF", true},
		{"real estate reit", ClassRealEstate, "REIT", true},
		{"unknown class", AssetClass("Art"), "Painting", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowedSubClass(tt.class, tt.sub))
		})
	}
}

func TestEffectiveFactor(t *testing.T) {
	half := decimal.RequireFromString("0.5")

	tests := []struct {
		name  string
		asset Asset
		want  string
	}{
		{"private equity with factor", Asset{Class: ClassPrivateEquity, Factor: &half}, "0.5"},
		{"real estate with factor", Asset{Class: ClassRealEstate, Factor: &half}, "0.5"},
		{"private equity default", Asset{Class: ClassPrivateEquity}, "1"},
		{"public equity ignores factor", Asset{Class: ClassPublicEquity, Factor: &half}, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.asset.EffectiveFactor().Equal(decimal.RequireFromString(tt.want)),
				"EffectiveFactor() = %s, want %s", tt.asset.EffectiveFactor(), tt.want)
		})
	}
}

func TestCashEquivalent(t *testing.T) {
	assert.True(t, Asset{Class: ClassCash, SubClass: "USD"}.CashEquivalent())
	assert.True(t, Asset{Class: ClassFixedIncome, SubClass: SubClassMoneyMarket}.CashEquivalent())
	assert.False(t, Asset{Class: ClassFixedIncome, SubClass: SubClassCorporateBond}.CashEquivalent())
	assert.False(t, Asset{Class: ClassPublicEquity, SubClass: "ETF"}.CashEquivalent())
}

func TestAssetCloneIsDeep(t *testing.T) {
	price := decimal.NewFromInt(10)
	maturity := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	a := Asset{Name: "Bond", Price: &price, MaturityDate: &maturity}

	c := a.Clone()
	*c.Price = decimal.NewFromInt(99)
	*c.MaturityDate = maturity.AddDate(1, 0, 0)

	assert.True(t, a.Price.Equal(decimal.NewFromInt(10)), "price pointer shared with clone")
	assert.Equal(t, 2030, a.MaturityDate.Year(), "maturity pointer shared with clone")
}

func TestFXRatesClone(t *testing.T) {
	fx := FXRates{"USD": {ToILS: decimal.RequireFromString("3.7")}}
	c := fx.Clone()
	c["EUR"] = FXRate{ToILS: decimal.NewFromInt(4)}

	assert.Len(t, fx, 1)
	assert.Equal(t, []string{"EUR", "USD"}, c.Currencies())
	assert.Nil(t, FXRates(nil).Clone())
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatMoney(decimal.RequireFromString("1234.5"), "USD"))
	assert.Equal(t, "12.30 ZZZ", FormatMoney(decimal.RequireFromString("12.3"), "ZZZ"))
}
