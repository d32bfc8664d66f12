// Package valuation turns assets into raw, converted and display values.
package valuation

import (
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/currency"
	"github.com/mtlprog/wealth/internal/domain"
)

var one = decimal.NewFromInt(1)

// EffectivePrice returns the unit price used for valuation. Cash without a positive price is worth 1 per unit.
func EffectivePrice(a domain.Asset) decimal.Decimal {
	if a.Class == domain.ClassCash && (a.Price == nil || !a.Price.IsPositive()) {
		return one
	}
	return domain.DecimalOrZero(a.Price)
}

// Valuate computes the derived values of one asset in the view currency.
// PercentageOfScope is left at zero; the aggregation layer fills it against an explicit denominator.
func Valuate(a domain.Asset, fx domain.FXRates, view string) domain.AssetCalculations {
	return valuateWithRate(a, currency.RateFor(a.OriginCurrency, view, fx))
}

func valuateWithRate(a domain.Asset, rate decimal.Decimal) domain.AssetCalculations {
	raw := a.Quantity.Mul(EffectivePrice(a))
	converted := raw.Mul(rate)
	return domain.AssetCalculations{
		RawBaseValue:      raw,
		ConvertedValue:    converted,
		DisplayValue:      converted.Mul(a.EffectiveFactor()),
		PercentageOfScope: decimal.Zero,
	}
}

// DisplayValue is a shorthand for Valuate(...).DisplayValue.
func DisplayValue(a domain.Asset, fx domain.FXRates, view string) decimal.Decimal {
	return Valuate(a, fx, view).DisplayValue
}

// ValuateAll values every asset through a Converter, preserving input order.
// In strict mode the first missing rate aborts with *currency.MissingRateError.
func ValuateAll(assets []domain.Asset, conv *currency.Converter) ([]domain.AssetCalculations, error) {
	out := make([]domain.AssetCalculations, 0, len(assets))
	for _, a := range assets {
		rate, err := conv.Rate(a.OriginCurrency)
		if err != nil {
			return nil, err
		}
		out = append(out, valuateWithRate(a, rate))
	}
	return out, nil
}

// MissingRates lists the origin currencies of assets that would fall back to the identity rate.
func MissingRates(assets []domain.Asset, fx domain.FXRates, view string) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, a := range assets {
		for _, code := range currency.Resolve(a.OriginCurrency, view, fx).Missing {
			if !seen[code] {
				seen[code] = true
				missing = append(missing, code)
			}
		}
	}
	return missing
}

// DerivePEPrice derives a per-unit price from a company valuation and an ownership percentage:
// round(companyValue × holdingPct/100 / quantity). The manual price is kept when either input is
// missing or quantity is not positive.
func DerivePEPrice(companyValue, holdingPct *decimal.Decimal, quantity decimal.Decimal, manual *decimal.Decimal) *decimal.Decimal {
	if companyValue == nil || holdingPct == nil || !quantity.IsPositive() {
		return manual
	}
	p := companyValue.Mul(holdingPct.Div(decimal.NewFromInt(100))).Div(quantity).Round(0)
	return &p
}
