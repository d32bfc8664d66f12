// Package currency resolves conversion rates from an ILS-anchored FX table.
//
// Every rate is derived from the ToILS column: converting X into view currency V
// uses fx[X].ToILS / fx[V].ToILS. The stored ToUSD column is never consulted, so
// all views stay consistent with a single manually maintained anchor rate.
package currency

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/domain"
)

var one = decimal.NewFromInt(1)

// MissingRateError is returned in strict mode when a currency has no usable ToILS entry.
type MissingRateError struct {
	Currencies []string
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("missing FX rate for %s", strings.Join(e.Currencies, ", "))
}

// Resolution is the outcome of a rate lookup. Missing lists the currencies that fell
// back to the identity rate.
type Resolution struct {
	Rate    decimal.Decimal
	Missing []string
}

// Fallback reports whether any part of the rate was defaulted to 1.
func (r Resolution) Fallback() bool {
	return len(r.Missing) > 0
}

// Resolve computes the rate from one currency into the view currency.
// A missing or non-positive ToILS entry on either side resolves to 1 and is listed in Missing.
func Resolve(from, view string, fx domain.FXRates) Resolution {
	if from == view {
		return Resolution{Rate: one}
	}

	var missing []string
	fromILS, ok := anchor(from, fx)
	if !ok {
		missing = append(missing, from)
	}

	if view == domain.CurrencyILS {
		if !ok {
			return Resolution{Rate: one, Missing: missing}
		}
		return Resolution{Rate: fromILS}
	}

	viewILS, viewOK := anchor(view, fx)
	if !viewOK {
		missing = append(missing, view)
	}
	if len(missing) > 0 {
		return Resolution{Rate: one, Missing: missing}
	}
	return Resolution{Rate: fromILS.Div(viewILS)}
}

// RateFor returns the rate from one currency into the view currency, defaulting to 1
// when the table lacks an entry.
func RateFor(from, view string, fx domain.FXRates) decimal.Decimal {
	return Resolve(from, view, fx).Rate
}

// StrictRateFor is RateFor without the identity fallback.
func StrictRateFor(from, view string, fx domain.FXRates) (decimal.Decimal, error) {
	res := Resolve(from, view, fx)
	if res.Fallback() {
		return decimal.Zero, &MissingRateError{Currencies: res.Missing}
	}
	return res.Rate, nil
}

// anchor returns the ToILS rate of a currency. ILS is always 1 regardless of the stored row.
func anchor(code string, fx domain.FXRates) (decimal.Decimal, bool) {
	if code == domain.CurrencyILS {
		return one, true
	}
	r, ok := fx[code]
	if !ok || !r.ToILS.IsPositive() {
		return decimal.Zero, false
	}
	return r.ToILS, true
}

// Converter binds an FX table and view currency and reports each missing currency once.
// A Converter is not safe for concurrent use.
type Converter struct {
	fx       domain.FXRates
	view     string
	strict   bool
	reported map[string]bool
}

// NewConverter creates a Converter. In strict mode Convert returns *MissingRateError
// instead of applying the identity rate.
func NewConverter(fx domain.FXRates, view string, strict bool) *Converter {
	return &Converter{fx: fx, view: view, strict: strict, reported: make(map[string]bool)}
}

// View returns the converter's view currency.
func (c *Converter) View() string { return c.view }

// Rates returns the FX table the converter reads from.
func (c *Converter) Rates() domain.FXRates { return c.fx }

// Rate resolves the rate from one currency into the view currency.
func (c *Converter) Rate(from string) (decimal.Decimal, error) {
	res := Resolve(from, c.view, c.fx)
	if !res.Fallback() {
		return res.Rate, nil
	}
	if c.strict {
		return decimal.Zero, &MissingRateError{Currencies: res.Missing}
	}
	for _, code := range res.Missing {
		if c.reported[code] {
			continue
		}
		c.reported[code] = true
		slog.Warn("FX rate missing, using identity rate", "currency", code, "view", c.view)
	}
	return res.Rate, nil
}

// Convert converts an amount from one currency into the view currency.
func (c *Converter) Convert(amount decimal.Decimal, from string) (decimal.Decimal, error) {
	rate, err := c.Rate(from)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate), nil
}

// Missing returns the currencies that have fallen back to the identity rate so far.
func (c *Converter) Missing() []string {
	out := lo.Keys(c.reported)
	sort.Strings(out)
	return out
}
