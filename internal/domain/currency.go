package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Anchor and reporting currencies.
const (
	CurrencyILS = "ILS"
	CurrencyUSD = "USD"
)

// IsKnownCurrency reports whether code is an ISO 4217 code known to go-money.
func IsKnownCurrency(code string) bool {
	if code == "" || code != strings.ToUpper(code) {
		return false
	}
	return money.GetCurrency(code) != nil
}

// FormatMoney renders a value in the given currency with its symbol and fraction digits.
// Unknown currencies are rendered as a plain two-decimal number followed by the code.
func FormatMoney(value decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return value.StringFixed(2) + " " + code
	}
	minor := value.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return cur.Formatter().Format(minor)
}

// FXRate holds the conversion factors for one currency.
// ToILS is authoritative; ToUSD is informational and may be stale.
type FXRate struct {
	ToUSD       decimal.Decimal `json:"toUSD"`
	ToILS       decimal.Decimal `json:"toILS"`
	LastUpdated time.Time       `json:"lastUpdated"`
	Manual      bool            `json:"manual,omitempty"`
}

// FXRates maps a currency code to its rate entry.
type FXRates map[string]FXRate

// Clone returns an independent copy of the table.
func (r FXRates) Clone() FXRates {
	if r == nil {
		return nil
	}
	out := make(FXRates, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Currencies returns the codes present in the table, sorted.
func (r FXRates) Currencies() []string {
	codes := lo.Keys(r)
	sort.Strings(codes)
	return codes
}
