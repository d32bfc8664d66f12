package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// AssetClass is the top-level classification of a holding.
type AssetClass string

const (
	ClassCash          AssetClass = "Cash"
	ClassFixedIncome   AssetClass = "Fixed Income"
	ClassPublicEquity  AssetClass = "Public Equity"
	ClassPrivateEquity AssetClass = "Private Equity"
	ClassRealEstate    AssetClass = "Real Estate"
	ClassCommodities   AssetClass = "Commodities & more"
)

// AssetClasses lists every class in display order.
func AssetClasses() []AssetClass {
	return []AssetClass{
		ClassCash, ClassFixedIncome, ClassPublicEquity,
		ClassPrivateEquity, ClassRealEstate, ClassCommodities,
	}
}

// IsValid reports whether c is one of the known classes.
func (c AssetClass) IsValid() bool {
	return lo.Contains(AssetClasses(), c)
}

// UsesFactor reports whether display values of this class are discounted by the asset factor.
func (c AssetClass) UsesFactor() bool {
	return c == ClassPrivateEquity || c == ClassRealEstate
}

// Fixed income sub-classes referenced by the classifier and cash-equivalence rules.
const (
	SubClassGovernmentBond = "Government Bond"
	SubClassCorporateBond  = "Corporate Bond"
	SubClassBankDeposit    = "Bank Deposit"
	SubClassMoneyMarket    = "Money Market"
	SubClassPrivateCredit  = "Private Credit"
	SubClassBondFund       = "Bond Fund"
)

// subClasses holds the allowed sub-classes for every non-cash class.
// Cash sub-classes are currency codes and are checked separately.
var subClasses = map[AssetClass][]string{
	ClassFixedIncome: {
		SubClassGovernmentBond, SubClassCorporateBond, SubClassBankDeposit,
		SubClassMoneyMarket, SubClassPrivateCredit, SubClassBondFund,
	},
	ClassPublicEquity:  {"Stock", "ETF", "Mutual Fund", "Index Fund"},
	ClassPrivateEquity: {"Direct Investment", "PE Fund", "Venture Capital"},
	ClassRealEstate:    {"Residential", "Commercial", "Land", "REIT"},
	ClassCommodities:   {"Gold", "Silver", "Crypto", "Other"},
}

// SubClasses returns a copy of the allowed sub-classes for a non-cash class.
func SubClasses(c AssetClass) []string {
	return append([]string(nil), subClasses[c]...)
}

// IsAllowedSubClass reports whether sub belongs to the allowed set of class c.
// For Cash any known currency code is accepted.
func IsAllowedSubClass(c AssetClass, sub string) bool {
	if c == ClassCash {
		return IsKnownCurrency(sub)
	}
	return lo.Contains(subClasses[c], sub)
}

// Asset is a single holding as entered by the editing layer.
type Asset struct {
	ID                  uuid.UUID        `json:"id"`
	Name                string           `json:"name"`
	Class               AssetClass       `json:"class"`
	SubClass            string           `json:"subClass"`
	AccountEntity       string           `json:"accountEntity"`
	AccountBank         string           `json:"accountBank"`
	Beneficiary         string           `json:"beneficiary"`
	OriginCurrency      string           `json:"originCurrency"`
	Quantity            decimal.Decimal  `json:"quantity"`
	Price               *decimal.Decimal `json:"price,omitempty"`
	Factor              *decimal.Decimal `json:"factor,omitempty"`
	MaturityDate        *time.Time       `json:"maturityDate,omitempty"`
	YTW                 *decimal.Decimal `json:"ytw,omitempty"`
	PECompanyValue      *decimal.Decimal `json:"peCompanyValue,omitempty"`
	PEHoldingPercentage *decimal.Decimal `json:"peHoldingPercentage,omitempty"`
	IsCashEquivalent    bool             `json:"isCashEquivalent"`
}

// EffectiveFactor returns the factor applied to display values: the asset factor for
// Private Equity and Real Estate (1 when unset), and 1 for every other class.
func (a Asset) EffectiveFactor() decimal.Decimal {
	if !a.Class.UsesFactor() || a.Factor == nil {
		return decimal.NewFromInt(1)
	}
	return *a.Factor
}

// CashEquivalent reports whether the asset behaves like cash: the Cash class itself,
// bank deposits and money market holdings.
func (a Asset) CashEquivalent() bool {
	if a.Class == ClassCash {
		return true
	}
	return a.Class == ClassFixedIncome &&
		(a.SubClass == SubClassBankDeposit || a.SubClass == SubClassMoneyMarket)
}

// Clone returns a deep copy so snapshots never share pointers with live records.
func (a Asset) Clone() Asset {
	c := a
	c.Price = cloneDecimal(a.Price)
	c.Factor = cloneDecimal(a.Factor)
	c.YTW = cloneDecimal(a.YTW)
	c.PECompanyValue = cloneDecimal(a.PECompanyValue)
	c.PEHoldingPercentage = cloneDecimal(a.PEHoldingPercentage)
	if a.MaturityDate != nil {
		t := *a.MaturityDate
		c.MaturityDate = &t
	}
	return c
}

// CloneAssets deep-copies a slice of assets.
func CloneAssets(assets []Asset) []Asset {
	return lo.Map(assets, func(a Asset, _ int) Asset { return a.Clone() })
}

func cloneDecimal(d *decimal.Decimal) *decimal.Decimal {
	if d == nil {
		return nil
	}
	v := *d
	return &v
}

// AssetCalculations holds the derived values for one asset under a given FX table and view currency.
type AssetCalculations struct {
	RawBaseValue      decimal.Decimal `json:"rawBaseValue"`
	ConvertedValue    decimal.Decimal `json:"convertedValue"`
	DisplayValue      decimal.Decimal `json:"displayValue"`
	PercentageOfScope decimal.Decimal `json:"percentageOfScope"`
}
