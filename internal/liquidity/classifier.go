// Package liquidity buckets assets by how readily they convert to cash and
// cross-tabulates the buckets against beneficiaries.
package liquidity

import (
	"github.com/samber/lo"

	"github.com/mtlprog/wealth/internal/aggregate"
	"github.com/mtlprog/wealth/internal/domain"
)

// Classifier assigns a liquidity category to an asset.
// Name overrides are data; the classifier itself carries no institution names.
type Classifier struct {
	alwaysFunds map[string]struct{}
	limited     map[string]struct{}
}

// NewClassifier builds a classifier from the configured override tables.
// alwaysFunds names are reported as Funds regardless of class (cash-like holdings excepted);
// limited names downgrade public equity and commodities to limited liquidity.
func NewClassifier(alwaysFunds, limited []string) *Classifier {
	return &Classifier{
		alwaysFunds: set(alwaysFunds),
		limited:     set(limited),
	}
}

func set(names []string) map[string]struct{} {
	return lo.SliceToMap(names, func(n string) (string, struct{}) {
		return n, struct{}{}
	})
}

// Classify returns exactly one category for every asset. The first matching rule wins.
func (c *Classifier) Classify(a domain.Asset) domain.LiquidityCategory {
	switch {
	case a.Class == domain.ClassCash:
		return domain.LiquidityCash
	case a.Class == domain.ClassFixedIncome &&
		(a.SubClass == domain.SubClassBankDeposit || a.SubClass == domain.SubClassMoneyMarket):
		return domain.LiquidityCash
	case a.Class == domain.ClassFixedIncome && a.SubClass == domain.SubClassPrivateCredit:
		return domain.LiquidityFunds
	case c.isAlwaysFunds(a.Name):
		return domain.LiquidityFunds
	case a.Class == domain.ClassFixedIncome:
		return domain.LiquidityBonds
	case a.Class == domain.ClassRealEstate:
		return domain.LiquidityRealEstate
	case a.Class == domain.ClassPrivateEquity:
		return domain.LiquidityPrivateEquity
	case a.Class == domain.ClassPublicEquity || a.Class == domain.ClassCommodities:
		if c.isLimited(a.Name) {
			return domain.LiquidityEquitiesLimited
		}
		return domain.LiquidityEquitiesLiquid
	default:
		return domain.LiquidityEquitiesLiquid
	}
}

func (c *Classifier) isAlwaysFunds(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.alwaysFunds[name]
	return ok
}

func (c *Classifier) isLimited(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.limited[name]
	return ok
}

// Dimension exposes the classifier as an aggregation dimension.
func (c *Classifier) Dimension() aggregate.Dimension {
	return aggregate.Dimension{
		Name: "liquidity",
		Key: func(a domain.Asset) string {
			return string(c.Classify(a))
		},
	}
}
