package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LiquidityCategory buckets an asset by how readily it converts to cash.
type LiquidityCategory string

const (
	LiquidityCash            LiquidityCategory = "Cash"
	LiquidityBonds           LiquidityCategory = "Bonds"
	LiquidityEquitiesLiquid  LiquidityCategory = "Equities-Liquid"
	LiquidityEquitiesLimited LiquidityCategory = "Equities-LimitedLiquidity"
	LiquidityFunds           LiquidityCategory = "Funds"
	LiquidityRealEstate      LiquidityCategory = "RealEstate"
	LiquidityPrivateEquity   LiquidityCategory = "PrivateEquity"
)

// LiquidityCategories lists all categories in report row order.
func LiquidityCategories() []LiquidityCategory {
	return []LiquidityCategory{
		LiquidityCash, LiquidityBonds, LiquidityEquitiesLiquid, LiquidityEquitiesLimited,
		LiquidityFunds, LiquidityRealEstate, LiquidityPrivateEquity,
	}
}

// PortfolioTotals are the aggregate values stored with a snapshot.
type PortfolioTotals struct {
	ViewCurrency                       string          `json:"viewCurrency"`
	Total                              decimal.Decimal `json:"total"`
	TotalExcludingPrivateEquity        decimal.Decimal `json:"totalExcludingPrivateEquity"`
	TotalExcludingPrivateAndRealEstate decimal.Decimal `json:"totalExcludingPrivateAndRealEstate"`
	AssetCount                         int             `json:"assetCount"`
}

// PortfolioSnapshot is an immutable capture of all assets and FX rates at a point in time.
type PortfolioSnapshot struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Assets      []Asset         `json:"assets"`
	FXRates     FXRates         `json:"fxRates"`
	Totals      PortfolioTotals `json:"totals"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ChangeType marks a position that exists on only one side of a comparison.
type ChangeType string

const (
	ChangeNew     ChangeType = "new"
	ChangeDeleted ChangeType = "deleted"
)

// AssetDelta is the per-name value change between two snapshots, in USD.
type AssetDelta struct {
	AssetName          string           `json:"assetName"`
	Class              AssetClass       `json:"class"`
	SubClass           string           `json:"subClass"`
	ValueA             decimal.Decimal  `json:"valueA"`
	ValueB             decimal.Decimal  `json:"valueB"`
	DeltaUSD           decimal.Decimal  `json:"deltaUSD"`
	OriginCurrency     string           `json:"originCurrency"`
	PriceChangePercent *decimal.Decimal `json:"priceChangePercent,omitempty"`
}

// PositionChange reports a position opened or closed between two snapshots.
type PositionChange struct {
	AssetName      string          `json:"assetName"`
	Class          AssetClass      `json:"class"`
	SubClass       string          `json:"subClass"`
	Value          decimal.Decimal `json:"value"`
	OriginCurrency string          `json:"originCurrency"`
	ChangeType     ChangeType      `json:"changeType"`
}
