package valuation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/domain"
)

// Builder accumulates a draft asset during editing. Finalize applies class defaults,
// derives computed fields and validates the result.
type Builder struct {
	draft         domain.Asset
	fromOwnership bool
	registry      *domain.EntityRegistry
}

// NewBuilder starts an empty draft validated against the given entity registry.
func NewBuilder(registry *domain.EntityRegistry) *Builder {
	return &Builder{registry: registry}
}

// Edit starts a draft from an existing asset.
func Edit(a domain.Asset, registry *domain.EntityRegistry) *Builder {
	return &Builder{draft: a.Clone(), registry: registry}
}

// ID sets the asset ID. Finalize assigns a fresh one when unset.
func (b *Builder) ID(id uuid.UUID) *Builder { b.draft.ID = id; return b }

// Name sets the display name.
func (b *Builder) Name(name string) *Builder { b.draft.Name = name; return b }

// Currency sets the origin currency.
func (b *Builder) Currency(code string) *Builder { b.draft.OriginCurrency = code; return b }

// Quantity sets the held quantity.
func (b *Builder) Quantity(q decimal.Decimal) *Builder { b.draft.Quantity = q; return b }

// Price sets the manual unit price.
func (b *Builder) Price(p decimal.Decimal) *Builder { b.draft.Price = &p; return b }

// Factor sets the private equity / real estate discount factor.
func (b *Builder) Factor(f decimal.Decimal) *Builder { b.draft.Factor = &f; return b }

// Maturity sets the fixed income maturity date.
func (b *Builder) Maturity(t time.Time) *Builder { b.draft.MaturityDate = &t; return b }

// YTW sets the fixed income yield to worst as a fraction.
func (b *Builder) YTW(y decimal.Decimal) *Builder { b.draft.YTW = &y; return b }

// Class sets the class and sub-class together, since the sub-class set depends on the class.
func (b *Builder) Class(class domain.AssetClass, sub string) *Builder {
	b.draft.Class = class
	b.draft.SubClass = sub
	return b
}

// Account sets the holding entity and bank.
func (b *Builder) Account(entity, bank string) *Builder {
	b.draft.AccountEntity = entity
	b.draft.AccountBank = bank
	return b
}

// Ownership records the company valuation and holding percentage of a private equity stake.
func (b *Builder) Ownership(companyValue, holdingPct decimal.Decimal) *Builder {
	b.draft.PECompanyValue = &companyValue
	b.draft.PEHoldingPercentage = &holdingPct
	return b
}

// FromOwnership selects whether the price is derived from the ownership figures.
func (b *Builder) FromOwnership(on bool) *Builder {
	b.fromOwnership = on
	return b
}

// Finalize returns the completed asset and every validation violation.
// The asset is returned even when invalid so a form can keep showing it.
func (b *Builder) Finalize() (domain.Asset, ValidationErrors) {
	a := b.draft.Clone()

	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	if a.Class == domain.ClassCash {
		if a.Price == nil || !a.Price.IsPositive() {
			a.Price = domain.DecimalPtr(one)
		}
		if a.OriginCurrency == "" {
			a.OriginCurrency = a.SubClass
		}
	}

	if a.Class.UsesFactor() && a.Factor == nil {
		a.Factor = domain.DecimalPtr(one)
	}

	if a.Class == domain.ClassPrivateEquity && b.fromOwnership {
		a.Price = DerivePEPrice(a.PECompanyValue, a.PEHoldingPercentage, a.Quantity, a.Price)
	}

	if a.Class != domain.ClassFixedIncome {
		a.MaturityDate = nil
		a.YTW = nil
	}

	// beneficiary always follows the entity
	if b.registry != nil {
		if beneficiary, ok := b.registry.BeneficiaryOf(a.AccountEntity); ok {
			a.Beneficiary = beneficiary
		}
	}

	a.IsCashEquivalent = a.CashEquivalent()

	return a, Validate(a, b.registry)
}
