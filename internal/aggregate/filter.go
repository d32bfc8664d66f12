package aggregate

import (
	"time"

	"github.com/samber/lo"

	"github.com/mtlprog/wealth/internal/domain"
)

// Field names an asset attribute that can be filtered on.
type Field string

const (
	FieldClass       Field = "class"
	FieldSubClass    Field = "subClass"
	FieldEntity      Field = "accountEntity"
	FieldBank        Field = "accountBank"
	FieldCurrency    Field = "originCurrency"
	FieldBeneficiary Field = "beneficiary"
)

// Fields lists every filterable field.
func Fields() []Field {
	return []Field{FieldClass, FieldSubClass, FieldEntity, FieldBank, FieldCurrency, FieldBeneficiary}
}

// Value returns the asset's value for the field.
func (f Field) Value(a domain.Asset) string {
	switch f {
	case FieldClass:
		return string(a.Class)
	case FieldSubClass:
		return a.SubClass
	case FieldEntity:
		return a.AccountEntity
	case FieldBank:
		return a.AccountBank
	case FieldCurrency:
		return a.OriginCurrency
	case FieldBeneficiary:
		return a.Beneficiary
	default:
		return ""
	}
}

// Filters restricts the assets entering an aggregation.
//
// For every field an asset must match at least one Include value (when any are given)
// and none of the Exclude values. Exclude is evaluated after Include and wins on conflict.
// Setting either maturity bound drops assets that have no maturity date.
type Filters struct {
	Include      map[Field][]string `json:"include,omitempty"`
	Exclude      map[Field][]string `json:"exclude,omitempty"`
	MaturityFrom *time.Time         `json:"maturityFrom,omitempty"`
	MaturityTo   *time.Time         `json:"maturityTo,omitempty"`
}

// IncludeOnly returns a copy of f with an include list set for field.
func (f Filters) IncludeOnly(field Field, values ...string) Filters {
	f.Include = withField(f.Include, field, values)
	return f
}

// Without returns a copy of f with an exclude list set for field.
func (f Filters) Without(field Field, values ...string) Filters {
	f.Exclude = withField(f.Exclude, field, values)
	return f
}

func withField(m map[Field][]string, field Field, values []string) map[Field][]string {
	out := make(map[Field][]string, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[field] = append([]string(nil), values...)
	return out
}

// Match reports whether the asset passes every filter.
func (f Filters) Match(a domain.Asset) bool {
	for field, values := range f.Include {
		if len(values) > 0 && !lo.Contains(values, field.Value(a)) {
			return false
		}
	}
	for field, values := range f.Exclude {
		if lo.Contains(values, field.Value(a)) {
			return false
		}
	}
	if f.MaturityFrom != nil || f.MaturityTo != nil {
		if a.MaturityDate == nil {
			return false
		}
		if f.MaturityFrom != nil && a.MaturityDate.Before(*f.MaturityFrom) {
			return false
		}
		if f.MaturityTo != nil && a.MaturityDate.After(*f.MaturityTo) {
			return false
		}
	}
	return true
}

// Apply returns the assets that pass the filters, in input order.
func (f Filters) Apply(assets []domain.Asset) []domain.Asset {
	return lo.Filter(assets, func(a domain.Asset, _ int) bool {
		return f.Match(a)
	})
}
