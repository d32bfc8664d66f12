package valuation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/domain"
)

// FieldError is a single validation failure on one asset field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationErrors collects every violation found on an asset.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "invalid asset: " + strings.Join(msgs, "; ")
}

// Has reports whether a violation was recorded for the given field.
func (v ValidationErrors) Has(field string) bool {
	for _, e := range v {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Err returns v as an error, or nil when there are no violations.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) add(field, format string, args ...any) {
	*v = append(*v, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

// Validate checks an asset against the structural rules and returns every violation at once.
func Validate(a domain.Asset, registry *domain.EntityRegistry) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(a.Name) == "" && a.Class != domain.ClassCash {
		errs.add("name", "name is required")
	}

	switch {
	case a.Class == "":
		errs.add("class", "class is required")
	case !a.Class.IsValid():
		errs.add("class", "unknown class %q", a.Class)
	case !domain.IsAllowedSubClass(a.Class, a.SubClass):
		errs.add("subClass", "%q is not a valid sub-class of %s", a.SubClass, a.Class)
	}

	if registry != nil {
		if !registry.ValidPair(a.AccountEntity, a.AccountBank) {
			errs.add("accountBank", "bank %q is not configured for entity %q", a.AccountBank, a.AccountEntity)
		}
		if derived, ok := registry.BeneficiaryOf(a.AccountEntity); ok && a.Beneficiary != derived {
			errs.add("beneficiary", "beneficiary %q does not match %q of entity %q", a.Beneficiary, derived, a.AccountEntity)
		}
	}

	if !domain.IsKnownCurrency(a.OriginCurrency) {
		errs.add("originCurrency", "unknown currency %q", a.OriginCurrency)
	}

	if a.Quantity.IsNegative() {
		errs.add("quantity", "quantity must be >= 0")
	}

	if a.Class != domain.ClassCash {
		if a.Price == nil {
			errs.add("price", "price is required")
		} else if a.Price.IsNegative() {
			errs.add("price", "price must be >= 0")
		}
	}

	if a.Class.UsesFactor() && a.Factor != nil {
		if a.Factor.IsNegative() || a.Factor.GreaterThan(decimal.NewFromInt(1)) {
			errs.add("factor", "factor must be between 0 and 1")
		}
	}

	if a.Class == domain.ClassCash && a.SubClass != a.OriginCurrency {
		errs.add("originCurrency", "cash currency %q must match sub-class %q", a.OriginCurrency, a.SubClass)
	}

	return errs
}
