package aggregate

import (
	"strconv"
	"time"

	"github.com/mtlprog/wealth/internal/domain"
)

// NoMaturity is the group key for assets without a maturity date.
const NoMaturity = "No maturity"

// Dimension maps an asset to the key of the group it belongs to.
type Dimension struct {
	Name string
	Key  func(domain.Asset) string
}

func fieldDimension(f Field) Dimension {
	return Dimension{Name: string(f), Key: f.Value}
}

// Dimensions over plain asset fields.
var (
	ByClass       = fieldDimension(FieldClass)
	BySubClass    = fieldDimension(FieldSubClass)
	ByEntity      = fieldDimension(FieldEntity)
	ByBank        = fieldDimension(FieldBank)
	ByCurrency    = fieldDimension(FieldCurrency)
	ByBeneficiary = fieldDimension(FieldBeneficiary)
)

// ByMaturityYear groups by the calendar year of the maturity date.
var ByMaturityYear = Dimension{
	Name: "maturityYear",
	Key: func(a domain.Asset) string {
		if a.MaturityDate == nil {
			return NoMaturity
		}
		return strconv.Itoa(a.MaturityDate.Year())
	},
}

// maturityWindows are the upper bounds, in years from the reference date, of each window.
var maturityWindows = []struct {
	years int
	label string
}{
	{1, "<1Y"},
	{3, "1-3Y"},
	{5, "3-5Y"},
	{10, "5-10Y"},
}

// ByMaturityWindow groups by time remaining to maturity measured from asOf.
// Matured holdings fall into the first window.
func ByMaturityWindow(asOf time.Time) Dimension {
	return Dimension{
		Name: "maturityWindow",
		Key: func(a domain.Asset) string {
			if a.MaturityDate == nil {
				return NoMaturity
			}
			for _, w := range maturityWindows {
				if a.MaturityDate.Before(asOf.AddDate(w.years, 0, 0)) {
					return w.label
				}
			}
			return "10Y+"
		},
	}
}

// DimensionByName resolves a dimension from its API name.
func DimensionByName(name string, asOf time.Time) (Dimension, bool) {
	switch name {
	case ByClass.Name:
		return ByClass, true
	case BySubClass.Name:
		return BySubClass, true
	case ByEntity.Name:
		return ByEntity, true
	case ByBank.Name:
		return ByBank, true
	case ByCurrency.Name:
		return ByCurrency, true
	case ByBeneficiary.Name:
		return ByBeneficiary, true
	case ByMaturityYear.Name:
		return ByMaturityYear, true
	case "maturityWindow":
		return ByMaturityWindow(asOf), true
	default:
		return Dimension{}, false
	}
}
