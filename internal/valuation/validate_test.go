package valuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/wealth/internal/domain"
)

func testRegistry() *domain.EntityRegistry {
	return domain.NewEntityRegistry([]domain.AccountEntity{
		{Name: "Personal", Beneficiary: "Self", Banks: []string{"Leumi"}},
		{Name: "Trust", Beneficiary: "Children", Banks: []string{"UBS"}},
	})
}

func validStock() domain.Asset {
	return domain.Asset{
		Name:           "ACME",
		Class:          domain.ClassPublicEquity,
		SubClass:       "Stock",
		AccountEntity:  "Personal",
		AccountBank:    "Leumi",
		Beneficiary:    "Self",
		OriginCurrency: "USD",
		Quantity:       d("10"),
		Price:          dp("12.5"),
	}
}

func TestValidateValidAsset(t *testing.T) {
	assert.Empty(t, Validate(validStock(), testRegistry()))
	assert.NoError(t, Validate(validStock(), testRegistry()).Err())
}

func TestValidateAccumulatesAllViolations(t *testing.T) {
	a := validStock()
	a.Name = ""
	a.SubClass = "Gold"
	a.AccountBank = "UBS"
	a.Quantity = d("-1")
	a.Price = dp("-2")

	errs := Validate(a, testRegistry())

	require.Len(t, errs, 5)
	for _, field := range []string{"name", "subClass", "accountBank", "quantity", "price"} {
		assert.True(t, errs.Has(field), "expected violation on %s", field)
	}
	assert.Contains(t, errs.Error(), "name is required")
}

func TestValidateBeneficiaryFollowsEntity(t *testing.T) {
	tests := []struct {
		name        string
		entity      string
		beneficiary string
		wantErr     bool
	}{
		{name: "matches entity", entity: "Personal", beneficiary: "Self"},
		{name: "contradicts entity", entity: "Personal", beneficiary: "Children", wantErr: true},
		{name: "missing", entity: "Personal", beneficiary: "", wantErr: true},
		{name: "unknown entity left to bank check", entity: "Nobody", beneficiary: "Self"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validStock()
			a.AccountEntity = tt.entity
			a.Beneficiary = tt.beneficiary
			assert.Equal(t, tt.wantErr, Validate(a, testRegistry()).Has("beneficiary"))
		})
	}
}

func TestValidateCashRules(t *testing.T) {
	a := domain.Asset{
		Class:          domain.ClassCash,
		SubClass:       "EUR",
		AccountEntity:  "Personal",
		AccountBank:    "Leumi",
		OriginCurrency: "USD",
		Quantity:       d("100"),
	}

	errs := Validate(a, testRegistry())

	assert.False(t, errs.Has("name"), "cash does not require a name")
	assert.False(t, errs.Has("price"), "cash does not require a price")
	assert.True(t, errs.Has("originCurrency"), "cash currency must match sub-class")
}

func TestValidateFactorRange(t *testing.T) {
	a := validStock()
	a.Class = domain.ClassPrivateEquity
	a.SubClass = "PE Fund"
	a.Factor = dp("1.2")

	assert.True(t, Validate(a, testRegistry()).Has("factor"))

	a.Factor = dp("0.8")
	assert.False(t, Validate(a, testRegistry()).Has("factor"))
}

func TestValidateClassRequired(t *testing.T) {
	a := validStock()
	a.Class = ""
	errs := Validate(a, testRegistry())
	assert.True(t, errs.Has("class"))
	assert.False(t, errs.Has("subClass"))
}

func TestBuilderFinalizeAppliesDefaults(t *testing.T) {
	a, errs := NewBuilder(testRegistry()).
		Class(domain.ClassCash, "ILS").
		Account("Trust", "UBS").
		Quantity(d("5000")).
		Finalize()

	require.Empty(t, errs)
	require.NotNil(t, a.Price)
	assert.True(t, a.Price.Equal(d("1")))
	assert.Equal(t, "ILS", a.OriginCurrency)
	assert.Equal(t, "Children", a.Beneficiary)
	assert.True(t, a.IsCashEquivalent)
	assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", a.ID.String())
}

func TestBuilderFinalizeDerivesPrivateEquityPrice(t *testing.T) {
	a, errs := NewBuilder(testRegistry()).
		Name("StartupCo").
		Class(domain.ClassPrivateEquity, "Direct Investment").
		Account("Personal", "Leumi").
		Currency("USD").
		Quantity(d("200")).
		Price(d("1")).
		Ownership(d("5000000"), d("4")).
		FromOwnership(true).
		Finalize()

	require.Empty(t, errs)
	assert.True(t, a.Price.Equal(d("1000")), "price = %s, want 1000", a.Price)
	require.NotNil(t, a.Factor)
	assert.True(t, a.Factor.Equal(d("1")))
}

func TestBuilderFinalizeDropsMaturityOutsideFixedIncome(t *testing.T) {
	a, _ := Edit(validStock(), testRegistry()).
		Maturity(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)).
		YTW(d("0.05")).
		Finalize()

	assert.Nil(t, a.MaturityDate)
	assert.Nil(t, a.YTW)
}

func TestEditFinalizeDerivesFields(t *testing.T) {
	deposit := domain.Asset{
		Name:           "Deposit",
		Class:          domain.ClassFixedIncome,
		SubClass:       domain.SubClassBankDeposit,
		AccountEntity:  "Trust",
		AccountBank:    "UBS",
		Beneficiary:    "Self",
		OriginCurrency: "USD",
		Quantity:       d("100"),
		Price:          dp("1"),
	}

	a, errs := Edit(deposit, testRegistry()).Finalize()

	require.Empty(t, errs)
	assert.Equal(t, "Children", a.Beneficiary)
	assert.True(t, a.IsCashEquivalent)
	assert.Equal(t, "Self", deposit.Beneficiary, "input left untouched")
	assert.False(t, deposit.IsCashEquivalent)
}

func TestBuilderFinalizeReturnsInvalidAsset(t *testing.T) {
	a, errs := NewBuilder(testRegistry()).Name("Orphan").Finalize()
	assert.Equal(t, "Orphan", a.Name)
	assert.True(t, errs.Has("class"))
	assert.True(t, errs.Has("accountBank"))
}
