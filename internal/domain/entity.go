package domain

import (
	"github.com/samber/lo"
)

// AccountEntity is a legal or personal entity that holds bank accounts.
type AccountEntity struct {
	Name        string   `json:"name"`
	Beneficiary string   `json:"beneficiary"`
	Banks       []string `json:"banks"`
}

// defaultEntities is used when no entity file is configured.
var defaultEntities = []AccountEntity{
	{Name: "Personal", Beneficiary: "Self", Banks: []string{"Leumi", "Hapoalim", "Interactive Brokers"}},
	{Name: "Joint", Beneficiary: "Family", Banks: []string{"Leumi", "Discount"}},
	{Name: "Spouse", Beneficiary: "Spouse", Banks: []string{"Mizrahi", "Interactive Brokers"}},
	{Name: "Holding Company", Beneficiary: "Family", Banks: []string{"Hapoalim", "UBS"}},
	{Name: "Children Trust", Beneficiary: "Children", Banks: []string{"UBS"}},
}

// DefaultEntities returns a copy of the built-in entity table.
func DefaultEntities() []AccountEntity {
	return lo.Map(defaultEntities, func(e AccountEntity, _ int) AccountEntity {
		e.Banks = append([]string(nil), e.Banks...)
		return e
	})
}

// EntityRegistry resolves entity→bank pairings and entity→beneficiary derivation.
type EntityRegistry struct {
	entities []AccountEntity
}

// NewEntityRegistry builds a registry from the given table. The table is copied.
func NewEntityRegistry(entities []AccountEntity) *EntityRegistry {
	return &EntityRegistry{entities: lo.Map(entities, func(e AccountEntity, _ int) AccountEntity {
		e.Banks = append([]string(nil), e.Banks...)
		return e
	})}
}

// DefaultEntityRegistry returns a registry over DefaultEntities.
func DefaultEntityRegistry() *EntityRegistry {
	return NewEntityRegistry(defaultEntities)
}

// Entities returns a copy of the registered entities.
func (r *EntityRegistry) Entities() []AccountEntity {
	return NewEntityRegistry(r.entities).entities
}

// Lookup finds an entity by name.
func (r *EntityRegistry) Lookup(name string) (AccountEntity, bool) {
	return lo.Find(r.entities, func(e AccountEntity) bool {
		return e.Name == name
	})
}

// ValidPair reports whether bank is configured for entity.
func (r *EntityRegistry) ValidPair(entity, bank string) bool {
	e, ok := r.Lookup(entity)
	if !ok {
		return false
	}
	return lo.Contains(e.Banks, bank)
}

// BeneficiaryOf returns the beneficiary derived from an entity name.
func (r *EntityRegistry) BeneficiaryOf(entity string) (string, bool) {
	e, ok := r.Lookup(entity)
	if !ok {
		return "", false
	}
	return e.Beneficiary, true
}

// Beneficiaries returns the distinct beneficiaries in registration order.
func (r *EntityRegistry) Beneficiaries() []string {
	return lo.Uniq(lo.Map(r.entities, func(e AccountEntity, _ int) string {
		return e.Beneficiary
	}))
}
