package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cory-johannsen/equipment-market/internal/value"
)

func filterItems() []Item {
	return []Item{
		{Equipment: Equipment{TokenID: 1, Type: Weapon, Attributes: value.NewAttributeVector([value.AttributeCount]uint64{AttackPower: 10})}},
		{Equipment: Equipment{TokenID: 2, Type: Boots, Attributes: value.NewAttributeVector([value.AttributeCount]uint64{MovementSpeed: 5, Armor: 2})}},
		{Equipment: Equipment{TokenID: 3, Type: Weapon, Attributes: value.NewAttributeVector([value.AttributeCount]uint64{AttackPower: 3, LifeSteal: 1})}},
	}
}

func tokenIDs(items []Item) []uint64 {
	ids := make([]uint64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.Equipment.TokenID)
	}
	return ids
}

func TestFilter_ZeroMatchesAll(t *testing.T) {
	assert.Equal(t, []uint64{1, 2, 3}, tokenIDs(Filter{}.Apply(filterItems())))
}

func TestFilter_ByType(t *testing.T) {
	weapon := Weapon
	assert.Equal(t, []uint64{1, 3}, tokenIDs(Filter{Type: &weapon}.Apply(filterItems())))
}

func TestFilter_RequiredAttributes(t *testing.T) {
	f := Filter{Required: []Attribute{AttackPower, LifeSteal}}
	assert.Equal(t, []uint64{3}, tokenIDs(f.Apply(filterItems())))
}

func TestFilter_TypeAndAttributes(t *testing.T) {
	boots := Boots
	f := Filter{Type: &boots, Required: []Attribute{AttackPower}}
	assert.Empty(t, f.Apply(filterItems()))
}

func TestFilter_UnknownAttributeMatchesNothing(t *testing.T) {
	f := Filter{Required: []Attribute{Attribute(value.AttributeCount)}}
	assert.NotPanics(t, func() {
		assert.Empty(t, f.Apply(filterItems()))
	})
}
