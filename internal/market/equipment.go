// Package market models the equipment, listings and rentals exposed by the
// EquipmentMarket contract.
package market

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/cory-johannsen/equipment-market/internal/value"
)

// EquipmentType is the slot a piece of equipment occupies.
type EquipmentType uint8

// Equipment types, numbered as the contract stores them.
const (
	Weapon EquipmentType = iota
	Chest
	Legs
	Boots
	Helmet
)

// EquipmentTypes lists every type in contract order.
var EquipmentTypes = []EquipmentType{Weapon, Chest, Legs, Boots, Helmet}

var typeNames = map[EquipmentType]string{
	Weapon: "weapon",
	Chest:  "chest",
	Legs:   "legs",
	Boots:  "boots",
	Helmet: "helmet",
}

var typePrefixes = map[EquipmentType]string{
	Weapon: "wu",
	Chest:  "yi",
	Legs:   "ku",
	Boots:  "xie",
	Helmet: "tou",
}

func (t EquipmentType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("EquipmentType(%d)", uint8(t))
}

// Valid reports whether t is a known equipment type.
func (t EquipmentType) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// ImagePrefix returns the artwork file prefix for t.
func (t EquipmentType) ImagePrefix() string {
	return typePrefixes[t]
}

// ParseEquipmentType accepts a type name ("weapon") or its contract number ("0").
func ParseEquipmentType(s string) (EquipmentType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range EquipmentTypes {
		if s == t.String() || s == fmt.Sprintf("%d", uint8(t)) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown equipment type %q", s)
}

// Attribute is an index into value.AttributeVector.
type Attribute int

// Attributes in vector order.
const (
	AttackPower Attribute = iota
	AbilityPower
	ArmorPenetration
	LifeSteal
	AttackSpeed
	HealthPoints
	Armor
	MagicResist
	Mana
	ManaRegeneration
	MovementSpeed
	HealingShielding
)

var attributeKeys = [value.AttributeCount]string{
	"attackPower",
	"abilityPower",
	"armorPenetration",
	"lifeSteal",
	"attackSpeed",
	"healthPoints",
	"armor",
	"magicResist",
	"mana",
	"manaRegeneration",
	"movementSpeed",
	"healingShielding",
}

// Key returns the stable identifier of a.
func (a Attribute) Key() string {
	if a < 0 || int(a) >= value.AttributeCount {
		return fmt.Sprintf("Attribute(%d)", int(a))
	}
	return attributeKeys[a]
}

func (a Attribute) String() string { return a.Key() }

// Coefficient returns the price weight of a, or 0 for an unknown attribute.
func (a Attribute) Coefficient() int64 {
	return value.Coefficient(int(a))
}

// ParseAttribute resolves an attribute key, case-insensitively.
func ParseAttribute(key string) (Attribute, error) {
	for i, k := range attributeKeys {
		if strings.EqualFold(k, key) {
			return Attribute(i), nil
		}
	}
	return 0, fmt.Errorf("unknown attribute %q", key)
}

// Equipment is one minted token.
type Equipment struct {
	TokenID    uint64                `json:"token_id"`
	Name       string                `json:"name"`
	Type       EquipmentType         `json:"type"`
	StyleID    uint64                `json:"style_id"`
	Attributes value.AttributeVector `json:"attributes"`
}

// ImagePath returns the artwork path for e.
func (e Equipment) ImagePath() string {
	return fmt.Sprintf("/images/%s%d.png", e.Type.ImagePrefix(), e.StyleID)
}

// Value returns the mint cost of e in wei.
func (e Equipment) Value() *big.Int {
	return value.CostOf(e.Attributes)
}

// Has reports whether attribute a of e is greater than zero. Unknown
// attributes are never present.
func (e Equipment) Has(a Attribute) bool {
	if a < 0 || int(a) >= value.AttributeCount {
		return false
	}
	v := e.Attributes[a]
	return v != nil && v.Sign() > 0
}

// AttributeValue pairs an attribute with its value.
type AttributeValue struct {
	Attribute Attribute
	Value     *big.Int
}

func (av AttributeValue) String() string {
	return fmt.Sprintf("%s: %s", av.Attribute.Key(), av.Value.String())
}

// NonZeroAttributes returns the attributes of v that are greater than zero, in
// vector order.
func NonZeroAttributes(v value.AttributeVector) []AttributeValue {
	var out []AttributeValue
	for i := range v {
		if v[i] != nil && v[i].Sign() > 0 {
			out = append(out, AttributeValue{Attribute: Attribute(i), Value: v.At(i)})
		}
	}
	return out
}
