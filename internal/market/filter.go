package market

// Filter selects market items by type and by attributes they must carry.
// The zero Filter matches everything.
type Filter struct {
	Type     *EquipmentType
	Required []Attribute
}

// Matches reports whether it passes f.
func (f Filter) Matches(it Item) bool {
	if f.Type != nil && it.Equipment.Type != *f.Type {
		return false
	}
	for _, a := range f.Required {
		if !it.Equipment.Has(a) {
			return false
		}
	}
	return true
}

// Apply returns the items passing f, preserving order.
func (f Filter) Apply(items []Item) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if f.Matches(it) {
			out = append(out, it)
		}
	}
	return out
}
