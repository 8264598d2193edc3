package linkgraph

import "slices"

// DepSet is the ordered, duplicate-free sequence of sonames a node depends
// on. It only ever grows: entries keep the position of their first
// discovery.
//
// A library's DepSet is shared between its object-path and soname lookups in
// a [Graph], so an Add through either view is visible through the other.
// DepSet is not safe for concurrent use.
type DepSet struct {
	items []string
	index map[string]struct{}
}

func newDepSet(items []string) *DepSet {
	d := &DepSet{index: make(map[string]struct{}, len(items))}
	for _, s := range items {
		d.Add(s)
	}
	return d
}

// Add appends soname unless it is already present and reports whether the
// set grew.
func (d *DepSet) Add(soname string) bool {
	if _, ok := d.index[soname]; ok {
		return false
	}
	d.index[soname] = struct{}{}
	d.items = append(d.items, soname)
	return true
}

// Contains reports whether soname is in the set.
func (d *DepSet) Contains(soname string) bool {
	_, ok := d.index[soname]
	return ok
}

// Len returns the number of sonames in the set.
func (d *DepSet) Len() int { return len(d.items) }

// At returns the i-th soname in discovery order.
func (d *DepSet) At(i int) string { return d.items[i] }

// Items returns a copy of the set in discovery order. The result is never
// nil.
func (d *DepSet) Items() []string {
	out := make([]string, len(d.items))
	copy(out, d.items)
	return out
}

// HasPrefix reports whether prefix is an order-preserving prefix of the set.
func (d *DepSet) HasPrefix(prefix []string) bool {
	return len(prefix) <= len(d.items) && slices.Equal(d.items[:len(prefix)], prefix)
}
