package analyze

// Names is an insertion-ordered set of identifier names.
type Names struct {
	order []string
	set   map[string]struct{}
}

// NewNames returns a set holding names in the given order.
func NewNames(names ...string) *Names {
	n := &Names{set: make(map[string]struct{}, len(names))}
	for _, name := range names {
		n.Add(name)
	}
	return n
}

// Add inserts name and reports whether it was not already present.
func (n *Names) Add(name string) bool {
	if _, ok := n.set[name]; ok {
		return false
	}
	n.set[name] = struct{}{}
	n.order = append(n.order, name)
	return true
}

// Has reports whether name is in the set.
func (n *Names) Has(name string) bool {
	_, ok := n.set[name]
	return ok
}

// Len returns the number of names.
func (n *Names) Len() int {
	return len(n.order)
}

// Slice returns the names in insertion order. The result must not be modified.
func (n *Names) Slice() []string {
	return n.order
}
