package dom

// AttributeMap is a live view over an element's attributes. Indexed and named
// access read the same sequence, and every write goes through the element so
// it emits exactly one attribute notification.
type AttributeMap struct {
	el *Element
}

// Len returns the number of attributes.
func (m *AttributeMap) Len() int { return len(m.el.elem.attrs) }

// Item returns the attribute at index i in source order.
func (m *AttributeMap) Item(i int) (Attr, bool) {
	if i < 0 || i >= len(m.el.elem.attrs) {
		return Attr{}, false
	}
	return m.el.elem.attrs[i], true
}

// Get returns the named attribute's value.
func (m *AttributeMap) Get(name string) (string, bool) {
	return m.el.LookupAttribute(name)
}

// Has reports whether the named attribute exists.
func (m *AttributeMap) Has(name string) bool {
	return m.el.HasAttribute(name)
}

// Set creates or replaces the named attribute.
func (m *AttributeMap) Set(name, value string) {
	m.el.SetAttribute(name, value)
}

// SetItem replaces the value of the attribute at index i.
func (m *AttributeMap) SetItem(i int, value string) bool {
	a, ok := m.Item(i)
	if !ok {
		return false
	}
	m.el.setAttr(a.Name, value)
	return true
}

// Delete removes the named attribute and reports whether it existed.
func (m *AttributeMap) Delete(name string) bool {
	return m.el.removeAttr(m.el.normalizeName(name))
}

// Names returns the attribute names in order.
func (m *AttributeMap) Names() []string {
	names := make([]string, len(m.el.elem.attrs))
	for i, a := range m.el.elem.attrs {
		names[i] = a.Name
	}
	return names
}

// All returns a copy of the attributes in order.
func (m *AttributeMap) All() []Attr {
	out := make([]Attr, len(m.el.elem.attrs))
	copy(out, m.el.elem.attrs)
	return out
}
