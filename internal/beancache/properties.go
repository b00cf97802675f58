package beancache

import (
	"encoding/json"
	"iter"
)

// Property is one entry of a PropertyMap.
type Property struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// PropertyMap is an insertion-ordered mapping from property name to declared type.
// Maps handed out by the cache are never mutated; all methods are nil-safe.
type PropertyMap struct {
	names []string
	types map[string]string
}

func newPropertyMap() *PropertyMap {
	return &PropertyMap{types: make(map[string]string)}
}

// NewPropertyMap builds a map from entries in order. A repeated name keeps its
// first position and takes the last type.
func NewPropertyMap(entries ...Property) *PropertyMap {
	m := newPropertyMap()
	for _, e := range entries {
		m.put(e.Name, e.Type)
	}
	return m
}

// put sets name's type, keeping the original position of an existing name.
func (m *PropertyMap) put(name, typ string) {
	if _, ok := m.types[name]; !ok {
		m.names = append(m.names, name)
	}
	m.types[name] = typ
}

func (m *PropertyMap) putIfAbsent(name, typ string) {
	if _, ok := m.types[name]; ok {
		return
	}
	m.names = append(m.names, name)
	m.types[name] = typ
}

// Len returns the number of properties.
func (m *PropertyMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.names)
}

// Get returns the declared type of name.
func (m *PropertyMap) Get(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	t, ok := m.types[name]
	return t, ok
}

// Names returns the property names in insertion order.
func (m *PropertyMap) Names() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Entries returns the properties in insertion order.
func (m *PropertyMap) Entries() []Property {
	if m.Len() == 0 {
		return nil
	}
	out := make([]Property, 0, len(m.names))
	for _, n := range m.names {
		out = append(out, Property{Name: n, Type: m.types[n]})
	}
	return out
}

// All iterates name/type pairs in insertion order.
func (m *PropertyMap) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if m == nil {
			return
		}
		for _, n := range m.names {
			if !yield(n, m.types[n]) {
				return
			}
		}
	}
}

// Equal reports whether both maps hold the same entries in the same order.
func (m *PropertyMap) Equal(other *PropertyMap) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i, n := range m.Names() {
		if other.names[i] != n || other.types[n] != m.types[n] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the map as an ordered array of {name, type}.
func (m *PropertyMap) MarshalJSON() ([]byte, error) {
	entries := m.Entries()
	if entries == nil {
		entries = []Property{}
	}
	return json.Marshal(entries)
}

// PropertyInfo holds the resolved bean properties of one type.
// It is immutable once returned by the cache.
type PropertyInfo struct {
	typeName string
	readable *PropertyMap
	writable *PropertyMap
}

// Empty returns a PropertyInfo without properties.
func Empty(typeName string) *PropertyInfo {
	return &PropertyInfo{typeName: typeName, readable: newPropertyMap(), writable: newPropertyMap()}
}

// TypeName returns the normalized qualified name the info was resolved for.
func (p *PropertyInfo) TypeName() string {
	if p == nil {
		return ""
	}
	return p.typeName
}

// Readable returns properties reachable through a getter or a public field.
func (p *PropertyInfo) Readable() *PropertyMap {
	if p == nil {
		return nil
	}
	return p.readable
}

// Writable returns properties settable through a setter or a non-final field.
func (p *PropertyInfo) Writable() *PropertyMap {
	if p == nil {
		return nil
	}
	return p.writable
}

// Select returns the readable or the writable map.
func (p *PropertyInfo) Select(readable bool) *PropertyMap {
	if readable {
		return p.Readable()
	}
	return p.Writable()
}

// IsEmpty reports whether the type has no properties at all.
func (p *PropertyInfo) IsEmpty() bool {
	return p.Readable().Len() == 0 && p.Writable().Len() == 0
}

// MarshalJSON encodes the info with ordered property arrays.
func (p *PropertyInfo) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type     string       `json:"type"`
		Readable *PropertyMap `json:"readable"`
		Writable *PropertyMap `json:"writable"`
	}{p.TypeName(), p.Readable(), p.Writable()})
}

// builder accumulates the maps of one PropertyInfo before publication.
type builder struct {
	typeName string
	readable *PropertyMap
	writable *PropertyMap
}

func newBuilder(typeName string) *builder {
	return &builder{typeName: typeName, readable: newPropertyMap(), writable: newPropertyMap()}
}

// inherit fills gaps from a superclass; own entries are never overwritten.
func (b *builder) inherit(super *PropertyInfo) {
	for name, typ := range super.Readable().All() {
		b.readable.putIfAbsent(name, typ)
	}
	for name, typ := range super.Writable().All() {
		b.writable.putIfAbsent(name, typ)
	}
}

func (b *builder) build() *PropertyInfo {
	return &PropertyInfo{typeName: b.typeName, readable: b.readable, writable: b.writable}
}
