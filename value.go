package satchel

import "bytes"

// TypeKey is the reserved mapping key that carries an Object's type name in
// every encoding. A plain Mapping must not use it.
const TypeKey = "$type"

// Value is the canonical intermediate form between live instances and any
// encoding. The variant is closed: Scalar, Sequence, Mapping, and Object are
// the only implementations.
type Value interface {
	value()
}

// Scalar holds a primitive: nil, bool, int64, uint64, float64, string, or
// []byte. Integers normalize to int64; uint64 appears only for values that
// do not fit.
type Scalar struct {
	V any
}

// Sequence is an ordered list of Values.
type Sequence []Value

// Entry is a single key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value Value
}

// Mapping is an ordered list of entries with unique keys. Key order carries
// no meaning; the engine emits entries in sorted key order so output is
// deterministic.
type Mapping []Entry

// Field is a single named field of an Object.
type Field struct {
	Name  string
	Value Value
}

// Object is the serialized form of a registry-created instance: a type name
// plus the surviving fields in enumeration order.
type Object struct {
	Type   string
	Fields []Field
}

func (Scalar) value()   {}
func (Sequence) value() {}
func (Mapping) value()  {}
func (Object) value()   {}

// Get returns the value for key and whether it was present.
func (m Mapping) Get(key string) (Value, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Get returns the value for the named field and whether it was present.
func (o Object) Get(name string) (Value, bool) {
	for _, f := range o.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Equal reports whether two Values are structurally equal. Scalars compare
// by type and value, so Scalar{int64(1)} and Scalar{float64(1)} differ.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Scalar:
		bv, ok := b.(Scalar)
		return ok && scalarEqual(av, bv)
	case Sequence:
		bv, ok := b.(Sequence)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Mapping:
		bv, ok := b.(Mapping)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i].Key != bv[i].Key || !Equal(av[i].Value, bv[i].Value) {
				return false
			}
		}
		return true
	case Object:
		bv, ok := b.(Object)
		if !ok || av.Type != bv.Type || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for i := range av.Fields {
			if av.Fields[i].Name != bv.Fields[i].Name || !Equal(av.Fields[i].Value, bv.Fields[i].Value) {
				return false
			}
		}
		return true
	}
	return a == nil && b == nil
}

func scalarEqual(a, b Scalar) bool {
	ab, aok := a.V.([]byte)
	bb, bok := b.V.([]byte)
	if aok || bok {
		return aok && bok && bytes.Equal(ab, bb)
	}
	return a.V == b.V
}
