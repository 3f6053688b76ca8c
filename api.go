// Package satchel provides a registry-driven serialization engine for tagged
// object graphs.
//
// The package converts live instances into a canonical Value tree and back,
// multiplexing the tree over pluggable codecs. Types are registered by name
// with a zero-argument factory; every instance that will later be serialized,
// deserialized, or duplicated must be produced through the registry so it
// carries a type tag.
//
// # Values
//
// Value is a closed variant covering everything that flows through the
// engine:
//
//   - Scalar: nil, bool, int64, uint64, float64, string, []byte
//   - Sequence: an ordered list of Values
//   - Mapping: ordered (key, Value) pairs with unique string keys
//   - Object: a type name plus ordered (field, Value) pairs
//
// On the wire an Object is a mapping carrying the reserved "$type" key; its
// presence is exactly what distinguishes a tagged object from a plain
// mapping during decode.
//
// # Basic Usage
//
//	type Item struct {
//	    satchel.Tag
//	    Value int
//	}
//
//	reg := satchel.New()
//	reg.Register("Item", func() satchel.Tagged { return &Item{} })
//
//	obj, _ := reg.Create("Item")
//	obj.(*Item).Value = 5
//
//	v, _ := reg.Serialize(obj)          // Object{Type: "Item", ...}
//	back, _ := reg.Deserialize(v)       // fresh *Item with Value 5
//	dup, _ := reg.Duplicate(obj, true)  // deep structural duplicate
//
// # Field Policy
//
// Exported fields serialize under their Go name, or under the name given by
// a `satchel:"name"` struct tag. Fields tagged `satchel:"-"` are transient
// and never serialized or duplicated; unexported fields are always excluded.
// With default elision active (the default), a field whose value deeply
// equals the type's freshly constructed default is omitted from output.
//
// # Codec Providers
//
// The following codec implementations are available as subpackages:
//
//   - json - ordered JSON text with a lossless int/float convention
//   - text - human-readable YAML literal form
//   - binary - compact self-describing MessagePack form
//   - bson - BSON documents
//
// A Store pairs a Registry with a Codec for save/load round trips against
// files or streams.
//
// # Concurrency
//
// Every operation runs to completion on the caller's goroutine. Register all
// types during an initialization phase; a populated registry is safe for
// concurrent readers, concurrent registration is not guarded. Object graphs
// are assumed acyclic.
package satchel

// Codec converts a Value tree to and from a serialized form.
// Implementations live in the json, text, binary, and bson subpackages.
type Codec interface {
	// ContentType returns the MIME type for this codec (e.g., "application/json").
	ContentType() string

	// Encode converts v into its serialized form.
	Encode(v Value) ([]byte, error)

	// Decode parses data back into a Value tree.
	Decode(data []byte) (Value, error)
}

// PostLoader is implemented by instances that need to recompute derived
// state after deserialization.
//
// PostLoad runs synchronously at the end of Deserialize, after every field
// present in the Value has been assigned. State that was never serialized at
// all (owner-managed fields, transient caches keyed by the instance's
// position in a larger structure) is still the caller's responsibility once
// Deserialize returns.
type PostLoader interface {
	PostLoad()
}
