package satchel

// Tag is the out-of-band type identity of a registry-created instance.
// Embed it in any struct that should pass through the engine:
//
//	type Item struct {
//	    satchel.Tag
//	    Value int
//	}
//
// Registry.Create stamps the tag with the registered name before returning
// the instance; the name never changes for the instance's lifetime. A bare
// struct literal has an empty tag and is rejected by Serialize and
// Duplicate. The tag itself is never serialized.
type Tag struct {
	name string
}

// TypeName returns the registered type name, or "" if the instance was not
// created through a registry.
func (t *Tag) TypeName() string {
	return t.name
}

func (t *Tag) tagRef() *Tag {
	return t
}

// Tagged is the interface satisfied by structs that embed Tag. The accessor
// is unexported so embedding Tag is the only way to implement it.
type Tagged interface {
	tagRef() *Tag
}
