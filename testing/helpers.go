// Package testing provides test fixtures for satchel.
package testing

import (
	"github.com/zoobzio/satchel"
)

// Item is a minimal fixture with a single scalar field.
type Item struct {
	satchel.Tag
	Value int
}

// Room demonstrates transient fields and the post-load hook. Area is
// derived and recomputed by PostLoad; Position belongs to the owning
// collection and is restored by it after deserialization.
type Room struct {
	satchel.Tag
	Width    int
	Height   int
	Area     int    `satchel:"-"`
	Position string `satchel:"-"`
}

// PostLoad recomputes the derived area once all serialized fields are
// assigned.
func (r *Room) PostLoad() {
	r.Area = r.Width * r.Height
}

// Inventory nests tagged instances inside containers.
type Inventory struct {
	satchel.Tag
	Name   string
	Items  []*Item
	Limits map[string]int
}

// NewRegistry returns a registry with every fixture type registered.
func NewRegistry(opts ...satchel.Option) *satchel.Registry {
	reg := satchel.New(opts...)
	reg.Register("Item", func() satchel.Tagged { return &Item{} })
	reg.Register("Room", func() satchel.Tagged { return &Room{} })
	reg.Register("Inventory", func() satchel.Tagged { return &Inventory{} })
	return reg
}
