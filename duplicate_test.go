package satchel_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/zoobzio/satchel"
)

type DupItem struct {
	satchel.Tag
	Value int
}

type DupBag struct {
	satchel.Tag
	Label  string
	Items  []*DupItem
	Counts map[string]int
	Note   string `satchel:"-"`
}

type DupOpaque struct {
	satchel.Tag
	Handle *bytes.Buffer
}

func dupRegistry() *satchel.Registry {
	reg := satchel.New()
	reg.Register("DupItem", func() satchel.Tagged { return &DupItem{} })
	reg.Register("DupBag", func() satchel.Tagged { return &DupBag{} })
	reg.Register("DupOpaque", func() satchel.Tagged { return &DupOpaque{} })
	return reg
}

func newBag(t *testing.T, reg *satchel.Registry) *DupBag {
	t.Helper()
	obj, err := reg.Create("DupBag")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	bag := obj.(*DupBag)
	bag.Label = "field kit"
	bag.Counts = map[string]int{"rope": 1}

	item, err := reg.Create("DupItem")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	item.(*DupItem).Value = 5
	bag.Items = []*DupItem{item.(*DupItem)}
	return bag
}

func TestDuplicate_DeepIndependence(t *testing.T) {
	reg := dupRegistry()
	bag := newBag(t, reg)

	dup, err := reg.Duplicate(bag, true)
	if err != nil {
		t.Fatalf("Duplicate() error: %v", err)
	}
	cp := dup.(*DupBag)

	cp.Items[0].Value = 99
	cp.Counts["rope"] = 42

	if bag.Items[0].Value != 5 {
		t.Error("deep duplicate shares nested instances with the original")
	}
	if bag.Counts["rope"] != 1 {
		t.Error("deep duplicate shares map storage with the original")
	}
	if cp.TypeName() != "DupBag" {
		t.Errorf("duplicate TypeName() = %q, want DupBag", cp.TypeName())
	}
	if cp.Items[0].TypeName() != "DupItem" {
		t.Error("deep-duplicated nested instance lost its tag")
	}
}

func TestDuplicate_ShallowShares(t *testing.T) {
	reg := dupRegistry()
	bag := newBag(t, reg)

	dup, err := reg.Duplicate(bag, false)
	if err != nil {
		t.Fatalf("Duplicate() error: %v", err)
	}
	cp := dup.(*DupBag)

	cp.Counts["rope"] = 42
	cp.Items[0].Value = 99

	if bag.Counts["rope"] != 42 {
		t.Error("shallow duplicate should share map storage")
	}
	if bag.Items[0].Value != 99 {
		t.Error("shallow duplicate should share nested instances")
	}
}

func TestDuplicate_TransientNotCopied(t *testing.T) {
	reg := dupRegistry()
	bag := newBag(t, reg)
	bag.Note = "scratch"

	for _, deep := range []bool{false, true} {
		dup, err := reg.Duplicate(bag, deep)
		if err != nil {
			t.Fatalf("Duplicate(deep=%v) error: %v", deep, err)
		}
		if got := dup.(*DupBag).Note; got != "" {
			t.Errorf("Duplicate(deep=%v) copied transient field: %q", deep, got)
		}
	}
}

func TestDuplicate_Untagged(t *testing.T) {
	reg := dupRegistry()

	dup, err := reg.Duplicate(&DupItem{Value: 1}, true)
	if !errors.Is(err, satchel.ErrUntaggedInstance) {
		t.Fatalf("Duplicate() error = %v, want ErrUntaggedInstance", err)
	}
	if dup != nil {
		t.Error("Duplicate() should not return an instance on failure")
	}
}

func TestDuplicate_TypedNil(t *testing.T) {
	reg := dupRegistry()

	var it *DupItem
	for _, deep := range []bool{false, true} {
		dup, err := reg.Duplicate(it, deep)
		if !errors.Is(err, satchel.ErrUntaggedInstance) {
			t.Fatalf("Duplicate(deep=%v) error = %v, want ErrUntaggedInstance", deep, err)
		}
		if dup != nil {
			t.Error("Duplicate() should not return an instance on failure")
		}
	}
}

func TestDuplicate_DeepOpaqueFatal(t *testing.T) {
	reg := dupRegistry()
	obj, _ := reg.Create("DupOpaque")
	obj.(*DupOpaque).Handle = bytes.NewBufferString("x")

	if _, err := reg.Duplicate(obj, true); !errors.Is(err, satchel.ErrUnsupportedValue) {
		t.Fatalf("Duplicate(deep) error = %v, want ErrUnsupportedValue", err)
	}

	// Shallow copies the reference without error
	dup, err := reg.Duplicate(obj, false)
	if err != nil {
		t.Fatalf("Duplicate(shallow) error: %v", err)
	}
	if dup.(*DupOpaque).Handle != obj.(*DupOpaque).Handle {
		t.Error("shallow duplicate should share the opaque handle")
	}
}
