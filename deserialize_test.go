package satchel_test

import (
	"errors"
	"testing"

	"github.com/zoobzio/satchel"
)

type DesItem struct {
	satchel.Tag
	Value int
}

type DesRoom struct {
	satchel.Tag
	Width    int
	Height   int
	Area     int    `satchel:"-"`
	Position string `satchel:"-"`
}

func (r *DesRoom) PostLoad() {
	r.Area = r.Width * r.Height
}

type DesShelf struct {
	satchel.Tag
	Items []*DesItem
	Bins  map[int]string
	Meta  map[string]any
}

func desRegistry() *satchel.Registry {
	reg := satchel.New()
	reg.Register("DesItem", func() satchel.Tagged { return &DesItem{} })
	reg.Register("DesRoom", func() satchel.Tagged { return &DesRoom{} })
	reg.Register("DesShelf", func() satchel.Tagged { return &DesShelf{} })
	return reg
}

func TestDeserialize_RoundTrip(t *testing.T) {
	reg := desRegistry()
	obj, _ := reg.Create("DesItem")
	obj.(*DesItem).Value = 5

	v, err := reg.Serialize(obj)
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	back, err := reg.Deserialize(v)
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}

	item, ok := back.(*DesItem)
	if !ok {
		t.Fatalf("Deserialize() returned %T, want *DesItem", back)
	}
	if item.Value != 5 {
		t.Errorf("Value = %d, want 5", item.Value)
	}
	if item.TypeName() != "DesItem" {
		t.Errorf("TypeName() = %q, want DesItem", item.TypeName())
	}
}

func TestDeserialize_UnknownType(t *testing.T) {
	reg := desRegistry()

	back, err := reg.Deserialize(satchel.Object{Type: "Nonexistent"})
	if !errors.Is(err, satchel.ErrUnknownType) {
		t.Fatalf("Deserialize() error = %v, want ErrUnknownType", err)
	}
	if back != nil {
		t.Error("Deserialize() should not return an instance on failure")
	}
}

func TestDeserialize_MissingTypeTag(t *testing.T) {
	reg := desRegistry()

	for name, v := range map[string]satchel.Value{
		"mapping": satchel.Mapping{{Key: "Value", Value: satchel.Scalar{V: int64(5)}}},
		"scalar":  satchel.Scalar{V: "DesItem"},
		"sequence": satchel.Sequence{
			satchel.Scalar{V: int64(1)},
		},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := reg.Deserialize(v); !errors.Is(err, satchel.ErrMissingTypeTag) {
				t.Errorf("Deserialize() error = %v, want ErrMissingTypeTag", err)
			}
		})
	}
}

func TestDeserialize_NestedObject(t *testing.T) {
	reg := desRegistry()

	v := satchel.Object{Type: "DesShelf", Fields: []satchel.Field{
		{Name: "Items", Value: satchel.Sequence{
			satchel.Object{Type: "DesItem", Fields: []satchel.Field{
				{Name: "Value", Value: satchel.Scalar{V: int64(3)}},
			}},
		}},
	}}

	back, err := reg.Deserialize(v)
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}
	shelf := back.(*DesShelf)
	if len(shelf.Items) != 1 {
		t.Fatalf("len(Items) = %d, want 1", len(shelf.Items))
	}
	if shelf.Items[0].Value != 3 {
		t.Errorf("Items[0].Value = %d, want 3", shelf.Items[0].Value)
	}
	if shelf.Items[0].TypeName() != "DesItem" {
		t.Errorf("nested instance is not live: TypeName() = %q", shelf.Items[0].TypeName())
	}
}

func TestDeserialize_TypedContainers(t *testing.T) {
	reg := desRegistry()

	v := satchel.Object{Type: "DesShelf", Fields: []satchel.Field{
		{Name: "Bins", Value: satchel.Mapping{
			{Key: "2", Value: satchel.Scalar{V: "bolts"}},
			{Key: "7", Value: satchel.Scalar{V: "nuts"}},
		}},
	}}

	back, err := reg.Deserialize(v)
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}
	shelf := back.(*DesShelf)
	if shelf.Bins[2] != "bolts" || shelf.Bins[7] != "nuts" {
		t.Errorf("Bins = %v, want map[2:bolts 7:nuts]", shelf.Bins)
	}
}

func TestDeserialize_UntypedInterfaceField(t *testing.T) {
	reg := desRegistry()

	v := satchel.Object{Type: "DesShelf", Fields: []satchel.Field{
		{Name: "Meta", Value: satchel.Mapping{
			{Key: "tags", Value: satchel.Sequence{satchel.Scalar{V: "a"}, satchel.Scalar{V: "b"}}},
			{Key: "rev", Value: satchel.Scalar{V: int64(4)}},
		}},
	}}

	back, err := reg.Deserialize(v)
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}
	meta := back.(*DesShelf).Meta
	if meta["rev"] != int64(4) {
		t.Errorf("Meta[rev] = %v, want 4", meta["rev"])
	}
	tags, ok := meta["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "a" {
		t.Errorf("Meta[tags] = %v, want [a b]", meta["tags"])
	}
}

func TestDeserialize_UnknownFieldSkipped(t *testing.T) {
	reg := desRegistry()

	v := satchel.Object{Type: "DesItem", Fields: []satchel.Field{
		{Name: "Value", Value: satchel.Scalar{V: int64(5)}},
		{Name: "Retired", Value: satchel.Scalar{V: true}},
	}}

	back, err := reg.Deserialize(v)
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}
	if back.(*DesItem).Value != 5 {
		t.Error("known fields should still assign when unknown fields are present")
	}
}

func TestDeserialize_PostLoadOrdering(t *testing.T) {
	reg := desRegistry()

	v := satchel.Object{Type: "DesRoom", Fields: []satchel.Field{
		{Name: "Width", Value: satchel.Scalar{V: int64(3)}},
		{Name: "Height", Value: satchel.Scalar{V: int64(4)}},
	}}

	back, err := reg.Deserialize(v)
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}
	room := back.(*DesRoom)

	// The hook saw fully assigned fields
	if room.Area != 12 {
		t.Errorf("Area = %d, want 12 (PostLoad must run after assignment)", room.Area)
	}

	// Owner-managed state is restored after Deserialize returns
	if room.Position != "" {
		t.Errorf("Position = %q before the owner set it", room.Position)
	}
	room.Position = "north-2"
	if room.Area != 12 {
		t.Error("owner restoration must not disturb hook results")
	}
}

func TestDeserialize_ScalarConversion(t *testing.T) {
	reg := satchel.New()
	type narrow struct {
		satchel.Tag
		Count uint16
		Ratio float32
	}
	reg.Register("Narrow", func() satchel.Tagged { return &narrow{} })

	v := satchel.Object{Type: "Narrow", Fields: []satchel.Field{
		{Name: "Count", Value: satchel.Scalar{V: int64(40000)}},
		{Name: "Ratio", Value: satchel.Scalar{V: 0.5}},
	}}

	back, err := reg.Deserialize(v)
	if err != nil {
		t.Fatalf("Deserialize() error: %v", err)
	}
	n := back.(*narrow)
	if n.Count != 40000 || n.Ratio != 0.5 {
		t.Errorf("got Count=%d Ratio=%v", n.Count, n.Ratio)
	}

	overflow := satchel.Object{Type: "Narrow", Fields: []satchel.Field{
		{Name: "Count", Value: satchel.Scalar{V: int64(70000)}},
	}}
	if _, err := reg.Deserialize(overflow); !errors.Is(err, satchel.ErrUnsupportedValue) {
		t.Errorf("overflowing assignment error = %v, want ErrUnsupportedValue", err)
	}
}
