package integration_test

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/zoobzio/satchel"
	"github.com/zoobzio/satchel/binary"
	"github.com/zoobzio/satchel/bson"
	"github.com/zoobzio/satchel/json"
	"github.com/zoobzio/satchel/text"

	fixtures "github.com/zoobzio/satchel/testing"
)

func codecs() map[string]satchel.Codec {
	return map[string]satchel.Codec{
		"json":   json.New(),
		"text":   text.New(),
		"binary": binary.New(),
		"bson":   bson.New(),
	}
}

func buildInventory(t *testing.T, reg *satchel.Registry) *fixtures.Inventory {
	t.Helper()
	obj, err := reg.Create("Inventory")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	inv := obj.(*fixtures.Inventory)
	inv.Name = "expedition"
	inv.Limits = map[string]int{"rope": 4, "lamp": 2}

	for _, v := range []int{5, 7} {
		io, err := reg.Create("Item")
		if err != nil {
			t.Fatalf("Create() error: %v", err)
		}
		io.(*fixtures.Item).Value = v
		inv.Items = append(inv.Items, io.(*fixtures.Item))
	}
	return inv
}

func TestRoundTrip_AllCodecs(t *testing.T) {
	for name, codec := range codecs() {
		t.Run(name, func(t *testing.T) {
			reg := fixtures.NewRegistry()
			store := satchel.NewStore(reg, codec)
			inv := buildInventory(t, reg)

			data, err := store.Encode(inv)
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			back, err := store.Decode(data)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}

			got := back.(*fixtures.Inventory)
			if got.Name != inv.Name {
				t.Errorf("Name = %q, want %q", got.Name, inv.Name)
			}
			if !reflect.DeepEqual(got.Limits, inv.Limits) {
				t.Errorf("Limits = %v, want %v", got.Limits, inv.Limits)
			}
			if len(got.Items) != len(inv.Items) {
				t.Fatalf("len(Items) = %d, want %d", len(got.Items), len(inv.Items))
			}
			for i := range inv.Items {
				if got.Items[i].Value != inv.Items[i].Value {
					t.Errorf("Items[%d].Value = %d, want %d", i, got.Items[i].Value, inv.Items[i].Value)
				}
				if got.Items[i].TypeName() != "Item" {
					t.Errorf("Items[%d] lost its tag", i)
				}
			}
		})
	}
}

func TestRoundTrip_Files(t *testing.T) {
	for name, codec := range codecs() {
		t.Run(name, func(t *testing.T) {
			reg := fixtures.NewRegistry()
			store := satchel.NewStore(reg, codec)
			inv := buildInventory(t, reg)
			path := filepath.Join(t.TempDir(), "inventory."+name)

			if err := store.Save(inv, path); err != nil {
				t.Fatalf("Save() error: %v", err)
			}
			back, err := store.Load(path)
			if err != nil {
				t.Fatalf("Load() error: %v", err)
			}
			if back.(*fixtures.Inventory).Name != inv.Name {
				t.Errorf("loaded %+v", back)
			}
		})
	}
}

func TestRoundTrip_PostLoadAcrossCodecs(t *testing.T) {
	for name, codec := range codecs() {
		t.Run(name, func(t *testing.T) {
			reg := fixtures.NewRegistry()
			store := satchel.NewStore(reg, codec)

			obj, err := reg.Create("Room")
			if err != nil {
				t.Fatalf("Create() error: %v", err)
			}
			room := obj.(*fixtures.Room)
			room.Width, room.Height = 3, 4
			room.Position = "north-2" // owner-managed, never serialized

			data, err := store.Encode(room)
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			back, err := store.Decode(data)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}

			got := back.(*fixtures.Room)
			if got.Area != 12 {
				t.Errorf("Area = %d, want 12 (hook after assignment)", got.Area)
			}
			if got.Position != "" {
				t.Errorf("Position = %q, want empty until the owner restores it", got.Position)
			}
		})
	}
}

func TestRoundTrip_ElisionMatchesPolicy(t *testing.T) {
	reg := fixtures.NewRegistry()
	store := satchel.NewStore(reg, json.New())

	obj, err := reg.Create("Item")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}

	data, err := store.Encode(obj)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if got := string(data); got != `{"$type":"Item"}` {
		t.Errorf("fresh default = %s, want bare tag", got)
	}

	full := fixtures.NewRegistry(satchel.WithSerializeDefaults())
	obj2, err := full.Create("Item")
	if err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	data2, err := satchel.NewStore(full, json.New()).Encode(obj2)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if got := string(data2); got != `{"$type":"Item","Value":0}` {
		t.Errorf("defaults-on = %s", got)
	}
}
