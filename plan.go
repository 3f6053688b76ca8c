package satchel

import (
	"reflect"
	"sync"

	"github.com/zoobzio/sentinel"
)

func init() {
	// Register our tag with sentinel so scanned metadata carries it
	sentinel.Tag("satchel")
}

var (
	planCache = make(map[reflect.Type]*typePlan)
	planMu    sync.RWMutex
)

// typePlan holds the serializable-field layout of one struct type,
// in declaration order.
type typePlan struct {
	fields []fieldPlan
	byName map[string]int
}

// fieldPlan describes a single eligible field.
type fieldPlan struct {
	name  string // serialized name (tag rename applied)
	index []int  // reflect.Value.FieldByIndex access path
	typ   reflect.Type
}

var tagType = reflect.TypeOf(Tag{})

// planFor returns the cached plan for rt, building it on first use.
// rt must be a struct type.
func planFor(rt reflect.Type) *typePlan {
	// Fast path: read-lock cache check
	planMu.RLock()
	if plan, ok := planCache[rt]; ok {
		planMu.RUnlock()
		return plan
	}
	planMu.RUnlock()

	plan := buildPlan(rt)

	// Slow path: store with write-lock, double-check
	planMu.Lock()
	defer planMu.Unlock()
	if cached, ok := planCache[rt]; ok {
		return cached
	}
	planCache[rt] = plan
	return plan
}

// buildPlan derives the field plan from type metadata.
func buildPlan(rt reflect.Type) *typePlan {
	meta := scanType(rt)
	plan := &typePlan{
		byName: make(map[string]int, len(meta.Fields)),
	}

	for _, field := range meta.Fields {
		// The embedded tag is out-of-band identity, never a field
		if field.ReflectType == tagType {
			continue
		}

		name := field.Name
		if tag, ok := field.Tags["satchel"]; ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}

		plan.byName[name] = len(plan.fields)
		plan.fields = append(plan.fields, fieldPlan{
			name:  name,
			index: append([]int{}, field.Index...),
			typ:   field.ReflectType,
		})
	}

	return plan
}

// scanType returns metadata for rt, preferring sentinel's cache.
func scanType(rt reflect.Type) sentinel.Metadata {
	if meta, ok := sentinel.Lookup(rt.String()); ok {
		return meta
	}

	meta := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        parseFieldTags(sf.Tag),
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		meta.Fields = append(meta.Fields, fm)
	}

	return meta
}

// parseFieldTags extracts the satchel tag from a struct tag.
func parseFieldTags(tag reflect.StructTag) map[string]string {
	tags := make(map[string]string)
	if val, ok := tag.Lookup("satchel"); ok {
		tags["satchel"] = val
	}
	return tags
}
