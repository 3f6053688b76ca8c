package satchel

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"time"
)

// Serialize converts a registry-created instance into its canonical Object
// Value, applying transient filtering and default elision, and recursing
// into nested tagged instances and containers.
//
// Opaque values (untagged composites, channels, functions) are emitted as
// nil scalars and reported through SignalValueSkipped, unless the registry
// was built with WithStrictValues, in which case they fail with
// ErrUnsupportedValue.
func (r *Registry) Serialize(obj Tagged) (Value, error) {
	if obj == nil {
		return nil, newTypeError(ErrUntaggedInstance, "")
	}
	// A typed nil pointer is just as untagged as a nil interface
	if rv := reflect.ValueOf(obj); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, newTypeError(ErrUntaggedInstance, rv.Type().String())
	}

	ctx := context.Background()
	start := time.Now()

	out, err := r.serialize(obj)
	name := obj.tagRef().name

	emitSerializeComplete(ctx, name, time.Since(start), len(out.Fields), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Registry) serialize(obj Tagged) (Object, error) {
	name := obj.tagRef().name
	if name == "" {
		return Object{}, newTypeError(ErrUntaggedInstance, reflect.TypeOf(obj).String())
	}
	if _, ok := r.lookup(name); !ok {
		return Object{}, newTypeError(ErrUnknownType, name)
	}

	rv := reflect.ValueOf(obj)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return Object{}, newTypeError(ErrUntaggedInstance, rv.Type().String())
	}
	rv = rv.Elem()
	plan := planFor(rv.Type())

	// Default instance for elision, built lazily on first use
	var def reflect.Value
	if !r.serializeDefaults {
		if d, ok := r.defaultFor(name); ok {
			def = reflect.ValueOf(d).Elem()
		}
	}

	fields := make([]Field, 0, len(plan.fields))
	for _, fp := range plan.fields {
		fv := rv.FieldByIndex(fp.index)
		if def.IsValid() && reflect.DeepEqual(fv.Interface(), def.FieldByIndex(fp.index).Interface()) {
			continue
		}
		val, err := r.valueOf(name, fp.name, fv)
		if err != nil {
			return Object{}, err
		}
		fields = append(fields, Field{Name: fp.name, Value: val})
	}

	return Object{Type: name, Fields: fields}, nil
}

// valueOf converts an arbitrary field value to a Value.
func (r *Registry) valueOf(typeName, fieldName string, rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return Scalar{V: rv.Bool()}, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Scalar{V: rv.Int()}, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Scalar{V: u}, nil
		}
		return Scalar{V: int64(u)}, nil

	case reflect.Float32, reflect.Float64:
		return Scalar{V: rv.Float()}, nil

	case reflect.String:
		return Scalar{V: rv.String()}, nil

	case reflect.Slice:
		if rv.IsNil() {
			return Scalar{}, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return Scalar{V: append([]byte(nil), rv.Bytes()...)}, nil
		}
		return r.sequenceOf(typeName, fieldName, rv)

	case reflect.Array:
		return r.sequenceOf(typeName, fieldName, rv)

	case reflect.Map:
		if rv.IsNil() {
			return Scalar{}, nil
		}
		return r.mappingOf(typeName, fieldName, rv)

	case reflect.Interface:
		if rv.IsNil() {
			return Scalar{}, nil
		}
		return r.valueOf(typeName, fieldName, rv.Elem())

	case reflect.Pointer:
		if rv.IsNil() {
			return Scalar{}, nil
		}
		if t, ok := rv.Interface().(Tagged); ok {
			if t.tagRef().name == "" {
				return r.opaque(typeName, fieldName, rv)
			}
			return r.serialize(t)
		}
		if rv.Elem().Kind() == reflect.Struct {
			return r.opaque(typeName, fieldName, rv)
		}
		return r.valueOf(typeName, fieldName, rv.Elem())
	}

	// Untagged struct values, channels, functions, unsafe pointers
	return r.opaque(typeName, fieldName, rv)
}

func (r *Registry) sequenceOf(typeName, fieldName string, rv reflect.Value) (Value, error) {
	seq := make(Sequence, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		v, err := r.valueOf(typeName, fieldName, rv.Index(i))
		if err != nil {
			return nil, err
		}
		seq[i] = v
	}
	return seq, nil
}

func (r *Registry) mappingOf(typeName, fieldName string, rv reflect.Value) (Value, error) {
	keys := rv.MapKeys()
	names := make([]string, len(keys))
	byName := make(map[string]reflect.Value, len(keys))
	for i, k := range keys {
		name, err := mapKeyString(k)
		if err != nil {
			return r.opaque(typeName, fieldName, rv)
		}
		names[i] = name
		byName[name] = k
	}
	// Deterministic output: mapping key order carries no meaning
	sort.Strings(names)

	m := make(Mapping, 0, len(names))
	for _, name := range names {
		v, err := r.valueOf(typeName, fieldName, rv.MapIndex(byName[name]))
		if err != nil {
			return nil, err
		}
		m = append(m, Entry{Key: name, Value: v})
	}
	return m, nil
}

// mapKeyString converts a map key to its canonical string form. Only key
// conversion happens here; values recurse separately.
func mapKeyString(k reflect.Value) (string, error) {
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10), nil
	}
	return "", fmt.Errorf("map key type %s has no canonical string form", k.Type())
}

// opaque handles a value outside the engine's closed variant: fatal when
// strict, otherwise a nil scalar plus a skip signal.
func (r *Registry) opaque(typeName, fieldName string, rv reflect.Value) (Value, error) {
	if r.strict {
		return nil, newFieldError(ErrUnsupportedValue, typeName, fieldName,
			fmt.Errorf("cannot serialize %s", rv.Type()))
	}
	emitValueSkipped(context.Background(), typeName, fieldName, rv.Type().String())
	return Scalar{}, nil
}
