package satchel

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"
)

// Deserialize converts a tagged-object Value back into a live instance:
// instantiate through the registry, assign each field (recursing into nested
// Objects and containers), then invoke the PostLoad hook if the type
// implements PostLoader.
//
// On any error no instance is returned; a partially populated instance never
// escapes. Serialized fields with no destination on the live type are
// skipped and reported through SignalFieldUnknown.
func (r *Registry) Deserialize(v Value) (Tagged, error) {
	ctx := context.Background()
	start := time.Now()

	inst, err := r.deserialize(v)

	name := ""
	if obj, ok := v.(Object); ok {
		name = obj.Type
	}
	emitDeserializeComplete(ctx, name, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return inst, nil
}

func (r *Registry) deserialize(v Value) (Tagged, error) {
	obj, ok := v.(Object)
	if !ok {
		return nil, newTypeError(ErrMissingTypeTag, "")
	}

	inst, err := r.Create(obj.Type)
	if err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(inst).Elem()
	plan := planFor(rv.Type())

	for _, f := range obj.Fields {
		i, ok := plan.byName[f.Name]
		if !ok {
			emitFieldUnknown(context.Background(), obj.Type, f.Name)
			continue
		}
		fv := rv.FieldByIndex(plan.fields[i].index)
		if err := r.assign(obj.Type, f.Name, fv, f.Value); err != nil {
			return nil, err
		}
	}

	if hook, ok := inst.(PostLoader); ok {
		hook.PostLoad()
	}
	return inst, nil
}

// assign converts v back to a native value and stores it in fv.
func (r *Registry) assign(typeName, fieldName string, fv reflect.Value, v Value) error {
	// Untyped interface fields take the generic native form
	if fv.Kind() == reflect.Interface && fv.Type().NumMethod() == 0 {
		native, err := r.toNative(v)
		if err != nil {
			return err
		}
		if native == nil {
			fv.Set(reflect.Zero(fv.Type()))
		} else {
			fv.Set(reflect.ValueOf(native))
		}
		return nil
	}

	switch val := v.(type) {
	case Object:
		child, err := r.deserialize(val)
		if err != nil {
			return err
		}
		cv := reflect.ValueOf(child)
		if !cv.Type().AssignableTo(fv.Type()) {
			return newFieldError(ErrUnsupportedValue, typeName, fieldName,
				fmt.Errorf("%s is not assignable to %s", cv.Type(), fv.Type()))
		}
		fv.Set(cv)
		return nil

	case Mapping:
		return r.assignMapping(typeName, fieldName, fv, val)

	case Sequence:
		return r.assignSequence(typeName, fieldName, fv, val)

	case Scalar:
		return r.assignScalar(typeName, fieldName, fv, val)
	}

	return newFieldError(ErrUnsupportedValue, typeName, fieldName, nil)
}

// assignMapping merges entries into the field's map, preserving its declared
// key and element types. A non-nil map already placed by the factory keeps
// its identity and receives the entries.
func (r *Registry) assignMapping(typeName, fieldName string, fv reflect.Value, m Mapping) error {
	if fv.Kind() != reflect.Map {
		return newFieldError(ErrUnsupportedValue, typeName, fieldName,
			fmt.Errorf("cannot assign mapping to %s", fv.Type()))
	}
	mt := fv.Type()
	dst := fv
	if dst.IsNil() {
		dst = reflect.MakeMapWithSize(mt, len(m))
		fv.Set(dst)
	}
	for _, e := range m {
		key, err := parseMapKey(e.Key, mt.Key())
		if err != nil {
			return newFieldError(ErrUnsupportedValue, typeName, fieldName, err)
		}
		elem := reflect.New(mt.Elem()).Elem()
		if err := r.assign(typeName, fieldName, elem, e.Value); err != nil {
			return err
		}
		dst.SetMapIndex(key, elem)
	}
	return nil
}

// assignSequence rebuilds the field's slice or array with its declared
// element type.
func (r *Registry) assignSequence(typeName, fieldName string, fv reflect.Value, seq Sequence) error {
	switch fv.Kind() {
	case reflect.Slice:
		dst := reflect.MakeSlice(fv.Type(), len(seq), len(seq))
		for i, v := range seq {
			if err := r.assign(typeName, fieldName, dst.Index(i), v); err != nil {
				return err
			}
		}
		fv.Set(dst)
		return nil

	case reflect.Array:
		if fv.Len() != len(seq) {
			return newFieldError(ErrUnsupportedValue, typeName, fieldName,
				fmt.Errorf("sequence length %d does not fit %s", len(seq), fv.Type()))
		}
		for i, v := range seq {
			if err := r.assign(typeName, fieldName, fv.Index(i), v); err != nil {
				return err
			}
		}
		return nil
	}

	return newFieldError(ErrUnsupportedValue, typeName, fieldName,
		fmt.Errorf("cannot assign sequence to %s", fv.Type()))
}

// assignScalar stores a primitive into fv, converting across compatible
// kinds with overflow checks.
func (r *Registry) assignScalar(typeName, fieldName string, fv reflect.Value, s Scalar) error {
	if s.V == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}

	if fv.Kind() == reflect.Pointer {
		p := reflect.New(fv.Type().Elem())
		if err := r.assignScalar(typeName, fieldName, p.Elem(), s); err != nil {
			return err
		}
		fv.Set(p)
		return nil
	}

	mismatch := func() error {
		return newFieldError(ErrUnsupportedValue, typeName, fieldName,
			fmt.Errorf("cannot assign %T to %s", s.V, fv.Type()))
	}

	switch fv.Kind() {
	case reflect.Bool:
		b, ok := s.V.(bool)
		if !ok {
			return mismatch()
		}
		fv.SetBool(b)

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := scalarInt(s.V)
		if !ok || fv.OverflowInt(i) {
			return mismatch()
		}
		fv.SetInt(i)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, ok := scalarUint(s.V)
		if !ok || fv.OverflowUint(u) {
			return mismatch()
		}
		fv.SetUint(u)

	case reflect.Float32, reflect.Float64:
		f, ok := scalarFloat(s.V)
		if !ok || fv.OverflowFloat(f) {
			return mismatch()
		}
		fv.SetFloat(f)

	case reflect.String:
		str, ok := s.V.(string)
		if !ok {
			return mismatch()
		}
		fv.SetString(str)

	case reflect.Slice:
		b, ok := s.V.([]byte)
		if !ok || fv.Type().Elem().Kind() != reflect.Uint8 {
			return mismatch()
		}
		cp := reflect.MakeSlice(fv.Type(), len(b), len(b))
		reflect.Copy(cp, reflect.ValueOf(b))
		fv.Set(cp)

	default:
		return mismatch()
	}
	return nil
}

// toNative converts a Value into the generic form used for untyped
// interface fields.
func (r *Registry) toNative(v Value) (any, error) {
	switch val := v.(type) {
	case Object:
		return r.deserialize(val)
	case Mapping:
		m := make(map[string]any, len(val))
		for _, e := range val {
			n, err := r.toNative(e.Value)
			if err != nil {
				return nil, err
			}
			m[e.Key] = n
		}
		return m, nil
	case Sequence:
		s := make([]any, len(val))
		for i, e := range val {
			n, err := r.toNative(e)
			if err != nil {
				return nil, err
			}
			s[i] = n
		}
		return s, nil
	case Scalar:
		return val.V, nil
	}
	return nil, nil
}

// parseMapKey restores a canonical string key to the map's declared key type.
func parseMapKey(key string, kt reflect.Type) (reflect.Value, error) {
	switch kt.Kind() {
	case reflect.String:
		return reflect.ValueOf(key).Convert(kt), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("map key %q: %w", key, err)
		}
		kv := reflect.New(kt).Elem()
		if kv.OverflowInt(i) {
			return reflect.Value{}, fmt.Errorf("map key %q overflows %s", key, kt)
		}
		kv.SetInt(i)
		return kv, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("map key %q: %w", key, err)
		}
		kv := reflect.New(kt).Elem()
		if kv.OverflowUint(u) {
			return reflect.Value{}, fmt.Errorf("map key %q overflows %s", key, kt)
		}
		kv.SetUint(u)
		return kv, nil
	}
	return reflect.Value{}, fmt.Errorf("map key type %s is not supported", kt)
}

func scalarInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func scalarUint(v any) (uint64, bool) {
	switch n := v.(type) {
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint64:
		return n, true
	}
	return 0, false
}

func scalarFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
