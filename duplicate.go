package satchel

import (
	"context"
	"fmt"
	"reflect"
	"time"
)

// Duplicate structurally copies a registry-created instance without passing
// through any encoding. The copy is a fresh instance from the registry,
// carrying the same type tag.
//
// With deep false, field values copy by Go assignment: shared slices, maps,
// and nested instances remain shared. With deep true, nested tagged
// instances duplicate recursively and containers are rebuilt element by
// element with their declared types preserved; opaque values are always
// fatal, since a silently lossy clone has nothing to fall back to.
func (r *Registry) Duplicate(obj Tagged, deep bool) (Tagged, error) {
	if obj == nil {
		return nil, newTypeError(ErrUntaggedInstance, "")
	}
	// A typed nil pointer is just as untagged as a nil interface
	if rv := reflect.ValueOf(obj); rv.Kind() == reflect.Pointer && rv.IsNil() {
		return nil, newTypeError(ErrUntaggedInstance, rv.Type().String())
	}

	ctx := context.Background()
	start := time.Now()
	mode := "shallow"
	if deep {
		mode = "deep"
	}

	dup, err := r.duplicate(obj, deep)

	emitDuplicateComplete(ctx, obj.tagRef().name, mode, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return dup, nil
}

func (r *Registry) duplicate(obj Tagged, deep bool) (Tagged, error) {
	name := obj.tagRef().name
	if name == "" {
		return nil, newTypeError(ErrUntaggedInstance, reflect.TypeOf(obj).String())
	}

	dup, err := r.Create(name)
	if err != nil {
		return nil, err
	}

	src := reflect.ValueOf(obj).Elem()
	dst := reflect.ValueOf(dup).Elem()
	plan := planFor(src.Type())

	for _, fp := range plan.fields {
		sv := src.FieldByIndex(fp.index)
		if !deep {
			dst.FieldByIndex(fp.index).Set(sv)
			continue
		}
		cp, err := r.deepCopy(name, fp.name, sv)
		if err != nil {
			return nil, err
		}
		dst.FieldByIndex(fp.index).Set(cp)
	}

	return dup, nil
}

// deepCopy recursively duplicates a single field value.
func (r *Registry) deepCopy(typeName, fieldName string, rv reflect.Value) (reflect.Value, error) {
	fatal := func() (reflect.Value, error) {
		return reflect.Value{}, newFieldError(ErrUnsupportedValue, typeName, fieldName,
			fmt.Errorf("cannot duplicate %s", rv.Type()))
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return reflect.Zero(rv.Type()), nil
		}
		if t, ok := rv.Interface().(Tagged); ok {
			if t.tagRef().name == "" {
				return fatal()
			}
			child, err := r.duplicate(t, true)
			if err != nil {
				return reflect.Value{}, err
			}
			return reflect.ValueOf(child), nil
		}
		if rv.Elem().Kind() == reflect.Struct {
			return fatal()
		}
		p := reflect.New(rv.Type().Elem())
		cp, err := r.deepCopy(typeName, fieldName, rv.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		p.Elem().Set(cp)
		return p, nil

	case reflect.Interface:
		if rv.IsNil() {
			return reflect.Zero(rv.Type()), nil
		}
		cp, err := r.deepCopy(typeName, fieldName, rv.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.New(rv.Type()).Elem()
		out.Set(cp)
		return out, nil

	case reflect.Slice:
		if rv.IsNil() {
			return reflect.Zero(rv.Type()), nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			cp := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
			reflect.Copy(cp, rv)
			return cp, nil
		}
		cp := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := r.deepCopy(typeName, fieldName, rv.Index(i))
			if err != nil {
				return reflect.Value{}, err
			}
			cp.Index(i).Set(ev)
		}
		return cp, nil

	case reflect.Array:
		cp := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			ev, err := r.deepCopy(typeName, fieldName, rv.Index(i))
			if err != nil {
				return reflect.Value{}, err
			}
			cp.Index(i).Set(ev)
		}
		return cp, nil

	case reflect.Map:
		if rv.IsNil() {
			return reflect.Zero(rv.Type()), nil
		}
		cp := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			ev, err := r.deepCopy(typeName, fieldName, iter.Value())
			if err != nil {
				return reflect.Value{}, err
			}
			cp.SetMapIndex(iter.Key(), ev)
		}
		return cp, nil

	case reflect.Struct, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return fatal()
	}

	// Scalars copy by value
	return rv, nil
}
