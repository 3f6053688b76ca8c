// Package bson provides a BSON codec for satchel Value trees.
//
// BSON requires a document at the top level, so a top-level scalar or
// sequence wraps as {"$value": ...}. Objects and mappings encode as ordered
// bson.D documents; a tagged object carries the reserved "$type" key as its
// first element.
package bson

import (
	"fmt"
	"math"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zoobzio/satchel"
)

// valueKey is the reserved key wrapping a non-document top-level Value.
const valueKey = "$value"

// bsonCodec implements satchel.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() satchel.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Encode converts v to a BSON document.
func (c *bsonCodec) Encode(v satchel.Value) ([]byte, error) {
	var doc bson.D
	switch v.(type) {
	case satchel.Object, satchel.Mapping:
		native, err := encodeAny(v)
		if err != nil {
			return nil, err
		}
		doc = native.(bson.D)
	default:
		native, err := encodeAny(v)
		if err != nil {
			return nil, err
		}
		doc = bson.D{{Key: valueKey, Value: native}}
	}
	return bson.Marshal(doc)
}

// Decode parses a BSON document back into a Value tree.
func (c *bsonCodec) Decode(data []byte) (satchel.Value, error) {
	var doc bson.D
	if err := bson.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc) == 1 && doc[0].Key == valueKey {
		return decodeAny(doc[0].Value)
	}
	return decodeDoc(doc)
}

func encodeAny(v satchel.Value) (any, error) {
	switch val := v.(type) {
	case satchel.Scalar:
		return encodeScalar(val)

	case satchel.Sequence:
		arr := make(bson.A, 0, len(val))
		for _, e := range val {
			native, err := encodeAny(e)
			if err != nil {
				return nil, err
			}
			arr = append(arr, native)
		}
		return arr, nil

	case satchel.Mapping:
		doc := make(bson.D, 0, len(val))
		for _, e := range val {
			native, err := encodeAny(e.Value)
			if err != nil {
				return nil, err
			}
			doc = append(doc, bson.E{Key: e.Key, Value: native})
		}
		return doc, nil

	case satchel.Object:
		doc := make(bson.D, 0, len(val.Fields)+1)
		doc = append(doc, bson.E{Key: satchel.TypeKey, Value: val.Type})
		for _, f := range val.Fields {
			native, err := encodeAny(f.Value)
			if err != nil {
				return nil, err
			}
			doc = append(doc, bson.E{Key: f.Name, Value: native})
		}
		return doc, nil
	}

	return nil, fmt.Errorf("unknown value variant %T", v)
}

func encodeScalar(s satchel.Scalar) (any, error) {
	switch v := s.V.(type) {
	case nil, bool, int64, float64, string:
		return v, nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("integer %d has no BSON form", v)
		}
		return int64(v), nil
	case []byte:
		return primitive.Binary{Data: v}, nil
	}
	return nil, fmt.Errorf("unknown scalar type %T", s.V)
}

func decodeAny(v any) (satchel.Value, error) {
	switch val := v.(type) {
	case nil:
		return satchel.Scalar{}, nil
	case bool:
		return satchel.Scalar{V: val}, nil
	case int32:
		return satchel.Scalar{V: int64(val)}, nil
	case int64:
		return satchel.Scalar{V: val}, nil
	case float64:
		return satchel.Scalar{V: val}, nil
	case string:
		return satchel.Scalar{V: val}, nil
	case primitive.Binary:
		return satchel.Scalar{V: val.Data}, nil
	case primitive.Null:
		return satchel.Scalar{}, nil
	case bson.D:
		return decodeDoc(val)
	case bson.A:
		seq := make(satchel.Sequence, 0, len(val))
		for _, e := range val {
			dv, err := decodeAny(e)
			if err != nil {
				return nil, err
			}
			seq = append(seq, dv)
		}
		return seq, nil
	}
	return nil, fmt.Errorf("unexpected BSON value %T", v)
}

func decodeDoc(doc bson.D) (satchel.Value, error) {
	entries := make(satchel.Mapping, 0, len(doc))
	for _, e := range doc {
		v, err := decodeAny(e.Value)
		if err != nil {
			return nil, err
		}
		entries = append(entries, satchel.Entry{Key: e.Key, Value: v})
	}

	for i, e := range entries {
		if e.Key != satchel.TypeKey {
			continue
		}
		s, ok := e.Value.(satchel.Scalar)
		if !ok {
			return nil, fmt.Errorf("%s is not a string", satchel.TypeKey)
		}
		name, ok := s.V.(string)
		if !ok {
			return nil, fmt.Errorf("%s is not a string", satchel.TypeKey)
		}
		fields := make([]satchel.Field, 0, len(entries)-1)
		for j, f := range entries {
			if j == i {
				continue
			}
			fields = append(fields, satchel.Field{Name: f.Key, Value: f.Value})
		}
		return satchel.Object{Type: name, Fields: fields}, nil
	}

	return entries, nil
}
