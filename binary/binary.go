// Package binary provides the compact self-describing binary codec for
// satchel Value trees, built on MessagePack.
//
// Scalars map onto the native MessagePack families, so integers, floats,
// strings, and byte blobs all stay distinct. A tagged object is a map whose
// first entry is the reserved "$type" key; entry order is preserved by the
// stream in both directions.
package binary

import (
	"bytes"
	"fmt"
	"math"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/zoobzio/satchel"
)

// binaryCodec implements satchel.Codec for MessagePack.
type binaryCodec struct{}

// New returns a binary codec.
func New() satchel.Codec {
	return &binaryCodec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *binaryCodec) ContentType() string {
	return "application/msgpack"
}

// Encode converts v to its binary form.
func (c *binaryCodec) Encode(v satchel.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := writeValue(enc, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses binary data back into a Value tree.
func (c *binaryCodec) Decode(data []byte) (satchel.Value, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	return readValue(dec)
}

func writeValue(enc *msgpack.Encoder, v satchel.Value) error {
	switch val := v.(type) {
	case satchel.Scalar:
		return writeScalar(enc, val)

	case satchel.Sequence:
		if err := enc.EncodeArrayLen(len(val)); err != nil {
			return err
		}
		for _, e := range val {
			if err := writeValue(enc, e); err != nil {
				return err
			}
		}
		return nil

	case satchel.Mapping:
		if err := enc.EncodeMapLen(len(val)); err != nil {
			return err
		}
		for _, e := range val {
			if err := enc.EncodeString(e.Key); err != nil {
				return err
			}
			if err := writeValue(enc, e.Value); err != nil {
				return err
			}
		}
		return nil

	case satchel.Object:
		if err := enc.EncodeMapLen(len(val.Fields) + 1); err != nil {
			return err
		}
		if err := enc.EncodeString(satchel.TypeKey); err != nil {
			return err
		}
		if err := enc.EncodeString(val.Type); err != nil {
			return err
		}
		for _, f := range val.Fields {
			if err := enc.EncodeString(f.Name); err != nil {
				return err
			}
			if err := writeValue(enc, f.Value); err != nil {
				return err
			}
		}
		return nil
	}

	return fmt.Errorf("unknown value variant %T", v)
}

func writeScalar(enc *msgpack.Encoder, s satchel.Scalar) error {
	switch v := s.V.(type) {
	case nil:
		return enc.EncodeNil()
	case bool:
		return enc.EncodeBool(v)
	case int64:
		return enc.EncodeInt(v)
	case uint64:
		return enc.EncodeUint(v)
	case float64:
		return enc.EncodeFloat64(v)
	case string:
		return enc.EncodeString(v)
	case []byte:
		return enc.EncodeBytes(v)
	}
	return fmt.Errorf("unknown scalar type %T", s.V)
}

func readValue(dec *msgpack.Decoder) (satchel.Value, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}

	switch {
	case c == msgpcode.Nil:
		if err := dec.DecodeNil(); err != nil {
			return nil, err
		}
		return satchel.Scalar{}, nil

	case c == msgpcode.True || c == msgpcode.False:
		b, err := dec.DecodeBool()
		if err != nil {
			return nil, err
		}
		return satchel.Scalar{V: b}, nil

	case c == msgpcode.Uint64:
		u, err := dec.DecodeUint64()
		if err != nil {
			return nil, err
		}
		if u > math.MaxInt64 {
			return satchel.Scalar{V: u}, nil
		}
		return satchel.Scalar{V: int64(u)}, nil

	case msgpcode.IsFixedNum(c),
		c == msgpcode.Int8, c == msgpcode.Int16, c == msgpcode.Int32, c == msgpcode.Int64,
		c == msgpcode.Uint8, c == msgpcode.Uint16, c == msgpcode.Uint32:
		i, err := dec.DecodeInt64()
		if err != nil {
			return nil, err
		}
		return satchel.Scalar{V: i}, nil

	case c == msgpcode.Float, c == msgpcode.Double:
		f, err := dec.DecodeFloat64()
		if err != nil {
			return nil, err
		}
		return satchel.Scalar{V: f}, nil

	case msgpcode.IsFixedString(c), c == msgpcode.Str8, c == msgpcode.Str16, c == msgpcode.Str32:
		str, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		return satchel.Scalar{V: str}, nil

	case c == msgpcode.Bin8, c == msgpcode.Bin16, c == msgpcode.Bin32:
		b, err := dec.DecodeBytes()
		if err != nil {
			return nil, err
		}
		return satchel.Scalar{V: b}, nil

	case msgpcode.IsFixedArray(c), c == msgpcode.Array16, c == msgpcode.Array32:
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return nil, err
		}
		seq := make(satchel.Sequence, 0, n)
		for i := 0; i < n; i++ {
			v, err := readValue(dec)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil

	case msgpcode.IsFixedMap(c), c == msgpcode.Map16, c == msgpcode.Map32:
		return readMapping(dec)
	}

	return nil, fmt.Errorf("unexpected code 0x%02x", c)
}

func readMapping(dec *msgpack.Decoder) (satchel.Value, error) {
	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}

	entries := make(satchel.Mapping, 0, n)
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return nil, err
		}
		v, err := readValue(dec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, satchel.Entry{Key: key, Value: v})
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
