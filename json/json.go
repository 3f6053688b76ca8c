// Package json provides an ordered JSON codec for satchel Value trees.
//
// JSON has no native distinction between integer and floating scalars, so
// the codec enforces a lossless convention: floats always carry a decimal
// point or exponent, integers never do. []byte scalars, which JSON also
// lacks, encode as {"$bytes": "<base64>"} objects. A plain mapping key or
// field name that would collide with the wrapper gains a leading "$" on
// encode and sheds it on decode, so "$bytes" itself stays usable as data.
// Object and mapping entry order is preserved in both directions.
package json

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/zoobzio/satchel"
)

// bytesKey is the reserved key wrapping a []byte scalar.
const bytesKey = "$bytes"

// jsonCodec implements satchel.Codec for JSON.
type jsonCodec struct{}

// New returns a JSON codec.
func New() satchel.Codec {
	return &jsonCodec{}
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return "application/json"
}

// Encode converts v to JSON text.
func (c *jsonCodec) Encode(v satchel.Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses JSON text back into a Value tree.
func (c *jsonCodec) Decode(data []byte) (satchel.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("trailing data after value")
	}
	return v, nil
}

func encodeValue(buf *bytes.Buffer, v satchel.Value) error {
	switch val := v.(type) {
	case satchel.Scalar:
		return encodeScalar(buf, val)

	case satchel.Sequence:
		buf.WriteByte('[')
		for i, e := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil

	case satchel.Mapping:
		buf.WriteByte('{')
		for i, e := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeKey(buf, escapeKey(e.Key)); err != nil {
				return err
			}
			if err := encodeValue(buf, e.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil

	case satchel.Object:
		buf.WriteByte('{')
		if err := encodeKey(buf, satchel.TypeKey); err != nil {
			return err
		}
		if err := encodeString(buf, val.Type); err != nil {
			return err
		}
		for _, f := range val.Fields {
			buf.WriteByte(',')
			if err := encodeKey(buf, escapeKey(f.Name)); err != nil {
				return err
			}
			if err := encodeValue(buf, f.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	}

	return fmt.Errorf("unknown value variant %T", v)
}

func encodeScalar(buf *bytes.Buffer, s satchel.Scalar) error {
	switch v := s.V.(type) {
	case nil:
		buf.WriteString("null")
	case bool:
		buf.WriteString(strconv.FormatBool(v))
	case int64:
		buf.WriteString(strconv.FormatInt(v, 10))
	case uint64:
		buf.WriteString(strconv.FormatUint(v, 10))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("float %v has no JSON form", v)
		}
		f := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(f, ".eE") {
			f += ".0"
		}
		buf.WriteString(f)
	case string:
		return encodeString(buf, v)
	case []byte:
		buf.WriteByte('{')
		if err := encodeKey(buf, bytesKey); err != nil {
			return err
		}
		if err := encodeString(buf, base64.StdEncoding.EncodeToString(v)); err != nil {
			return err
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("unknown scalar type %T", s.V)
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

func encodeKey(buf *bytes.Buffer, key string) error {
	if err := encodeString(buf, key); err != nil {
		return err
	}
	buf.WriteByte(':')
	return nil
}

// escapeKey protects a data key that would read back as the []byte wrapper.
// "$bytes" becomes "$$bytes", "$$bytes" becomes "$$$bytes", and so on.
func escapeKey(key string) string {
	if isBytesKey(key) {
		return "$" + key
	}
	return key
}

func unescapeKey(key string) string {
	if strings.HasPrefix(key, "$") && isBytesKey(key[1:]) {
		return key[1:]
	}
	return key
}

// isBytesKey reports whether key is "$bytes" or an escaped form of it.
func isBytesKey(key string) bool {
	i := 0
	for i < len(key) && key[i] == '$' {
		i++
	}
	return i > 0 && key[i:] == "bytes"
}

func decodeValue(dec *json.Decoder) (satchel.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (satchel.Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)

	case string:
		return satchel.Scalar{V: t}, nil
	case bool:
		return satchel.Scalar{V: t}, nil
	case nil:
		return satchel.Scalar{}, nil
	case json.Number:
		return decodeNumber(t)
	}

	return nil, fmt.Errorf("unexpected token %v", tok)
}

// decodeNumber restores the int/float split: a decimal point or exponent
// means float, everything else is integral.
func decodeNumber(n json.Number) (satchel.Value, error) {
	if strings.ContainsAny(n.String(), ".eE") {
		f, err := n.Float64()
		if err != nil {
			return nil, err
		}
		return satchel.Scalar{V: f}, nil
	}
	if i, err := n.Int64(); err == nil {
		return satchel.Scalar{V: i}, nil
	}
	u, err := strconv.ParseUint(n.String(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("number %s does not fit any integer form", n)
	}
	return satchel.Scalar{V: u}, nil
}

func decodeArray(dec *json.Decoder) (satchel.Value, error) {
	seq := satchel.Sequence{}
	for dec.More() {
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		seq = append(seq, v)
	}
	if _, err := dec.Token(); err != nil { // closing ]
		return nil, err
	}
	return seq, nil
}

func decodeObject(dec *json.Decoder) (satchel.Value, error) {
	entries := satchel.Mapping{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("object key %v is not a string", keyTok)
		}
		v, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		entries = append(entries, satchel.Entry{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil { // closing }
		return nil, err
	}

	// A single $bytes entry is a wrapped []byte scalar
	if len(entries) == 1 && entries[0].Key == bytesKey {
		if s, ok := entries[0].Value.(satchel.Scalar); ok {
			if enc, ok := s.V.(string); ok {
				raw, err := base64.StdEncoding.DecodeString(enc)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", bytesKey, err)
				}
				return satchel.Scalar{V: raw}, nil
			}
		}
	}

	// The reserved type key turns a mapping into a tagged object
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
			fields = append(fields, satchel.Field{Name: unescapeKey(f.Key), Value: f.Value})
		}
		return satchel.Object{Type: name, Fields: fields}, nil
	}

	for i := range entries {
		entries[i].Key = unescapeKey(entries[i].Key)
	}
	return entries, nil
}
