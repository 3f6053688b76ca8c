// Package text provides the human-readable literal codec for satchel Value
// trees, built on YAML.
//
// The encoding is round-trip exact: integers, floats, booleans, strings,
// byte blobs, and nulls all come back as the same scalar subtype, mapping
// and object entry order is preserved, and a tagged object is a mapping
// carrying the reserved "$type" key.
package text

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zoobzio/satchel"
)

// textCodec implements satchel.Codec for the literal text form.
type textCodec struct{}

// New returns a text codec.
func New() satchel.Codec {
	return &textCodec{}
}

// ContentType returns the MIME type for the literal text form.
func (c *textCodec) ContentType() string {
	return "application/yaml"
}

// Encode converts v to literal text.
func (c *textCodec) Encode(v satchel.Value) ([]byte, error) {
	node, err := encodeNode(v)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(node)
}

// Decode parses literal text back into a Value tree.
func (c *textCodec) Decode(data []byte) (satchel.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return satchel.Scalar{}, nil
		}
		return decodeNode(doc.Content[0])
	}
	return decodeNode(&doc)
}

func encodeNode(v satchel.Value) (*yaml.Node, error) {
	switch val := v.(type) {
	case satchel.Scalar:
		return encodeScalar(val)

	case satchel.Sequence:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range val {
			child, err := encodeNode(e)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil

	case satchel.Mapping:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range val {
			child, err := encodeNode(e.Value)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, keyNode(e.Key), child)
		}
		return node, nil

	case satchel.Object:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		node.Content = append(node.Content, keyNode(satchel.TypeKey), keyNode(val.Type))
		for _, f := range val.Fields {
			child, err := encodeNode(f.Value)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, keyNode(f.Name), child)
		}
		return node, nil
	}

	return nil, fmt.Errorf("unknown value variant %T", v)
}

func encodeScalar(s satchel.Scalar) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.ScalarNode}
	switch v := s.V.(type) {
	case nil:
		node.Tag, node.Value = "!!null", "null"
	case bool:
		node.Tag, node.Value = "!!bool", strconv.FormatBool(v)
	case int64:
		node.Tag, node.Value = "!!int", strconv.FormatInt(v, 10)
	case uint64:
		node.Tag, node.Value = "!!int", strconv.FormatUint(v, 10)
	case float64:
		node.Tag, node.Value = "!!float", formatFloat(v)
	case string:
		node.Tag, node.Value = "!!str", v
	case []byte:
		node.Tag, node.Value = "!!binary", base64.StdEncoding.EncodeToString(v)
	default:
		return nil, fmt.Errorf("unknown scalar type %T", s.V)
	}
	return node, nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func keyNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func decodeNode(n *yaml.Node) (satchel.Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return decodeScalar(n)

	case yaml.SequenceNode:
		seq := make(satchel.Sequence, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			seq = append(seq, v)
		}
		return seq, nil

	case yaml.MappingNode:
		return decodeMapping(n)

	case yaml.AliasNode:
		return nil, fmt.Errorf("aliases are not part of the literal form")
	}
	return nil, fmt.Errorf("unexpected node kind %d", n.Kind)
}

func decodeScalar(n *yaml.Node) (satchel.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return satchel.Scalar{}, nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, err
		}
		return satchel.Scalar{V: b}, nil
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 10, 64); err == nil {
			return satchel.Scalar{V: i}, nil
		}
		u, err := strconv.ParseUint(n.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("integer %q does not fit any integer form", n.Value)
		}
		return satchel.Scalar{V: u}, nil
	case "!!float":
		f, err := parseFloat(n.Value)
		if err != nil {
			return nil, err
		}
		return satchel.Scalar{V: f}, nil
	case "!!str":
		return satchel.Scalar{V: n.Value}, nil
	case "!!binary":
		raw, err := base64.StdEncoding.DecodeString(n.Value)
		if err != nil {
			return nil, err
		}
		return satchel.Scalar{V: raw}, nil
	}
	return nil, fmt.Errorf("unexpected scalar tag %s", n.ShortTag())
}

// parseFloat handles the YAML special forms in any of their standard
// capitalizations before falling back to a plain numeric parse.
func parseFloat(s string) (float64, error) {
	switch strings.ToLower(s) {
	case ".nan":
		return math.NaN(), nil
	case ".inf", "+.inf":
		return math.Inf(1), nil
	case "-.inf":
		return math.Inf(-1), nil
	}
	return strconv.ParseFloat(s, 64)
}

func decodeMapping(n *yaml.Node) (satchel.Value, error) {
	entries := make(satchel.Mapping, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("mapping key is not a scalar")
		}
		v, err := decodeNode(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		entries = append(entries, satchel.Entry{Key: key.Value, Value: v})
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
