package satchel

import (
	"io"
	"os"
)

// Store pairs a Registry with a Codec for save/load round trips. The store
// owns nothing: it serializes through the registry, encodes through the
// codec, and moves bytes.
//
// Errors keep their origin: structural failures (unknown type, untagged
// instance) pass through untouched, codec failures wrap ErrEncode or
// ErrDecode, and file or stream failures wrap ErrIO.
type Store struct {
	reg   *Registry
	codec Codec
}

// NewStore creates a Store over reg and codec.
func NewStore(reg *Registry, codec Codec) *Store {
	return &Store{reg: reg, codec: codec}
}

// Encode serializes obj and encodes the resulting Value.
func (s *Store) Encode(obj Tagged) ([]byte, error) {
	v, err := s.reg.Serialize(obj)
	if err != nil {
		return nil, err
	}
	data, err := s.codec.Encode(v)
	if err != nil {
		return nil, newCodecError(ErrEncode, err)
	}
	return data, nil
}

// Decode decodes data and deserializes the resulting Value.
func (s *Store) Decode(data []byte) (Tagged, error) {
	v, err := s.codec.Decode(data)
	if err != nil {
		return nil, newCodecError(ErrDecode, err)
	}
	return s.reg.Deserialize(v)
}

// Write encodes obj onto w.
func (s *Store) Write(obj Tagged, w io.Writer) error {
	data, err := s.Encode(obj)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return newCodecError(ErrIO, err)
	}
	return nil
}

// Read decodes a single instance from rd.
func (s *Store) Read(rd io.Reader) (Tagged, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, newCodecError(ErrIO, err)
	}
	return s.Decode(data)
}

// Save encodes obj and writes it to path.
func (s *Store) Save(obj Tagged, path string) error {
	data, err := s.Encode(obj)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return newCodecError(ErrIO, err)
	}
	return nil
}

// Load reads path and decodes the instance it holds.
func (s *Store) Load(path string) (Tagged, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, newCodecError(ErrIO, err)
	}
	return s.Decode(data)
}
