package satchel

import (
	"errors"
	"fmt"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrUnknownType indicates a type name with no registry entry.
	ErrUnknownType = errors.New("unknown type")

	// ErrUntaggedInstance indicates an instance that was not created
	// through the registry.
	ErrUntaggedInstance = errors.New("untagged instance")

	// ErrMissingTypeTag indicates a Value given to Deserialize that is not
	// a tagged object.
	ErrMissingTypeTag = errors.New("missing type tag")

	// ErrUnsupportedValue indicates an opaque value the engine cannot
	// represent (an untagged composite, a channel, a function).
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrEncode indicates the codec failed to encode a Value tree.
	ErrEncode = errors.New("encode failed")

	// ErrDecode indicates the codec failed to decode input data.
	ErrDecode = errors.New("decode failed")

	// ErrIO indicates a read or write failure at the persistence boundary.
	ErrIO = errors.New("io failed")
)

// TypeError represents a type-level structural error: an unknown name, an
// untagged instance, or a Value with no type tag.
type TypeError struct {
	Err      error  // Underlying sentinel error
	TypeName string // Type name involved, if known
}

func (e *TypeError) Error() string {
	if e.TypeName != "" {
		return fmt.Sprintf("%s: %q", e.Err.Error(), e.TypeName)
	}
	return e.Err.Error()
}

func (e *TypeError) Unwrap() error {
	return e.Err
}

// FieldError represents a failure while converting or assigning a single
// field during serialization, deserialization, or duplication.
type FieldError struct {
	Err      error  // Underlying sentinel error
	TypeName string // Owning type
	Field    string // Field that failed
	Cause    error  // Original error, if any
}

func (e *FieldError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s.%s: %v", e.Err.Error(), e.TypeName, e.Field, e.Cause)
	}
	return fmt.Sprintf("%s: %s.%s", e.Err.Error(), e.TypeName, e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// CodecError represents an encode, decode, or I/O failure at the
// persistence boundary. It is never produced for structural errors, so a
// caller can always tell malformed input apart from a bad object graph.
type CodecError struct {
	Err   error // Underlying sentinel error (ErrEncode, ErrDecode, ErrIO)
	Cause error // Original error from the codec or file system
}

func (e *CodecError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	}
	return e.Err.Error()
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// newTypeError creates a TypeError for structural failures.
func newTypeError(sentinel error, typeName string) error {
	return &TypeError{
		Err:      sentinel,
		TypeName: typeName,
	}
}

// newFieldError creates a FieldError for per-field failures.
func newFieldError(sentinel error, typeName, field string, cause error) error {
	return &FieldError{
		Err:      sentinel,
		TypeName: typeName,
		Field:    field,
		Cause:    cause,
	}
}

// newCodecError creates a CodecError for boundary failures.
func newCodecError(sentinel error, cause error) error {
	return &CodecError{
		Err:   sentinel,
		Cause: cause,
	}
}
