package satchel

import (
	"errors"
	"fmt"
	"testing"
)

func TestTypeError_Is(t *testing.T) {
	err := newTypeError(ErrUnknownType, "Item")

	if !errors.Is(err, ErrUnknownType) {
		t.Error("TypeError should unwrap to ErrUnknownType")
	}
	if errors.Is(err, ErrUntaggedInstance) {
		t.Error("TypeError should not match ErrUntaggedInstance")
	}
}

func TestTypeError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "with type name",
			err:  newTypeError(ErrUnknownType, "Item"),
			want: `unknown type: "Item"`,
		},
		{
			name: "bare",
			err:  &TypeError{Err: ErrMissingTypeTag},
			want: "missing type tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFieldError_Message(t *testing.T) {
	cause := fmt.Errorf("cannot serialize *bytes.Buffer")
	err := newFieldError(ErrUnsupportedValue, "Crate", "Handle", cause)

	want := "unsupported value: Crate.Handle: cannot serialize *bytes.Buffer"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrUnsupportedValue) {
		t.Error("FieldError should unwrap to ErrUnsupportedValue")
	}
}

func TestFieldError_NoCause(t *testing.T) {
	err := newFieldError(ErrUnsupportedValue, "Crate", "Handle", nil)

	want := "unsupported value: Crate.Handle"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCodecError_Is(t *testing.T) {
	cause := fmt.Errorf("unexpected end of input")
	err := newCodecError(ErrDecode, cause)

	if !errors.Is(err, ErrDecode) {
		t.Error("CodecError should unwrap to ErrDecode")
	}
	if errors.Is(err, ErrIO) {
		t.Error("CodecError should not match ErrIO")
	}

	want := "decode failed: unexpected end of input"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
