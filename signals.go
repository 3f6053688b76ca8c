package satchel

import (
	"context"
	"time"

	"github.com/zoobzio/capitan"
)

// Signals for engine events.
var (
	SignalObjectCreated       = capitan.NewSignal("satchel.object.created", "Instance produced by a registry factory")
	SignalSerializeComplete   = capitan.NewSignal("satchel.serialize.complete", "Serialize operation finished")
	SignalDeserializeComplete = capitan.NewSignal("satchel.deserialize.complete", "Deserialize operation finished")
	SignalDuplicateComplete   = capitan.NewSignal("satchel.duplicate.complete", "Duplicate operation finished")
	SignalValueSkipped        = capitan.NewSignal("satchel.value.skipped", "Opaque value emitted as nil during permissive serialization")
	SignalFieldUnknown        = capitan.NewSignal("satchel.field.unknown", "Serialized field with no destination on the live type")
)

// Keys for typed event data.
var (
	KeyTypeName   = capitan.NewStringKey("type_name")
	KeyField      = capitan.NewStringKey("field")
	KeyGoType     = capitan.NewStringKey("go_type")
	KeyMode       = capitan.NewStringKey("mode")
	KeyFieldCount = capitan.NewIntKey("field_count")
	KeyDuration   = capitan.NewDurationKey("duration")
	KeyError      = capitan.NewErrorKey("error")
)

// emitObjectCreated emits an event when a factory produces an instance.
func emitObjectCreated(ctx context.Context, typeName string) {
	capitan.Emit(ctx, SignalObjectCreated,
		KeyTypeName.Field(typeName),
	)
}

// emitSerializeComplete emits an event when serialization finishes.
func emitSerializeComplete(ctx context.Context, typeName string, duration time.Duration, fieldCount int, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
		KeyFieldCount.Field(fieldCount),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalSerializeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalSerializeComplete, fields...)
	}
}

// emitDeserializeComplete emits an event when deserialization finishes.
func emitDeserializeComplete(ctx context.Context, typeName string, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalDeserializeComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalDeserializeComplete, fields...)
	}
}

// emitDuplicateComplete emits an event when duplication finishes.
func emitDuplicateComplete(ctx context.Context, typeName, mode string, duration time.Duration, err error) {
	fields := []capitan.Field{
		KeyTypeName.Field(typeName),
		KeyMode.Field(mode),
		KeyDuration.Field(duration),
	}
	if err != nil {
		fields = append(fields, KeyError.Field(err))
		capitan.Error(ctx, SignalDuplicateComplete, fields...)
	} else {
		capitan.Emit(ctx, SignalDuplicateComplete, fields...)
	}
}

// emitValueSkipped emits an event when permissive serialization drops an
// opaque value. This is the reporting channel for data the output will not
// contain.
func emitValueSkipped(ctx context.Context, typeName, field, goType string) {
	capitan.Emit(ctx, SignalValueSkipped,
		KeyTypeName.Field(typeName),
		KeyField.Field(field),
		KeyGoType.Field(goType),
	)
}

// emitFieldUnknown emits an event when a serialized field has no matching
// field on the live type and is skipped.
func emitFieldUnknown(ctx context.Context, typeName, field string) {
	capitan.Emit(ctx, SignalFieldUnknown,
		KeyTypeName.Field(typeName),
		KeyField.Field(field),
	)
}
