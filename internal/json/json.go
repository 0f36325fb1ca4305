// Package json is a small JSON encoder/decoder used for the store's
// snapshot codec and config file loading. It exists so those two
// components don't pull in encoding/json's reflection cache for what is,
// in this module, a handful of small structs.
//
// Marshal/Unmarshal accept the same Marshaler/Unmarshaler interfaces as
// encoding/json, so callers can drop this package in without changing
// their struct tags.
//
// Two deliberate differences from encoding/json: HTML characters (<, >, &)
// are never escaped in string output, and NaN/Inf floats encode as null
// instead of returning an error.
//
// Basic use:
//
//	data, err := json.Marshal(myStruct)
//	err = json.Unmarshal(data, &myStruct)
package json

import (
	"fmt"
	"reflect"
)

// MaxDepth bounds nesting depth during parsing, guarding against stack
// exhaustion from deeply nested input.
const MaxDepth = 512

// MaxKeyLength bounds a single object key's length.
const MaxKeyLength = 1 << 16 // 64KB

// MaxStringLength bounds a single string value's length.
const MaxStringLength = 1 << 24 // 16MB

// MaxArrayLength bounds the element count of a single array, guarding
// against memory exhaustion from a pathological input.
const MaxArrayLength = 1 << 20 // 1M elements

// MaxObjectKeys bounds the key count of a single object, guarding against
// the O(n^2) degradation of the linear key lookup in unmarshalStruct.
const MaxObjectKeys = 1 << 16 // 64K keys

// MaxMarshalDepth bounds recursion depth during Marshal, guarding against
// stack exhaustion from a self-referential pointer chain.
const MaxMarshalDepth = 1000

// Marshaler is implemented by types that encode themselves to JSON,
// compatible with encoding/json.Marshaler.
type Marshaler interface {
	MarshalJSON() ([]byte, error)
}

// Unmarshaler is implemented by types that decode themselves from JSON,
// compatible with encoding/json.Unmarshaler.
type Unmarshaler interface {
	UnmarshalJSON([]byte) error
}

// RawMessage holds a pre-encoded JSON value, useful for deferring decoding
// or precomputing encoding. It implements Marshaler and Unmarshaler,
// compatible with encoding/json.RawMessage.
type RawMessage []byte

// MarshalJSON returns m unchanged.
func (m RawMessage) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	return m, nil
}

// UnmarshalJSON sets *m to a copy of data.
func (m *RawMessage) UnmarshalJSON(data []byte) error {
	if m == nil {
		return fmt.Errorf("json.RawMessage: UnmarshalJSON on nil pointer")
	}
	*m = append((*m)[:0], data...)
	return nil
}

// InvalidUnmarshalError describes an invalid argument passed to Unmarshal.
type InvalidUnmarshalError struct {
	Type reflect.Type
}

func (e *InvalidUnmarshalError) Error() string {
	if e.Type == nil {
		return "json: Unmarshal(nil)"
	}
	if e.Type.Kind() != reflect.Pointer {
		return "json: Unmarshal(non-pointer " + e.Type.String() + ")"
	}
	return "json: Unmarshal(nil " + e.Type.String() + ")"
}
