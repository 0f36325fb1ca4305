package json

import (
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Marshal encodes v as JSON, compatible with encoding/json.Marshal: it
// understands struct tags (`json:"name,omitempty"`, `json:"-"`), maps,
// slices, pointers, and the Marshaler interface.
func Marshal(v any) ([]byte, error) {
	buf, err := appendMarshal(make([]byte, 0, 256), reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func appendMarshal(dst []byte, rv reflect.Value) ([]byte, error) {
	return appendMarshalDepth(dst, rv, 0)
}

// appendMarshalDepth is the encoding recursion. depth guards against a
// self-referential pointer chain overflowing the stack, the same
// protection encoding/json gets from its ptrLevel limit.
func appendMarshalDepth(dst []byte, rv reflect.Value, depth int) ([]byte, error) {
	if !rv.IsValid() {
		return append(dst, "null"...), nil
	}
	if depth > MaxMarshalDepth {
		return dst, fmt.Errorf("json: max marshal depth %d exceeded", MaxMarshalDepth)
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		rv = rv.Elem()
	}

	// Marshaler may be implemented on either the value or pointer
	// receiver; check both.
	if rv.CanInterface() {
		if m, ok := rv.Interface().(Marshaler); ok {
			b, err := m.MarshalJSON()
			if err != nil {
				return dst, err
			}
			return append(dst, b...), nil
		}
	}
	if rv.CanAddr() {
		if m, ok := rv.Addr().Interface().(Marshaler); ok {
			b, err := m.MarshalJSON()
			if err != nil {
				return dst, err
			}
			return append(dst, b...), nil
		}
	}

	switch rv.Kind() {
	case reflect.String:
		dst = appendQuotedString(dst, rv.String())
		return dst, nil

	case reflect.Bool:
		if rv.Bool() {
			return append(dst, "true"...), nil
		}
		return append(dst, "false"...), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return appendInt(dst, rv.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return appendUint(dst, rv.Uint()), nil

	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return append(dst, "null"...), nil
		}
		if f == math.Trunc(f) && f >= -1e15 && f <= 1e15 {
			return appendInt(dst, int64(f)), nil
		}
		bits := 64
		if rv.Kind() == reflect.Float32 {
			bits = 32
		}
		return strconv.AppendFloat(dst, f, 'f', -1, bits), nil

	case reflect.Slice:
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return appendByteSlice(dst, rv.Bytes()), nil
		}
		return appendArray(dst, rv, depth+1)

	case reflect.Array:
		return appendArray(dst, rv, depth+1)

	case reflect.Map:
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		return appendMap(dst, rv, depth+1)

	case reflect.Struct:
		return appendStruct(dst, rv, depth+1)

	case reflect.Interface:
		if rv.IsNil() {
			return append(dst, "null"...), nil
		}
		return appendMarshalDepth(dst, rv.Elem(), depth+1)

	default:
		return append(dst, "null"...), nil
	}
}

const hexDigit = "0123456789abcdef"

func appendInt(dst []byte, n int64) []byte  { return strconv.AppendInt(dst, n, 10) }
func appendUint(dst []byte, n uint64) []byte { return strconv.AppendUint(dst, n, 10) }

func appendQuotedString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c == '"' || c == '\\' {
			return appendQuotedStringSlow(dst, s)
		}
	}
	dst = append(dst, s...)
	dst = append(dst, '"')
	return dst
}

func appendQuotedStringSlow(dst []byte, s string) []byte {
	// dst already holds the opening quote.
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			dst = append(dst, '\\', '"')
		case c == '\\':
			dst = append(dst, '\\', '\\')
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\r':
			dst = append(dst, '\\', 'r')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c < 0x20:
			dst = append(dst, '\\', 'u', '0', '0', hexDigit[c>>4], hexDigit[c&0xF])
		default:
			dst = append(dst, c)
		}
	}
	dst = append(dst, '"')
	return dst
}

// appendByteSlice encodes b as a base64 string, compatible with
// encoding/json's treatment of []byte.
func appendByteSlice(dst []byte, b []byte) []byte {
	if len(b) == 0 {
		return append(dst, `""`...)
	}
	dst = append(dst, '"')
	encodedLen := base64.StdEncoding.EncodedLen(len(b))
	pos := len(dst)
	dst = append(dst, make([]byte, encodedLen)...)
	base64.StdEncoding.Encode(dst[pos:], b)
	dst = append(dst, '"')
	return dst
}

func appendArray(dst []byte, rv reflect.Value, depth int) ([]byte, error) {
	dst = append(dst, '[')
	n := rv.Len()
	for i := 0; i < n; i++ {
		if i > 0 {
			dst = append(dst, ',')
		}
		var err error
		dst, err = appendMarshalDepth(dst, rv.Index(i), depth)
		if err != nil {
			return dst, err
		}
	}
	dst = append(dst, ']')
	return dst, nil
}

// appendMap encodes a map with its keys sorted, so two calls over the
// same data always produce the same bytes.
func appendMap(dst []byte, rv reflect.Value, depth int) ([]byte, error) {
	keys := rv.MapKeys()
	strKeys := make([]string, len(keys))
	for i, k := range keys {
		strKeys[i] = k.String()
	}
	sort.Strings(strKeys)

	dst = append(dst, '{')
	for i, key := range strKeys {
		if i > 0 {
			dst = append(dst, ',')
		}
		dst = appendQuotedString(dst, key)
		dst = append(dst, ':')
		var err error
		dst, err = appendMarshalDepth(dst, rv.MapIndex(reflect.ValueOf(key)), depth)
		if err != nil {
			return dst, err
		}
	}
	dst = append(dst, '}')
	return dst, nil
}

// structFieldInfo is a struct field's cached encode metadata.
type structFieldInfo struct {
	name      string
	nameJSON  string // precomputed `"name":` including quotes and colon
	index     []int
	omitempty bool
}

// structCache avoids re-deriving a struct type's field metadata on every
// encode.
var structCache sync.Map // map[reflect.Type][]structFieldInfo

func getStructFields(t reflect.Type) []structFieldInfo {
	if cached, ok := structCache.Load(t); ok {
		return cached.([]structFieldInfo)
	}
	fields := buildStructFields(t)
	structCache.Store(t, fields)
	return fields
}

func buildStructFields(t reflect.Type) []structFieldInfo {
	var fields []structFieldInfo
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			embedded := buildStructFields(f.Type)
			for j := range embedded {
				embedded[j].index = append([]int{i}, embedded[j].index...)
			}
			fields = append(fields, embedded...)
			continue
		}

		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name := f.Name
		omitempty := false
		if tag != "" {
			parts := strings.SplitN(tag, ",", 2)
			if parts[0] != "" {
				name = parts[0]
			}
			if len(parts) > 1 && strings.Contains(parts[1], "omitempty") {
				omitempty = true
			}
		}
		fields = append(fields, structFieldInfo{
			name:      name,
			nameJSON:  `"` + name + `":`,
			index:     f.Index,
			omitempty: omitempty,
		})
	}
	return fields
}

func appendStruct(dst []byte, rv reflect.Value, depth int) ([]byte, error) {
	fields := getStructFields(rv.Type())
	dst = append(dst, '{')
	first := true
	for i := range fields {
		fi := &fields[i]
		fv := rv.FieldByIndex(fi.index)
		if fi.omitempty && isZeroValue(fv) {
			continue
		}
		if !first {
			dst = append(dst, ',')
		}
		first = false
		dst = append(dst, fi.nameJSON...)
		var err error
		dst, err = appendMarshalDepth(dst, fv, depth)
		if err != nil {
			return dst, err
		}
	}
	dst = append(dst, '}')
	return dst, nil
}

func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.String:
		return v.Len() == 0
	case reflect.Slice, reflect.Map:
		return v.IsNil()
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	case reflect.Array:
		return v.Len() == 0
	case reflect.Struct:
		return false
	}
	return false
}

// Unmarshal decodes JSON into v, compatible with encoding/json.Unmarshal:
// v must be a non-nil pointer. Supports structs (matched by json tag),
// map[string]any, []any, the basic scalar types, and the Unmarshaler
// interface.
func Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &InvalidUnmarshalError{Type: reflect.TypeOf(v)}
	}

	if u, ok := v.(Unmarshaler); ok {
		return u.UnmarshalJSON(data)
	}

	var p Parser
	jv, err := p.ParseBytes(data)
	if err != nil {
		return err
	}
	return unmarshalValue(jv, rv.Elem())
}

func unmarshalValue(jv *Value, rv reflect.Value) error {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}

	if rv.CanAddr() {
		if u, ok := rv.Addr().Interface().(Unmarshaler); ok {
			// Re-encode the parsed Value back to JSON so the target's
			// own UnmarshalJSON can run against it.
			raw := marshalValue(jv)
			return u.UnmarshalJSON(raw)
		}
	}

	switch jv.t {
	case TypeNull:
		rv.SetZero()
		return nil

	case TypeBool:
		if rv.Kind() == reflect.Bool {
			rv.SetBool(jv.b)
		} else if rv.Kind() == reflect.Interface {
			rv.Set(reflect.ValueOf(jv.b))
		}
		return nil

	case TypeNumber:
		return unmarshalNumber(jv, rv)

	case TypeString:
		if rv.Kind() == reflect.String {
			rv.SetString(jv.s)
		} else if rv.Kind() == reflect.Interface {
			rv.Set(reflect.ValueOf(jv.s))
		}
		return nil

	case TypeArray:
		return unmarshalArray(jv, rv)

	case TypeObject:
		return unmarshalObject(jv, rv)
	}
	return nil
}

func unmarshalNumber(jv *Value, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := parseInt(jv.n)
		if err != nil {
			return err
		}
		rv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := parseInt(jv.n)
		if err != nil {
			return err
		}
		rv.SetUint(uint64(n))
	case reflect.Float32, reflect.Float64:
		f, err := parseFloat(jv.n)
		if err != nil {
			return err
		}
		rv.SetFloat(f)
	case reflect.Interface:
		// No type hint to go on: try integer first, then float.
		if n, err := parseInt(jv.n); err == nil {
			rv.Set(reflect.ValueOf(n))
		} else if f, err := parseFloat(jv.n); err == nil {
			rv.Set(reflect.ValueOf(f))
		}
	}
	return nil
}

func unmarshalArray(jv *Value, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Slice:
		slice := reflect.MakeSlice(rv.Type(), len(jv.a), len(jv.a))
		for i, elem := range jv.a {
			if err := unmarshalValue(elem, slice.Index(i)); err != nil {
				return err
			}
		}
		rv.Set(slice)
	case reflect.Array:
		for i := 0; i < rv.Len() && i < len(jv.a); i++ {
			if err := unmarshalValue(jv.a[i], rv.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Interface:
		arr := make([]any, len(jv.a))
		for i, elem := range jv.a {
			val := reflect.ValueOf(&arr[i]).Elem()
			if err := unmarshalValue(elem, val); err != nil {
				return err
			}
		}
		rv.Set(reflect.ValueOf(arr))
	}
	return nil
}

func unmarshalObject(jv *Value, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			rv.Set(reflect.MakeMap(rv.Type()))
		}
		valType := rv.Type().Elem()
		for i := range jv.o.kvs {
			kv := &jv.o.kvs[i]
			val := reflect.New(valType).Elem()
			if err := unmarshalValue(kv.v, val); err != nil {
				return err
			}
			rv.SetMapIndex(reflect.ValueOf(kv.k), val)
		}
	case reflect.Struct:
		return unmarshalStruct(jv, rv)
	case reflect.Interface:
		m := make(map[string]any, len(jv.o.kvs))
		for i := range jv.o.kvs {
			kv := &jv.o.kvs[i]
			var val any
			vv := reflect.ValueOf(&val).Elem()
			if err := unmarshalValue(kv.v, vv); err != nil {
				return err
			}
			m[kv.k] = val
		}
		rv.Set(reflect.ValueOf(m))
	}
	return nil
}

func unmarshalStruct(jv *Value, rv reflect.Value) error {
	fields := getStructFields(rv.Type())
	for i := range jv.o.kvs {
		kv := &jv.o.kvs[i]
		for _, fi := range fields {
			if fi.name == kv.k {
				fv := rv.FieldByIndex(fi.index)
				if err := unmarshalValue(kv.v, fv); err != nil {
					return err
				}
				break
			}
		}
	}
	return nil
}

// marshalValue re-encodes a parsed Value back to JSON bytes, used when a
// target type's own UnmarshalJSON needs the raw bytes for a sub-value.
func marshalValue(v *Value) []byte {
	if v == nil {
		return []byte("null")
	}
	switch v.t {
	case TypeNull:
		return []byte("null")
	case TypeBool:
		if v.b {
			return []byte("true")
		}
		return []byte("false")
	case TypeNumber:
		return []byte(v.n)
	case TypeString:
		buf := appendQuotedString(nil, v.s)
		return buf
	case TypeArray:
		buf := []byte{'['}
		for i, elem := range v.a {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = append(buf, marshalValue(elem)...)
		}
		buf = append(buf, ']')
		return buf
	case TypeObject:
		buf := []byte{'{'}
		for i := range v.o.kvs {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendQuotedString(buf, v.o.kvs[i].k)
			buf = append(buf, ':')
			buf = append(buf, marshalValue(v.o.kvs[i].v)...)
		}
		buf = append(buf, '}')
		return buf
	}
	return []byte("null")
}
