package json

import (
	"fmt"
	"unicode/utf8"
)

// Parser parses JSON text into a tree of Value nodes.
//
//	var p json.Parser
//	v, err := p.Parse(`{"key":"value"}`)
type Parser struct{}

// Parse parses s and returns its root Value.
func (p *Parser) Parse(s string) (*Value, error) {
	n := len(s)
	i := 0
	for i < n && s[i] <= ' ' {
		i++
	}
	if i >= n {
		return nil, fmt.Errorf("json: empty input")
	}
	v, i, err := parseVal(s, i, 0)
	if err != nil {
		return nil, err
	}
	for i < n && s[i] <= ' ' {
		i++
	}
	if i < n {
		return nil, fmt.Errorf("json: unexpected trailing data: %.32q", s[i:])
	}
	return v, nil
}

// ParseBytes is Parse over a byte slice.
func (p *Parser) ParseBytes(b []byte) (*Value, error) {
	return p.Parse(string(b))
}

// Shared singletons for the three JSON literals, so parsing them doesn't
// allocate a new Value each time.
var (
	valueTrue  = &Value{t: TypeBool, b: true}
	valueFalse = &Value{t: TypeBool, b: false}
	valueNull  = &Value{t: TypeNull}
)

// parseVal dispatches on the next byte to the parser for that value kind.
// It works in index mode, threading (s, i) through rather than slicing s,
// to avoid the repeated string-header copies slicing would cost.
func parseVal(s string, i int, depth int) (*Value, int, error) {
	if i >= len(s) {
		return nil, i, fmt.Errorf("json: unexpected end of input")
	}
	if depth > MaxDepth {
		return nil, i, fmt.Errorf("json: max depth %d exceeded", MaxDepth)
	}
	switch s[i] {
	case '{':
		return parseObj(s, i+1, depth+1)
	case '[':
		return parseArr(s, i+1, depth+1)
	case '"':
		return parseStr(s, i)
	case 't':
		if i+3 < len(s) && s[i+1] == 'r' && s[i+2] == 'u' && s[i+3] == 'e' {
			return valueTrue, i + 4, nil
		}
		return nil, i, fmt.Errorf("json: invalid value at offset %d", i)
	case 'f':
		if i+4 < len(s) && s[i+1] == 'a' && s[i+2] == 'l' && s[i+3] == 's' && s[i+4] == 'e' {
			return valueFalse, i + 5, nil
		}
		return nil, i, fmt.Errorf("json: invalid value at offset %d", i)
	case 'n':
		if i+3 < len(s) && s[i+1] == 'u' && s[i+2] == 'l' && s[i+3] == 'l' {
			return valueNull, i + 4, nil
		}
		return nil, i, fmt.Errorf("json: invalid value at offset %d", i)
	default:
		if s[i] == '-' || (s[i] >= '0' && s[i] <= '9') {
			return parseNum(s, i)
		}
		return nil, i, fmt.Errorf("json: unexpected character %q at offset %d", s[i], i)
	}
}

// parseObj parses an object body; i points just past the opening '{'.
func parseObj(s string, i int, depth int) (*Value, int, error) {
	v := &Value{t: TypeObject}
	n := len(s)
	for i < n && s[i] <= ' ' {
		i++
	}
	if i >= n {
		return nil, i, fmt.Errorf("json: unexpected end of object")
	}
	if s[i] == '}' {
		return v, i + 1, nil
	}
	for {
		for i < n && s[i] <= ' ' {
			i++
		}
		if i >= n {
			return nil, i, fmt.Errorf("json: unexpected end of object")
		}
		if s[i] != '"' {
			return nil, i, fmt.Errorf("json: object key must be string, got %q", s[i])
		}

		key, next, err := parseQuoted(s, i)
		if err != nil {
			return nil, next, fmt.Errorf("json: invalid object key: %w", err)
		}
		if len(key) > MaxKeyLength {
			return nil, next, fmt.Errorf("json: key too long (%d > %d)", len(key), MaxKeyLength)
		}
		i = next

		for i < n && s[i] <= ' ' {
			i++
		}
		if i >= n || s[i] != ':' {
			return nil, i, fmt.Errorf("json: missing ':' after key")
		}
		i++ // skip ':'
		for i < n && s[i] <= ' ' {
			i++
		}
		val, next2, err := parseVal(s, i, depth)
		if err != nil {
			return nil, next2, err
		}
		i = next2

		v.o.kvs = append(v.o.kvs, kv{k: key, v: val})
		if len(v.o.kvs) > MaxObjectKeys {
			return nil, i, fmt.Errorf("json: object has too many keys (%d > %d)", len(v.o.kvs), MaxObjectKeys)
		}

		for i < n && s[i] <= ' ' {
			i++
		}
		if i >= n {
			return nil, i, fmt.Errorf("json: unexpected end of object")
		}
		if s[i] == ',' {
			i++
			continue
		}
		if s[i] == '}' {
			return v, i + 1, nil
		}
		return nil, i, fmt.Errorf("json: expected ',' or '}' in object, got %q", s[i])
	}
}

// parseArr parses an array body; i points just past the opening '['.
func parseArr(s string, i int, depth int) (*Value, int, error) {
	v := &Value{t: TypeArray}
	n := len(s)

	for i < n && s[i] <= ' ' {
		i++
	}
	if i >= n {
		return nil, i, fmt.Errorf("json: unexpected end of array")
	}
	if s[i] == ']' {
		return v, i + 1, nil
	}
	for {
		for i < n && s[i] <= ' ' {
			i++
		}
		elem, next, err := parseVal(s, i, depth)
		if err != nil {
			return nil, next, err
		}
		i = next
		v.a = append(v.a, elem)
		if len(v.a) > MaxArrayLength {
			return nil, i, fmt.Errorf("json: array too long (%d > %d)", len(v.a), MaxArrayLength)
		}
		for i < n && s[i] <= ' ' {
			i++
		}
		if i >= n {
			return nil, i, fmt.Errorf("json: unexpected end of array")
		}
		if s[i] == ',' {
			i++
			continue
		}
		if s[i] == ']' {
			return v, i + 1, nil
		}
		return nil, i, fmt.Errorf("json: expected ',' or ']' in array, got %q", s[i])
	}
}

// parseStr parses a string value.
func parseStr(s string, i int) (*Value, int, error) {
	content, end, err := parseQuoted(s, i)
	if err != nil {
		return nil, end, err
	}
	if len(content) > MaxStringLength {
		return nil, end, fmt.Errorf("json: string too long (%d > %d)", len(content), MaxStringLength)
	}
	return &Value{t: TypeString, s: content}, end, nil
}

// parseQuoted parses a quoted string starting at s[i] == '"' and returns
// its unescaped content and the index past the closing quote. It scans
// for the closing quote directly and slices the content out with no copy
// unless an escape sequence forces parseQuotedSlow.
func parseQuoted(s string, i int) (string, int, error) {
	if i >= len(s) || s[i] != '"' {
		return "", i, fmt.Errorf("json: expected '\"'")
	}
	i++ // skip opening '"'
	start := i
	n := len(s)
	for i < n {
		switch {
		case s[i] == '"':
			return s[start:i], i + 1, nil
		case s[i] == '\\':
			return parseQuotedSlow(s, start-1)
		case s[i] < 0x20:
			return "", i, fmt.Errorf("json: invalid control character 0x%02x in string", s[i])
		default:
			i++
		}
	}
	return "", n, fmt.Errorf("json: unterminated string")
}

// parseQuotedSlow re-parses a quoted string from its opening '"',
// resolving escape sequences into a freshly allocated buffer.
func parseQuotedSlow(s string, i int) (string, int, error) {
	i++ // skip opening '"'
	n := len(s)
	buf := make([]byte, 0, n-i)
	for i < n {
		c := s[i]
		if c == '"' {
			return string(buf), i + 1, nil
		}
		if c < 0x20 {
			return "", i, fmt.Errorf("json: invalid control character 0x%02x in string", c)
		}
		if c != '\\' {
			buf = append(buf, c)
			i++
			continue
		}
		i++
		if i >= n {
			return "", i, fmt.Errorf("json: unterminated escape sequence")
		}
		switch s[i] {
		case '"', '\\', '/':
			buf = append(buf, s[i])
		case 'b':
			buf = append(buf, '\b')
		case 'f':
			buf = append(buf, '\f')
		case 'n':
			buf = append(buf, '\n')
		case 'r':
			buf = append(buf, '\r')
		case 't':
			buf = append(buf, '\t')
		case 'u':
			if i+4 >= n {
				return "", i, fmt.Errorf("json: truncated unicode escape")
			}
			r, sz, err := decodeUnicodeEscape(s[i+1:])
			if err != nil {
				return "", i, err
			}
			var ubuf [utf8.UTFMax]byte
			un := utf8.EncodeRune(ubuf[:], r)
			buf = append(buf, ubuf[:un]...)
			i += sz
		default:
			return "", i, fmt.Errorf("json: invalid escape character %q", s[i])
		}
		i++
	}
	return "", n, fmt.Errorf("json: unterminated string")
}

// decodeUnicodeEscape decodes a \uXXXX escape, following a high surrogate
// with its paired low surrogate when present.
func decodeUnicodeEscape(s string) (rune, int, error) {
	if len(s) < 4 {
		return 0, 0, fmt.Errorf("json: truncated unicode escape")
	}
	r1 := decodeHex4(s[:4])
	if r1 < 0 {
		return 0, 0, fmt.Errorf("json: invalid unicode escape: \\u%s", s[:4])
	}
	if r1 < 0xD800 || r1 > 0xDFFF {
		return r1, 4, nil
	}
	if r1 > 0xDBFF {
		return 0, 0, fmt.Errorf("json: invalid high surrogate: \\u%s", s[:4])
	}
	if len(s) < 10 || s[4] != '\\' || s[5] != 'u' {
		return 0, 0, fmt.Errorf("json: missing low surrogate after \\u%s", s[:4])
	}
	r2 := decodeHex4(s[6:10])
	if r2 < 0xDC00 || r2 > 0xDFFF {
		return 0, 0, fmt.Errorf("json: invalid low surrogate: \\u%s", s[6:10])
	}
	return 0x10000 + (r1-0xD800)*0x400 + (r2 - 0xDC00), 10, nil
}

// decodeHex4 decodes exactly 4 hex digits, returning -1 on a bad digit.
func decodeHex4(s string) rune {
	var r rune
	for i := 0; i < 4; i++ {
		c := s[i]
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			r |= rune(c - 'A' + 10)
		default:
			return -1
		}
	}
	return r
}

// parseNum parses a number literal lazily: only its raw text is kept, the
// actual int64/float64 conversion happens on demand in number.go.
func parseNum(s string, i int) (*Value, int, error) {
	n := len(s)
	start := i
	if i < n && s[i] == '-' {
		i++
	}
	if i >= n {
		return nil, i, fmt.Errorf("json: unexpected end of number")
	}
	if s[i] == '0' {
		i++
	} else if s[i] >= '1' && s[i] <= '9' {
		i++
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	} else {
		return nil, i, fmt.Errorf("json: invalid number character %q", s[i])
	}
	if i < n && s[i] == '.' {
		i++
		if i >= n || s[i] < '0' || s[i] > '9' {
			return nil, i, fmt.Errorf("json: invalid number: missing digit after '.'")
		}
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i < n && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < n && (s[i] == '+' || s[i] == '-') {
			i++
		}
		if i >= n || s[i] < '0' || s[i] > '9' {
			return nil, i, fmt.Errorf("json: invalid number: missing digit in exponent")
		}
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	return &Value{t: TypeNumber, n: s[start:i]}, i, nil
}
