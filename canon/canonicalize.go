// Package canon produces the canonical byte form of proposal content.
//
// The canonical form is compact JSON with object keys sorted by their UTF-8
// bytes at every nesting level and no whitespace between tokens. Strings are
// ASCII-only (\uXXXX escapes) and non-integer numbers use the shortest
// round-trip digits, so the bytes equal those of Python's
// json.dumps(sort_keys=True, separators=(",", ":")). Fingerprints of records
// anchored before this package existed depend on that.
package canon

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// maxDepth bounds nesting so hostile input cannot exhaust the stack.
const maxDepth = 512

// Member is one key/value pair of an ordered object.
type Member struct {
	Key   string
	Value any
}

// Ordered is implemented by objects that remember their key order
// (proposal.Content and nested proposal objects). Canonicalize ignores the
// order and sorts, but rejects duplicate keys.
type Ordered interface {
	Members() []Member
}

// EncodingError reports a value that has no canonical form.
type EncodingError struct {
	Path   string
	Reason string
}

func (e *EncodingError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("canon: %s: %s", e.Path, e.Reason)
}

// Canonicalize returns the canonical bytes of v.
//
// Supported values: nil, bool, string, json.Number, Go integer and float
// kinds, Ordered, maps with string keys and slices/arrays of supported values.
func Canonicalize(v any) ([]byte, error) {
	e := &encoder{active: make(map[uintptr]struct{})}
	if err := e.encode(v, "$", 0); err != nil {
		return nil, err
	}
	return e.buf.Bytes(), nil
}

type encoder struct {
	buf    bytes.Buffer
	active map[uintptr]struct{}
}

func (e *encoder) fail(path, format string, args ...any) error {
	return &EncodingError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

func (e *encoder) encode(v any, path string, depth int) error {
	if depth > maxDepth {
		return e.fail(path, "nesting deeper than %d", maxDepth)
	}

	switch x := v.(type) {
	case nil:
		e.buf.WriteString("null")
		return nil
	case bool:
		if x {
			e.buf.WriteString("true")
		} else {
			e.buf.WriteString("false")
		}
		return nil
	case string:
		return e.writeString(x, path)
	case json.Number:
		return e.writeNumber(string(x), path)
	case float64:
		return e.writeFloat(x, 64, path)
	case float32:
		return e.writeFloat(float64(x), 32, path)
	case int:
		e.buf.WriteString(strconv.FormatInt(int64(x), 10))
		return nil
	case int8:
		e.buf.WriteString(strconv.FormatInt(int64(x), 10))
		return nil
	case int16:
		e.buf.WriteString(strconv.FormatInt(int64(x), 10))
		return nil
	case int32:
		e.buf.WriteString(strconv.FormatInt(int64(x), 10))
		return nil
	case int64:
		e.buf.WriteString(strconv.FormatInt(x, 10))
		return nil
	case uint:
		e.buf.WriteString(strconv.FormatUint(uint64(x), 10))
		return nil
	case uint8:
		e.buf.WriteString(strconv.FormatUint(uint64(x), 10))
		return nil
	case uint16:
		e.buf.WriteString(strconv.FormatUint(uint64(x), 10))
		return nil
	case uint32:
		e.buf.WriteString(strconv.FormatUint(uint64(x), 10))
		return nil
	case uint64:
		e.buf.WriteString(strconv.FormatUint(x, 10))
		return nil
	case Ordered:
		return e.writeOrdered(x, path, depth)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		return e.encode(rv.Elem().Interface(), path, depth)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return e.fail(path, "map key type %s is not a string", rv.Type().Key())
		}
		if rv.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		return e.writeMap(rv, path, depth)
	case reflect.Slice:
		if rv.IsNil() {
			e.buf.WriteString("null")
			return nil
		}
		return e.writeList(rv, path, depth)
	case reflect.Array:
		return e.writeList(rv, path, depth)
	}
	return e.fail(path, "unsupported type %T", v)
}

// enter marks a map or slice as being encoded; a second visit before leave
// means the value refers to itself.
func (e *encoder) enter(rv reflect.Value, path string) (func(), error) {
	if rv.Kind() == reflect.Array || (rv.Kind() == reflect.Slice && rv.Cap() == 0) {
		return func() {}, nil
	}
	ptr := rv.Pointer()
	if _, ok := e.active[ptr]; ok {
		return nil, e.fail(path, "cyclic reference")
	}
	e.active[ptr] = struct{}{}
	return func() { delete(e.active, ptr) }, nil
}

func (e *encoder) writeOrdered(o Ordered, path string, depth int) error {
	members := o.Members()
	sorted := make([]Member, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	e.buf.WriteByte('{')
	for i, m := range sorted {
		if i > 0 {
			if sorted[i-1].Key == m.Key {
				return e.fail(path, "duplicate key %q", m.Key)
			}
			e.buf.WriteByte(',')
		}
		if err := e.writeString(m.Key, path); err != nil {
			return err
		}
		e.buf.WriteByte(':')
		if err := e.encode(m.Value, childPath(path, m.Key), depth+1); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) writeMap(rv reflect.Value, path string, depth int) error {
	leave, err := e.enter(rv, path)
	if err != nil {
		return err
	}
	defer leave()

	keys := make([]string, 0, rv.Len())
	for _, k := range rv.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)

	e.buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.writeString(k, path); err != nil {
			return err
		}
		e.buf.WriteByte(':')
		val := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
		if err := e.encode(val.Interface(), childPath(path, k), depth+1); err != nil {
			return err
		}
	}
	e.buf.WriteByte('}')
	return nil
}

func (e *encoder) writeList(rv reflect.Value, path string, depth int) error {
	// []byte has no JSON meaning here; refuse rather than guess an encoding.
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return e.fail(path, "unsupported type %s", rv.Type())
	}
	leave, err := e.enter(rv, path)
	if err != nil {
		return err
	}
	defer leave()

	e.buf.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			e.buf.WriteByte(',')
		}
		if err := e.encode(rv.Index(i).Interface(), fmt.Sprintf("%s[%d]", path, i), depth+1); err != nil {
			return err
		}
	}
	e.buf.WriteByte(']')
	return nil
}

const hexDigits = "0123456789abcdef"

func (e *encoder) writeString(s, path string) error {
	if !utf8.ValidString(s) {
		return e.fail(path, "string is not valid UTF-8")
	}
	e.buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			e.buf.WriteString(`\"`)
		case '\\':
			e.buf.WriteString(`\\`)
		case '\n':
			e.buf.WriteString(`\n`)
		case '\r':
			e.buf.WriteString(`\r`)
		case '\t':
			e.buf.WriteString(`\t`)
		case '\b':
			e.buf.WriteString(`\b`)
		case '\f':
			e.buf.WriteString(`\f`)
		default:
			switch {
			case r >= 0x20 && r <= 0x7e:
				e.buf.WriteByte(byte(r))
			case r > 0xffff:
				hi, lo := utf16.EncodeRune(r)
				e.writeUnicodeEscape(hi)
				e.writeUnicodeEscape(lo)
			default:
				e.writeUnicodeEscape(r)
			}
		}
	}
	e.buf.WriteByte('"')
	return nil
}

func (e *encoder) writeUnicodeEscape(r rune) {
	e.buf.WriteString(`\u`)
	e.buf.WriteByte(hexDigits[(r>>12)&0xf])
	e.buf.WriteByte(hexDigits[(r>>8)&0xf])
	e.buf.WriteByte(hexDigits[(r>>4)&0xf])
	e.buf.WriteByte(hexDigits[r&0xf])
}

func (e *encoder) writeNumber(lit, path string) error {
	if !validNumber(lit) {
		return e.fail(path, "invalid number literal %q", lit)
	}
	if !strings.ContainsAny(lit, ".eE") {
		if lit == "-0" {
			lit = "0"
		}
		e.buf.WriteString(lit)
		return nil
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return e.fail(path, "number %q out of range", lit)
	}
	return e.writeFloat(f, 64, path)
}

func (e *encoder) writeFloat(f float64, bitSize int, path string) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return e.fail(path, "%v has no JSON form", f)
	}
	e.buf.WriteString(formatFloat(f, bitSize))
	return nil
}

// formatFloat renders f with the shortest digits that round-trip, laid out
// the way Python's float repr does: fixed notation for exponents in
// [-4, 16) with at least one fractional digit, scientific otherwise with a
// signed two-digit minimum exponent.
func formatFloat(f float64, bitSize int) string {
	if f == 0 {
		if math.Signbit(f) {
			return "-0.0"
		}
		return "0.0"
	}

	sci := strconv.FormatFloat(f, 'e', -1, bitSize)
	sign := ""
	if sci[0] == '-' {
		sign = "-"
		sci = sci[1:]
	}
	mant, expPart, _ := strings.Cut(sci, "e")
	exp, _ := strconv.Atoi(expPart)
	digits := strings.Replace(mant, ".", "", 1)

	if exp < -4 || exp >= 16 {
		var b strings.Builder
		b.WriteString(sign)
		b.WriteByte(digits[0])
		if len(digits) > 1 {
			b.WriteByte('.')
			b.WriteString(digits[1:])
		}
		b.WriteByte('e')
		if exp < 0 {
			b.WriteByte('-')
			exp = -exp
		} else {
			b.WriteByte('+')
		}
		if exp < 10 {
			b.WriteByte('0')
		}
		b.WriteString(strconv.Itoa(exp))
		return b.String()
	}

	if exp < 0 {
		return sign + "0." + strings.Repeat("0", -exp-1) + digits
	}
	intLen := exp + 1
	if len(digits) <= intLen {
		return sign + digits + strings.Repeat("0", intLen-len(digits)) + ".0"
	}
	return sign + digits[:intLen] + "." + digits[intLen:]
}

// validNumber reports whether s matches the JSON number grammar.
func validNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	if i >= len(s) {
		return false
	}
	switch {
	case s[i] == '0':
		i++
	case s[i] >= '1' && s[i] <= '9':
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	default:
		return false
	}
	if i < len(s) && s[i] == '.' {
		i++
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func childPath(parent, key string) string {
	return parent + "." + key
}
