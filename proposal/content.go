// Package proposal holds the structured content that gets anchored.
//
// Content is an ordered JSON object. Key order is kept so the stored payload
// reads the way the proposer wrote it; it has no effect on the fingerprint,
// which is computed over the canonical form (see package canon).
package proposal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/canon"
)

// RequiredFields lists the keys every proposal must carry as non-empty
// strings.
var RequiredFields = []string{"title", "description", "proposer"}

var (
	ErrNotObject    = errors.New("proposal: content must be a JSON object")
	ErrDuplicateKey = errors.New("proposal: duplicate key")
	ErrTrailingData = errors.New("proposal: trailing data after content")
	ErrInvalidText  = errors.New("proposal: content is not valid UTF-8 text")
)

// Object is an ordered JSON object. Values are string, json.Number, bool,
// nil, *Object or []any.
type Object struct {
	members []canon.Member
}

// NewObject builds an object from members in the given order.
func NewObject(members ...canon.Member) *Object {
	return &Object{members: append([]canon.Member(nil), members...)}
}

// Members implements canon.Ordered.
func (o *Object) Members() []canon.Member {
	if o == nil {
		return nil
	}
	return o.members
}

// Len returns the number of members.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.members)
}

// Keys returns member keys in document order.
func (o *Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	for _, m := range o.Members() {
		keys = append(keys, m.Key)
	}
	return keys
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	for _, m := range o.Members() {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// MarshalJSON writes the members in document order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o.Members() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalPlain(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := marshalPlain(m.Value)
		if err != nil {
			return nil, fmt.Errorf("proposal: key %q: %w", m.Key, err)
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Content is a proposal: a top-level ordered object.
type Content struct {
	Object
}

// New builds content from members in the given order.
func New(members ...canon.Member) *Content {
	return &Content{Object: Object{members: append([]canon.Member(nil), members...)}}
}

// String returns the value of key when it is a string.
func (c *Content) String(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// With returns a copy of c with key set to value. An existing key keeps its
// position; a new key is appended.
func (c *Content) With(key string, value any) *Content {
	out := New(c.Members()...)
	for i := range out.members {
		if out.members[i].Key == key {
			out.members[i].Value = value
			return out
		}
	}
	out.members = append(out.members, canon.Member{Key: key, Value: value})
	return out
}

// Pretty returns the payload stored off-chain: two-space indented JSON in
// document order.
func (c *Content) Pretty() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&c.Object); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ValidationError lists required fields that are absent or not non-empty
// strings.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "fields must be non-empty strings: "+strings.Join(e.Invalid, ", "))
	}
	return "proposal: " + strings.Join(parts, "; ")
}

// Validate checks the required fields.
func (c *Content) Validate() error {
	var verr ValidationError
	for _, k := range RequiredFields {
		v, ok := c.Get(k)
		if !ok {
			verr.Missing = append(verr.Missing, k)
			continue
		}
		s, isString := v.(string)
		if !isString || strings.TrimSpace(s) == "" {
			verr.Invalid = append(verr.Invalid, k)
		}
	}
	if len(verr.Missing) > 0 || len(verr.Invalid) > 0 {
		return &verr
	}
	return nil
}

// Example returns the built-in example proposal.
func Example(now time.Time) *Content {
	return New(
		canon.Member{Key: "title", Value: "Community Garden Initiative"},
		canon.Member{Key: "description", Value: "Proposal to establish a community garden in the local park to promote sustainability and community engagement."},
		canon.Member{Key: "proposer", Value: "Alice Johnson"},
		canon.Member{Key: "timestamp", Value: json.Number(fmt.Sprint(now.Unix()))},
		canon.Member{Key: "category", Value: "community_development"},
		canon.Member{Key: "budget", Value: json.Number("5000")},
		canon.Member{Key: "duration_months", Value: json.Number("12")},
		canon.Member{Key: "beneficiaries", Value: []any{"local_residents", "environment", "community"}},
	)
}

// marshalPlain is json.Marshal without HTML escaping.
func marshalPlain(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Parse decodes content, keeping key order and number literals.
//
// Invalid UTF-8 and unpaired surrogate escapes are rejected rather than
// replaced with U+FFFD, so distinct payloads never decode to equal content.
func Parse(data []byte) (*Content, error) {
	if err := checkText(data); err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("proposal: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, ErrNotObject
	}
	obj, err := parseObject(dec, "$")
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, ErrTrailingData
	}
	return &Content{Object: *obj}, nil
}

// Read parses content from r.
func Read(r io.Reader) (*Content, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func parseObject(dec *json.Decoder, path string) (*Object, error) {
	obj := &Object{}
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("proposal: %s: %w", path, err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("proposal: %s: expected object key", path)
		}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w %q at %s", ErrDuplicateKey, key, path)
		}
		seen[key] = struct{}{}

		child := path + "." + key
		tok, err = dec.Token()
		if err != nil {
			return nil, fmt.Errorf("proposal: %s: %w", child, err)
		}
		v, err := parseValue(dec, tok, child)
		if err != nil {
			return nil, err
		}
		obj.members = append(obj.members, canon.Member{Key: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("proposal: %s: %w", path, err)
	}
	return obj, nil
}

func parseArray(dec *json.Decoder, path string) ([]any, error) {
	out := []any{}
	for i := 0; dec.More(); i++ {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("proposal: %s: %w", path, err)
		}
		v, err := parseValue(dec, tok, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("proposal: %s: %w", path, err)
	}
	return out, nil
}

func parseValue(dec *json.Decoder, tok json.Token, path string) (any, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return parseObject(dec, path)
		case '[':
			return parseArray(dec, path)
		}
		return nil, fmt.Errorf("proposal: %s: unexpected %q", path, t)
	case string, json.Number, bool, nil:
		return t, nil
	default:
		return nil, fmt.Errorf("proposal: %s: unexpected token %T", path, tok)
	}
}

// checkText rejects bytes the JSON decoder would silently repair.
func checkText(data []byte) error {
	if !utf8.Valid(data) {
		return ErrInvalidText
	}
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if !inString {
			inString = c == '"'
			continue
		}
		switch c {
		case '"':
			inString = false
		case '\\':
			if i+1 < len(data) && data[i+1] == 'u' {
				r, ok := hex4(data, i+2)
				if ok && isSurrogate(r) {
					lo, lok := rune(0), false
					if r < 0xdc00 && i+7 < len(data) && data[i+6] == '\\' && data[i+7] == 'u' {
						lo, lok = hex4(data, i+8)
					}
					if !lok || lo < 0xdc00 || lo > 0xdfff {
						return fmt.Errorf("%w: unpaired surrogate escape at byte %d", ErrInvalidText, i)
					}
					i += 6
				}
			}
			i++
		}
	}
	return nil
}

func isSurrogate(r rune) bool { return r >= 0xd800 && r <= 0xdfff }

// hex4 decodes the four hex digits at data[i:].
func hex4(data []byte, i int) (rune, bool) {
	if i+4 > len(data) {
		return 0, false
	}
	var r rune
	for _, c := range data[i : i+4] {
		r <<= 4
		switch {
		case c >= '0' && c <= '9':
			r |= rune(c - '0')
		case c >= 'a' && c <= 'f':
			r |= rune(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			r |= rune(c - 'A' + 10)
		default:
			return 0, false
		}
	}
	return r, true
}
