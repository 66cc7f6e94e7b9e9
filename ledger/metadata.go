package ledger

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
)

// MaxMetadatumBytes is the longest text or byte string a metadatum may hold.
const MaxMetadatumBytes = 64

// alonzoAuxDataTag marks the map form of auxiliary data.
const alonzoAuxDataTag = 259

// Metadata is transaction metadata keyed by label. Values are JSON-shaped:
// string, int64, uint64, json.Number (integers only), []byte, []any and
// map[string]any.
type Metadata map[uint64]any

// MetadataEntry is one labelled metadata value as returned by ledger queries.
// Values are JSON-shaped; text longer than MaxMetadatumBytes appears as a
// list of chunks, exactly as it was written.
type MetadataEntry struct {
	Label uint64
	Value any
}

// MetadataError reports a value that cannot be expressed as a metadatum.
type MetadataError struct {
	Path   string
	Reason string
}

func (e *MetadataError) Error() string {
	return "ledger: metadata " + e.Path + ": " + e.Reason
}

// Entries returns the metadata ordered by label.
func (m Metadata) Entries() []MetadataEntry {
	out := make([]MetadataEntry, 0, len(m))
	for l, v := range m {
		out = append(out, MetadataEntry{Label: l, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

// Encode returns the auxiliary-data bytes for m. Text and byte strings
// longer than MaxMetadatumBytes are split into lists of chunks.
func (m Metadata) Encode() ([]byte, error) {
	wire := make(map[uint64]any, len(m))
	for l, v := range m {
		mv, err := toMetadatum(v, strconv.FormatUint(l, 10), 0)
		if err != nil {
			return nil, err
		}
		wire[l] = mv
	}
	return encMode.Marshal(wire)
}

const maxMetadatumDepth = 64

func toMetadatum(v any, path string, depth int) (any, error) {
	if depth > maxMetadatumDepth {
		return nil, &MetadataError{Path: path, Reason: "nested too deeply"}
	}
	switch x := v.(type) {
	case string:
		if len(x) <= MaxMetadatumBytes {
			return x, nil
		}
		return chunkText(x), nil
	case []byte:
		if len(x) <= MaxMetadatumBytes {
			return x, nil
		}
		var out []any
		for len(x) > MaxMetadatumBytes {
			out = append(out, x[:MaxMetadatumBytes])
			x = x[MaxMetadatumBytes:]
		}
		return append(out, x), nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64, uint64:
		return x, nil
	case uint32:
		return uint64(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		if u, err := strconv.ParseUint(string(x), 10, 64); err == nil {
			return u, nil
		}
		return nil, &MetadataError{Path: path, Reason: "number " + string(x) + " is not a 64-bit integer"}
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i], _ = toMetadatum(s, path, depth+1)
		}
		return out, nil
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			mv, err := toMetadatum(e, path+"["+strconv.Itoa(i)+"]", depth+1)
			if err != nil {
				return nil, err
			}
			out[i] = mv
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			if len(k) > MaxMetadatumBytes {
				return nil, &MetadataError{Path: path, Reason: "key " + strconv.Quote(k) + " longer than 64 bytes"}
			}
			mv, err := toMetadatum(e, path+"."+k, depth+1)
			if err != nil {
				return nil, err
			}
			out[k] = mv
		}
		return out, nil
	default:
		return nil, &MetadataError{Path: path, Reason: fmt.Sprintf("unsupported type %T", v)}
	}
}

// chunkText splits s into pieces of at most MaxMetadatumBytes without
// splitting a UTF-8 sequence.
func chunkText(s string) []any {
	var out []any
	for len(s) > MaxMetadatumBytes {
		cut := MaxMetadatumBytes
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		out = append(out, s[:cut])
		s = s[cut:]
	}
	return append(out, s)
}

// DecodeMetadata parses auxiliary-data bytes in any of the three ledger
// layouts: a bare metadata map, [metadata, scripts], or the tagged map form.
func DecodeMetadata(b []byte) (Metadata, error) {
	var raw any
	if err := decMode.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("ledger: decode metadata: %w", err)
	}
	switch x := raw.(type) {
	case []any:
		if len(x) == 0 {
			return nil, fmt.Errorf("ledger: decode metadata: empty auxiliary data array")
		}
		raw = x[0]
	case cbor.Tag:
		if x.Number != alonzoAuxDataTag {
			return nil, fmt.Errorf("ledger: decode metadata: unexpected tag %d", x.Number)
		}
		m, ok := x.Content.(map[any]any)
		if !ok {
			return nil, fmt.Errorf("ledger: decode metadata: tagged auxiliary data is not a map")
		}
		raw = m[uint64(0)]
		if raw == nil {
			return Metadata{}, nil
		}
	}
	m, ok := raw.(map[any]any)
	if !ok {
		return nil, fmt.Errorf("ledger: decode metadata: expected map, got %T", raw)
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		label, ok := k.(uint64)
		if !ok {
			return nil, fmt.Errorf("ledger: decode metadata: label %v is not an unsigned integer", k)
		}
		out[label] = fromMetadatum(v)
	}
	return out, nil
}

// fromMetadatum converts a decoded metadatum to JSON shape. Byte strings
// become "0x"-prefixed hex and non-text map keys their JSON rendering,
// matching what chain indexers report.
func fromMetadatum(v any) any {
	switch x := v.(type) {
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return x
	case []byte:
		return "0x" + hex.EncodeToString(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = fromMetadatum(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			var key string
			switch kk := fromMetadatum(k).(type) {
			case string:
				key = kk
			default:
				b, _ := json.Marshal(kk)
				key = string(b)
			}
			out[key] = fromMetadatum(e)
		}
		return out
	default:
		return x
	}
}
