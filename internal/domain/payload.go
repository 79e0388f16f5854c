package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// SchemaPayload is a tagged union over the two input shapes the
// recommendation engine accepts: a structured mapping or pre-validated raw
// JSON text. Exactly one of the two is set.
type SchemaPayload struct {
	structured map[string]any
	rawText    string
	isRaw      bool
}

// StructuredPayload wraps a decoded JSON-LD mapping.
func StructuredPayload(data map[string]any) SchemaPayload {
	return SchemaPayload{structured: data}
}

// RawTextPayload wraps a raw JSON string. The string is validated at
// canonicalization time, not here.
func RawTextPayload(text string) SchemaPayload {
	return SchemaPayload{rawText: text, isRaw: true}
}

// PayloadFrom converts an arbitrary extracted value into a SchemaPayload.
// Only mappings and strings are supported.
func PayloadFrom(value any) (SchemaPayload, error) {
	switch v := value.(type) {
	case map[string]any:
		return StructuredPayload(v), nil
	case SchemaMap:
		return StructuredPayload(v), nil
	case string:
		return RawTextPayload(v), nil
	default:
		return SchemaPayload{}, fmt.Errorf("%w: %T", ErrUnsupportedInput, value)
	}
}

// CanonicalJSON serializes the payload to a canonical JSON string with keys
// sorted at every nesting level, so equal mappings always produce the same
// text regardless of insertion order. Raw text is parsed and re-serialized
// through the same path; invalid JSON yields ErrUnsupportedInput.
func (p SchemaPayload) CanonicalJSON() (string, error) {
	var value any
	if p.isRaw {
		if err := json.Unmarshal([]byte(p.rawText), &value); err != nil {
			return "", fmt.Errorf("%w: string is not valid JSON: %v", ErrUnsupportedInput, err)
		}
	} else {
		if p.structured == nil {
			return "", fmt.Errorf("%w: nil payload", ErrUnsupportedInput)
		}
		value = p.structured
	}

	out, err := marshalCanonical(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedInput, err)
	}
	return out, nil
}

// marshalCanonical renders value as JSON with object keys in sorted order.
// encoding/json already sorts map[string]any keys, but values decoded from
// raw text may contain nested maps under other key types, so normalize first.
func marshalCanonical(value any) (string, error) {
	normalized := normalizeValue(value)
	out, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any, len(v))
		for _, k := range keys {
			out[k] = normalizeValue(v[k])
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
