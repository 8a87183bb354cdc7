package cachekey

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// CanonicalHash serializes options with map keys in deterministic order
// (recursively for nested objects/arrays) and returns a stable hex digest of
// that serialization. Two values that are deeply equal modulo key order
// produce identical hashes, per spec §4.3.
//
// Grounded on cache.DefaultKeyer.canonicalize from the teacher's cache
// package, generalized from map[string]any/[]any to arbitrary values by
// round-tripping through encoding/json first.
func CanonicalHash(options any) (string, error) {
	canonical, err := Canonicalize(options)
	if err != nil {
		return "", fmt.Errorf("cachekey: canonicalize options: %w", err)
	}
	sum := xxhash.Sum64(canonical)
	return strconv.FormatUint(sum, 16), nil
}

// Canonicalize produces a deterministic JSON representation of v: struct and
// map keys are sorted, so two inputs that are deeply equal modulo key order
// serialize identically.
func Canonicalize(v any) ([]byte, error) {
	// Round-trip through json so struct values (and anything else
	// json.Marshal understands) reduce to the same generic shape
	// (map[string]any / []any / scalars) that canonicalize below sorts.
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}

	return canonicalize(generic)
}

func canonicalize(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte("null"), nil
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}

		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, '}')

	return result, nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}

		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	result = append(result, ']')

	return result, nil
}
