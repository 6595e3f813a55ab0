// Package fingerprint computes stable content hashes of parsed schemas. Two
// schemas that differ only in tracking ids, comments, or the order of
// top-level entities hash to the same value.
package fingerprint

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
)

// volatileKeys never participate in the hash.
var volatileKeys = map[string]bool{
	"tracking_id": true,
	"comment":     true,
}

// sortedCollections are the schema-root arrays whose order is not semantic.
var sortedCollections = map[string]bool{
	"tables":          true,
	"enums":           true,
	"domains":         true,
	"composite_types": true,
	"sequences":       true,
	"views":           true,
	"functions":       true,
	"triggers":        true,
}

// Canonical reduces a schema-shaped value to its canonical generic form:
// volatile keys stripped, unordered collections sorted by name. Marshaling
// the result is deterministic because encoding/json emits map keys sorted.
func Canonical(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling for fingerprint: %w", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("normalizing for fingerprint: %w", err)
	}

	strip(generic)
	for key, val := range generic {
		if !sortedCollections[key] {
			continue
		}
		if arr, ok := val.([]any); ok {
			sortByName(arr)
		}
	}
	return generic, nil
}

func strip(v any) {
	switch x := v.(type) {
	case map[string]any:
		for k := range x {
			if volatileKeys[k] {
				delete(x, k)
				continue
			}
			strip(x[k])
		}
	case []any:
		for _, item := range x {
			strip(item)
		}
	}
}

func sortByName(arr []any) {
	sort.SliceStable(arr, func(i, j int) bool {
		return entityName(arr[i]) < entityName(arr[j])
	})
}

func entityName(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	name, _ := m["name"].(string)
	return name
}

// Hash returns the hex SHA-256 of the canonical form.
func Hash(v any) (string, error) {
	canonical, err := Canonical(v)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(canonical)
	if err != nil {
		return "", fmt.Errorf("marshaling canonical form: %w", err)
	}
	return fmt.Sprintf("%x", sha256.Sum256(raw)), nil
}

// Equal reports whether two values share a fingerprint.
func Equal(a, b any) (bool, error) {
	ha, err := Hash(a)
	if err != nil {
		return false, err
	}
	hb, err := Hash(b)
	if err != nil {
		return false, err
	}
	return ha == hb, nil
}
