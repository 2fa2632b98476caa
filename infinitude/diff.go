package infinitude

import (
	"fmt"
	"reflect"
)

// missingEntry marks a key or index that exists on only one side of a diff.
const missingEntry = "(missing)"

// change holds the old and new value at a changed path.
type change [2]any

// diffData recursively compares two snapshot trees and returns the changed
// paths with their old and new values. It exists for diagnostic logging
// only: the result never gates behavior, and the comparison is total over
// missing keys and mismatched types. Either side being nil yields no diff.
func diffData(old, new map[string]any, path string) map[string]change {
	if old == nil || new == nil {
		return nil
	}

	diff := make(map[string]change)
	keys := make(map[string]struct{}, len(old)+len(new))
	for k := range old {
		keys[k] = struct{}{}
	}
	for k := range new {
		keys[k] = struct{}{}
	}

	for key := range keys {
		keyPath := key
		if path != "" {
			keyPath = path + "/" + key
		}

		oldVal, inOld := old[key]
		newVal, inNew := new[key]
		switch {
		case !inOld:
			diff[keyPath] = change{missingEntry, newVal}
		case !inNew:
			diff[keyPath] = change{oldVal, missingEntry}
		default:
			oldMap, oldIsMap := asMap(oldVal)
			newMap, newIsMap := asMap(newVal)
			if oldIsMap && newIsMap {
				for p, c := range diffData(oldMap, newMap, keyPath) {
					diff[p] = c
				}
				continue
			}
			oldList, oldIsList := oldVal.([]any)
			newList, newIsList := newVal.([]any)
			if oldIsList && newIsList {
				for p, c := range diffLists(oldList, newList, keyPath) {
					diff[p] = c
				}
				continue
			}
			if !reflect.DeepEqual(oldVal, newVal) {
				diff[keyPath] = change{oldVal, newVal}
			}
		}
	}

	if len(diff) == 0 {
		return nil
	}
	return diff
}

// diffLists compares two lists element-wise by index, recursing into map
// elements and recording index-qualified paths.
func diffLists(old, new []any, path string) map[string]change {
	diff := make(map[string]change)
	for i, oldVal := range old {
		idxPath := fmt.Sprintf("%s[%d]", path, i)
		if i >= len(new) {
			diff[idxPath] = change{oldVal, missingEntry}
			continue
		}
		oldMap, oldIsMap := asMap(oldVal)
		newMap, newIsMap := asMap(new[i])
		if oldIsMap && newIsMap {
			for p, c := range diffData(oldMap, newMap, idxPath) {
				diff[p] = c
			}
			continue
		}
		if !reflect.DeepEqual(oldVal, new[i]) {
			diff[idxPath] = change{oldVal, new[i]}
		}
	}
	for i := len(old); i < len(new); i++ {
		diff[fmt.Sprintf("%s[%d]", path, i)] = change{missingEntry, new[i]}
	}
	return diff
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Document:
		return m, true
	default:
		return nil, false
	}
}
