// Package uattr resolves the unique attribute of a stored value.
//
// A unique attribute is a secondary string key, distinct from a container's
// primary ordering, used by GetByUniqAttr and RemoveByUniqAttr lookups across
// the list, tree and heap packages.
package uattr

import "fmt"

// Attributer is implemented by values that carry a unique string attribute.
type Attributer interface {
	UniqueAttr() string
}

// Of returns the unique attribute of v.
// Values that do not implement Attributer are keyed by their default
// formatting, so a plain string is its own attribute.
func Of(v any) string {
	if a, ok := v.(Attributer); ok {
		return a.UniqueAttr()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
