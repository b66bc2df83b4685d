// Package reconcile applies streamed resource changes onto workload
// snapshots. Every operation is copy-on-write: the input snapshot is never
// mutated, so callers can hand the previous snapshot to concurrent readers
// while the next one is being produced. Applying the same change twice yields
// the same result.
package reconcile

import (
	"github.com/PrasadTelasula/kaptivan-sub002/internal/models"
)

// findMatch locates an existing entry for the incoming object. UID wins when
// the change carries one; otherwise name plus namespace.
func findMatch[T models.Keyed](list []T, item models.Keyed) int {
	if uid := item.GetUID(); uid != "" {
		for i := range list {
			if list[i].GetUID() == uid {
				return i
			}
		}
	}
	for i := range list {
		if list[i].GetName() == item.GetName() && list[i].GetNamespace() == item.GetNamespace() {
			return i
		}
	}
	return -1
}

// Upsert merges into the matching entry or appends the incoming item,
// returning a fresh slice. merge receives the existing entry and returns the
// merged copy.
func Upsert[T models.Keyed](list []T, item T, merge func(T) T) []T {
	out := append([]T(nil), list...)
	if i := findMatch(out, item); i >= 0 {
		out[i] = merge(out[i])
		return out
	}
	return append(out, item)
}

// Patch merges into the matching entry only, returning a fresh slice and
// whether a match was found. A modified event for an entity that was never
// added must not create it; callers drop the change when ok is false.
func Patch[T models.Keyed](list []T, item T, merge func(T) T) ([]T, bool) {
	i := findMatch(list, item)
	if i < 0 {
		return list, false
	}
	out := append([]T(nil), list...)
	out[i] = merge(out[i])
	return out, true
}

// Remove drops every entry matching the name. A delete without a namespace
// matches the name in any namespace; watch deletes can arrive that way.
func Remove[T models.Keyed](list []T, name, namespace string) ([]T, bool) {
	out := make([]T, 0, len(list))
	removed := false
	for _, item := range list {
		if item.GetName() == name && (namespace == "" || item.GetNamespace() == namespace) {
			removed = true
			continue
		}
		out = append(out, item)
	}
	if !removed {
		return list, false
	}
	return out, true
}

// Dedupe collapses entries sharing a name and namespace, keeping the first
// occurrence unless a later duplicate has a known status and the kept one
// does not.
func Dedupe[T models.Keyed](list []T) []T {
	type key struct{ name, namespace string }
	index := make(map[key]int, len(list))
	out := make([]T, 0, len(list))
	for _, item := range list {
		k := key{item.GetName(), item.GetNamespace()}
		if i, ok := index[k]; ok {
			if out[i].GetStatus() == models.StatusUnknown && item.GetStatus() != models.StatusUnknown {
				out[i] = item
			}
			continue
		}
		index[k] = len(out)
		out = append(out, item)
	}
	return out
}
