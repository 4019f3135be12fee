// Package entity provides the opaque handle goldmod uses in place of live
// host entity pointers. The host reuses entity slots after disconnects, so a
// bare index is not a stable identity; Ref pairs the index with the host's
// serial number for the slot so stale handles can be detected instead of
// silently aliasing a new occupant.
package entity

// Ref identifies one host entity. The zero Ref is "no entity".
type Ref struct {
	Index  int32
	Serial int32
}

// Nil is the absent entity reference.
var Nil = Ref{}

// AtIndex wraps a bare host index in a Ref with no serial. The host
// resolves it positionally; use it only for values consumed within the
// same tick they were produced.
func AtIndex(n int) Ref {
	return Ref{Index: int32(n)}
}

// IsNil reports whether the ref addresses no entity.
func (r Ref) IsNil() bool {
	return r == Nil
}

// Key returns the per-player key menus and registries index sessions by.
// Player entities occupy indices 1..maxclients, so 0 is free for sentinels.
func (r Ref) Key() int {
	return int(r.Index)
}
