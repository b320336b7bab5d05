package doctree

import "bytes"

// Equal reports whether a and b serialize to the same boundary JSON. Map
// keys are encoded in sorted order, so this is a structural comparison that
// ignores nil-versus-empty differences.
func Equal(a, b *Node) bool {
	ab, err := Marshal(a)
	if err != nil {
		return false
	}
	bb, err := Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
