package doctree

// Reserved attribute keys used to tag nodes with resume semantics. They must
// not collide with any attribute the rendering surface uses.
const (
	// AttrField names the single piece of resume data a node holds.
	AttrField = "field"
	// AttrSection names the repeatable collection a list-like node holds.
	AttrSection = "section"
	// AttrScope marks a direct child of a section node; see ScopeItem.
	AttrScope = "scope"

	// ScopeItem is the AttrScope value of one repeatable section entry.
	ScopeItem = "item"
)

// Page attributes.
const (
	AttrFormat          = "format"
	AttrBackgroundColor = "backgroundColor"
)

// Field returns the field tag of n, or "".
func (n *Node) Field() string { return n.StringAttr(AttrField) }

// Section returns the section tag of n, or "".
func (n *Node) Section() string { return n.StringAttr(AttrSection) }

// IsItem reports whether n is tagged as one section entry.
func (n *Node) IsItem() bool { return n.StringAttr(AttrScope) == ScopeItem }
