package doctree

import (
	"encoding/json"
	"fmt"
)

// Node types the core recognises. The rendering surface may use others;
// unknown types are carried through untouched.
const (
	TypeDoc            = "doc"
	TypePage           = "page"
	TypeHeading        = "heading"
	TypeParagraph      = "paragraph"
	TypeBulletList     = "bulletList"
	TypeOrderedList    = "orderedList"
	TypeListItem       = "listItem"
	TypeText           = "text"
	TypeHardBreak      = "hardBreak"
	TypeGrid           = "grid"
	TypeGridColumn     = "gridColumn"
	TypeHorizontalRule = "horizontalRule"
	TypeImage          = "image"
)

// Node is one node of a resume document. It mirrors the JSON shape used for
// persistence and for AI-generated payloads:
//
//	{ "type": ..., "attrs": {...}, "content": [...], "text": ..., "marks": [...] }
type Node struct {
	Type    string         `json:"type"`
	Attrs   map[string]any `json:"attrs,omitempty"`
	Content []*Node        `json:"content,omitempty"`
	Text    string         `json:"text,omitempty"`
	Marks   []Mark         `json:"marks,omitempty"`
}

// Mark is an inline style annotation on a text leaf (bold, italic, link...).
type Mark struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Parse decodes a serialized tree.
func Parse(b []byte) (*Node, error) {
	var n Node
	if err := json.Unmarshal(b, &n); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &n, nil
}

// Marshal encodes a tree in its boundary format.
func Marshal(n *Node) ([]byte, error) {
	return json.Marshal(n)
}

// IsText reports whether n is a text leaf.
func (n *Node) IsText() bool {
	return n != nil && n.Type == TypeText
}

// IsList reports whether n is a bullet or ordered list.
func (n *Node) IsList() bool {
	return n != nil && (n.Type == TypeBulletList || n.Type == TypeOrderedList)
}

// StringAttr returns attrs[key] when it is a string, or "".
func (n *Node) StringAttr(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	s, _ := n.Attrs[key].(string)
	return s
}

// SetAttr sets an attribute, allocating the map when needed.
func (n *Node) SetAttr(key string, v any) {
	if n.Attrs == nil {
		n.Attrs = map[string]any{}
	}
	n.Attrs[key] = v
}

// NewDoc builds a doc root around the given pages.
func NewDoc(pages ...*Node) *Node {
	return &Node{Type: TypeDoc, Content: pages}
}

// NewPage builds a page container. An empty format defaults to a4.
func NewPage(format, background string, blocks ...*Node) *Node {
	if format == "" {
		format = "a4"
	}
	attrs := map[string]any{AttrFormat: format}
	if background != "" {
		attrs[AttrBackgroundColor] = background
	}
	return &Node{Type: TypePage, Attrs: attrs, Content: blocks}
}

// NewText builds a text leaf.
func NewText(s string, marks ...Mark) *Node {
	return &Node{Type: TypeText, Text: s, Marks: marks}
}

// NewParagraph builds a paragraph holding a single text leaf. An empty
// string yields an empty paragraph.
func NewParagraph(s string) *Node {
	p := &Node{Type: TypeParagraph}
	if s != "" {
		p.Content = []*Node{NewText(s)}
	}
	return p
}
