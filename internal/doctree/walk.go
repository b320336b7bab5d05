package doctree

// VisitFunc is called for every node in pre-order. parent is nil for the
// node Walk started at. Returning false skips the node's children.
type VisitFunc func(n, parent *Node, index int) bool

// Walk traverses n depth-first, pre-order. Nil children are skipped so that
// malformed payloads never stop a traversal.
func Walk(n *Node, visit VisitFunc) {
	walk(n, nil, 0, visit)
}

func walk(n, parent *Node, index int, visit VisitFunc) {
	if n == nil {
		return
	}
	if !visit(n, parent, index) {
		return
	}
	for i, c := range n.Content {
		walk(c, n, i, visit)
	}
}

// PageRef is a page node together with its position under the root.
type PageRef struct {
	Index int
	Node  *Node
}

// Pages returns the page nodes that are direct children of doc, in order.
func Pages(doc *Node) []PageRef {
	if doc == nil {
		return nil
	}
	var out []PageRef
	for i, c := range doc.Content {
		if c != nil && c.Type == TypePage {
			out = append(out, PageRef{Index: i, Node: c})
		}
	}
	return out
}

// FirstText returns the first text leaf under n (n included), or nil.
func FirstText(n *Node) *Node {
	var found *Node
	Walk(n, func(c, _ *Node, _ int) bool {
		if found != nil {
			return false
		}
		if c.IsText() {
			found = c
			return false
		}
		return true
	})
	return found
}
