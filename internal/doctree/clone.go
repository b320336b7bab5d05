package doctree

// Clone returns a deep structural copy of n. Attribute values that are
// nested objects or arrays are copied as well, so the copy shares no
// mutable state with n.
func Clone(n *Node) *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Type:  n.Type,
		Text:  n.Text,
		Attrs: cloneMap(n.Attrs),
		Marks: CloneMarks(n.Marks),
	}
	if n.Content != nil {
		c.Content = make([]*Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = Clone(child)
		}
	}
	return c
}

// CloneMarks copies a mark set.
func CloneMarks(marks []Mark) []Mark {
	if marks == nil {
		return nil
	}
	out := make([]Mark, len(marks))
	for i, m := range marks {
		out[i] = Mark{Type: m.Type, Attrs: cloneMap(m.Attrs)}
	}
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}
