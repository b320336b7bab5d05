package doctree

import "strings"

// Text flattens n to plain text. Text leaves are concatenated, hard breaks
// become "\n", and the texts of sibling block children are joined with "\n".
// Empty blocks do not produce blank lines.
func Text(n *Node) string {
	if n == nil {
		return ""
	}
	switch n.Type {
	case TypeText:
		return n.Text
	case TypeHardBreak:
		return "\n"
	}

	var (
		out    strings.Builder
		inline strings.Builder
	)
	flush := func(s string) {
		if s == "" {
			return
		}
		if out.Len() > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(s)
	}
	for _, c := range n.Content {
		if c == nil {
			continue
		}
		if isInline(c) {
			inline.WriteString(Text(c))
			continue
		}
		flush(inline.String())
		inline.Reset()
		flush(Text(c))
	}
	flush(inline.String())
	return out.String()
}

func isInline(n *Node) bool {
	return n.Type == TypeText || n.Type == TypeHardBreak
}
