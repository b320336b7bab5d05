// Package importer converts foreign document formats into document trees.
package importer

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"resume-studio/internal/doctree"
)

// Markdown parses src and returns a document holding a single a4 page. The
// paginator splits it once the page is measured.
func Markdown(src []byte) *doctree.Node {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	b := &builder{src: src}
	var blocks []*doctree.Node
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		blocks = append(blocks, b.block(n)...)
	}
	return doctree.NewDoc(doctree.NewPage("a4", "", blocks...))
}

type builder struct {
	src []byte
}

func (b *builder) block(n ast.Node) []*doctree.Node {
	switch node := n.(type) {
	case *ast.Heading:
		return []*doctree.Node{{
			Type:    doctree.TypeHeading,
			Attrs:   map[string]any{"level": node.Level},
			Content: b.inlines(node, nil),
		}}
	case *ast.Paragraph, *ast.TextBlock:
		return []*doctree.Node{{Type: doctree.TypeParagraph, Content: b.inlines(node, nil)}}
	case *ast.List:
		list := &doctree.Node{Type: doctree.TypeBulletList}
		if node.IsOrdered() {
			list.Type = doctree.TypeOrderedList
			if node.Start > 1 {
				list.SetAttr("start", node.Start)
			}
		}
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			item := &doctree.Node{Type: doctree.TypeListItem}
			for gc := c.FirstChild(); gc != nil; gc = gc.NextSibling() {
				item.Content = append(item.Content, b.block(gc)...)
			}
			if len(item.Content) == 0 {
				item.Content = []*doctree.Node{doctree.NewParagraph("")}
			}
			list.Content = append(list.Content, item)
		}
		return []*doctree.Node{list}
	case *ast.ThematicBreak:
		return []*doctree.Node{{Type: doctree.TypeHorizontalRule}}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		body := strings.TrimRight(string(b.lines(n)), "\n")
		p := &doctree.Node{Type: doctree.TypeParagraph}
		for i, line := range strings.Split(body, "\n") {
			if i > 0 {
				p.Content = append(p.Content, &doctree.Node{Type: doctree.TypeHardBreak})
			}
			if line != "" {
				p.Content = append(p.Content, doctree.NewText(line, doctree.Mark{Type: "code"}))
			}
		}
		return []*doctree.Node{p}
	case *ast.Blockquote:
		var out []*doctree.Node
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			out = append(out, b.block(c)...)
		}
		return out
	default:
		// raw HTML and extension blocks are dropped
		return nil
	}
}

func (b *builder) lines(n ast.Node) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(b.src))
	}
	return buf.Bytes()
}

// inlines flattens the inline children of n into text leaves, stacking
// marks from enclosing emphasis and link nodes.
func (b *builder) inlines(n ast.Node, marks []doctree.Mark) []*doctree.Node {
	var out []*doctree.Node
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			out = appendText(out, string(node.Segment.Value(b.src)), marks)
			switch {
			case node.HardLineBreak():
				out = append(out, &doctree.Node{Type: doctree.TypeHardBreak})
			case node.SoftLineBreak():
				out = appendText(out, " ", marks)
			}
		case *ast.String:
			out = appendText(out, string(node.Value), marks)
		case *ast.CodeSpan:
			var buf bytes.Buffer
			for gc := node.FirstChild(); gc != nil; gc = gc.NextSibling() {
				switch t := gc.(type) {
				case *ast.Text:
					buf.Write(t.Segment.Value(b.src))
				case *ast.String:
					buf.Write(t.Value)
				}
			}
			out = appendText(out, buf.String(), with(marks, doctree.Mark{Type: "code"}))
		case *ast.Emphasis:
			m := doctree.Mark{Type: "italic"}
			if node.Level >= 2 {
				m.Type = "bold"
			}
			out = append(out, b.inlines(node, with(marks, m))...)
		case *ast.Link:
			m := doctree.Mark{Type: "link", Attrs: map[string]any{"href": string(node.Destination)}}
			out = append(out, b.inlines(node, with(marks, m))...)
		case *ast.AutoLink:
			url := string(node.URL(b.src))
			if node.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(url, "mailto:") {
				url = "mailto:" + url
			}
			m := doctree.Mark{Type: "link", Attrs: map[string]any{"href": url}}
			out = appendText(out, string(node.Label(b.src)), with(marks, m))
		case *ast.Image:
			out = append(out, &doctree.Node{
				Type:  doctree.TypeImage,
				Attrs: map[string]any{"src": string(node.Destination), "alt": string(b.plain(node))},
			})
		default:
			out = append(out, b.inlines(c, marks)...)
		}
	}
	return out
}

func (b *builder) plain(n ast.Node) []byte {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(b.src))
		case *ast.String:
			buf.Write(t.Value)
		default:
			buf.Write(b.plain(c))
		}
	}
	return buf.Bytes()
}

// appendText merges s into the previous leaf when the marks match.
func appendText(out []*doctree.Node, s string, marks []doctree.Mark) []*doctree.Node {
	if s == "" {
		return out
	}
	if len(out) > 0 {
		last := out[len(out)-1]
		if last.IsText() && sameMarks(last.Marks, marks) {
			last.Text += s
			return out
		}
	}
	return append(out, doctree.NewText(s, doctree.CloneMarks(marks)...))
}

func with(marks []doctree.Mark, m doctree.Mark) []doctree.Mark {
	out := make([]doctree.Mark, 0, len(marks)+1)
	out = append(out, marks...)
	return append(out, m)
}

func sameMarks(a, b []doctree.Mark) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type || a[i].Attrs["href"] != b[i].Attrs["href"] {
			return false
		}
	}
	return true
}
