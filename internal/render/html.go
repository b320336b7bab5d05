// Package render turns a document tree into HTML for export and for page
// height measurement in a headless browser.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"resume-studio/internal/doctree"
	"resume-studio/internal/paginate"
)

// PageClass is the CSS class carried by every rendered page container.
const PageClass = "page"

// Options controls rendering.
type Options struct {
	// Measure renders pages without a fixed height so that their content
	// height can be read back.
	Measure bool
	// Title is written to <title>.
	Title string
	// CSS is inlined after the base stylesheet.
	CSS string
}

const baseCSS = `
* { box-sizing: border-box; }
body { margin: 0; background: #e5e5e5; font-family: Helvetica, Arial, sans-serif; }
.page { margin: 0 auto; padding: 15mm; overflow: hidden; background: #fff; page-break-after: always; break-after: page; }
.page:last-child { page-break-after: auto; break-after: auto; }
.grid { display: flex; gap: 8mm; }
.grid-column { flex: 1 1 0; }
ul, ol { margin: 0 0 4px 0; padding-left: 18px; }
p { margin: 0 0 4px 0; }
`

// HTML renders doc as a complete HTML document.
func HTML(doc *doctree.Node, opts Options) (string, error) {
	root := el(atom.Html, "html")
	head := el(atom.Head, "head")
	head.AppendChild(withAttr(el(atom.Meta, "meta"), "charset", "utf-8"))
	title := el(atom.Title, "title")
	title.AppendChild(text(opts.Title))
	head.AppendChild(title)
	style := el(atom.Style, "style")
	style.AppendChild(text(baseCSS + opts.CSS))
	head.AppendChild(style)
	root.AppendChild(head)

	body := el(atom.Body, "body")
	if doc != nil {
		for _, c := range doc.Content {
			if c == nil {
				continue
			}
			if c.Type == doctree.TypePage {
				body.AppendChild(renderPage(c, opts))
				continue
			}
			if n := renderNode(c); n != nil {
				body.AppendChild(n)
			}
		}
	}
	root.AppendChild(body)

	var buf bytes.Buffer
	buf.WriteString("<!DOCTYPE html>")
	if err := html.Render(&buf, root); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

func renderPage(page *doctree.Node, opts Options) *html.Node {
	f := paginate.LookupFormat(page.StringAttr(doctree.AttrFormat))
	css := []string{fmt.Sprintf("width:%gmm", f.WidthMM)}
	if opts.Measure {
		css = append(css, "height:auto", "margin-bottom:10mm")
	} else {
		css = append(css, fmt.Sprintf("height:%gmm", f.HeightMM))
	}
	if bg := page.StringAttr(doctree.AttrBackgroundColor); bg != "" {
		css = append(css, "background-color:"+bg)
	}

	div := el(atom.Div, "div")
	withAttr(div, "class", PageClass)
	withAttr(div, "data-format", f.Name)
	withAttr(div, "style", strings.Join(css, ";"))
	for _, c := range page.Content {
		if n := renderNode(c); n != nil {
			div.AppendChild(n)
		}
	}
	return div
}

func renderNode(n *doctree.Node) *html.Node {
	if n == nil {
		return nil
	}
	if n.IsText() {
		return renderText(n)
	}

	var out *html.Node
	switch n.Type {
	case doctree.TypeHeading:
		level := 1
		if l, ok := n.Attrs["level"].(float64); ok && l >= 1 && l <= 6 {
			level = int(l)
		} else if l, ok := n.Attrs["level"].(int); ok && l >= 1 && l <= 6 {
			level = l
		}
		tag := fmt.Sprintf("h%d", level)
		out = el(atom.Lookup([]byte(tag)), tag)
	case doctree.TypeParagraph:
		out = el(atom.P, "p")
	case doctree.TypeBulletList:
		out = el(atom.Ul, "ul")
	case doctree.TypeOrderedList:
		out = el(atom.Ol, "ol")
	case doctree.TypeListItem:
		out = el(atom.Li, "li")
	case doctree.TypeHardBreak:
		return el(atom.Br, "br")
	case doctree.TypeHorizontalRule:
		return el(atom.Hr, "hr")
	case doctree.TypeImage:
		img := el(atom.Img, "img")
		withAttr(img, "src", n.StringAttr("src"))
		withAttr(img, "alt", n.StringAttr("alt"))
		return img
	case doctree.TypeGrid:
		out = withAttr(el(atom.Div, "div"), "class", "grid")
	case doctree.TypeGridColumn:
		out = withAttr(el(atom.Div, "div"), "class", "grid-column")
	default:
		out = withAttr(el(atom.Div, "div"), "data-node", n.Type)
	}

	if align := n.StringAttr("textAlign"); align != "" {
		withAttr(out, "style", "text-align:"+align)
	}
	if f := n.Field(); f != "" {
		withAttr(out, "data-field", f)
	}
	if s := n.Section(); s != "" {
		withAttr(out, "data-section", s)
	}
	for _, c := range n.Content {
		if child := renderNode(c); child != nil {
			out.AppendChild(child)
		}
	}
	return out
}

// renderText wraps a text leaf in one element per mark, first mark
// outermost.
func renderText(n *doctree.Node) *html.Node {
	inner := text(n.Text)
	for i := len(n.Marks) - 1; i >= 0; i-- {
		wrap := markElement(n.Marks[i])
		if wrap == nil {
			continue
		}
		wrap.AppendChild(inner)
		inner = wrap
	}
	return inner
}

func markElement(m doctree.Mark) *html.Node {
	str := func(k string) string {
		s, _ := m.Attrs[k].(string)
		return s
	}
	switch m.Type {
	case "bold":
		return el(atom.Strong, "strong")
	case "italic":
		return el(atom.Em, "em")
	case "underline":
		return el(atom.U, "u")
	case "strike":
		return el(atom.S, "s")
	case "code":
		return el(atom.Code, "code")
	case "link":
		a := el(atom.A, "a")
		withAttr(a, "href", str("href"))
		if t := str("target"); t != "" {
			withAttr(a, "target", t)
		}
		return a
	case "highlight":
		mark := el(atom.Mark, "mark")
		if c := str("color"); c != "" {
			withAttr(mark, "style", "background-color:"+c)
		}
		return mark
	case "textStyle":
		var css []string
		if c := str("color"); c != "" {
			css = append(css, "color:"+c)
		}
		if f := str("fontFamily"); f != "" {
			css = append(css, "font-family:"+f)
		}
		if s := str("fontSize"); s != "" {
			css = append(css, "font-size:"+s)
		}
		if len(css) == 0 {
			return nil
		}
		return withAttr(el(atom.Span, "span"), "style", strings.Join(css, ";"))
	default:
		return nil
	}
}

func el(a atom.Atom, tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: tag}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func withAttr(n *html.Node, key, val string) *html.Node {
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	return n
}
