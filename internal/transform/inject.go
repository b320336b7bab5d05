package transform

import (
	"strings"

	"resume-studio/internal/doctree"
	"resume-studio/internal/model"
)

// Inject returns a copy of template populated with data. template is never
// modified.
//
// A field-tagged node with a non-empty value has its content replaced: list
// nodes get one listItem per non-empty line, anything else gets a single text
// leaf carrying the marks of its former first text leaf. Fields without a
// value keep their template content.
//
// A section-tagged node with items in data is rebuilt from its first
// scope=item child (the blueprint): one clone per item, populated from that
// item's record, placed where the first item child stood. Other item
// children are dropped and non-item children keep their order. A section
// with no data, or with no blueprint, is left untouched.
func Inject(template *doctree.Node, data model.ResumeData) (*doctree.Node, error) {
	if err := doctree.CheckShape(template); err != nil {
		return nil, err
	}

	out := doctree.Clone(template)
	doctree.Walk(out, func(n, _ *doctree.Node, _ int) bool {
		if field := n.Field(); field != "" {
			if v := data.Fields[field]; v != "" {
				setFieldContent(n, v)
				return false
			}
		}
		if section := n.Section(); section != "" {
			if items := data.Sections[section]; len(items) > 0 {
				fillSection(n, items)
			}
			return false
		}
		return true
	})
	return out, nil
}

func fillSection(section *doctree.Node, items []model.Item) {
	first := -1
	for i, c := range section.Content {
		if c != nil && c.IsItem() {
			first = i
			break
		}
	}
	if first < 0 {
		return
	}
	blueprint := section.Content[first]

	generated := make([]*doctree.Node, 0, len(items))
	for _, rec := range items {
		item := doctree.Clone(blueprint)
		fillItem(item, rec)
		generated = append(generated, item)
	}

	children := make([]*doctree.Node, 0, len(section.Content)-1+len(generated))
	for i, c := range section.Content {
		if i == first {
			children = append(children, generated...)
			continue
		}
		if c != nil && c.IsItem() {
			continue
		}
		children = append(children, c)
	}
	section.Content = children
}

func fillItem(item *doctree.Node, rec model.Item) {
	doctree.Walk(item, func(n, _ *doctree.Node, _ int) bool {
		if field := n.Field(); field != "" {
			if v := rec[field]; v != "" {
				setFieldContent(n, v)
				return false
			}
		}
		return true
	})
}

func setFieldContent(n *doctree.Node, value string) {
	if n.IsList() {
		var items []*doctree.Node
		for _, line := range strings.Split(value, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			items = append(items, &doctree.Node{
				Type:    doctree.TypeListItem,
				Content: []*doctree.Node{doctree.NewParagraph(line)},
			})
		}
		if len(items) > 0 {
			n.Content = items
		}
		return
	}

	leaf := doctree.NewText(value)
	if first := doctree.FirstText(n); first != nil {
		leaf.Marks = doctree.CloneMarks(first.Marks)
	}
	n.Content = []*doctree.Node{leaf}
}
