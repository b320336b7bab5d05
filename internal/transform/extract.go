package transform

import (
	"resume-studio/internal/doctree"
	"resume-studio/internal/model"
)

// Extract walks doc depth-first and collects every field-tagged node's
// flattened text into Fields and every section's scope=item children into
// Sections. When a field name appears more than once, the last occurrence in
// document order wins.
//
// Sections are traversal boundaries: only their item children are read, and
// fields outside items (headings, decorative wrappers) are ignored. A section
// with no items still yields an empty slice.
//
// The only error is a *doctree.ShapeError for a tree that is not a doc root
// with pages.
func Extract(doc *doctree.Node) (model.ResumeData, error) {
	if err := doctree.CheckShape(doc); err != nil {
		return model.ResumeData{}, err
	}

	data := model.NewResumeData()
	doctree.Walk(doc, func(n, _ *doctree.Node, _ int) bool {
		if field := n.Field(); field != "" {
			data.Fields[field] = doctree.Text(n)
		}
		section := n.Section()
		if section == "" {
			return true
		}
		items := data.Sections[section]
		if items == nil {
			items = []model.Item{}
		}
		for _, child := range n.Content {
			if child == nil || !child.IsItem() {
				continue
			}
			items = append(items, extractItem(child))
		}
		data.Sections[section] = items
		return false
	})
	return data, nil
}

// extractItem collects the fields inside one item subtree, the item node
// itself included. Nested sections are not treated specially here.
func extractItem(item *doctree.Node) model.Item {
	rec := model.Item{}
	doctree.Walk(item, func(n, _ *doctree.Node, _ int) bool {
		if field := n.Field(); field != "" {
			rec[field] = doctree.Text(n)
		}
		return true
	})
	return rec
}
