package editor

import (
	"errors"
	"fmt"

	"resume-studio/internal/doctree"
)

// ErrInvalidStep wraps every reason a transaction step cannot apply.
var ErrInvalidStep = errors.New("invalid step")

// Path addresses a node by child indexes from the root. The empty path is
// the root itself.
type Path []int

// Resolve returns the node at p under root.
func (p Path) Resolve(root *doctree.Node) (*doctree.Node, error) {
	n := root
	for depth, i := range p {
		if n == nil || i < 0 || i >= len(n.Content) {
			return nil, fmt.Errorf("path %v: no child %d at depth %d", []int(p), i, depth)
		}
		n = n.Content[i]
	}
	if n == nil {
		return nil, fmt.Errorf("path %v: nil node", []int(p))
	}
	return n, nil
}

// StepKind distinguishes transaction steps on the wire.
type StepKind string

const (
	StepDelete StepKind = "delete"
	StepInsert StepKind = "insert"
)

// Step is one structural edit: delete the child at Index of the node at
// Parent, or insert Node there.
type Step struct {
	Kind   StepKind      `json:"kind"`
	Parent Path          `json:"parent"`
	Index  int           `json:"index"`
	Node   *doctree.Node `json:"node,omitempty"`
}

// Delete builds a delete step.
func Delete(parent Path, index int) Step {
	return Step{Kind: StepDelete, Parent: parent, Index: index}
}

// Insert builds an insert step.
func Insert(parent Path, index int, n *doctree.Node) Step {
	return Step{Kind: StepInsert, Parent: parent, Index: index, Node: n}
}

// Transaction groups steps that must land together. Steps see the effect of
// the steps before them.
type Transaction struct {
	Steps []Step `json:"steps"`
	// Origin tags who produced the transaction ("user", "paginator").
	Origin string `json:"origin,omitempty"`
}

// Apply runs every step against a copy of doc and returns the copy. doc is
// left as it was, so a failing step leaves no partial edit behind. A result
// that breaks the page layout (a non-page under the root, a nested page, no
// page at all) is rejected as a whole.
func (tr *Transaction) Apply(doc *doctree.Node) (*doctree.Node, error) {
	next := doctree.Clone(doc)
	for i, st := range tr.Steps {
		if err := st.apply(next); err != nil {
			return nil, fmt.Errorf("%w %d (%s): %v", ErrInvalidStep, i, st.Kind, err)
		}
	}
	if err := doctree.CheckPageTree(next); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStep, err)
	}
	return next, nil
}

func (st Step) apply(root *doctree.Node) error {
	parent, err := st.Parent.Resolve(root)
	if err != nil {
		return err
	}
	switch st.Kind {
	case StepDelete:
		if st.Index < 0 || st.Index >= len(parent.Content) {
			return fmt.Errorf("delete index %d out of range [0,%d)", st.Index, len(parent.Content))
		}
		parent.Content = append(parent.Content[:st.Index:st.Index], parent.Content[st.Index+1:]...)
	case StepInsert:
		if st.Node == nil {
			return fmt.Errorf("insert without node")
		}
		if st.Index < 0 || st.Index > len(parent.Content) {
			return fmt.Errorf("insert index %d out of range [0,%d]", st.Index, len(parent.Content))
		}
		content := make([]*doctree.Node, 0, len(parent.Content)+1)
		content = append(content, parent.Content[:st.Index]...)
		content = append(content, doctree.Clone(st.Node))
		content = append(content, parent.Content[st.Index:]...)
		parent.Content = content
	default:
		return fmt.Errorf("unknown step kind %q", st.Kind)
	}
	return nil
}
