package doctree

import (
	"errors"
	"fmt"
)

// ErrInvalidShape is matched by every ShapeError.
var ErrInvalidShape = errors.New("invalid document shape")

// ShapeError reports a violation of the basic tree contract: a doc root
// holding at least one page. It points at template authoring or persistence
// corruption rather than normal content variance.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("invalid document shape: %s", e.Reason)
}

func (e *ShapeError) Is(target error) bool {
	return target == ErrInvalidShape
}

// CheckShape returns a *ShapeError unless doc is a doc root with at least one
// page child.
func CheckShape(doc *Node) error {
	if doc == nil {
		return &ShapeError{Reason: "document is nil"}
	}
	if doc.Type != TypeDoc {
		return &ShapeError{Reason: fmt.Sprintf("root has type %q, want %q", doc.Type, TypeDoc)}
	}
	if len(Pages(doc)) == 0 {
		return &ShapeError{Reason: "root has no page children"}
	}
	return nil
}

// CheckPageTree is CheckShape plus the page layout contract: every child of
// the root is a page and no page sits below the root.
func CheckPageTree(doc *Node) error {
	if err := CheckShape(doc); err != nil {
		return err
	}
	for i, c := range doc.Content {
		if c == nil || c.Type != TypePage {
			return &ShapeError{Reason: fmt.Sprintf("root child %d is not a page", i)}
		}
		var nested bool
		Walk(c, func(n, parent *Node, _ int) bool {
			if parent != nil && n.Type == TypePage {
				nested = true
			}
			return !nested
		})
		if nested {
			return &ShapeError{Reason: fmt.Sprintf("page %d contains a page", i)}
		}
	}
	return nil
}
