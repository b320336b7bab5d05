package http

import (
	"errors"
	"fmt"

	"resume-studio/internal/doctree"
	"resume-studio/internal/editor"
	"resume-studio/internal/model"

	"github.com/gofiber/fiber/v2"
)

func (h *Handler) OpenSession(c *fiber.Ctx) error {
	id, err := docID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ls, err := h.sessions.Open(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(ls.State())
}

func (h *Handler) SessionState(c *fiber.Ctx) error {
	id, err := docID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	ls, err := h.sessions.Get(id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(ls.State())
}

type transactionReq struct {
	Transaction *editor.Transaction `json:"transaction"`
	BaseVersion *int64              `json:"base_version"`
}

func (h *Handler) ApplyTransaction(c *fiber.Ctx) error {
	id, err := docID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req transactionReq
	if err := c.BodyParser(&req); err != nil || req.Transaction == nil {
		return badRequest(c, "transaction is required")
	}
	if err := validateInserts(req.Transaction); err != nil {
		return h.fail(c, err)
	}
	st, err := h.sessions.Apply(id, req.Transaction, req.BaseVersion)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(st)
}

// validateInserts checks every inserted subtree against the node schema.
// Pages are checked as documents so their format is vetted too.
func validateInserts(tr *editor.Transaction) error {
	for i, st := range tr.Steps {
		if st.Kind != editor.StepInsert || st.Node == nil {
			continue
		}
		subject, check := st.Node, model.ValidateNodeJSON
		if st.Node.Type == doctree.TypePage {
			subject, check = doctree.NewDoc(st.Node), model.ValidateDocumentJSON
		}
		raw, err := doctree.Marshal(subject)
		if err != nil {
			return err
		}
		if err := check(raw); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}

type heightsReq struct {
	Version int64     `json:"version"`
	Heights []float64 `json:"heights"`
}

// ReportHeights takes the page heights the client measured. A stale version
// answers 409 with the current state so the client can re-measure.
func (h *Handler) ReportHeights(c *fiber.Ctx) error {
	id, err := docID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req heightsReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	st, err := h.sessions.ReportHeights(id, req.Version, req.Heights)
	if errors.Is(err, editor.ErrStale) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error(), "state": st})
	}
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(st)
}

func (h *Handler) Undo(c *fiber.Ctx) error {
	id, err := docID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	st, err := h.sessions.Undo(id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(st)
}

func (h *Handler) CloseSession(c *fiber.Ctx) error {
	id, err := docID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	if err := h.sessions.Close(c.UserContext(), id); err != nil {
		return h.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
