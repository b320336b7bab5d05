package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"

	"resume-studio/internal/adapter/repository"
	"resume-studio/internal/doctree"
	"resume-studio/internal/domain"
	"resume-studio/internal/editor"
	"resume-studio/internal/model"
	"resume-studio/internal/usecase"
	"resume-studio/pkg/ai/formatters"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type Handler struct {
	processor *usecase.Processor
	sessions  *usecase.SessionManager
	log       *slog.Logger
}

func NewHandler(p *usecase.Processor, s *usecase.SessionManager, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{processor: p, sessions: s, log: log}
}

// fail maps domain errors onto HTTP statuses.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var verr *model.ValidationError
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, usecase.ErrNoSession):
		status = fiber.StatusNotFound
	case errors.Is(err, doctree.ErrInvalidShape), errors.Is(err, editor.ErrInvalidStep):
		status = fiber.StatusUnprocessableEntity
	case errors.As(err, &verr), errors.Is(err, usecase.ErrInvalidInput):
		status = fiber.StatusBadRequest
	case errors.Is(err, editor.ErrStale), errors.Is(err, editor.ErrNothingToUndo):
		status = fiber.StatusConflict
	case errors.Is(err, formatters.ErrNotJSON):
		status = fiber.StatusBadGateway
	}
	if status >= fiber.StatusInternalServerError {
		h.log.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func docID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// parseContent validates a raw tree before decoding it.
func parseContent(raw json.RawMessage) (*doctree.Node, error) {
	if err := model.ValidateDocumentJSON(raw); err != nil {
		return nil, err
	}
	return doctree.Parse(raw)
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

type createReq struct {
	UserID     string          `json:"user_id"`
	TemplateID string          `json:"template_id"`
	Title      string          `json:"title"`
	Content    json.RawMessage `json:"content"`
}

func (h *Handler) CreateDocument(c *fiber.Ctx) error {
	var req createReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	uid, err := uuid.Parse(req.UserID)
	if err != nil {
		return badRequest(c, "invalid user_id")
	}
	cr := usecase.CreateRequest{UserID: uid, TemplateID: req.TemplateID, Title: req.Title}
	if len(req.Content) > 0 && string(req.Content) != "null" {
		if cr.Content, err = parseContent(req.Content); err != nil {
			return h.fail(c, err)
		}
	}
	doc, err := h.processor.Create(c.UserContext(), cr)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

func (h *Handler) ListDocuments(c *fiber.Ctx) error {
	uid, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		return badRequest(c, "invalid user_id")
	}
	docs, err := h.processor.List(c.UserContext(), uid)
	if err != nil {
		return h.fail(c, err)
	}
	if docs == nil {
		docs = []domain.ResumeDocument{}
	}
	return c.JSON(docs)
}

func (h *Handler) GetDocument(c *fiber.Ctx) error {
	id, err := docID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	doc, err := h.processor.Get(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(doc)
}

type updateReq struct {
	Content json.RawMessage `json:"content"`
}

func (h *Handler) UpdateDocument(c *fiber.Ctx) error {
	id, err := docID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req updateReq
	if err := c.BodyParser(&req); err != nil || len(req.Content) == 0 {
		return badRequest(c, "invalid payload")
	}
	content, err := parseContent(req.Content)
	if err != nil {
		return h.fail(c, err)
	}
	doc, err := h.processor.Update(c.UserContext(), id, content)
	if err != nil {
		return h.fail(c, err)
	}
	h.sessions.Replace(id, doc.Content)
	return c.JSON(doc)
}

func (h *Handler) ExtractData(c *fiber.Ctx) error {
	id, err := docID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	data, err := h.processor.ExtractData(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(data)
}

func (h *Handler) Fill(c *fiber.Ctx) error {
	id, err := docID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return badRequest(c, "invalid payload")
	}
	data, err := usecase.DecodeResumeData(raw)
	if err != nil {
		return h.fail(c, err)
	}
	doc, err := h.processor.Fill(c.UserContext(), id, data)
	if err != nil {
		return h.fail(c, err)
	}
	h.sessions.Replace(id, doc.Content)
	return c.JSON(doc)
}

type switchReq struct {
	TemplateID string `json:"template_id"`
}

func (h *Handler) SwitchTemplate(c *fiber.Ctx) error {
	id, err := docID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req switchReq
	if err := c.BodyParser(&req); err != nil || req.TemplateID == "" {
		return badRequest(c, "template_id is required")
	}
	doc, err := h.processor.SwitchTemplate(c.UserContext(), id, req.TemplateID)
	if err != nil {
		return h.fail(c, err)
	}
	h.sessions.Replace(id, doc.Content)
	return c.JSON(doc)
}

type saveTemplateReq struct {
	Name string `json:"name"`
}

func (h *Handler) SaveAsTemplate(c *fiber.Ctx) error {
	id, err := docID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	var req saveTemplateReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	tpl, err := h.processor.SaveAsTemplate(c.UserContext(), id, req.Name)
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(tpl)
}

func (h *Handler) ProfileFill(c *fiber.Ctx) error {
	id, err := docID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	doc, err := h.processor.FillFromProfile(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	h.sessions.Replace(id, doc.Content)
	return c.JSON(doc)
}

// Export answers with the PDF. A live session is flushed first so the export
// reflects unsaved edits.
func (h *Handler) Export(c *fiber.Ctx) error {
	id, err := docID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}
	if err := h.sessions.Flush(c.UserContext(), id); err != nil && !errors.Is(err, usecase.ErrNoSession) {
		return h.fail(c, err)
	}
	res, err := h.processor.Export(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err)
	}
	c.Set("X-Resume-Pages", strconv.Itoa(res.Pages))
	c.Set("X-Resume-Pagination-Moves", strconv.Itoa(res.Moves))
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+id.String()+`.pdf"`)
	c.Type("pdf")
	return c.Send(res.PDF)
}

func (h *Handler) Import(c *fiber.Ctx) error {
	uid, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		return badRequest(c, "invalid user_id")
	}
	doc, err := h.processor.Import(c.UserContext(), uid, c.Query("title"), c.Body())
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

type generateReq struct {
	UserID     string `json:"user_id"`
	TemplateID string `json:"template_id"`
	Title      string `json:"title"`
	Prompt     string `json:"prompt"`
	Mode       string `json:"mode"`
	UseProfile bool   `json:"use_profile"`
}

func (h *Handler) Generate(c *fiber.Ctx) error {
	var req generateReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	uid, err := uuid.Parse(req.UserID)
	if err != nil {
		return badRequest(c, "invalid user_id")
	}
	doc, err := h.processor.Generate(c.UserContext(), usecase.GenerateRequest{
		UserID:     uid,
		TemplateID: req.TemplateID,
		Title:      req.Title,
		Prompt:     req.Prompt,
		Mode:       req.Mode,
		UseProfile: req.UseProfile,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

func (h *Handler) ListTemplates(c *fiber.Ctx) error {
	list, err := h.processor.ListTemplates(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(list)
}

func (h *Handler) GetTemplate(c *fiber.Ctx) error {
	tpl, err := h.processor.GetTemplate(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(tpl)
}
