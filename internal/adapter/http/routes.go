package http

import "github.com/gofiber/fiber/v2"

// Register mounts every route on r.
func (h *Handler) Register(r fiber.Router) {
	r.Get("/health", h.Health)

	docs := r.Group("/documents")
	docs.Get("/", h.ListDocuments)
	docs.Post("/", h.CreateDocument)
	docs.Post("/import", h.Import)
	docs.Post("/generate", h.Generate)
	docs.Get("/:id", h.GetDocument)
	docs.Put("/:id", h.UpdateDocument)
	docs.Get("/:id/data", h.ExtractData)
	docs.Post("/:id/fill", h.Fill)
	docs.Post("/:id/switch-template", h.SwitchTemplate)
	docs.Post("/:id/save-as-template", h.SaveAsTemplate)
	docs.Post("/:id/profile-fill", h.ProfileFill)
	docs.Post("/:id/export", h.Export)

	r.Get("/templates", h.ListTemplates)
	r.Get("/templates/:id", h.GetTemplate)

	s := r.Group("/sessions")
	s.Post("/:id", h.OpenSession)
	s.Get("/:id", h.SessionState)
	s.Delete("/:id", h.CloseSession)
	s.Post("/:id/transactions", h.ApplyTransaction)
	s.Put("/:id/heights", h.ReportHeights)
	s.Post("/:id/undo", h.Undo)
}
