package domain

import (
	"time"

	"github.com/google/uuid"

	"resume-studio/internal/doctree"
	"resume-studio/internal/model"
)

type ResumeDocument struct {
	ID         uuid.UUID     `json:"id"`
	UserID     uuid.UUID     `json:"user_id"`
	TemplateID string        `json:"template_id,omitempty"`
	Title      string        `json:"title"`
	Content    *doctree.Node `json:"content"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// Template is a reusable document layout. Built-in templates use short
// slugs as IDs; saved templates use UUID strings.
type Template struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Content   *doctree.Node    `json:"content"`
	Sample    model.ResumeData `json:"sample"`
	Builtin   bool             `json:"builtin"`
	CreatedAt time.Time        `json:"created_at"`
}
