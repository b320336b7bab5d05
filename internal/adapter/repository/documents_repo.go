package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"resume-studio/internal/doctree"
	"resume-studio/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ErrNotFound is returned when a document or template does not exist.
var ErrNotFound = errors.New("not found")

// DocumentsRepo stores resume documents in resume_documents. With a nil pool
// it keeps them in memory.
type DocumentsRepo struct {
	pool *pgxpool.Pool

	mu  sync.RWMutex
	mem map[uuid.UUID]domain.ResumeDocument
}

func NewDocumentsRepo(pool *pgxpool.Pool) *DocumentsRepo {
	return &DocumentsRepo{pool: pool, mem: map[uuid.UUID]domain.ResumeDocument{}}
}

func (r *DocumentsRepo) Save(ctx context.Context, d *domain.ResumeDocument) error {
	if r.pool == nil {
		r.mu.Lock()
		cp := *d
		cp.Content = doctree.Clone(d.Content)
		r.mem[d.ID] = cp
		r.mu.Unlock()
		return nil
	}

	content, err := doctree.Marshal(d.Content)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO resume_documents (id, user_id, template_id, title, content, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET template_id = EXCLUDED.template_id, title = EXCLUDED.title, content = EXCLUDED.content, updated_at = EXCLUDED.updated_at`,
		d.ID, d.UserID, d.TemplateID, d.Title, content, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save document %s: %w", d.ID, err)
	}
	return nil
}

func (r *DocumentsRepo) Get(ctx context.Context, id uuid.UUID) (*domain.ResumeDocument, error) {
	if r.pool == nil {
		r.mu.RLock()
		d, ok := r.mem[id]
		r.mu.RUnlock()
		if !ok {
			return nil, ErrNotFound
		}
		d.Content = doctree.Clone(d.Content)
		return &d, nil
	}

	row := r.pool.QueryRow(ctx, `SELECT id::text, user_id::text, template_id, title, content, created_at, updated_at
		FROM resume_documents WHERE id = $1`, id)
	d, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}

// ListByUser returns a user's documents, most recently updated first.
func (r *DocumentsRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.ResumeDocument, error) {
	if r.pool == nil {
		r.mu.RLock()
		var out []domain.ResumeDocument
		for _, d := range r.mem {
			if d.UserID == userID {
				d.Content = doctree.Clone(d.Content)
				out = append(out, d)
			}
		}
		r.mu.RUnlock()
		sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
		return out, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT id::text, user_id::text, template_id, title, content, created_at, updated_at
		FROM resume_documents WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ResumeDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func scanDocument(row pgx.Row) (*domain.ResumeDocument, error) {
	var (
		d          domain.ResumeDocument
		id, userID string
		templateID *string
		raw        []byte
	)
	if err := row.Scan(&id, &userID, &templateID, &d.Title, &raw, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if d.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if d.UserID, err = uuid.Parse(userID); err != nil {
		return nil, err
	}
	if templateID != nil {
		d.TemplateID = *templateID
	}
	if d.Content, err = doctree.Parse(raw); err != nil {
		return nil, err
	}
	return &d, nil
}
