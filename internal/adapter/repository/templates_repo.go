package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"resume-studio/internal/doctree"
	"resume-studio/internal/domain"
	"resume-studio/internal/model"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

//go:embed templates/*.json
var builtinFS embed.FS

// TemplatesRepo serves the embedded built-in templates plus templates saved
// by users in resume_templates (or in memory when the pool is nil).
type TemplatesRepo struct {
	pool    *pgxpool.Pool
	builtin map[string]domain.Template

	mu  sync.RWMutex
	mem map[string]domain.Template
}

func NewTemplatesRepo(pool *pgxpool.Pool) (*TemplatesRepo, error) {
	builtin, err := loadBuiltinTemplates()
	if err != nil {
		return nil, err
	}
	return &TemplatesRepo{pool: pool, builtin: builtin, mem: map[string]domain.Template{}}, nil
}

func loadBuiltinTemplates() (map[string]domain.Template, error) {
	entries, err := builtinFS.ReadDir("templates")
	if err != nil {
		return nil, err
	}
	out := make(map[string]domain.Template, len(entries))
	for _, e := range entries {
		raw, err := builtinFS.ReadFile("templates/" + e.Name())
		if err != nil {
			return nil, err
		}
		var t domain.Template
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, fmt.Errorf("builtin template %s: %w", e.Name(), err)
		}
		if err := doctree.CheckShape(t.Content); err != nil {
			return nil, fmt.Errorf("builtin template %s: %w", e.Name(), err)
		}
		t.Builtin = true
		out[t.ID] = t
	}
	return out, nil
}

func (r *TemplatesRepo) Get(ctx context.Context, id string) (*domain.Template, error) {
	if t, ok := r.builtin[id]; ok {
		t.Content = doctree.Clone(t.Content)
		return &t, nil
	}
	if r.pool == nil {
		r.mu.RLock()
		t, ok := r.mem[id]
		r.mu.RUnlock()
		if !ok {
			return nil, ErrNotFound
		}
		t.Content = doctree.Clone(t.Content)
		return &t, nil
	}

	var (
		t               domain.Template
		content, sample []byte
	)
	err := r.pool.QueryRow(ctx, `SELECT id::text, name, content, sample, created_at FROM resume_templates WHERE id::text = $1`, id).
		Scan(&t.ID, &t.Name, &content, &sample, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if t.Content, err = doctree.Parse(content); err != nil {
		return nil, err
	}
	if len(sample) > 0 {
		if err := json.Unmarshal(sample, &t.Sample); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// List returns built-in templates first, then saved ones by name. Content is
// omitted.
func (r *TemplatesRepo) List(ctx context.Context) ([]domain.Template, error) {
	var builtin, saved []domain.Template
	for _, t := range r.builtin {
		t.Content = nil
		builtin = append(builtin, t)
	}

	if r.pool == nil {
		r.mu.RLock()
		for _, t := range r.mem {
			t.Content = nil
			saved = append(saved, t)
		}
		r.mu.RUnlock()
	} else {
		rows, err := r.pool.Query(ctx, `SELECT id::text, name, created_at FROM resume_templates`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var t domain.Template
			if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
				return nil, err
			}
			saved = append(saved, t)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}

	sort.Slice(builtin, func(i, j int) bool { return builtin[i].Name < builtin[j].Name })
	sort.Slice(saved, func(i, j int) bool { return saved[i].Name < saved[j].Name })
	return append(builtin, saved...), nil
}

// Save stores a user template. Built-in IDs are reserved.
func (r *TemplatesRepo) Save(ctx context.Context, t *domain.Template) error {
	if _, ok := r.builtin[t.ID]; ok {
		return fmt.Errorf("template id %q is reserved", t.ID)
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if r.pool == nil {
		r.mu.Lock()
		cp := *t
		cp.Content = doctree.Clone(t.Content)
		r.mem[t.ID] = cp
		r.mu.Unlock()
		return nil
	}

	content, err := doctree.Marshal(t.Content)
	if err != nil {
		return err
	}
	sample, err := json.Marshal(sampleOrEmpty(t.Sample))
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO resume_templates (id, name, content, sample, created_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, content = EXCLUDED.content, sample = EXCLUDED.sample`,
		t.ID, t.Name, content, sample, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("save template %s: %w", t.ID, err)
	}
	return nil
}

func sampleOrEmpty(d model.ResumeData) model.ResumeData {
	if d.Fields == nil && d.Sections == nil {
		return model.NewResumeData()
	}
	return d
}
