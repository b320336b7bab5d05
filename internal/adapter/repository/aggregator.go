package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"resume-studio/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// queryJSON runs a SQL that returns a single json value and unmarshals it
// into dst.
func queryJSON(ctx context.Context, pool *pgxpool.Pool, dst interface{}, sql string, args ...interface{}) error {
	var raw []byte
	if err := pool.QueryRow(ctx, sql, args...).Scan(&raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// ProfileAggregator assembles a typed resume profile from the profile tables
// (profiles, experiences, education, projects, skills, certifications). With
// a nil pool it serves profiles registered through Put.
type ProfileAggregator struct {
	pool *pgxpool.Pool

	mu  sync.RWMutex
	mem map[uuid.UUID]model.Resume
}

func NewProfileAggregator(pool *pgxpool.Pool) *ProfileAggregator {
	return &ProfileAggregator{pool: pool, mem: map[uuid.UUID]model.Resume{}}
}

// Put registers an in-memory profile.
func (a *ProfileAggregator) Put(userID uuid.UUID, r model.Resume) {
	a.mu.Lock()
	a.mem[userID] = r
	a.mu.Unlock()
}

// ResumeForUser collects whatever profile data exists for userID. It is
// best-effort: a missing table or column skips that part. ErrNotFound means
// no profile row exists at all.
func (a *ProfileAggregator) ResumeForUser(ctx context.Context, userID uuid.UUID) (model.Resume, error) {
	if a.pool == nil {
		a.mu.RLock()
		r, ok := a.mem[userID]
		a.mu.RUnlock()
		if !ok {
			return model.Resume{}, ErrNotFound
		}
		return r, nil
	}

	var (
		res     model.Resume
		profile struct {
			model.Meta
			Email    string `json:"email"`
			Phone    string `json:"phone"`
			Location string `json:"location"`
			Website  string `json:"website"`
			Summary  string `json:"summary"`
		}
	)
	err := queryJSON(ctx, a.pool, &profile,
		`SELECT json_build_object('name', p.name, 'headline', p.headline, 'email', p.email, 'phone', p.phone,
			'location', p.location, 'website', p.website, 'summary', p.summary)
		FROM profiles p WHERE p.user_id = $1 LIMIT 1`, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Resume{}, ErrNotFound
	}
	if err != nil {
		return model.Resume{}, fmt.Errorf("load profile for user %s: %w", userID, err)
	}
	res.Meta = model.Meta{Name: profile.Name, Headline: profile.Headline, Contact: map[string]string{}}
	for k, v := range map[string]string{
		model.FieldEmail: profile.Email, model.FieldPhone: profile.Phone,
		model.FieldLocation: profile.Location, model.FieldWebsite: profile.Website,
	} {
		if v != "" {
			res.Meta.Contact[k] = v
		}
	}
	res.Summary = profile.Summary

	parts := []struct {
		name string
		dst  interface{}
		sql  string
	}{
		{"experiences", &res.Experience, `SELECT coalesce(json_agg(json_build_object('company', e.company, 'title', e.title,
			'period', e.period, 'bullets', e.bullets) ORDER BY e.start_date DESC), '[]') FROM experiences e WHERE e.user_id = $1`},
		{"education", &res.Education, `SELECT coalesce(json_agg(json_build_object('school', d.school, 'degree', d.degree,
			'period', d.period)), '[]') FROM education d WHERE d.user_id = $1`},
		{"projects", &res.Projects, `SELECT coalesce(json_agg(json_build_object('title', p.title, 'url', p.url,
			'stack', p.stack, 'description', p.description, 'bullets', p.bullets)), '[]') FROM projects p WHERE p.user_id = $1`},
		{"skills", &res.Skills, `SELECT coalesce(json_agg(s.name ORDER BY s.name), '[]') FROM skills s WHERE s.user_id = $1`},
		{"certifications", &res.Certifications, `SELECT coalesce(json_agg(json_build_object('name', c.name, 'issuer', c.issuer,
			'date', c.issued_on)), '[]') FROM certifications c WHERE c.user_id = $1`},
		{"publications", &res.Publications, `SELECT coalesce(json_agg(pub.title ORDER BY pub.published_at DESC), '[]')
			FROM publications pub WHERE pub.author_id = $1 OR pub.user_id = $1`},
	}
	for _, p := range parts {
		if err := queryJSON(ctx, a.pool, p.dst, p.sql, userID); err != nil {
			slog.Debug("profile part skipped", "part", p.name, "user_id", userID, "error", err)
		}
	}
	return res, nil
}
