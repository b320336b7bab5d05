package migration

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Migration represents a database migration
type Migration struct {
	Name string
	SQL  string
}

// Migrations lists the schema steps in the order they run. Each one is
// idempotent.
var Migrations = []Migration{
	{
		Name: "create_resume_documents",
		SQL: `CREATE TABLE IF NOT EXISTS resume_documents (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL,
			template_id TEXT,
			title TEXT NOT NULL DEFAULT '',
			content JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
	{
		Name: "index_resume_documents_user",
		SQL:  `CREATE INDEX IF NOT EXISTS resume_documents_user_idx ON resume_documents (user_id, updated_at DESC)`,
	},
	{
		Name: "create_resume_templates",
		SQL: `CREATE TABLE IF NOT EXISTS resume_templates (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			content JSONB NOT NULL,
			sample JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	},
}

// RunMigrations executes all necessary database migrations on startup
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("starting database migrations")

	for _, m := range Migrations {
		if _, err := pool.Exec(ctx, m.SQL); err != nil {
			slog.Error("migration failed", "name", m.Name, "error", err)
			return err
		}
		slog.Info("migration completed", "name", m.Name)
	}

	slog.Info("all migrations completed")
	return nil
}
