package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "resume-studio/internal/adapter/http"
	repo "resume-studio/internal/adapter/repository"
	"resume-studio/internal/config"
	"resume-studio/internal/infrastructure/migration"
	"resume-studio/internal/paginate"
	"resume-studio/internal/usecase"
	"resume-studio/pkg/ai"
	infra "resume-studio/pkg/infrastructure"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v4/pgxpool"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		p, err := infra.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("database unavailable", "error", err)
			os.Exit(1)
		}
		pool = p
		defer pool.Close()
		if cfg.RunMigrations {
			if err := migration.RunMigrations(ctx, pool); err != nil {
				log.Error("migrations failed", "error", err)
				os.Exit(1)
			}
		}
	} else {
		log.Warn("DATABASE_URL not set, documents are kept in memory")
	}

	documents := repo.NewDocumentsRepo(pool)
	templates, err := repo.NewTemplatesRepo(pool)
	if err != nil {
		log.Error("load templates", "error", err)
		os.Exit(1)
	}

	renderer := infra.NewChromedpRenderer(cfg.ChromePath)
	aiClient := ai.NewClient(cfg.AIServiceURL, cfg.AILanguage)

	processor := usecase.NewProcessor(usecase.Deps{
		Documents: documents,
		Templates: templates,
		Profiles:  repo.NewProfileAggregator(pool),
		Drafter:   aiClient,
		Renderer:  renderer,
		OpenProbe: func(ctx context.Context) (usecase.HeightProbe, error) {
			tab, err := renderer.OpenTab(ctx)
			if err != nil {
				return nil, err
			}
			return tab, nil
		},
	}, usecase.Options{
		OutputDir:      cfg.OutputDir,
		RenderAttempts: cfg.RenderAttempts,
		TolerancePx:    cfg.PaginationTolerancePx,
		MaxTicks:       cfg.PaginationMaxTicks,
		Logger:         log,
	})
	sessions := usecase.NewSessionManager(documents, paginate.Options{
		Delay:       cfg.PaginationDebounce,
		TolerancePx: cfg.PaginationTolerancePx,
		Logger:      log,
	})

	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.BodyLimitBytes,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())

	httpadapter.NewHandler(processor, sessions, log).Register(app)

	go func() {
		log.Info("listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sessions.Shutdown(shutdownCtx)
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}
}
