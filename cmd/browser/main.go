package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"voicenotes/internal/config"
	"voicenotes/internal/database"
	"voicenotes/internal/database/migration"
	handlers "voicenotes/internal/http/handler"
	"voicenotes/internal/http/middleware"
	"voicenotes/internal/otel"
	"voicenotes/internal/repository"
	repoPostgres "voicenotes/internal/repository/postgres"
	repoSQLite "voicenotes/internal/repository/sqlite"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	shutdownTracing, err := otel.Init(context.Background(), time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// The browser normally starts after the processor has migrated, but
	// running the additive migration here too keeps a standalone browser
	// usable against a fresh store.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := migration.EnsureSchema(ctx, db, migration.DialectFor(cfg.Database.Driver)); err != nil {
		cancel()
		log.Fatalf("failed to migrate schema: %v", err)
	}
	cancel()

	var repo repository.NoteRepository
	switch cfg.Database.Driver {
	case "postgres":
		repo = repoPostgres.NewNotePostgres(db)
	default:
		repo = repoSQLite.NewNoteSQLite(db)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(promMiddleware.Handler())
	app.Use(otelfiber.Middleware())

	handlers.RegisterRoutes(app, db, repo, cfg.ProcessedDir, reg)

	addr := ":" + cfg.BrowserPort

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
