package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voicenotes/internal/config"
	"voicenotes/internal/database"
	"voicenotes/internal/database/migration"
	"voicenotes/internal/logging"
	"voicenotes/internal/otel"
	"voicenotes/internal/pipeline"
	"voicenotes/internal/render"
	"voicenotes/internal/repository"
	repoPostgres "voicenotes/internal/repository/postgres"
	repoSQLite "voicenotes/internal/repository/sqlite"
	"voicenotes/internal/storage"
	"voicenotes/internal/structure"
	"voicenotes/internal/transcribe"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		// An unresolvable backend means no file could ever succeed.
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, time.UTC)
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

	// Schema migration runs once at process start, never per file.
	if err := migration.EnsureSchema(ctx, db, migration.DialectFor(cfg.Database.Driver)); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	var repo repository.NoteRepository
	switch cfg.Database.Driver {
	case "postgres":
		repo = repoPostgres.NewNotePostgres(db)
	default:
		repo = repoSQLite.NewNoteSQLite(db)
	}

	transcriber, err := transcribe.New(cfg.Transcriber)
	if err != nil {
		log.Fatalf("failed to initialize transcriber: %v", err)
	}
	structurer, err := structure.New(cfg.Structurer)
	if err != nil {
		log.Fatalf("failed to initialize structurer: %v", err)
	}

	var archiver *storage.Archiver
	if cfg.Archive.Enabled {
		objStore, err := storage.NewMinIO(cfg.Archive)
		if err != nil {
			log.Fatalf("failed to initialize object storage: %v", err)
		}
		archiver = storage.NewArchiver(objStore, logging.New("archiver"))
	}

	if err := os.MkdirAll(cfg.InputDir, 0o755); err != nil {
		log.Fatalf("failed to create input directory: %v", err)
	}
	if err := os.MkdirAll(cfg.ProcessedDir, 0o755); err != nil {
		log.Fatalf("failed to create processed directory: %v", err)
	}

	metrics, err := pipeline.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	if cfg.MetricsPort != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
				log.Printf("metrics listener stopped: %v", err)
			}
		}()
	}

	p := pipeline.New(
		cfg.ProcessedDir,
		cfg.SettleDelay(),
		transcriber,
		structurer,
		render.New(),
		repo,
		archiver,
		logging.New("pipeline"),
		metrics,
	)

	w := pipeline.NewWatcher(cfg.InputDir, p, logging.New("watcher"))
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Fatalf("watcher stopped: %v", err)
	}
}
