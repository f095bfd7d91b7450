// Package handler exposes the read-only browsing surface over processed
// notes: a JSON listing backed by the metadata store and per-note artifact
// serving from the processed directory. It never writes to either.
package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voicenotes/internal/model"
	"voicenotes/internal/render"
	"voicenotes/internal/repository"
	"voicenotes/internal/transcribe"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, repo repository.NoteRepository, processedDir string, reg *prometheus.Registry) {
	// Health endpoint: checks store connectivity only
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	if reg != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	// List all notes, newest first
	app.Get("/api/notes", func(c *fiber.Ctx) error {
		records, err := repo.List(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		summaries := make([]model.NoteSummary, 0, len(records))
		for _, rec := range records {
			summaries = append(summaries, toSummary(rec))
		}
		return c.JSON(summaries)
	})

	// Get one note record by ID
	app.Get("/api/notes/:id", func(c *fiber.Ctx) error {
		id, err := strconv.ParseInt(c.Params("id"), 10, 64)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rec, err := repo.FindByID(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "note not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(rec)
	})

	// Serve a note's HTML card from the processed directory
	app.Get("/notes/:folder/card", func(c *fiber.Ctx) error {
		folder, ok := safeFolder(c.Params("folder"))
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FOLDER", "invalid folder name")
		}
		path := filepath.Join(processedDir, folder, render.CardFileName)
		if _, err := os.Stat(path); err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "note card not found")
		}
		return c.SendFile(path)
	})

	// Serve a note's raw transcript text
	app.Get("/notes/:folder/transcript", func(c *fiber.Ctx) error {
		folder, ok := safeFolder(c.Params("folder"))
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FOLDER", "invalid folder name")
		}
		text, err := transcribe.ReadTranscript(filepath.Join(processedDir, folder))
		if err != nil {
			if os.IsNotExist(err) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "transcript not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"text": text})
	})

	// Serve a note's markdown document
	app.Get("/notes/:folder/markdown", func(c *fiber.Ctx) error {
		folder, ok := safeFolder(c.Params("folder"))
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_FOLDER", "invalid folder name")
		}
		path := filepath.Join(processedDir, folder, render.MarkdownFileName)
		if _, err := os.Stat(path); err != nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "note document not found")
		}
		c.Type("markdown")
		return c.SendFile(path)
	})
}

func toSummary(rec model.NoteRecord) model.NoteSummary {
	folder := fmt.Sprintf("note_%d", rec.ID)
	if rec.CardPath != "" {
		folder = filepath.Base(filepath.Dir(rec.CardPath))
	} else if rec.ProcessedPath != "" {
		folder = filepath.Base(filepath.Dir(rec.ProcessedPath))
	}

	// A card deleted or moved after insert must not be reported as present,
	// so existence is checked on disk rather than trusted from the row.
	hasCard := false
	if rec.CardPath != "" {
		if _, err := os.Stat(rec.CardPath); err == nil {
			hasCard = true
		}
	}

	return model.NoteSummary{
		ID:        rec.ID,
		Title:     rec.Title,
		Category:  rec.Category,
		Tags:      model.SplitTags(rec.Tags),
		Summary:   rec.Summary,
		CreatedAt: rec.CreatedAt,
		Folder:    folder,
		HasCard:   hasCard,
	}
}

// safeFolder rejects folder parameters that could escape the processed
// directory. URL decoding happens before routing, so a raw check on the
// decoded value is what matters.
func safeFolder(name string) (string, bool) {
	decoded, err := url.PathUnescape(name)
	if err != nil {
		return "", false
	}
	if decoded == "" || decoded == "." || decoded == ".." {
		return "", false
	}
	if strings.ContainsAny(decoded, "/\\") || strings.Contains(decoded, "..") {
		return "", false
	}
	return decoded, true
}
