package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// Dialect selects the introspection queries used by the additive migration.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DialectFor maps a configured database driver name to its dialect.
func DialectFor(driver string) Dialect {
	if driver == "postgres" {
		return DialectPostgres
	}
	return DialectSQLite
}

type column struct {
	Name string
	Type string
}

// expectedColumns lists every column the current code version reads or
// writes, in schema order. New columns are appended here and picked up by the
// additive migration on the next start; existing rows get null defaults.
var expectedColumns = []column{
	{"title", "TEXT"},
	{"original_audio_path", "TEXT"},
	{"raw_transcript_path", "TEXT"},
	{"processed_transcript_path", "TEXT"},
	{"html_card_path", "TEXT"},
	{"tags", "TEXT"},
	{"category", "TEXT"},
	{"summary_short", "TEXT"},
	{"location", "TEXT"},
	{"recorded_at", "TIMESTAMP"},
	{"created_at", "TIMESTAMP"},
	{"transcription_time", "REAL"},
	{"llm_processing_time", "REAL"},
	{"structured_data", "TEXT"},
}

const createSQLite = `CREATE TABLE IF NOT EXISTS notes (
  id                        INTEGER   PRIMARY KEY AUTOINCREMENT,
  title                     TEXT,
  original_audio_path       TEXT,
  raw_transcript_path       TEXT,
  processed_transcript_path TEXT,
  html_card_path            TEXT,
  tags                      TEXT,
  category                  TEXT,
  summary_short             TEXT,
  location                  TEXT,
  recorded_at               TIMESTAMP,
  created_at                TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  transcription_time        REAL,
  llm_processing_time       REAL,
  structured_data           TEXT
);`

const createPostgres = `CREATE TABLE IF NOT EXISTS notes (
  id                        BIGSERIAL PRIMARY KEY,
  title                     TEXT,
  original_audio_path       TEXT,
  raw_transcript_path       TEXT,
  processed_transcript_path TEXT,
  html_card_path            TEXT,
  tags                      TEXT,
  category                  TEXT,
  summary_short             TEXT,
  location                  TEXT,
  recorded_at               TIMESTAMP,
  created_at                TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
  transcription_time        REAL,
  llm_processing_time       REAL,
  structured_data           TEXT
);`

// EnsureSchema creates the notes table if absent, then adds any expected
// column the existing table lacks. It is idempotent and safe to call on every
// startup; it must run once at process start, not per file.
//
// A failure to create the table is returned as an error. A failure to add one
// column is logged and the remaining columns are still attempted, so one
// rejected ALTER never blocks the rest of the migration.
func EnsureSchema(ctx context.Context, db *sql.DB, dialect Dialect) error {
	start := time.Now()

	logJSON(map[string]any{
		"component": "database",
		"event":     "schema_ensure",
		"status":    "starting",
		"dialect":   string(dialect),
	})

	create := createSQLite
	if dialect == DialectPostgres {
		create = createPostgres
	}
	if _, err := db.ExecContext(ctx, create); err != nil {
		logJSON(map[string]any{
			"component":     "database",
			"event":         "schema_create_failed",
			"status":        "error",
			"error_message": err.Error(),
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("create notes table: %w", err)
	}

	existing, err := existingColumns(ctx, db, dialect)
	if err != nil {
		return fmt.Errorf("inspect notes table: %w", err)
	}

	added := 0
	for _, col := range expectedColumns {
		if _, ok := existing[col.Name]; ok {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE notes ADD COLUMN %s %s", col.Name, col.Type)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logJSON(map[string]any{
				"component":     "database",
				"event":         "schema_add_column_failed",
				"status":        "error",
				"column":        col.Name,
				"error_message": err.Error(),
			})
			continue
		}
		added++
		logJSON(map[string]any{
			"component": "database",
			"event":     "schema_add_column",
			"status":    "success",
			"column":    col.Name,
		})
	}

	logJSON(map[string]any{
		"component":     "database",
		"event":         "schema_ensure",
		"status":        "success",
		"columns_added": added,
		"duration_ms":   time.Since(start).Milliseconds(),
	})

	return nil
}

func existingColumns(ctx context.Context, db *sql.DB, dialect Dialect) (map[string]struct{}, error) {
	cols := make(map[string]struct{})

	switch dialect {
	case DialectPostgres:
		rows, err := db.QueryContext(ctx,
			`SELECT column_name FROM information_schema.columns WHERE table_name = 'notes'`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			cols[name] = struct{}{}
		}
		return cols, rows.Err()

	default: // sqlite
		rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info('notes')`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				return nil, err
			}
			cols[name] = struct{}{}
		}
		return cols, rows.Err()
	}
}

func logJSON(data map[string]any) {
	data["ts"] = time.Now().UTC().Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
