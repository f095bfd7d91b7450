package sqlite

import (
	"context"
	"database/sql"

	"voicenotes/internal/model"
	"voicenotes/internal/repository"
)

// NoteSQLite is the SQLite implementation of repository.NoteRepository over
// database/sql with parameterized queries.
type NoteSQLite struct {
	db *sql.DB
}

// NewNoteSQLite creates a new NoteSQLite repository.
func NewNoteSQLite(db *sql.DB) *NoteSQLite {
	return &NoteSQLite{db: db}
}

var _ repository.NoteRepository = (*NoteSQLite)(nil)

// Insert appends one note row. created_at is assigned by the store default.
func (r *NoteSQLite) Insert(ctx context.Context, note *model.NoteRecord) (int64, error) {
	const q = `
		INSERT INTO notes (
			original_audio_path, raw_transcript_path, processed_transcript_path,
			html_card_path, title, tags, category, summary_short, location,
			recorded_at, transcription_time, llm_processing_time, structured_data
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.ExecContext(ctx, q,
		note.OriginalAudioPath,
		note.RawTranscriptPath,
		note.ProcessedPath,
		note.CardPath,
		note.Title,
		note.Tags,
		note.Category,
		note.Summary,
		note.Location,
		note.RecordedAt,
		note.TranscriptionSec,
		note.ProcessingSec,
		note.StructuredJSON,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// FindByID fetches a single note by its ID.
func (r *NoteSQLite) FindByID(ctx context.Context, id int64) (*model.NoteRecord, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id)
	return scanNote(row)
}

// List returns all notes ordered by insertion time, newest first.
func (r *NoteSQLite) List(ctx context.Context) ([]model.NoteRecord, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]model.NoteRecord, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

const selectColumns = `
	SELECT id, title, original_audio_path, raw_transcript_path,
	       processed_transcript_path, html_card_path, tags, category,
	       summary_short, location, recorded_at, created_at,
	       transcription_time, llm_processing_time, structured_data
	FROM notes`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanNote tolerates nulls in every non-key column: rows predating an
// additive migration carry null in the added columns.
func scanNote(row rowScanner) (*model.NoteRecord, error) {
	var n model.NoteRecord
	var (
		title, audio, raw, processed, card      sql.NullString
		tags, category, summary, location, data sql.NullString
		recordedAt, createdAt                   sql.NullTime
		transcription, processing               sql.NullFloat64
	)

	if err := row.Scan(
		&n.ID, &title, &audio, &raw, &processed, &card, &tags, &category,
		&summary, &location, &recordedAt, &createdAt, &transcription,
		&processing, &data,
	); err != nil {
		return nil, err
	}

	n.Title = title.String
	n.OriginalAudioPath = audio.String
	n.RawTranscriptPath = raw.String
	n.ProcessedPath = processed.String
	n.CardPath = card.String
	n.Tags = tags.String
	n.Category = category.String
	n.Summary = summary.String
	n.Location = location.String
	n.RecordedAt = recordedAt.Time
	n.CreatedAt = createdAt.Time
	n.TranscriptionSec = transcription.Float64
	n.ProcessingSec = processing.Float64
	n.StructuredJSON = data.String

	return &n, nil
}
