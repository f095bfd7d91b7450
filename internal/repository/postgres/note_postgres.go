package postgres

import (
	"context"
	"database/sql"

	"voicenotes/internal/model"
	"voicenotes/internal/repository"
)

// NotePostgres is the PostgreSQL implementation of
// repository.NoteRepository.
type NotePostgres struct {
	db *sql.DB
}

// NewNotePostgres creates a new NotePostgres repository.
func NewNotePostgres(db *sql.DB) *NotePostgres {
	return &NotePostgres{db: db}
}

var _ repository.NoteRepository = (*NotePostgres)(nil)

// Insert appends one note row and returns the generated identifier.
func (r *NotePostgres) Insert(ctx context.Context, note *model.NoteRecord) (int64, error) {
	const q = `
		INSERT INTO notes (
			original_audio_path, raw_transcript_path, processed_transcript_path,
			html_card_path, title, tags, category, summary_short, location,
			recorded_at, transcription_time, llm_processing_time, structured_data
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRowContext(ctx, q,
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
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// FindByID fetches a single note by its ID.
func (r *NotePostgres) FindByID(ctx context.Context, id int64) (*model.NoteRecord, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE id = $1`, id)
	return scanNote(row)
}

// List returns all notes ordered by insertion time, newest first.
func (r *NotePostgres) List(ctx context.Context) ([]model.NoteRecord, error) {
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
