package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicenotes/internal/model"
)

func TestNotePostgres_Insert(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotePostgres(db)

	dbMock.ExpectQuery(`INSERT INTO notes`).
		WithArgs(
			"/in/memo.m4a", "/out/f/transcript.json", "/out/f/processed.md",
			"/out/f/note_card.html", "Meeting Time", "meeting", "Work", "",
			"memo", sqlmock.AnyArg(), 1.2, 0.8, `{"title":"Meeting Time"}`,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	id, err := repo.Insert(context.Background(), &model.NoteRecord{
		Title:             "Meeting Time",
		OriginalAudioPath: "/in/memo.m4a",
		RawTranscriptPath: "/out/f/transcript.json",
		ProcessedPath:     "/out/f/processed.md",
		CardPath:          "/out/f/note_card.html",
		Tags:              "meeting",
		Category:          "Work",
		Location:          "memo",
		RecordedAt:        time.Date(2024, 6, 11, 15, 0, 0, 0, time.UTC),
		TranscriptionSec:  1.2,
		ProcessingSec:     0.8,
		StructuredJSON:    `{"title":"Meeting Time"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestNotePostgres_FindByIDNotFound(t *testing.T) {
	db, dbMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewNotePostgres(db)

	dbMock.ExpectQuery(`SELECT id, title`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.FindByID(context.Background(), 99)
	assert.Error(t, err)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}
