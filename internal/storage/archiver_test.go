package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"voicenotes/internal/logging"
	"voicenotes/internal/storage"
	"voicenotes/internal/storage/mocks"
)

func TestArchiveNoteUploadsArtifacts(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "processed.md")
	card := filepath.Join(dir, "note_card.html")
	require.NoError(t, os.WriteFile(md, []byte("# Note"), 0o644))
	require.NoError(t, os.WriteFile(card, []byte("<html></html>"), 0o644))

	store := new(mocks.MockStorage)
	store.On("Put", mock.Anything, "notes/2024-06-11_Meeting_Time/processed.md", mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{Key: "notes/2024-06-11_Meeting_Time/processed.md"}, nil)
	store.On("Put", mock.Anything, "notes/2024-06-11_Meeting_Time/note_card.html", mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{Key: "notes/2024-06-11_Meeting_Time/note_card.html"}, nil)

	a := storage.NewArchiver(store, logging.NewWithWriter("test", os.Stderr))
	a.ArchiveNote(context.Background(), "2024-06-11_Meeting_Time", md, card)

	store.AssertExpectations(t)
}

func TestArchiveNoteSkipsMissingAndContinuesOnError(t *testing.T) {
	dir := t.TempDir()
	md := filepath.Join(dir, "processed.md")
	require.NoError(t, os.WriteFile(md, []byte("# Note"), 0o644))

	store := new(mocks.MockStorage)
	store.On("Put", mock.Anything, "notes/f/processed.md", mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, assertErr{})

	a := storage.NewArchiver(store, logging.NewWithWriter("test", os.Stderr))
	// Missing file produces no upload, failing upload does not panic or abort.
	a.ArchiveNote(context.Background(), "f", filepath.Join(dir, "absent.json"), md)

	store.AssertExpectations(t)
}

type assertErr struct{}

func (assertErr) Error() string { return "upload rejected" }
