package repository

// Package repository contains data access for the notes table.
// Implementations live in subpackages (sqlite, postgres) inside this
// directory; no business logic here, strictly persistence operations.

import (
	"context"

	"voicenotes/internal/model"
)

// NoteRepository defines data access for processed notes.
//
// Insert appends exactly one row and returns the store-assigned identifier.
// Each insert is an independent, non-transactional unit; there is no update
// or delete operation for note rows.
type NoteRepository interface {
	Insert(ctx context.Context, note *model.NoteRecord) (int64, error)

	// FindByID returns a note by its ID.
	FindByID(ctx context.Context, id int64) (*model.NoteRecord, error)

	// List returns all notes, newest first.
	List(ctx context.Context) ([]model.NoteRecord, error)
}
