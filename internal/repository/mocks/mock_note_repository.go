package mocks

import (
	"context"

	"voicenotes/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockNoteRepository struct {
	mock.Mock
}

func (m *MockNoteRepository) Insert(ctx context.Context, note *model.NoteRecord) (int64, error) {
	args := m.Called(ctx, note)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNoteRepository) FindByID(ctx context.Context, id int64) (*model.NoteRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.NoteRecord), args.Error(1)
}

func (m *MockNoteRepository) List(ctx context.Context) ([]model.NoteRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.NoteRecord), args.Error(1)
}
