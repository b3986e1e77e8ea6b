package service

import (
	"context"
	"time"

	"papertrail-server/internal/domain"
	"papertrail-server/internal/repository"
)

// NoteService is a thin pass-through over the note repository; the access
// guard has already established the owning user by the time it runs.
type NoteService struct {
	notes repository.NoteRepository
}

func NewNoteService(notes repository.NoteRepository) *NoteService {
	return &NoteService{notes: notes}
}

func (s *NoteService) Create(ctx context.Context, userID, title, content string) (*domain.Note, error) {
	note := &domain.Note{
		UserID:    userID,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *NoteService) Get(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	return s.notes.FindByIDForUser(ctx, userID, noteID)
}

func (s *NoteService) List(ctx context.Context, userID string) ([]domain.Note, error) {
	return s.notes.ListByUser(ctx, userID)
}

func (s *NoteService) Update(ctx context.Context, userID, noteID, title, content string) (*domain.Note, error) {
	now := time.Now().UTC()
	note := &domain.Note{
		ID:        noteID,
		UserID:    userID,
		Title:     title,
		Content:   content,
		UpdatedAt: &now,
	}
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, err
	}
	return s.notes.FindByIDForUser(ctx, userID, noteID)
}

func (s *NoteService) Delete(ctx context.Context, userID, noteID string) error {
	return s.notes.DeleteForUser(ctx, userID, noteID)
}
