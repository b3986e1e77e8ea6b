package repository

import (
	"context"
	"errors"

	"papertrail-server/internal/domain"
	"papertrail-server/internal/observability"

	"gorm.io/gorm"
)

var ErrNoteNotFound = errors.New("note not found")

// NoteRepository scopes every operation to the owning user so a note id leaked
// across accounts resolves to not-found rather than another user's note.
type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	FindByIDForUser(ctx context.Context, userID, noteID string) (*domain.Note, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Note, error)
	Update(ctx context.Context, note *domain.Note) error
	DeleteForUser(ctx context.Context, userID, noteID string) error
}

type GormNoteRepository struct{ db *gorm.DB }

func NewNoteRepository(db *gorm.DB) NoteRepository { return &GormNoteRepository{db: db} }

func (r *GormNoteRepository) Create(ctx context.Context, note *domain.Note) error {
	err := r.db.WithContext(ctx).Create(note).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "note", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "note", "create", "success")
	return nil
}

func (r *GormNoteRepository) FindByIDForUser(ctx context.Context, userID, noteID string) (*domain.Note, error) {
	var n domain.Note
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, noteID).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "note", "find_by_id_for_user", "not_found")
			return nil, ErrNoteNotFound
		}
		observability.RecordRepositoryOperation(ctx, "note", "find_by_id_for_user", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "note", "find_by_id_for_user", "success")
	return &n, nil
}

func (r *GormNoteRepository) ListByUser(ctx context.Context, userID string) ([]domain.Note, error) {
	var notes []domain.Note
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&notes).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "note", "list_by_user", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "note", "list_by_user", "success")
	return notes, nil
}

func (r *GormNoteRepository) Update(ctx context.Context, note *domain.Note) error {
	res := r.db.WithContext(ctx).Model(&domain.Note{}).
		Where("user_id = ? AND id = ?", note.UserID, note.ID).
		Updates(map[string]any{"title": note.Title, "content": note.Content, "updated_at": note.UpdatedAt})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "note", "update", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "note", "update", "not_found")
		return ErrNoteNotFound
	}
	observability.RecordRepositoryOperation(ctx, "note", "update", "success")
	return nil
}

func (r *GormNoteRepository) DeleteForUser(ctx context.Context, userID, noteID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, noteID).Delete(&domain.Note{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "note", "delete_for_user", "error")
		return res.Error
	}
	if res.RowsAffected == 0 {
		observability.RecordRepositoryOperation(ctx, "note", "delete_for_user", "not_found")
		return ErrNoteNotFound
	}
	observability.RecordRepositoryOperation(ctx, "note", "delete_for_user", "success")
	return nil
}
