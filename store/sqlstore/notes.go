package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"haven/pkg/logger"
	"haven/store"

	"github.com/google/uuid"
)

const noteColumns = `id, user_id, title, content, created_at, updated_at`

func scanNote(row rowScanner) (*store.Note, error) {
	var n store.Note
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}

func (s *Store) ListNotes(ctx context.Context, userID string) ([]store.Note, error) {
	rows, err := s.query(ctx, `SELECT `+noteColumns+` FROM notes WHERE user_id = $1 ORDER BY updated_at DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []store.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

func (s *Store) GetNote(ctx context.Context, id, userID string) (*store.Note, error) {
	n, err := scanNote(s.queryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note %s: %w", id, err)
	}
	return n, nil
}

func (s *Store) CreateNote(ctx context.Context, userID string, in store.NoteInput) (*store.Note, error) {
	now := s.timestamp()
	n := &store.Note{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     in.Title,
		Content:   in.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.exec(ctx, `INSERT INTO notes (id, user_id, title, content, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, n.UserID, n.Title, n.Content, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create note for user %s: %v", userID, err)
		return nil, fmt.Errorf("create note: %w", err)
	}
	return n, nil
}

func (s *Store) UpdateNote(ctx context.Context, id, userID string, patch store.NotePatch) (*store.Note, error) {
	n, err := scanNote(s.queryRow(ctx, `
		UPDATE notes SET title = COALESCE($1, title), content = COALESCE($2, content), updated_at = $3
		WHERE id = $4 AND user_id = $5
		RETURNING `+noteColumns,
		nullString(patch.Title), nullString(patch.Content), s.timestamp(), id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to update note %s: %v", id, err)
		return nil, fmt.Errorf("update note %s: %w", id, err)
	}
	return n, nil
}

func (s *Store) DeleteNote(ctx context.Context, id, userID string) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM notes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete note %s: %v", id, err)
		return false, fmt.Errorf("delete note %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete note %s: %w", id, err)
	}
	return affected > 0, nil
}
