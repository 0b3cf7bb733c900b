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

const poemColumns = `id, user_id, title, content, word_count, created_at, updated_at`

func scanPoem(row rowScanner) (*store.Poem, error) {
	var (
		p         store.Poem
		wordCount sql.NullString
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &wordCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.WordCount = stringPtr(wordCount)
	return &p, nil
}

func (s *Store) ListPoems(ctx context.Context, userID string) ([]store.Poem, error) {
	rows, err := s.query(ctx, `SELECT `+poemColumns+` FROM poems WHERE user_id = $1 ORDER BY updated_at DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list poems: %w", err)
	}
	defer rows.Close()

	poems := []store.Poem{}
	for rows.Next() {
		p, err := scanPoem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan poem: %w", err)
		}
		poems = append(poems, *p)
	}
	return poems, rows.Err()
}

func (s *Store) GetPoem(ctx context.Context, id, userID string) (*store.Poem, error) {
	p, err := scanPoem(s.queryRow(ctx, `SELECT `+poemColumns+` FROM poems WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get poem %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) CreatePoem(ctx context.Context, userID string, in store.PoemInput) (*store.Poem, error) {
	now := s.timestamp()
	p := &store.Poem{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     in.Title,
		Content:   in.Content,
		WordCount: in.WordCount,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.exec(ctx, `INSERT INTO poems (id, user_id, title, content, word_count, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.UserID, p.Title, p.Content, nullString(p.WordCount), p.CreatedAt, p.UpdatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to create poem for user %s: %v", userID, err)
		return nil, fmt.Errorf("create poem: %w", err)
	}
	return p, nil
}

func (s *Store) UpdatePoem(ctx context.Context, id, userID string, patch store.PoemPatch) (*store.Poem, error) {
	p, err := scanPoem(s.queryRow(ctx, `
		UPDATE poems SET
			title = COALESCE($1, title),
			content = COALESCE($2, content),
			word_count = COALESCE($3, word_count),
			updated_at = $4
		WHERE id = $5 AND user_id = $6
		RETURNING `+poemColumns,
		nullString(patch.Title), nullString(patch.Content), nullString(patch.WordCount), s.timestamp(), id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to update poem %s: %v", id, err)
		return nil, fmt.Errorf("update poem %s: %w", id, err)
	}
	return p, nil
}

func (s *Store) DeletePoem(ctx context.Context, id, userID string) (bool, error) {
	res, err := s.exec(ctx, `DELETE FROM poems WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete poem %s: %v", id, err)
		return false, fmt.Errorf("delete poem %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete poem %s: %w", id, err)
	}
	return affected > 0, nil
}
