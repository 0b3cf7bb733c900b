package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"haven/store"
)

const userColumns = `id, email, first_name, last_name, profile_image_url, created_at, updated_at`

func scanUser(row rowScanner) (*store.User, error) {
	var u store.User
	if err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.ProfileImageURL, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*store.User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

func (s *Store) UpsertUser(ctx context.Context, u store.User) (*store.User, error) {
	now := s.timestamp()
	saved, err := scanUser(s.queryRow(ctx, `
		INSERT INTO users (id, email, first_name, last_name, profile_image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (id) DO UPDATE SET
			email = excluded.email,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			profile_image_url = excluded.profile_image_url,
			updated_at = excluded.updated_at
		RETURNING `+userColumns,
		u.ID, u.Email, u.FirstName, u.LastName, u.ProfileImageURL, now,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert user %s: %w", u.ID, err)
	}
	return saved, nil
}
