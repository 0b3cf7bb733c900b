// Package account keeps the users table in step with the identities that
// present valid tokens.
package account

import (
	"context"
	"fmt"
	"sync"

	"haven/middleware"
	"haven/store"
)

type Service struct {
	Store store.UserStore

	mu   sync.Mutex
	seen map[string]middleware.Identity
}

func NewService(s store.UserStore) *Service {
	return &Service{Store: s, seen: make(map[string]middleware.Identity)}
}

// Ensure upserts the identity's user. It only reaches the store the first
// time an identity is seen by this process, or when its profile claims change.
func (s *Service) Ensure(ctx context.Context, id middleware.Identity) error {
	s.mu.Lock()
	prev, ok := s.seen[id.UserID]
	s.mu.Unlock()
	if ok && prev == id {
		return nil
	}

	_, err := s.Store.UpsertUser(ctx, store.User{
		ID:              id.UserID,
		Email:           id.Email,
		FirstName:       id.FirstName,
		LastName:        id.LastName,
		ProfileImageURL: id.ProfileImageURL,
	})
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", id.UserID, err)
	}

	s.mu.Lock()
	s.seen[id.UserID] = id
	s.mu.Unlock()
	return nil
}

func (s *Service) Current(ctx context.Context, userID string) (*store.User, error) {
	return s.Store.GetUser(ctx, userID)
}
