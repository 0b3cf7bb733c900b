package poem

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"haven/pkg/httpx"
	"haven/socket"
	"haven/store"
)

// CountWords returns the number of whitespace-separated words in content,
// formatted the way poems store it.
func CountWords(content string) string {
	return strconv.Itoa(len(strings.Fields(content)))
}

// UntitledTitle names poems saved without a title.
const UntitledTitle = "Untitled Poem"

type Service struct {
	Store store.PoemStore
	Feed  socket.Publisher
}

func NewService(s store.PoemStore, feed socket.Publisher) *Service {
	if feed == nil {
		feed = socket.Discard
	}
	return &Service{Store: s, Feed: feed}
}

func (s *Service) List(ctx context.Context, userID string) ([]store.Poem, error) {
	return s.Store.ListPoems(ctx, userID)
}

func (s *Service) Get(ctx context.Context, id, userID string) (*store.Poem, error) {
	return s.Store.GetPoem(ctx, id, userID)
}

// Create stores a new poem. A missing word count is computed from the body.
func (s *Service) Create(ctx context.Context, userID string, in store.PoemInput) (*store.Poem, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, httpx.Invalid("content is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		in.Title = UntitledTitle
	}
	if in.WordCount == nil {
		wc := CountWords(in.Content)
		in.WordCount = &wc
	}

	p, err := s.Store.CreatePoem(ctx, userID, in)
	if err != nil {
		return nil, fmt.Errorf("create poem: %w", err)
	}
	s.Feed.Publish(userID, socket.PoemCreatedType, p)
	return p, nil
}

// Update applies patch. When the body changes without an explicit word
// count, the count is recomputed.
func (s *Service) Update(ctx context.Context, id, userID string, patch store.PoemPatch) (*store.Poem, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		title := UntitledTitle
		patch.Title = &title
	}
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return nil, httpx.Invalid("content cannot be empty")
	}
	if patch.Content != nil && patch.WordCount == nil {
		wc := CountWords(*patch.Content)
		patch.WordCount = &wc
	}

	p, err := s.Store.UpdatePoem(ctx, id, userID, patch)
	if err != nil {
		return nil, err
	}
	s.Feed.Publish(userID, socket.PoemUpdatedType, p)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id, userID string) error {
	existed, err := s.Store.DeletePoem(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete poem: %w", err)
	}
	if !existed {
		return store.ErrNotFound
	}
	s.Feed.Publish(userID, socket.PoemDeletedType, map[string]string{"id": id})
	return nil
}
