package note

import (
	"context"
	"fmt"
	"strings"

	"haven/pkg/httpx"
	"haven/socket"
	"haven/store"
)

const titleRunes = 50

// TitleFromContent is the title given to a note saved without one: the
// start of its content, with "..." when the content was cut.
func TitleFromContent(content string) string {
	r := []rune(content)
	if len(r) <= titleRunes {
		return strings.TrimSpace(content)
	}
	return strings.TrimSpace(string(r[:titleRunes])) + "..."
}

type Service struct {
	Store store.NoteStore
	Feed  socket.Publisher
}

func NewService(s store.NoteStore, feed socket.Publisher) *Service {
	if feed == nil {
		feed = socket.Discard
	}
	return &Service{Store: s, Feed: feed}
}

func (s *Service) List(ctx context.Context, userID string) ([]store.Note, error) {
	return s.Store.ListNotes(ctx, userID)
}

func (s *Service) Get(ctx context.Context, id, userID string) (*store.Note, error) {
	return s.Store.GetNote(ctx, id, userID)
}

func (s *Service) Create(ctx context.Context, userID string, in store.NoteInput) (*store.Note, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, httpx.Invalid("content is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		in.Title = TitleFromContent(in.Content)
	}

	n, err := s.Store.CreateNote(ctx, userID, in)
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	s.Feed.Publish(userID, socket.NoteCreatedType, n)
	return n, nil
}

func (s *Service) Update(ctx context.Context, id, userID string, patch store.NotePatch) (*store.Note, error) {
	if patch.Content != nil && strings.TrimSpace(*patch.Content) == "" {
		return nil, httpx.Invalid("content cannot be empty")
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		content := ""
		if patch.Content != nil {
			content = *patch.Content
		} else {
			current, err := s.Store.GetNote(ctx, id, userID)
			if err != nil {
				return nil, err
			}
			content = current.Content
		}
		title := TitleFromContent(content)
		patch.Title = &title
	}

	n, err := s.Store.UpdateNote(ctx, id, userID, patch)
	if err != nil {
		return nil, err
	}
	s.Feed.Publish(userID, socket.NoteUpdatedType, n)
	return n, nil
}

// Delete reports store.ErrNotFound when the note does not exist or belongs
// to someone else.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	existed, err := s.Store.DeleteNote(ctx, id, userID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if !existed {
		return store.ErrNotFound
	}
	s.Feed.Publish(userID, socket.NoteDeletedType, map[string]string{"id": id})
	return nil
}
