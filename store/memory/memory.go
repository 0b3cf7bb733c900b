// Package memory is a non-persistent store.Store. Each New call returns an
// independent store; nothing is shared at package level.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"haven/store"

	"github.com/google/uuid"
)

// seq records creation order and breaks ties between equal timestamps.
type noteRow struct {
	store.Note
	seq uint64
}

type poemRow struct {
	store.Poem
	seq uint64
}

type chatRow struct {
	store.ChatMessage
	seq uint64
}

type Store struct {
	mu    sync.RWMutex
	now   func() time.Time
	seq   uint64
	users map[string]store.User
	notes map[string]*noteRow
	poems map[string]*poemRow
	chat  map[string][]chatRow // userID -> messages in insertion order
}

type Option func(*Store)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		users: make(map[string]store.User),
		notes: make(map[string]*noteRow),
		poems: make(map[string]*poemRow),
		chat:  make(map[string][]chatRow),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ store.Store = (*Store)(nil)

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }

func (s *Store) Close() error { return nil }

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func (s *Store) nextSeq() uint64 {
	s.seq++
	return s.seq
}

func (s *Store) GetUser(ctx context.Context, id string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) UpsertUser(ctx context.Context, u store.User) (*store.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.timestamp()
	if existing, ok := s.users[u.ID]; ok {
		u.CreatedAt = existing.CreatedAt
	} else {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	s.users[u.ID] = u
	return &u, nil
}

func (s *Store) ListNotes(ctx context.Context, userID string) ([]store.Note, error) {
	s.mu.RLock()
	rows := make([]*noteRow, 0)
	for _, n := range s.notes {
		if n.UserID == userID {
			rows = append(rows, n)
		}
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		return newerFirst(rows[i].UpdatedAt, rows[j].UpdatedAt, rows[i].CreatedAt, rows[j].CreatedAt, rows[i].seq, rows[j].seq)
	})
	notes := make([]store.Note, len(rows))
	for i, r := range rows {
		notes[i] = r.Note
	}
	return notes, nil
}

func (s *Store) GetNote(ctx context.Context, id, userID string) (*store.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return nil, store.ErrNotFound
	}
	note := n.Note
	return &note, nil
}

func (s *Store) CreateNote(ctx context.Context, userID string, in store.NoteInput) (*store.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.timestamp()
	row := &noteRow{
		Note: store.Note{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     in.Title,
			Content:   in.Content,
			CreatedAt: now,
			UpdatedAt: now,
		},
		seq: s.nextSeq(),
	}
	s.notes[row.ID] = row
	note := row.Note
	return &note, nil
}

func (s *Store) UpdateNote(ctx context.Context, id, userID string, patch store.NotePatch) (*store.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return nil, store.ErrNotFound
	}
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	n.UpdatedAt = s.timestamp()
	note := n.Note
	return &note, nil
}

func (s *Store) DeleteNote(ctx context.Context, id, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return false, nil
	}
	delete(s.notes, id)
	return true, nil
}

func (s *Store) ListPoems(ctx context.Context, userID string) ([]store.Poem, error) {
	s.mu.RLock()
	rows := make([]*poemRow, 0)
	for _, p := range s.poems {
		if p.UserID == userID {
			rows = append(rows, p)
		}
	}
	s.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool {
		return newerFirst(rows[i].UpdatedAt, rows[j].UpdatedAt, rows[i].CreatedAt, rows[j].CreatedAt, rows[i].seq, rows[j].seq)
	})
	poems := make([]store.Poem, len(rows))
	for i, r := range rows {
		poems[i] = copyPoem(r.Poem)
	}
	return poems, nil
}

func (s *Store) GetPoem(ctx context.Context, id, userID string) (*store.Poem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.poems[id]
	if !ok || p.UserID != userID {
		return nil, store.ErrNotFound
	}
	poem := copyPoem(p.Poem)
	return &poem, nil
}

func (s *Store) CreatePoem(ctx context.Context, userID string, in store.PoemInput) (*store.Poem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.timestamp()
	row := &poemRow{
		Poem: store.Poem{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     in.Title,
			Content:   in.Content,
			WordCount: cloneString(in.WordCount),
			CreatedAt: now,
			UpdatedAt: now,
		},
		seq: s.nextSeq(),
	}
	s.poems[row.ID] = row
	poem := copyPoem(row.Poem)
	return &poem, nil
}

func (s *Store) UpdatePoem(ctx context.Context, id, userID string, patch store.PoemPatch) (*store.Poem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.poems[id]
	if !ok || p.UserID != userID {
		return nil, store.ErrNotFound
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Content != nil {
		p.Content = *patch.Content
	}
	if patch.WordCount != nil {
		p.WordCount = cloneString(patch.WordCount)
	}
	p.UpdatedAt = s.timestamp()
	poem := copyPoem(p.Poem)
	return &poem, nil
}

func (s *Store) DeletePoem(ctx context.Context, id, userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.poems[id]
	if !ok || p.UserID != userID {
		return false, nil
	}
	delete(s.poems, id)
	return true, nil
}

func (s *Store) ListChatMessages(ctx context.Context, userID string) ([]store.ChatMessage, error) {
	s.mu.RLock()
	rows := append([]chatRow(nil), s.chat[userID]...)
	s.mu.RUnlock()

	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		}
		return rows[i].seq < rows[j].seq
	})
	msgs := make([]store.ChatMessage, len(rows))
	for i, r := range rows {
		msgs[i] = r.ChatMessage
	}
	return msgs, nil
}

func (s *Store) CreateChatMessage(ctx context.Context, userID string, in store.ChatInput) (*store.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := chatRow{
		ChatMessage: store.ChatMessage{
			ID:        uuid.NewString(),
			UserID:    userID,
			Message:   in.Message,
			Author:    in.Author,
			CreatedAt: s.timestamp(),
		},
		seq: s.nextSeq(),
	}
	s.chat[userID] = append(s.chat[userID], row)
	msg := row.ChatMessage
	return &msg, nil
}

func (s *Store) ClearChatHistory(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.chat, userID)
	return nil
}

// newerFirst orders by updatedAt, then createdAt, both descending, like the
// SQL stores do. Creation order settles the rest.
func newerFirst(updatedA, updatedB, createdA, createdB time.Time, seqA, seqB uint64) bool {
	if !updatedA.Equal(updatedB) {
		return updatedA.After(updatedB)
	}
	if !createdA.Equal(createdB) {
		return createdA.After(createdB)
	}
	return seqA > seqB
}

func copyPoem(p store.Poem) store.Poem {
	p.WordCount = cloneString(p.WordCount)
	return p
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
