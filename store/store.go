// Package store defines the journal entities and the per-user persistence
// contract shared by every backing (memory, Postgres, SQLite).
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a row does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

type UserStore interface {
	GetUser(ctx context.Context, id string) (*User, error)
	UpsertUser(ctx context.Context, u User) (*User, error)
}

type NoteStore interface {
	ListNotes(ctx context.Context, userID string) ([]Note, error)
	GetNote(ctx context.Context, id, userID string) (*Note, error)
	CreateNote(ctx context.Context, userID string, in NoteInput) (*Note, error)
	UpdateNote(ctx context.Context, id, userID string, patch NotePatch) (*Note, error)
	DeleteNote(ctx context.Context, id, userID string) (bool, error)
}

type PoemStore interface {
	ListPoems(ctx context.Context, userID string) ([]Poem, error)
	GetPoem(ctx context.Context, id, userID string) (*Poem, error)
	CreatePoem(ctx context.Context, userID string, in PoemInput) (*Poem, error)
	UpdatePoem(ctx context.Context, id, userID string, patch PoemPatch) (*Poem, error)
	DeletePoem(ctx context.Context, id, userID string) (bool, error)
}

// ChatStore keeps messages in conversational (oldest first) order.
type ChatStore interface {
	ListChatMessages(ctx context.Context, userID string) ([]ChatMessage, error)
	CreateChatMessage(ctx context.Context, userID string, in ChatInput) (*ChatMessage, error)
	ClearChatHistory(ctx context.Context, userID string) error
}

type Store interface {
	UserStore
	NoteStore
	PoemStore
	ChatStore
	Ping(ctx context.Context) error
	Close() error
}
