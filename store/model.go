package store

import (
	"encoding/json"
	"fmt"
	"time"
)

type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	ProfileImageURL string    `json:"profileImageUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// NotePatch carries the fields of a partial update; nil means unchanged.
type NotePatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
}

type Poem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	WordCount *string   `json:"wordCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type PoemInput struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	WordCount *string `json:"wordCount,omitempty"`
}

type PoemPatch struct {
	Title     *string `json:"title,omitempty"`
	Content   *string `json:"content,omitempty"`
	WordCount *string `json:"wordCount,omitempty"`
}

// Author says who wrote a chat message.
type Author int

const (
	AuthorUser Author = iota
	AuthorBot
)

func (a Author) String() string {
	if a == AuthorBot {
		return "bot"
	}
	return "user"
}

// ParseAuthor reads the column/wire form ("user", "bot").
func ParseAuthor(s string) (Author, error) {
	switch s {
	case "user":
		return AuthorUser, nil
	case "bot":
		return AuthorBot, nil
	}
	return AuthorUser, fmt.Errorf("unknown author %q", s)
}

type ChatMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	Author    Author    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsUser reports whether the message was written by the user.
func (m ChatMessage) IsUser() bool { return m.Author == AuthorUser }

type chatMessageJSON struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Message   string    `json:"message"`
	IsUser    bool      `json:"isUser"`
	CreatedAt time.Time `json:"createdAt"`
}

func (m ChatMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(chatMessageJSON{
		ID:        m.ID,
		UserID:    m.UserID,
		Message:   m.Message,
		IsUser:    m.IsUser(),
		CreatedAt: m.CreatedAt,
	})
}

func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	var raw chatMessageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = ChatMessage{
		ID:        raw.ID,
		UserID:    raw.UserID,
		Message:   raw.Message,
		Author:    AuthorBot,
		CreatedAt: raw.CreatedAt,
	}
	if raw.IsUser {
		m.Author = AuthorUser
	}
	return nil
}

type ChatInput struct {
	Message string
	Author  Author
}
