package sqlstore

import (
	"context"
	"fmt"

	"haven/pkg/logger"
	"haven/store"

	"github.com/google/uuid"
)

func (s *Store) ListChatMessages(ctx context.Context, userID string) ([]store.ChatMessage, error) {
	rows, err := s.query(ctx, `SELECT id, user_id, message, author, created_at FROM chat_messages WHERE user_id = $1 ORDER BY `+s.dialect.chatOrder, userID)
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	defer rows.Close()

	msgs := []store.ChatMessage{}
	for rows.Next() {
		var (
			m      store.ChatMessage
			author string
		)
		if err := rows.Scan(&m.ID, &m.UserID, &m.Message, &author, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		if m.Author, err = store.ParseAuthor(author); err != nil {
			return nil, fmt.Errorf("chat message %s: %w", m.ID, err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *Store) CreateChatMessage(ctx context.Context, userID string, in store.ChatInput) (*store.ChatMessage, error) {
	m := &store.ChatMessage{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   in.Message,
		Author:    in.Author,
		CreatedAt: s.timestamp(),
	}
	_, err := s.exec(ctx, `INSERT INTO chat_messages (id, user_id, message, author, created_at) VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.UserID, m.Message, m.Author.String(), m.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to store chat message for user %s: %v", userID, err)
		return nil, fmt.Errorf("create chat message: %w", err)
	}
	return m, nil
}

func (s *Store) ClearChatHistory(ctx context.Context, userID string) error {
	if _, err := s.exec(ctx, `DELETE FROM chat_messages WHERE user_id = $1`, userID); err != nil {
		logger.Sugar.Errorf("Failed to clear chat history for user %s: %v", userID, err)
		return fmt.Errorf("clear chat history: %w", err)
	}
	return nil
}
