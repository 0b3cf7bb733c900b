package chat

import (
	"context"
	"fmt"
	"strings"

	"haven/internal/comfort"
	"haven/pkg/httpx"
	"haven/pkg/logger"
	"haven/socket"
	"haven/store"
)

// Responder picks the reply to a user's message.
type Responder interface {
	Match(message string) (comfort.Rule, bool)
	Respond(message string) string
}

// Exchange is the outcome of posting a message. BotMessage is nil when the
// posted message was not written by the user.
type Exchange struct {
	UserMessage *store.ChatMessage `json:"userMessage"`
	BotMessage  *store.ChatMessage `json:"botMessage,omitempty"`
}

type Service struct {
	Store     store.ChatStore
	Responder Responder
	Feed      socket.Publisher
}

func NewService(s store.ChatStore, responder Responder, feed socket.Publisher) *Service {
	if responder == nil {
		responder = comfort.New()
	}
	if feed == nil {
		feed = socket.Discard
	}
	return &Service{Store: s, Responder: responder, Feed: feed}
}

// History returns the user's conversation, oldest first.
func (s *Service) History(ctx context.Context, userID string) ([]store.ChatMessage, error) {
	return s.Store.ListChatMessages(ctx, userID)
}

// Post stores in and, for user-authored messages, a comforting reply.
// Nothing is published to the live feed unless every write succeeded.
func (s *Service) Post(ctx context.Context, userID string, in store.ChatInput) (*Exchange, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, httpx.Invalid("message is required")
	}

	userMsg, err := s.Store.CreateChatMessage(ctx, userID, in)
	if err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}

	out := &Exchange{UserMessage: userMsg}
	if in.Author != store.AuthorUser {
		s.Feed.Publish(userID, socket.ChatMessageType, userMsg)
		return out, nil
	}

	if rule, ok := s.Responder.Match(in.Message); ok {
		logger.Sugar.Debugf("Chat reply for user %s matched rule %q", userID, rule.Name)
	}
	reply := s.Responder.Respond(in.Message)

	botMsg, err := s.Store.CreateChatMessage(ctx, userID, store.ChatInput{Message: reply, Author: store.AuthorBot})
	if err != nil {
		return nil, fmt.Errorf("store reply: %w", err)
	}
	s.Feed.Publish(userID, socket.ChatMessageType, userMsg)
	s.Feed.Publish(userID, socket.ChatMessageType, botMsg)

	out.BotMessage = botMsg
	return out, nil
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := s.Store.ClearChatHistory(ctx, userID); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	s.Feed.Publish(userID, socket.ChatClearedType, nil)
	return nil
}
