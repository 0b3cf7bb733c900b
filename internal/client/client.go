// Package client is a typed Go client for the journal HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"haven/internal/chat"
	"haven/socket"
	"haven/store"

	"github.com/gorilla/websocket"
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("haven api: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var payload struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Message != "" {
			apiErr.Message = payload.Message
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) CurrentUser(ctx context.Context) (*store.User, error) {
	var u store.User
	if err := c.do(ctx, http.MethodGet, "/api/auth/user", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListNotes(ctx context.Context) ([]store.Note, error) {
	var notes []store.Note
	err := c.do(ctx, http.MethodGet, "/api/notes", nil, &notes)
	return notes, err
}

func (c *Client) GetNote(ctx context.Context, id string) (*store.Note, error) {
	var n store.Note
	if err := c.do(ctx, http.MethodGet, "/api/notes/"+url.PathEscape(id), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) CreateNote(ctx context.Context, in store.NoteInput) (*store.Note, error) {
	var n store.Note
	if err := c.do(ctx, http.MethodPost, "/api/notes", in, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) UpdateNote(ctx context.Context, id string, patch store.NotePatch) (*store.Note, error) {
	var n store.Note
	if err := c.do(ctx, http.MethodPatch, "/api/notes/"+url.PathEscape(id), patch, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/notes/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListPoems(ctx context.Context) ([]store.Poem, error) {
	var poems []store.Poem
	err := c.do(ctx, http.MethodGet, "/api/poems", nil, &poems)
	return poems, err
}

func (c *Client) GetPoem(ctx context.Context, id string) (*store.Poem, error) {
	var p store.Poem
	if err := c.do(ctx, http.MethodGet, "/api/poems/"+url.PathEscape(id), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) CreatePoem(ctx context.Context, in store.PoemInput) (*store.Poem, error) {
	var p store.Poem
	if err := c.do(ctx, http.MethodPost, "/api/poems", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) UpdatePoem(ctx context.Context, id string, patch store.PoemPatch) (*store.Poem, error) {
	var p store.Poem
	if err := c.do(ctx, http.MethodPatch, "/api/poems/"+url.PathEscape(id), patch, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) DeletePoem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/poems/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ChatHistory(ctx context.Context) ([]store.ChatMessage, error) {
	var msgs []store.ChatMessage
	err := c.do(ctx, http.MethodGet, "/api/chat/messages", nil, &msgs)
	return msgs, err
}

// SendMessage posts a user-authored message and returns it with the reply.
func (c *Client) SendMessage(ctx context.Context, message string) (*chat.Exchange, error) {
	body := map[string]any{"message": message, "isUser": true}
	var out chat.Exchange
	if err := c.do(ctx, http.MethodPost, "/api/chat/messages", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ClearChat(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/chat/messages", nil, nil)
}

// Subscribe opens the live feed. The returned channel is closed when ctx is
// cancelled or the connection drops.
func (c *Client) Subscribe(ctx context.Context) (<-chan socket.Event, error) {
	u, err := url.Parse(c.baseURL + "/ws")
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return nil, fmt.Errorf("dial live feed: %w", err)
	}

	events := make(chan socket.Event)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var ev socket.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}
