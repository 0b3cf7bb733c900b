package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"haven/middleware"
	"haven/router"
	"haven/socket"
	"haven/store"
	"haven/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "client-secret"

func newServer(t *testing.T, hub *socket.Hub) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(router.Setup(router.Deps{Store: memory.New(), Hub: hub, JWTSecret: secret}))
	t.Cleanup(server.Close)
	return server
}

func newClient(t *testing.T, baseURL, userID string) *Client {
	t.Helper()
	tok, err := middleware.IssueToken(middleware.Identity{UserID: userID, FirstName: "Test"}, []byte(secret), time.Hour)
	require.NoError(t, err)
	return New(baseURL, tok)
}

func strPtr(s string) *string { return &s }

func TestClientNotesAndPoems(t *testing.T) {
	ctx := context.Background()
	c := newClient(t, newServer(t, nil).URL, "alice")

	me, err := c.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.ID)
	assert.Equal(t, "Test", me.FirstName)

	n, err := c.CreateNote(ctx, store.NoteInput{Title: "First", Content: "hello"})
	require.NoError(t, err)
	n, err = c.UpdateNote(ctx, n.ID, store.NotePatch{Title: strPtr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", n.Title)
	assert.Equal(t, "hello", n.Content)

	got, err := c.GetNote(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)

	notes, err := c.ListNotes(ctx)
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	require.NoError(t, c.DeleteNote(ctx, n.ID))
	_, err = c.GetNote(ctx, n.ID)
	assert.True(t, IsNotFound(err))

	p, err := c.CreatePoem(ctx, store.PoemInput{Title: "Sea", Content: "waves fold over waves"})
	require.NoError(t, err)
	require.NotNil(t, p.WordCount)
	assert.Equal(t, "4", *p.WordCount)

	p, err = c.UpdatePoem(ctx, p.ID, store.PoemPatch{Content: strPtr("still water")})
	require.NoError(t, err)
	assert.Equal(t, "2", *p.WordCount)

	got2, err := c.GetPoem(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "still water", got2.Content)

	poems, err := c.ListPoems(ctx)
	require.NoError(t, err)
	assert.Len(t, poems, 1)
	require.NoError(t, c.DeletePoem(ctx, p.ID))
}

func TestClientChat(t *testing.T) {
	ctx := context.Background()
	c := newClient(t, newServer(t, nil).URL, "alice")

	ex, err := c.SendMessage(ctx, "I feel so alone today")
	require.NoError(t, err)
	assert.True(t, ex.UserMessage.IsUser())
	require.NotNil(t, ex.BotMessage)
	assert.False(t, ex.BotMessage.IsUser())
	assert.Contains(t, ex.BotMessage.Message, "You are not alone")

	history, err := c.ChatHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ex.UserMessage.ID, history[0].ID)

	require.NoError(t, c.ClearChat(ctx))
	history, err = c.ChatHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	server := newServer(t, nil)

	_, err := New(server.URL, "bogus").ListNotes(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Status)
	assert.Equal(t, "Unauthorized", apiErr.Message)

	c := newClient(t, server.URL, "alice")
	_, err = c.CreateNote(ctx, store.NoteInput{Title: "no body"})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
	assert.Equal(t, "content is required", apiErr.Message)
}

func TestClientSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := socket.NewHub()
	go hub.Run(ctx)

	c := newClient(t, newServer(t, hub).URL, "alice")
	events, err := c.Subscribe(ctx)
	require.NoError(t, err)

	next := func() socket.Event {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "feed closed early")
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("no live event")
		}
		return socket.Event{}
	}
	assert.Equal(t, socket.ConnectedType, next().Type)

	_, err = c.SendMessage(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, socket.ChatMessageType, next().Type)
	assert.Equal(t, socket.ChatMessageType, next().Type)

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-events:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
