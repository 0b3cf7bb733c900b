// Package storetest holds the behavioural suite every store.Store backing
// must pass.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"haven/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Factory builds an empty store that takes its timestamps from now.
type Factory func(t *testing.T, now func() time.Time) store.Store

const (
	alice = "user-alice"
	bob   = "user-bob"
)

func setup(t *testing.T, newStore Factory) (store.Store, *Clock) {
	t.Helper()
	clock := NewClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	s := newStore(t, clock.Now)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	for _, id := range []string{alice, bob} {
		_, err := s.UpsertUser(ctx, store.User{ID: id, Email: id + "@example.com"})
		require.NoError(t, err)
	}
	return s, clock
}

func strPtr(s string) *string { return &s }

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore) })
	t.Run("Notes", func(t *testing.T) { testNotes(t, newStore) })
	t.Run("NotesOwnership", func(t *testing.T) { testNotesOwnership(t, newStore) })
	t.Run("Poems", func(t *testing.T) { testPoems(t, newStore) })
	t.Run("PoemsOwnership", func(t *testing.T) { testPoemsOwnership(t, newStore) })
	t.Run("ListTies", func(t *testing.T) { testListTies(t, newStore) })
	t.Run("Chat", func(t *testing.T) { testChat(t, newStore) })
}

func testUsers(t *testing.T, newStore Factory) {
	s, clock := setup(t, newStore)
	ctx := context.Background()

	first, err := s.GetUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, alice+"@example.com", first.Email)

	clock.Advance(time.Minute)
	updated, err := s.UpsertUser(ctx, store.User{ID: alice, Email: "new@example.com", FirstName: "Alice", LastName: "Liddell"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, "Alice", updated.FirstName)
	assert.True(t, updated.CreatedAt.Equal(first.CreatedAt), "created_at must survive an upsert")
	assert.True(t, updated.UpdatedAt.After(first.UpdatedAt))

	_, err = s.GetUser(ctx, "nobody")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testNotes(t *testing.T, newStore Factory) {
	s, clock := setup(t, newStore)
	ctx := context.Background()

	empty, err := s.ListNotes(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first, err := s.CreateNote(ctx, alice, store.NoteInput{Title: "Morning", Content: "Coffee and rain."})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, alice, first.UserID)
	assert.True(t, first.CreatedAt.Equal(first.UpdatedAt))

	clock.Advance(time.Second)
	second, err := s.CreateNote(ctx, alice, store.NoteInput{Title: "Evening", Content: "Quiet walk."})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	notes, err := s.ListNotes(ctx, alice)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, second.ID, notes[0].ID, "newest note is listed first")

	clock.Advance(time.Second)
	edited, err := s.UpdateNote(ctx, first.ID, alice, store.NotePatch{Content: strPtr("Coffee, rain, and a long book.")})
	require.NoError(t, err)
	assert.Equal(t, "Morning", edited.Title, "untouched fields are kept")
	assert.Equal(t, "Coffee, rain, and a long book.", edited.Content)
	assert.True(t, edited.UpdatedAt.After(first.UpdatedAt))
	assert.True(t, edited.CreatedAt.Equal(first.CreatedAt))

	notes, err = s.ListNotes(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, first.ID, notes[0].ID, "edited note moves to the top")

	got, err := s.GetNote(ctx, first.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, edited.Content, got.Content)

	deleted, err := s.DeleteNote(ctx, first.ID, alice)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = s.GetNote(ctx, first.ID, alice)
	assert.ErrorIs(t, err, store.ErrNotFound)

	deleted, err = s.DeleteNote(ctx, first.ID, alice)
	require.NoError(t, err)
	assert.False(t, deleted, "second delete reports absence")

	deleted, err = s.DeleteNote(ctx, "does-not-exist", alice)
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = s.UpdateNote(ctx, "does-not-exist", alice, store.NotePatch{Title: strPtr("x")})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// testListTies edits two entries at the same instant. Equal updatedAt falls
// back to the newer createdAt, whichever was edited last.
func testListTies(t *testing.T, newStore Factory) {
	s, clock := setup(t, newStore)
	ctx := context.Background()

	older, err := s.CreateNote(ctx, alice, store.NoteInput{Title: "Older", Content: "a"})
	require.NoError(t, err)
	clock.Advance(time.Second)
	newer, err := s.CreateNote(ctx, alice, store.NoteInput{Title: "Newer", Content: "b"})
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = s.UpdateNote(ctx, newer.ID, alice, store.NotePatch{Content: strPtr("b2")})
	require.NoError(t, err)
	_, err = s.UpdateNote(ctx, older.ID, alice, store.NotePatch{Content: strPtr("a2")})
	require.NoError(t, err)

	notes, err := s.ListNotes(ctx, alice)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, []string{newer.ID, older.ID}, []string{notes[0].ID, notes[1].ID})

	olderPoem, err := s.CreatePoem(ctx, alice, store.PoemInput{Title: "Older", Content: "a"})
	require.NoError(t, err)
	clock.Advance(time.Second)
	newerPoem, err := s.CreatePoem(ctx, alice, store.PoemInput{Title: "Newer", Content: "b"})
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = s.UpdatePoem(ctx, newerPoem.ID, alice, store.PoemPatch{Title: strPtr("Newer 2")})
	require.NoError(t, err)
	_, err = s.UpdatePoem(ctx, olderPoem.ID, alice, store.PoemPatch{Title: strPtr("Older 2")})
	require.NoError(t, err)

	poems, err := s.ListPoems(ctx, alice)
	require.NoError(t, err)
	require.Len(t, poems, 2)
	assert.Equal(t, []string{newerPoem.ID, olderPoem.ID}, []string{poems[0].ID, poems[1].ID})
}

func testNotesOwnership(t *testing.T, newStore Factory) {
	s, _ := setup(t, newStore)
	ctx := context.Background()

	note, err := s.CreateNote(ctx, alice, store.NoteInput{Title: "Private", Content: "Only mine."})
	require.NoError(t, err)

	_, err = s.GetNote(ctx, note.ID, bob)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.UpdateNote(ctx, note.ID, bob, store.NotePatch{Title: strPtr("Stolen")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	deleted, err := s.DeleteNote(ctx, note.ID, bob)
	require.NoError(t, err)
	assert.False(t, deleted)

	bobs, err := s.ListNotes(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, bobs)

	got, err := s.GetNote(ctx, note.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, "Private", got.Title, "foreign update must not change the row")
}

func testPoems(t *testing.T, newStore Factory) {
	s, clock := setup(t, newStore)
	ctx := context.Background()

	haiku, err := s.CreatePoem(ctx, alice, store.PoemInput{Title: "Haiku", Content: "old pond frog leaps in", WordCount: strPtr("5")})
	require.NoError(t, err)
	require.NotNil(t, haiku.WordCount)
	assert.Equal(t, "5", *haiku.WordCount)

	clock.Advance(time.Second)
	untitled, err := s.CreatePoem(ctx, alice, store.PoemInput{Title: "Draft", Content: "..."})
	require.NoError(t, err)
	assert.Nil(t, untitled.WordCount)

	poems, err := s.ListPoems(ctx, alice)
	require.NoError(t, err)
	require.Len(t, poems, 2)
	assert.Equal(t, untitled.ID, poems[0].ID)

	clock.Advance(time.Second)
	edited, err := s.UpdatePoem(ctx, haiku.ID, alice, store.PoemPatch{Title: strPtr("Basho")})
	require.NoError(t, err)
	assert.Equal(t, "Basho", edited.Title)
	require.NotNil(t, edited.WordCount)
	assert.Equal(t, "5", *edited.WordCount, "word count kept when not patched")

	edited, err = s.UpdatePoem(ctx, haiku.ID, alice, store.PoemPatch{Content: strPtr("a b c"), WordCount: strPtr("3")})
	require.NoError(t, err)
	assert.Equal(t, "3", *edited.WordCount)

	poems, err = s.ListPoems(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, haiku.ID, poems[0].ID)

	deleted, err := s.DeletePoem(ctx, haiku.ID, alice)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeletePoem(ctx, haiku.ID, alice)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func testPoemsOwnership(t *testing.T, newStore Factory) {
	s, _ := setup(t, newStore)
	ctx := context.Background()

	poem, err := s.CreatePoem(ctx, alice, store.PoemInput{Title: "Mine", Content: "words"})
	require.NoError(t, err)

	_, err = s.GetPoem(ctx, poem.ID, bob)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.UpdatePoem(ctx, poem.ID, bob, store.PoemPatch{Content: strPtr("overwritten")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	deleted, err := s.DeletePoem(ctx, poem.ID, bob)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err := s.GetPoem(ctx, poem.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, "words", got.Content)
}

func testChat(t *testing.T, newStore Factory) {
	s, clock := setup(t, newStore)
	ctx := context.Background()

	hello, err := s.CreateChatMessage(ctx, alice, store.ChatInput{Message: "hello", Author: store.AuthorUser})
	require.NoError(t, err)
	assert.True(t, hello.IsUser())

	// Same timestamp: insertion order must still hold.
	reply, err := s.CreateChatMessage(ctx, alice, store.ChatInput{Message: "hi there", Author: store.AuthorBot})
	require.NoError(t, err)
	assert.False(t, reply.IsUser())

	clock.Advance(time.Second)
	_, err = s.CreateChatMessage(ctx, alice, store.ChatInput{Message: "how are you", Author: store.AuthorUser})
	require.NoError(t, err)

	_, err = s.CreateChatMessage(ctx, bob, store.ChatInput{Message: "bob here", Author: store.AuthorUser})
	require.NoError(t, err)

	msgs, err := s.ListChatMessages(ctx, alice)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"hello", "hi there", "how are you"}, []string{msgs[0].Message, msgs[1].Message, msgs[2].Message})
	assert.Equal(t, store.AuthorBot, msgs[1].Author)

	require.NoError(t, s.ClearChatHistory(ctx, alice))
	msgs, err = s.ListChatMessages(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, s.ClearChatHistory(ctx, alice), "clearing an empty history is fine")

	bobs, err := s.ListChatMessages(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, bobs, 1, "other users keep their history")
}
