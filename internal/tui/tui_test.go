package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	"haven/internal/chat"
	"haven/internal/note"
	"haven/internal/poem"
	"haven/socket"
	"haven/store"
	"haven/store/memory"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI serves the UI from the real services over an in-memory store.
type fakeAPI struct {
	user  string
	notes *note.Service
	poems *poem.Service
	chat  *chat.Service
	fail  error
}

func newFakeAPI() *fakeAPI {
	s := memory.New()
	return &fakeAPI{
		user:  "alice",
		notes: note.NewService(s, nil),
		poems: poem.NewService(s, nil),
		chat:  chat.NewService(s, nil, nil),
	}
}

func (f *fakeAPI) ListNotes(ctx context.Context) ([]store.Note, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.notes.List(ctx, f.user)
}

func (f *fakeAPI) CreateNote(ctx context.Context, in store.NoteInput) (*store.Note, error) {
	return f.notes.Create(ctx, f.user, in)
}

func (f *fakeAPI) UpdateNote(ctx context.Context, id string, p store.NotePatch) (*store.Note, error) {
	return f.notes.Update(ctx, id, f.user, p)
}

func (f *fakeAPI) DeleteNote(ctx context.Context, id string) error {
	return f.notes.Delete(ctx, id, f.user)
}

func (f *fakeAPI) ListPoems(ctx context.Context) ([]store.Poem, error) {
	return f.poems.List(ctx, f.user)
}

func (f *fakeAPI) CreatePoem(ctx context.Context, in store.PoemInput) (*store.Poem, error) {
	return f.poems.Create(ctx, f.user, in)
}

func (f *fakeAPI) UpdatePoem(ctx context.Context, id string, p store.PoemPatch) (*store.Poem, error) {
	return f.poems.Update(ctx, id, f.user, p)
}

func (f *fakeAPI) DeletePoem(ctx context.Context, id string) error {
	return f.poems.Delete(ctx, id, f.user)
}

func (f *fakeAPI) ChatHistory(ctx context.Context) ([]store.ChatMessage, error) {
	return f.chat.History(ctx, f.user)
}

func (f *fakeAPI) SendMessage(ctx context.Context, message string) (*chat.Exchange, error) {
	return f.chat.Post(ctx, f.user, store.ChatInput{Message: message, Author: store.AuthorUser})
}

func (f *fakeAPI) ClearChat(ctx context.Context) error {
	return f.chat.Clear(ctx, f.user)
}

// drive runs cmd and every command it leads to, feeding the resulting
// messages back into the model the way the bubbletea runtime would.
func drive(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case nil, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			var next tea.Cmd
			m, next = m.Update(msg)
			queue = append(queue, next)
		}
	}
	return m
}

func press(t *testing.T, m tea.Model, keys ...tea.KeyMsg) tea.Model {
	t.Helper()
	for _, k := range keys {
		var cmd tea.Cmd
		m, cmd = m.Update(k)
		m = drive(t, m, cmd)
	}
	return m
}

func typed(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEsc   = tea.KeyMsg{Type: tea.KeyEsc}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyClear = tea.KeyMsg{Type: tea.KeyCtrlL}
	keyMuse  = tea.KeyMsg{Type: tea.KeyCtrlG}
)

func start(t *testing.T, api API, events <-chan socket.Event) tea.Model {
	t.Helper()
	m := newModel(context.Background(), api, nil, events)
	return drive(t, m, m.Init())
}

func TestWriteNote(t *testing.T) {
	api := newFakeAPI()
	m := start(t, api, nil)
	assert.Contains(t, m.View(), "Nothing here yet")

	m = press(t, m, typed("n"), typed("Morning"), keyTab, typed("Quiet start to the day"), keySave)

	notes, err := api.ListNotes(context.Background())
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Morning", notes[0].Title)
	assert.Equal(t, "Quiet start to the day", notes[0].Content)

	view := m.View()
	assert.Contains(t, view, "Morning")
	assert.Contains(t, view, "Saved")

	// Edit the selected note and retitle it.
	m = press(t, m, keyEnter)
	mm := m.(model)
	assert.Equal(t, notes[0].ID, mm.editingID)
	mm.title.SetValue("Evening")
	m = press(t, mm, keySave)

	notes, _ = api.ListNotes(context.Background())
	assert.Equal(t, "Evening", notes[0].Title)

	m = press(t, m, typed("d"))
	notes, _ = api.ListNotes(context.Background())
	assert.Empty(t, notes)
	assert.Contains(t, m.View(), "Deleted")
}

func TestEditorRequiresBody(t *testing.T) {
	api := newFakeAPI()
	m := start(t, api, nil)

	m = press(t, m, typed("n"), typed("Only a title"), keySave)
	assert.Contains(t, m.View(), "content is required")
	assert.Equal(t, modeEdit, m.(model).mode)

	m = press(t, m, keyEsc)
	assert.Equal(t, modeList, m.(model).mode)
	notes, _ := api.ListNotes(context.Background())
	assert.Empty(t, notes)
}

func TestUntitledEntriesAreSaved(t *testing.T) {
	api := newFakeAPI()
	m := start(t, api, nil)

	m = press(t, m, typed("n"), keyTab, typed("Long walk, clear head"), keySave)
	notes, err := api.ListNotes(context.Background())
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Long walk, clear head", notes[0].Title)
	assert.Equal(t, modeList, m.(model).mode)

	m = press(t, m, keyTab, typed("n"), keyTab, typed("a leaf lets go"), keySave)
	poems, err := api.ListPoems(context.Background())
	require.NoError(t, err)
	require.Len(t, poems, 1)
	assert.Equal(t, "Untitled Poem", poems[0].Title)
	assert.Contains(t, m.View(), "Untitled Poem")

	// Clearing the title of an existing note renames it from its content.
	m = press(t, m, keyTab, keyTab)
	require.Equal(t, tabNotes, m.(model).tab)
	m = press(t, m, keyEnter)
	mm := m.(model)
	mm.title.SetValue("")
	press(t, mm, keySave)
	notes, _ = api.ListNotes(context.Background())
	assert.Equal(t, "Long walk, clear head", notes[0].Title)
}

func TestInspirationPrompt(t *testing.T) {
	api := newFakeAPI()
	m := start(t, api, nil)

	m = press(t, m, keyTab, typed("n"))
	mm := m.(model)
	picks := []int{2, 7}
	mm.pickPrompt = func(n int) int {
		assert.Equal(t, 8, n)
		i := picks[0]
		picks = picks[1:]
		return i
	}
	assert.Contains(t, mm.View(), "ctrl+g inspire me")

	m = press(t, mm, keyMuse)
	mm = m.(model)
	assert.Equal(t, "Capture a memory that makes you smile...", mm.body.Value())
	assert.True(t, mm.focusBody)

	m = press(t, mm, keyMuse)
	assert.Equal(t,
		"Capture a memory that makes you smile...\n\nWrite about a dream you're nurturing...",
		m.(model).body.Value())
	assert.Empty(t, picks)
}

func TestInspirationIsOnlyForPoems(t *testing.T) {
	m := start(t, newFakeAPI(), nil)

	m = press(t, m, typed("n"), keyMuse)
	mm := m.(model)
	assert.Empty(t, mm.body.Value())
	assert.NotContains(t, mm.View(), "inspire me")
}

func TestRelativeDate(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	old := now.Add(-30 * 24 * time.Hour)
	tests := []struct {
		at   time.Time
		want string
	}{
		{now, "Just now"},
		{now.Add(-59 * time.Minute), "Just now"},
		{now.Add(-time.Hour), "1 hour ago"},
		{now.Add(-5 * time.Hour), "5 hours ago"},
		{now.Add(-23*time.Hour - 59*time.Minute), "23 hours ago"},
		{now.Add(-24 * time.Hour), "Yesterday"},
		{now.Add(-47 * time.Hour), "Yesterday"},
		{now.Add(-48 * time.Hour), "2 days ago"},
		{now.Add(-6 * 24 * time.Hour), "6 days ago"},
		{old, old.Local().Format("Jan 2, 2006")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relativeDate(tt.at, now), "age %s", now.Sub(tt.at))
	}
}

func TestListShowsEntryAge(t *testing.T) {
	api := newFakeAPI()
	n, err := api.CreateNote(context.Background(), store.NoteInput{Title: "Sunday", Content: "slow"})
	require.NoError(t, err)

	m := newModel(context.Background(), api, nil, nil)
	m.now = func() time.Time { return n.CreatedAt.Add(50 * time.Hour) }
	final := drive(t, m, m.Init())
	assert.Contains(t, final.View(), "2 days ago")
}

func TestWelcomeHeader(t *testing.T) {
	api := newFakeAPI()
	tests := []struct {
		user *store.User
		want string
	}{
		{&store.User{ID: "alice", FirstName: "Alice", Email: "alice@example.com"}, "Welcome back, Alice"},
		{&store.User{ID: "alice", Email: "alice@example.com"}, "Welcome back, alice@example.com"},
		{&store.User{ID: "alice"}, "Welcome back, Friend"},
		{nil, "Welcome back, Friend"},
	}
	for _, tt := range tests {
		m := newModel(context.Background(), api, tt.user, nil)
		assert.Contains(t, m.View(), tt.want)
	}
}

func TestPoemEditorShowsLiveWordCount(t *testing.T) {
	api := newFakeAPI()
	m := start(t, api, nil)

	m = press(t, m, keyTab, typed("n"), typed("Rain"), keyTab, typed("soft rain falls"))
	assert.Contains(t, m.View(), "Words: 3")

	m = press(t, m, typed(" tonight"))
	assert.Contains(t, m.View(), "Words: 4")

	m = press(t, m, keySave)
	assert.Contains(t, m.View(), "(4 words)")
}

func TestChatConsole(t *testing.T) {
	api := newFakeAPI()
	m := start(t, api, nil)

	m = press(t, m, keyTab, keyTab)
	require.Equal(t, tabChat, m.(model).tab)

	m = press(t, m, typed("I feel so alone today"), keyEnter)
	mm := m.(model)
	require.Len(t, mm.chat, 2)
	assert.True(t, mm.chat[0].IsUser())
	assert.False(t, mm.chat[1].IsUser())
	assert.Contains(t, m.View(), "You are not alone")
	assert.Empty(t, mm.chatInput.Value())

	// Blank input is not sent.
	m = press(t, m, keyEnter)
	assert.Len(t, m.(model).chat, 2)

	m = press(t, m, keyClear)
	assert.Empty(t, m.(model).chat)
	history, _ := api.ChatHistory(context.Background())
	assert.Empty(t, history)
}

func TestAPIErrorIsShown(t *testing.T) {
	api := newFakeAPI()
	api.fail = errors.New("server unreachable")
	m := start(t, api, nil)

	assert.Contains(t, m.View(), "server unreachable")
}

func TestLiveEventsRefreshLists(t *testing.T) {
	api := newFakeAPI()
	events := make(chan socket.Event, 1)
	m := newModel(context.Background(), api, nil, events)

	// Another window adds a note; the feed then closes.
	_, err := api.CreateNote(context.Background(), store.NoteInput{Title: "From the web", Content: "hi"})
	require.NoError(t, err)
	events <- socket.Event{Type: socket.NoteCreatedType, UserID: "alice"}
	close(events)

	final := drive(t, m, m.Init())
	assert.Contains(t, final.View(), "From the web")
	assert.Nil(t, final.(model).events)
}
