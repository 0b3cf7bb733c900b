package tui

import (
	"context"
	"time"

	"haven/internal/chat"
	"haven/socket"
	"haven/store"

	tea "github.com/charmbracelet/bubbletea"
)

const requestTimeout = 10 * time.Second

// API is the part of the HTTP client the UI uses.
type API interface {
	ListNotes(ctx context.Context) ([]store.Note, error)
	CreateNote(ctx context.Context, in store.NoteInput) (*store.Note, error)
	UpdateNote(ctx context.Context, id string, patch store.NotePatch) (*store.Note, error)
	DeleteNote(ctx context.Context, id string) error

	ListPoems(ctx context.Context) ([]store.Poem, error)
	CreatePoem(ctx context.Context, in store.PoemInput) (*store.Poem, error)
	UpdatePoem(ctx context.Context, id string, patch store.PoemPatch) (*store.Poem, error)
	DeletePoem(ctx context.Context, id string) error

	ChatHistory(ctx context.Context) ([]store.ChatMessage, error)
	SendMessage(ctx context.Context, message string) (*chat.Exchange, error)
	ClearChat(ctx context.Context) error
}

type notesLoadedMsg []store.Note
type poemsLoadedMsg []store.Poem
type chatLoadedMsg []store.ChatMessage
type exchangeMsg struct{ ex *chat.Exchange }
type chatClearedMsg struct{}
type savedMsg struct{ tab tab }
type deletedMsg struct{ tab tab }
type liveMsg socket.Event
type feedClosedMsg struct{}
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func (m model) call(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	parent := m.ctx
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, requestTimeout)
		defer cancel()
		return fn(ctx)
	}
}

func (m model) loadNotes() tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		notes, err := m.api.ListNotes(ctx)
		if err != nil {
			return errMsg{err}
		}
		return notesLoadedMsg(notes)
	})
}

func (m model) loadPoems() tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		poems, err := m.api.ListPoems(ctx)
		if err != nil {
			return errMsg{err}
		}
		return poemsLoadedMsg(poems)
	})
}

func (m model) loadChat() tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		msgs, err := m.api.ChatHistory(ctx)
		if err != nil {
			return errMsg{err}
		}
		return chatLoadedMsg(msgs)
	})
}

// saveEntry creates or updates the entry being edited on the current tab.
func (m model) saveEntry(t tab, id, title, body string) tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		var err error
		switch {
		case t == tabNotes && id == "":
			_, err = m.api.CreateNote(ctx, store.NoteInput{Title: title, Content: body})
		case t == tabNotes:
			_, err = m.api.UpdateNote(ctx, id, store.NotePatch{Title: &title, Content: &body})
		case id == "":
			_, err = m.api.CreatePoem(ctx, store.PoemInput{Title: title, Content: body})
		default:
			_, err = m.api.UpdatePoem(ctx, id, store.PoemPatch{Title: &title, Content: &body})
		}
		if err != nil {
			return errMsg{err}
		}
		return savedMsg{tab: t}
	})
}

func (m model) deleteEntry(t tab, id string) tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		var err error
		if t == tabNotes {
			err = m.api.DeleteNote(ctx, id)
		} else {
			err = m.api.DeletePoem(ctx, id)
		}
		if err != nil {
			return errMsg{err}
		}
		return deletedMsg{tab: t}
	})
}

func (m model) sendMessage(text string) tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		ex, err := m.api.SendMessage(ctx, text)
		if err != nil {
			return errMsg{err}
		}
		return exchangeMsg{ex}
	})
}

func (m model) clearChat() tea.Cmd {
	return m.call(func(ctx context.Context) tea.Msg {
		if err := m.api.ClearChat(ctx); err != nil {
			return errMsg{err}
		}
		return chatClearedMsg{}
	})
}

func waitForEvent(events <-chan socket.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return feedClosedMsg{}
		}
		return liveMsg(ev)
	}
}
