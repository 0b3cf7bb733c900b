// Package tui is the terminal front end of the journal: a notes editor, a
// poem editor and the comfort chat console, all talking to the HTTP API.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"haven/internal/poem"
	"haven/socket"
	"haven/store"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type tab int

const (
	tabNotes tab = iota
	tabPoems
	tabChat
)

var tabNames = []string{"Notes", "Poems", "Console"}

type mode int

const (
	modeList mode = iota
	modeEdit
)

// entry is the list/editor view of a note or a poem.
type entry struct {
	ID        string
	Title     string
	Content   string
	WordCount string
	CreatedAt time.Time
}

type model struct {
	ctx    context.Context
	api    API
	events <-chan socket.Event
	name   string

	now        func() time.Time
	pickPrompt func(n int) int

	tab    tab
	mode   mode
	width  int
	height int

	entries [2][]entry
	cursor  [2]int

	editingID string
	title     textinput.Model
	body      textarea.Model
	focusBody bool

	chat      []store.ChatMessage
	chatInput textinput.Model
	sending   bool

	status string
	err    error
}

func newModel(ctx context.Context, api API, user *store.User, events <-chan socket.Event) model {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200
	title.Cursor.SetMode(cursor.CursorStatic)

	body := textarea.New()
	body.Placeholder = "Write freely..."
	body.SetWidth(72)
	body.SetHeight(12)
	body.Cursor.SetMode(cursor.CursorStatic)

	input := textinput.New()
	input.Placeholder = "How are you feeling?"
	input.CharLimit = 2000
	input.Cursor.SetMode(cursor.CursorStatic)

	return model{
		ctx:        ctx,
		api:        api,
		events:     events,
		name:       displayName(user),
		now:        time.Now,
		pickPrompt: randomPrompt,
		title:      title,
		body:       body,
		chatInput:  input,
	}
}

// Run starts the UI and blocks until the user quits. user and events may
// be nil.
func Run(ctx context.Context, api API, user *store.User, events <-chan socket.Event) error {
	p := tea.NewProgram(newModel(ctx, api, user, events), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.loadNotes(), m.loadPoems(), m.loadChat(), waitForEvent(m.events))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if msg.Width > 8 {
			m.body.SetWidth(min(msg.Width-4, 100))
		}
		return m, nil

	case notesLoadedMsg:
		m.entries[tabNotes] = make([]entry, len(msg))
		for i, n := range msg {
			m.entries[tabNotes][i] = entry{ID: n.ID, Title: n.Title, Content: n.Content, CreatedAt: n.CreatedAt}
		}
		m.clampCursor(tabNotes)
		return m, nil

	case poemsLoadedMsg:
		m.entries[tabPoems] = make([]entry, len(msg))
		for i, p := range msg {
			e := entry{ID: p.ID, Title: p.Title, Content: p.Content, CreatedAt: p.CreatedAt}
			if p.WordCount != nil {
				e.WordCount = *p.WordCount
			}
			m.entries[tabPoems][i] = e
		}
		m.clampCursor(tabPoems)
		return m, nil

	case chatLoadedMsg:
		m.chat = msg
		return m, nil

	case exchangeMsg:
		m.sending = false
		m.chat = append(m.chat, *msg.ex.UserMessage)
		if msg.ex.BotMessage != nil {
			m.chat = append(m.chat, *msg.ex.BotMessage)
		}
		return m, nil

	case chatClearedMsg:
		m.chat = nil
		m.status = "Chat history cleared"
		return m, nil

	case savedMsg:
		m.mode = modeList
		m.status = "Saved"
		m.err = nil
		return m, m.reload(msg.tab)

	case deletedMsg:
		m.status = "Deleted"
		return m, m.reload(msg.tab)

	case liveMsg:
		return m, tea.Batch(m.onLive(socket.Event(msg)), waitForEvent(m.events))

	case feedClosedMsg:
		m.events = nil
		return m, nil

	case errMsg:
		m.sending = false
		m.err = msg.err
		m.status = ""
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.tab == tabChat {
			return m.updateChat(msg)
		}
		if m.mode == modeEdit {
			return m.updateEditor(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m model) reload(t tab) tea.Cmd {
	switch t {
	case tabNotes:
		return m.loadNotes()
	case tabPoems:
		return m.loadPoems()
	}
	return m.loadChat()
}

// onLive refreshes whatever another window of the same user changed.
func (m model) onLive(ev socket.Event) tea.Cmd {
	switch ev.Type {
	case socket.NoteCreatedType, socket.NoteUpdatedType, socket.NoteDeletedType:
		return m.loadNotes()
	case socket.PoemCreatedType, socket.PoemUpdatedType, socket.PoemDeletedType:
		return m.loadPoems()
	case socket.ChatMessageType, socket.ChatClearedType:
		if m.sending {
			return nil
		}
		return m.loadChat()
	}
	return nil
}

func (m *model) clampCursor(t tab) {
	n := len(m.entries[t])
	if m.cursor[t] >= n {
		m.cursor[t] = max(n-1, 0)
	}
}

func (m model) switchTab(delta int) (tea.Model, tea.Cmd) {
	m.tab = tab((int(m.tab) + delta + len(tabNames)) % len(tabNames))
	m.err = nil
	m.status = ""
	if m.tab == tabChat {
		cmd := m.chatInput.Focus()
		return m, cmd
	}
	m.chatInput.Blur()
	return m, nil
}

func (m model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	t := m.tab
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "right", "l":
		return m.switchTab(1)
	case "shift+tab", "left", "h":
		return m.switchTab(-1)
	case "up", "k":
		if m.cursor[t] > 0 {
			m.cursor[t]--
		}
	case "down", "j":
		if m.cursor[t] < len(m.entries[t])-1 {
			m.cursor[t]++
		}
	case "r":
		m.status = "Refreshing..."
		return m, m.reload(t)
	case "n":
		return m.openEditor(entry{})
	case "enter", "e":
		if len(m.entries[t]) > 0 {
			return m.openEditor(m.entries[t][m.cursor[t]])
		}
	case "d":
		if len(m.entries[t]) > 0 {
			return m, m.deleteEntry(t, m.entries[t][m.cursor[t]].ID)
		}
	}
	return m, nil
}

func (m model) openEditor(e entry) (tea.Model, tea.Cmd) {
	m.mode = modeEdit
	m.editingID = e.ID
	m.err = nil
	m.status = ""
	m.title.SetValue(e.Title)
	m.body.SetValue(e.Content)
	m.focusBody = false
	m.body.Blur()
	cmd := m.title.Focus()
	return m, cmd
}

func (m model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeList
		m.title.Blur()
		m.body.Blur()
		return m, nil
	case "ctrl+s":
		// A blank title is named by the server.
		title, body := m.title.Value(), m.body.Value()
		if strings.TrimSpace(body) == "" {
			m.err = fmt.Errorf("content is required")
			return m, nil
		}
		return m, m.saveEntry(m.tab, m.editingID, title, body)
	case "ctrl+g":
		if m.tab != tabPoems {
			break
		}
		prompt := poemPrompts[m.pickPrompt(len(poemPrompts))]
		m.body.SetValue(withPrompt(m.body.Value(), prompt))
		m.focusBody = true
		m.title.Blur()
		cmd := m.body.Focus()
		return m, cmd
	case "tab":
		m.focusBody = !m.focusBody
		var cmd tea.Cmd
		if m.focusBody {
			m.title.Blur()
			cmd = m.body.Focus()
		} else {
			m.body.Blur()
			cmd = m.title.Focus()
		}
		return m, cmd
	}

	var cmd tea.Cmd
	if m.focusBody {
		m.body, cmd = m.body.Update(msg)
	} else {
		m.title, cmd = m.title.Update(msg)
	}
	return m, cmd
}

func (m model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		return m.switchTab(1)
	case "shift+tab":
		return m.switchTab(-1)
	case "ctrl+l":
		return m, m.clearChat()
	case "enter":
		text := strings.TrimSpace(m.chatInput.Value())
		if text == "" || m.sending {
			return m, nil
		}
		m.chatInput.Reset()
		m.sending = true
		m.err = nil
		return m, m.sendMessage(text)
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Haven"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Welcome back, " + m.name))
	b.WriteString("\n\n")

	tabs := make([]string, len(tabNames))
	for i, name := range tabNames {
		if tab(i) == m.tab {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = tabStyle.Render(name)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")

	switch {
	case m.tab == tabChat:
		b.WriteString(m.viewChat())
	case m.mode == modeEdit:
		b.WriteString(m.viewEditor())
	default:
		b.WriteString(m.viewList())
	}

	if m.err != nil {
		b.WriteString("\n" + errorStyle.Render("Error: "+m.err.Error()))
	} else if m.status != "" {
		b.WriteString("\n" + successStyle.Render(m.status))
	}
	return b.String()
}

func (m model) viewList() string {
	var b strings.Builder
	items := m.entries[m.tab]
	if len(items) == 0 {
		b.WriteString(mutedStyle.Render("    Nothing here yet. Press n to write something."))
		b.WriteString("\n")
	}
	for i, e := range items {
		line := e.Title
		if m.tab == tabPoems && e.WordCount != "" {
			line += mutedStyle.Render(fmt.Sprintf("  (%s words)", e.WordCount))
		}
		if !e.CreatedAt.IsZero() {
			line += mutedStyle.Render("  " + relativeDate(e.CreatedAt, m.now()))
		}
		if i == m.cursor[m.tab] {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(normalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ move • n new • enter edit • d delete • r refresh • tab switch • q quit"))
	return b.String()
}

func (m model) viewEditor() string {
	var b strings.Builder
	heading := "New "
	if m.editingID != "" {
		heading = "Edit "
	}
	if m.tab == tabNotes {
		heading += "note"
	} else {
		heading += "poem"
	}
	b.WriteString(heading + "\n\n")
	b.WriteString(m.title.View() + "\n\n")
	b.WriteString(m.body.View() + "\n")
	if m.tab == tabPoems {
		b.WriteString(mutedStyle.Render("Words: "+poem.CountWords(m.body.Value())) + "\n")
		b.WriteString(helpStyle.Render("tab switch field • ctrl+g inspire me • ctrl+s save • esc cancel"))
		return b.String()
	}
	b.WriteString(helpStyle.Render("tab switch field • ctrl+s save • esc cancel"))
	return b.String()
}

func (m model) viewChat() string {
	var b strings.Builder
	if len(m.chat) == 0 {
		b.WriteString(mutedStyle.Render("Share what's on your mind. I'm listening."))
		b.WriteString("\n")
	}
	for _, msg := range m.chat {
		if msg.IsUser() {
			b.WriteString(userStyle.Render("You: "))
		} else {
			b.WriteString(botStyle.Render("Haven: "))
		}
		b.WriteString(msg.Message + "\n")
	}
	if m.sending {
		b.WriteString(mutedStyle.Render("...") + "\n")
	}
	b.WriteString("\n" + m.chatInput.View() + "\n")
	b.WriteString(helpStyle.Render("enter send • ctrl+l clear history • tab switch • ctrl+c quit"))
	return b.String()
}
