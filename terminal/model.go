package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	chatws "github.com/satriahrh/confidant/adapters/websocket"
	"github.com/satriahrh/confidant/domain"
)

const imageCommand = "/image "

// Model is the chat screen. The server owns the transcript; the model only
// renders the latest snapshot it received.
type Model struct {
	conn   frameWriter
	frames <-chan tea.Msg

	viewport viewport.Model
	textarea textarea.Model
	renderer *glamour.TermRenderer

	sessionID string
	history   []domain.Turn
	streaming bool

	image     []byte
	imageName string

	status string
	err    error

	ready  bool
	width  int
	height int
}

func NewModel(conn frameWriter, frames <-chan tea.Msg) Model {
	ta := textarea.New()
	ta.Placeholder = "How is it going today?"
	ta.CharLimit = 4000
	ta.ShowLineNumbers = false
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	return Model{
		conn:     conn,
		frames:   frames,
		textarea: ta,
		status:   "connecting...",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, waitForFrame(m.frames))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			m.submit()
			return m, nil
		case "ctrl+z":
			m.send(chatws.Action{Action: chatws.ActionUndo}, "undoing last turn")
			return m, nil
		case "ctrl+r":
			m.send(chatws.Action{Action: chatws.ActionRetry}, "retrying last turn")
			return m, nil
		}

	case frameMsg:
		m.applyFrame(chatws.Message(msg))
		return m, waitForFrame(m.frames)

	case disconnectedMsg:
		m.err = fmt.Errorf("disconnected: %w", msg.err)
		m.streaming = false
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	headerHeight := 3
	inputHeight := 4
	statusHeight := 1
	vpHeight := height - headerHeight - inputHeight - statusHeight - 1
	if vpHeight < 5 {
		vpHeight = 5
	}
	contentWidth := width - 4

	if !m.ready {
		m.viewport = viewport.New(contentWidth, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = contentWidth
		m.viewport.Height = vpHeight
	}
	m.textarea.SetWidth(contentWidth - 4)

	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(contentWidth-4))
	if err == nil {
		m.renderer = r
	}
	m.refresh()
}

func (m *Model) submit() {
	text := m.textarea.Value()

	if strings.HasPrefix(text, imageCommand) {
		m.attachImage(strings.TrimSpace(strings.TrimPrefix(text, imageCommand)))
		m.textarea.Reset()
		return
	}

	if m.streaming {
		m.status = "waiting for the current reply"
		return
	}

	action := chatws.Action{Action: chatws.ActionSubmit, Text: text, Image: m.image}
	if m.send(action, "sent") {
		m.textarea.Reset()
		m.image, m.imageName = nil, ""
	}
}

func (m *Model) attachImage(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		m.err = fmt.Errorf("reading image: %w", err)
		return
	}
	m.err = nil
	m.image = data
	m.imageName = filepath.Base(path)
	m.status = "attached " + m.imageName
}

func (m *Model) send(a chatws.Action, status string) bool {
	if m.streaming && a.Action != chatws.ActionSubmit {
		m.status = "waiting for the current reply"
		return false
	}
	if err := m.conn.WriteJSON(a); err != nil {
		m.err = fmt.Errorf("sending %s: %w", a.Action, err)
		return false
	}
	m.err = nil
	m.status = status
	return true
}

func (m *Model) applyFrame(f chatws.Message) {
	switch f.Type {
	case chatws.TypeSession:
		m.sessionID = f.SessionID
		m.status = "connected"
	case chatws.TypeTranscript:
		m.history = f.History
		m.streaming = f.Streaming
		if f.Streaming {
			m.status = "Confidant is typing..."
		} else {
			m.status = "ready"
		}
		m.refresh()
	case chatws.TypeError:
		if f.Error != nil {
			m.err = fmt.Errorf("%s: %s", f.Error.Message, f.Error.Details)
		}
	}
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return statusStyle.Render("I'm your trustworthy friend, always here and ready to chat whenever you need!")
	}

	var b strings.Builder
	for i, turn := range m.history {
		b.WriteString(userLabelStyle.Render("You"))
		b.WriteString("\n")
		b.WriteString(messageStyle.Render(turn.User))
		b.WriteString("\n\n")
		b.WriteString(assistantLabelStyle.Render("Confidant"))
		b.WriteString("\n")

		inProgress := m.streaming && i == len(m.history)-1
		b.WriteString(m.renderReply(turn.Assistant, inProgress))
		b.WriteString("\n\n")
	}
	return b.String()
}

func (m Model) renderReply(text string, inProgress bool) string {
	if inProgress || m.renderer == nil {
		return messageStyle.Render(text)
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return messageStyle.Render(text)
	}
	return strings.TrimRight(out, "\n")
}

func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := headerStyle.Render("Confidant  ·  enter send  ·  ctrl+z undo  ·  ctrl+r retry  ·  esc quit")

	status := statusStyle.Render(m.status)
	if m.imageName != "" {
		status += statusStyle.Render("  ·  image: " + m.imageName)
	}
	if m.err != nil {
		status = errorStyle.Render(m.err.Error())
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		inputStyle.Render(m.textarea.View()),
		status,
	)
}
