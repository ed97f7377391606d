// Package tui is the interactive terminal client: ingest once, then
// ask questions and inspect the answer alongside its supporting chunks.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docqa/internal/domain"
)

// QAPort is the TUI-facing subset of a document session.
type QAPort interface {
	Answer(ctx context.Context, question string) (string, []domain.RetrievedChunk, error)
}

// Model is the Bubble Tea model for the interactive client.
type Model struct {
	session  QAPort
	input    textinput.Model
	viewport viewport.Model
	answer   string
	chunks   []domain.RetrievedChunk
	summary  string
	status   string
	cursor   int
	ready    bool
	waiting  bool
	question string
}

type answerMsg struct {
	question string
	answer   string
	chunks   []domain.RetrievedChunk
	err      error
}

// New creates a TUI model over an ingested document session.
func New(session QAPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{session: session, input: ti, viewport: vp, summary: summary, status: "Document loaded. Ask away."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 2 + 1 + qh + 1 // header+summary, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderBody())
		return m, nil
	case answerMsg:
		m.waiting = false
		if msg.err != nil {
			m.status = "Error: " + msg.err.Error()
			m.answer = ""
			m.chunks = nil
		} else {
			m.status = fmt.Sprintf("Answered %q", msg.question)
			m.answer = msg.answer
			m.chunks = msg.chunks
			m.cursor = 0
		}
		m.viewport.SetContent(m.renderBody())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" && !m.waiting {
				m.waiting = true
				m.question = q
				m.status = "Thinking..."
				session := m.session
				return m, func() tea.Msg {
					answer, chunks, err := session.Answer(context.Background(), q)
					return answerMsg{question: q, answer: answer, chunks: chunks, err: err}
				}
			}
		case "down":
			if len(m.chunks) > 0 {
				m.cursor = (m.cursor + 1) % len(m.chunks)
				m.viewport.SetContent(m.renderBody())
				return m, nil
			}
		case "up":
			if len(m.chunks) > 0 {
				m.cursor = (m.cursor - 1 + len(m.chunks)) % len(m.chunks)
				m.viewport.SetContent(m.renderBody())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the layout: header, summary, answer with supporting
// chunk, input and status line.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Document Q&A")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	body := answerBoxStyle.Render(m.viewport.View())
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + summary + "\n" + body + "\n" + input + "\n" + status
}

func (m Model) renderBody() string {
	if m.answer == "" {
		return "No answer yet."
	}
	out := answerStyle.Render("Answer") + "\n" + m.answer
	if len(m.chunks) > 0 {
		c := m.chunks[m.cursor]
		title := fmt.Sprintf("Supporting chunk %d/%d  id=%d  score=%.3f", m.cursor+1, len(m.chunks), c.ChunkID, c.Score)
		out += "\n\n" + answerStyle.Render(title) + "\n" + highlightBestSentence(c.Text, m.question)
	}
	return out
}

var (
	answerBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	answerStyle    = lipgloss.NewStyle().Bold(true)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)
