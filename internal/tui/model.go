package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragpipe/internal/domain"
)

// AnswerPort is the TUI-facing subset of the pipeline.
type AnswerPort interface {
	Answer(query string, k int) (domain.Answer, error)
}

// Model is the Bubble Tea model for the interactive query UI.
type Model struct {
	pipeline AnswerPort
	k        int
	input    textinput.Model
	viewport viewport.Model
	answer   *domain.Answer
	status   string
	ready    bool
}

// New creates a new TUI model instance.
func New(pipeline AnswerPort, k int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{pipeline: pipeline, k: k, input: ti, viewport: vp, status: "Corpus loaded. Type to ask."}
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
		reserved := 1 + 1 + qh + 1 // header, status, query box, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderAnswer())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				ans, err := m.pipeline.Answer(q, m.k)
				if err != nil {
					m.status = "Error: " + err.Error()
					m.answer = nil
				} else {
					m.status = fmt.Sprintf("Answer for %q", q)
					m.answer = &ans
				}
				m.viewport.SetContent(m.renderAnswer())
				m.viewport.GotoTop()
				return m, nil
			}
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current answer.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("ragpipe")
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	answer := answerBoxStyle.Render(m.viewport.View())
	return header + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderAnswer() string {
	if m.answer == nil {
		return "No answer yet."
	}
	var b strings.Builder
	b.WriteString(m.answer.Text)
	if m.answer.NoContext {
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("(no supporting context was found)"))
		return b.String()
	}
	b.WriteString("\n\n")
	b.WriteString(sourceHeadStyle.Render("Sources"))
	for _, r := range m.answer.Cited {
		b.WriteString(fmt.Sprintf("\n  %s  score=%.3f", citeStyle.Render(r.Chunk.Source.Path), r.Score))
	}
	return b.String()
}

var (
	answerBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sourceHeadStyle = lipgloss.NewStyle().Bold(true)
	citeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
