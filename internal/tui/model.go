// Package tui is the terminal chat front end. It drives an app.ChatShell and
// renders its transcript.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gopherai-rag/internal/app"
	"gopherai-rag/internal/model"
	"gopherai-rag/internal/ragerr"
)

// Engine is the part of the query engine the chat screen uses.
type Engine interface {
	app.Asker
	Reload(ctx context.Context) error
	Info() app.EngineInfo
}

type Config struct {
	Engine Engine
	// NeedKey opens the key entry screen first; UseKey then supplies the engine.
	NeedKey bool
	UseKey  func(key string) Engine
	Styles  *Styles
}

type screen int

const (
	screenKey screen = iota
	screenChat
)

type (
	turnDoneMsg struct {
		turn model.Turn
		err  error
	}
	reloadDoneMsg struct{ err error }
)

type Model struct {
	ctx     context.Context
	cfg     Config
	styles  *Styles
	engine  Engine
	shell   *app.ChatShell
	screen  screen
	input   textinput.Model
	keyIn   textinput.Model
	spinner spinner.Model
	status  string
	width   int
}

func New(ctx context.Context, cfg Config) *Model {
	if cfg.Styles == nil {
		cfg.Styles = DefaultStyles()
	}

	input := textinput.New()
	input.Placeholder = "Ask a question about the document (/reload, /quit)"
	input.CharLimit = 2000
	input.Width = 72

	keyIn := textinput.New()
	keyIn.Placeholder = "API key"
	keyIn.EchoMode = textinput.EchoPassword
	keyIn.EchoCharacter = '•'
	keyIn.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		ctx:     ctx,
		cfg:     cfg,
		styles:  cfg.Styles,
		input:   input,
		keyIn:   keyIn,
		spinner: sp,
	}
	if cfg.NeedKey && cfg.UseKey != nil {
		m.screen = screenKey
		m.keyIn.Focus()
	} else {
		m.useEngine(cfg.Engine)
	}
	return m
}

func (m *Model) useEngine(e Engine) {
	m.engine = e
	m.shell = app.NewChatShell(e)
	m.screen = screenChat
	m.keyIn.Blur()
	m.input.Focus()
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tea.SetWindowTitle("gopherai-rag chat"))
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 10 {
			m.input.Width = msg.Width - 8
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.screen == screenKey {
				return m, m.submitKey()
			}
			return m, m.submit()
		}

	case turnDoneMsg:
		// failures are already in the transcript
		_ = m.shell.Rendered()
		m.input.Focus()
		return m, nil

	case reloadDoneMsg:
		if msg.err != nil {
			m.status = ragerr.Describe(msg.err)
		} else {
			m.status = fmt.Sprintf("engine reloaded (%d chunks)", m.engine.Info().Manifest.Count)
		}
		return m, nil

	case spinner.TickMsg:
		if m.processing() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.screen == screenKey {
		m.keyIn, cmd = m.keyIn.Update(msg)
	} else if !m.processing() {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m *Model) submitKey() tea.Cmd {
	key := strings.TrimSpace(m.keyIn.Value())
	if key == "" {
		m.status = "an API key is required; press esc to quit"
		return nil
	}
	m.keyIn.Reset()
	m.status = ""
	m.useEngine(m.cfg.UseKey(key))
	return textinput.Blink
}

func (m *Model) submit() tea.Cmd {
	if m.processing() {
		return nil
	}
	text := strings.TrimSpace(m.input.Value())
	switch text {
	case "":
		return nil
	case "/quit", "/exit":
		return tea.Quit
	case "/reload":
		m.input.Reset()
		m.status = "reloading engine..."
		return m.reload()
	}

	if err := m.shell.Submit(text); err != nil {
		m.status = err.Error()
		return nil
	}
	m.input.Reset()
	m.input.Blur()
	m.status = ""
	return tea.Batch(m.spinner.Tick, m.runTurn())
}

func (m *Model) runTurn() tea.Cmd {
	shell := m.shell
	ctx := m.ctx
	return func() tea.Msg {
		turn, err := shell.Process(ctx)
		return turnDoneMsg{turn: turn, err: err}
	}
}

func (m *Model) reload() tea.Cmd {
	engine := m.engine
	ctx := m.ctx
	return func() tea.Msg {
		return reloadDoneMsg{err: engine.Reload(ctx)}
	}
}

func (m *Model) processing() bool {
	return m.shell != nil && m.shell.State() == app.StateProcessing
}

func (m *Model) View() string {
	if m.screen == screenKey {
		return m.viewKey()
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("GopherAI RAG chat"))
	b.WriteString("\n")
	b.WriteString(m.styles.Info.Render(m.infoLine()))
	b.WriteString("\n\n")

	for _, turn := range m.shell.Transcript() {
		if turn.Role == model.RoleUser {
			b.WriteString(m.styles.User.Render("You:"))
			b.WriteString(" " + turn.Content)
		} else if strings.HasPrefix(turn.Content, "Error generating answer") {
			b.WriteString(m.styles.Error.Render(turn.Content))
		} else {
			b.WriteString(m.styles.User.Render("Assistant:"))
			b.WriteString(" " + m.styles.Assistant.Render(turn.Content))
		}
		b.WriteString("\n\n")
	}

	if m.processing() {
		b.WriteString(m.spinner.View() + " " + m.styles.Status.Render("Thinking..."))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(m.styles.Status.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Input.Render(m.input.View()))
	return b.String()
}

func (m *Model) viewKey() string {
	lines := []string{
		m.styles.Title.Render("GopherAI RAG chat"),
		"",
		"No API key found in LLM_API_KEY or GOOGLE_API_KEY.",
		m.styles.Info.Render(ragerr.Remediation(ragerr.ErrAuthentication)),
		"",
		m.styles.Input.Render(m.keyIn.View()),
	}
	if m.status != "" {
		lines = append(lines, m.styles.Error.Render(m.status))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) infoLine() string {
	info := m.engine.Info()
	index := "index not loaded"
	if info.Loaded {
		index = fmt.Sprintf("%d chunks", info.Manifest.Count)
	}
	return fmt.Sprintf("model %s · embedder %s · store %s · top %d · %s",
		info.Model, info.Embedder, info.Store, info.TopK, index)
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(ctx context.Context, cfg Config) error {
	_, err := tea.NewProgram(New(ctx, cfg), tea.WithContext(ctx)).Run()
	return err
}
