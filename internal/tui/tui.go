package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sokinpui/hatch/hatch"
	"github.com/sokinpui/hatch/internal/source"
	"github.com/sokinpui/hatch/internal/tree"
)

const (
	explorerWidth  = 32
	terminalHeight = 8
	refreshEvery   = 200 * time.Millisecond
)

type pane int

const (
	paneInput pane = iota
	paneExplorer
	panePreview
	paneChat
	paneCount
)

// Options configures the workbench.
type Options struct {
	// Dir is where /run and /export write the project.
	Dir         string
	NoAnimation bool
	// Copy writes to the clipboard. Nil uses the system clipboard.
	Copy func(string) error
}

// Model is the bubbletea model of the workbench.
type Model struct {
	app  *hatch.App
	ctx  context.Context
	opts Options

	input   textinput.Model
	preview viewport.Model
	chat    viewport.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	focus  pane
	width  int
	height int
	busy   bool
	status string
	err    error
}

// New creates the workbench model for app.
func New(ctx context.Context, app *hatch.App, opts Options) Model {
	if opts.Copy == nil {
		opts.Copy = source.New().Copy
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	in := textinput.New()
	in.Placeholder = "Describe what you'd like to build, or /help"
	in.Prompt = "> "
	in.Focus()

	m := Model{
		app:     app,
		ctx:     ctx,
		opts:    opts,
		input:   in,
		preview: viewport.New(60, 20),
		chat:    viewport.New(40, 20),
		spinner: s,
		help:    help.New(),
		keys:    defaultKeyMap(),
	}
	m.resize(120, 40)
	m.syncViews()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func refresh() tea.Cmd {
	return tea.Tick(refreshEvery, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m *Model) startBusy(cmd tea.Cmd) tea.Cmd {
	m.busy = true
	m.err = nil
	if m.opts.NoAnimation {
		return cmd
	}
	return tea.Batch(cmd, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		cmd, handled := m.handleKey(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		if !handled {
			cmds = append(cmds, m.forwardKey(msg))
		}

	case generatedMsg:
		m.busy = false
		m.setResult("Generation finished", msg.err)
		m.preview.GotoTop()

	case publishedMsg:
		m.busy = false
		m.setResult("Published "+msg.resp.RepoURL, msg.err)

	case summaryMsg:
		status := msg.Message
		if len(msg.Failed) > 0 {
			status += fmt.Sprintf(" (%d failed)", len(msg.Failed))
		}
		m.setResult(status, msg.err)

	case ranMsg:
		m.setResult(fmt.Sprintf("Command exited with code %d", msg.code), msg.err)

	case refreshMsg:
		if m.app.Store().Running() {
			cmds = append(cmds, refresh())
		}

	case spinner.TickMsg:
		if m.busy && !m.opts.NoAnimation {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.syncViews()
	return m, tea.Batch(cmds...)
}

func (m *Model) setResult(status string, err error) {
	if err != nil {
		m.err = err
		var detailed *hatch.DetailedError
		if errors.As(err, &detailed) {
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
		}
		return
	}
	m.err = nil
	m.status = status
}

// handleKey processes global bindings. It reports whether the key was
// consumed.
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true
	case key.Matches(msg, m.keys.Focus):
		m.focus = (m.focus + 1) % paneCount
		if m.focus == paneInput {
			return m.input.Focus(), true
		}
		m.input.Blur()
		return nil, true
	case key.Matches(msg, m.keys.Copy):
		m.copyLastCode()
		return nil, true
	case key.Matches(msg, m.keys.Undo):
		m.undoRedo(m.app.Undo, "Undid last generation", "Nothing to undo")
		return nil, true
	case key.Matches(msg, m.keys.Redo):
		m.undoRedo(m.app.Redo, "Redid generation", "Nothing to redo")
		return nil, true
	case key.Matches(msg, m.keys.Clear):
		m.app.Store().ClearChat()
		return nil, true
	case key.Matches(msg, m.keys.Export):
		return m.export(m.opts.Dir), true
	case m.focus == paneInput && key.Matches(msg, m.keys.Submit):
		return m.handleInput(), true
	case m.focus == paneExplorer && key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
		return nil, true
	case m.focus == paneExplorer && key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
		return nil, true
	}
	return nil, false
}

func (m *Model) forwardKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case paneInput:
		m.input, cmd = m.input.Update(msg)
	case panePreview:
		m.preview, cmd = m.preview.Update(msg)
	case paneChat:
		m.chat, cmd = m.chat.Update(msg)
	}
	return cmd
}

func (m *Model) handleInput() tea.Cmd {
	line := strings.TrimSpace(m.input.Value())
	if line == "" {
		return nil
	}
	if c, ok := parseCommand(line); ok {
		if c.name == "push" && m.busy {
			m.status = "Wait for the current request to finish"
			return nil
		}
		m.input.SetValue("")
		return m.execute(c)
	}
	if m.busy {
		m.status = "Wait for the current request to finish"
		return nil
	}
	m.input.SetValue("")
	m.status = "Generating..."
	return m.startBusy(m.submit(line))
}

// moveSelection selects the file delta places away from the current one.
func (m *Model) moveSelection(delta int) {
	st := m.app.Store()
	paths := tree.SortedPaths(st.Files())
	if len(paths) == 0 {
		return
	}
	idx := -1
	if cur, ok := st.CurrentFile(); ok {
		for i, p := range paths {
			if p == cur {
				idx = i
				break
			}
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx >= len(paths) {
		idx = len(paths) - 1
	}
	st.SetCurrentFile(paths[idx])
	m.preview.GotoTop()
}

func (m *Model) resize(width, height int) {
	m.width, m.height = width, height

	contentHeight := height - terminalHeight - 8
	if contentHeight < 5 {
		contentHeight = 5
	}
	rest := width - explorerWidth - 6
	if rest < 20 {
		rest = 20
	}
	chatWidth := rest / 3
	m.preview.Width = rest - chatWidth - 4
	m.preview.Height = contentHeight
	m.chat.Width = chatWidth
	m.chat.Height = contentHeight
	m.input.Width = width - 6
	m.help.Width = width
}

// syncViews refreshes the scrollable panes from the store.
func (m *Model) syncViews() {
	m.preview.SetContent(m.renderPreview(m.preview.Width))
	atBottom := m.chat.AtBottom()
	m.chat.SetContent(m.renderChat(m.chat.Width))
	if atBottom {
		m.chat.GotoBottom()
	}
}

func (m Model) View() string {
	frame := func(p pane) lipgloss.Style {
		if m.focus == p {
			return focusedPaneStyle
		}
		return paneStyle
	}

	explorer := frame(paneExplorer).Width(explorerWidth).Height(m.preview.Height).
		Render(m.renderExplorer(m.preview.Height))
	preview := frame(panePreview).Render(m.preview.View())
	chat := frame(paneChat).Render(m.chat.View())
	top := lipgloss.JoinHorizontal(lipgloss.Top, explorer, preview, chat)

	terminal := paneStyle.Width(m.width - 4).Height(terminalHeight).
		Render(m.renderTerminal(terminalHeight))

	return lipgloss.JoinVertical(lipgloss.Left,
		top,
		terminal,
		frame(paneInput).Width(m.width-4).Render(m.input.View()),
		m.renderStatus(),
		m.help.View(m.keys),
	)
}
