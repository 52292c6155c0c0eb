package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/sokinpui/hatch/internal/parser"
	"github.com/sokinpui/hatch/internal/tree"
	"github.com/sokinpui/hatch/model"
)

// --- Messages ---
type generatedMsg struct{ err error }

type publishedMsg struct {
	resp model.PushResponse
	err  error
}

type summaryMsg struct {
	model.Summary
	err error
}

type ranMsg struct {
	code int
	err  error
}

type refreshMsg struct{}

const commandHelp = "/push [repo] [private]  /export [dir]  /run <cmd>  /open <file>  /token <token>  /undo  /redo  /clear"

// command is a parsed slash command.
type command struct {
	name string
	args []string
}

// parseCommand splits "/name arg..." input. Other input is a prompt.
func parseCommand(line string) (command, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{}, false
	}
	fields := strings.Fields(line[1:])
	if len(fields) == 0 {
		return command{}, false
	}
	return command{name: strings.ToLower(fields[0]), args: fields[1:]}, true
}

// rest returns the argument text after the command name.
func (c command) rest() string {
	return strings.Join(c.args, " ")
}

func (m Model) submit(prompt string) tea.Cmd {
	return func() tea.Msg {
		return generatedMsg{err: m.app.Submit(m.ctx, prompt)}
	}
}

func (m Model) publish(name string, private bool) tea.Cmd {
	return func() tea.Msg {
		resp, err := m.app.Publish(m.ctx, name, "", private)
		return publishedMsg{resp: resp, err: err}
	}
}

func (m Model) export(dir string) tea.Cmd {
	return func() tea.Msg {
		summary, err := m.app.Export(dir)
		return summaryMsg{Summary: summary, err: err}
	}
}

func (m Model) run(line string) tea.Cmd {
	return func() tea.Msg {
		code, err := m.app.Run(m.ctx, m.opts.Dir, line)
		return ranMsg{code: code, err: err}
	}
}

// execute runs a slash command and returns the status line to show.
func (m *Model) execute(c command) tea.Cmd {
	st := m.app.Store()
	switch c.name {
	case "push":
		name, private := "", false
		for _, a := range c.args {
			if a == "private" || a == "--private" {
				private = true
			} else if name == "" {
				name = a
			}
		}
		m.status = "Publishing to GitHub..."
		return m.startBusy(m.publish(name, private))
	case "export":
		dir := m.opts.Dir
		if c.rest() != "" {
			dir = c.rest()
		}
		return m.export(dir)
	case "run":
		if c.rest() == "" {
			m.status = "usage: /run <command>"
			return nil
		}
		st.ClearTerminalOutput()
		m.status = "Running " + c.rest()
		return tea.Batch(m.run(c.rest()), refresh())
	case "open":
		path, ok := matchFile(c.rest(), tree.SortedPaths(st.Files()))
		if !ok {
			m.status = fmt.Sprintf("no file matches %q", c.rest())
			return nil
		}
		m.app.Open(path)
		m.status = "Opened " + path
	case "token":
		st.SetGithubToken(c.rest())
		if c.rest() == "" {
			m.status = "GitHub token cleared"
		} else {
			m.status = "GitHub token set"
		}
	case "undo":
		m.undoRedo(m.app.Undo, "Undid last generation", "Nothing to undo")
	case "redo":
		m.undoRedo(m.app.Redo, "Redid generation", "Nothing to redo")
	case "clear":
		st.ClearChat()
		m.status = "Chat cleared"
	case "help":
		m.status = commandHelp
	default:
		m.status = fmt.Sprintf("unknown command /%s", c.name)
	}
	return nil
}

func (m *Model) undoRedo(move func() (bool, error), done, none string) {
	ok, err := move()
	switch {
	case err != nil:
		m.setResult("", err)
	case ok:
		m.setResult(done, nil)
	default:
		m.setResult(none, nil)
	}
}

// copyLastCode copies the last code block of the last assistant reply.
func (m *Model) copyLastCode() {
	last, ok := m.app.Store().LastMessage(model.RoleAssistant)
	if !ok {
		m.status = "No assistant reply yet"
		return
	}
	seg, ok := parser.LastCode(last.Content)
	if !ok {
		m.status = "Last reply has no code block"
		return
	}
	if err := m.opts.Copy(seg.Content); err != nil {
		m.err = err
		return
	}
	m.status = fmt.Sprintf("Copied %s block (%d lines)", seg.Language, strings.Count(seg.Content, "\n")+1)
}

// matchFile finds the path best matching query: an exact path first, then
// the top fuzzy match.
func matchFile(query string, paths []string) (string, bool) {
	if query == "" {
		return "", false
	}
	for _, p := range paths {
		if p == query {
			return p, true
		}
	}
	matches := fuzzy.Find(query, paths)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}
