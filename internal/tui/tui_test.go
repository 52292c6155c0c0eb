package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sokinpui/hatch/hatch"
	"github.com/sokinpui/hatch/model"
)

type stubRelay struct {
	resp model.GenerateResponse
	err  error
}

func (s stubRelay) Generate(context.Context, string, map[string]string) (model.GenerateResponse, error) {
	return s.resp, s.err
}

func (s stubRelay) CreateRepo(context.Context, string, model.RepoRequest) (map[string]any, error) {
	return nil, nil
}

func (s stubRelay) PushFiles(context.Context, string, string, map[string]string, string) (model.PushResponse, error) {
	return model.PushResponse{Success: true, RepoURL: "https://github.com/o/r"}, nil
}

func newTestModel(t *testing.T, relay hatch.Relay) (Model, *[]string) {
	t.Helper()
	app, err := hatch.New(relay, nil)
	if err != nil {
		t.Fatal(err)
	}
	var copied []string
	m := New(testContext(t), app, Options{
		Dir:         t.TempDir(),
		NoAnimation: true,
		Copy:        func(s string) error { copied = append(copied, s); return nil },
	})
	return m, &copied
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func typeText(m Model, s string) Model {
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		name string
		args []string
		ok   bool
	}{
		{"/push my-repo private", "push", []string{"my-repo", "private"}, true},
		{"  /RUN npm test ", "run", []string{"npm", "test"}, true},
		{"/", "", nil, false},
		{"make a todo app", "", nil, false},
	}
	for _, tc := range tests {
		c, ok := parseCommand(tc.in)
		if ok != tc.ok || c.name != tc.name || strings.Join(c.args, ",") != strings.Join(tc.args, ",") {
			t.Errorf("parseCommand(%q) = %+v, %v", tc.in, c, ok)
		}
	}
}

func TestMatchFile(t *testing.T) {
	paths := []string{"index.html", "src/app.js", "src/components/Button.jsx"}
	if got, ok := matchFile("src/app.js", paths); !ok || got != "src/app.js" {
		t.Errorf("exact match = %q, %v", got, ok)
	}
	if got, ok := matchFile("button", paths); !ok || got != "src/components/Button.jsx" {
		t.Errorf("fuzzy match = %q, %v", got, ok)
	}
	if _, ok := matchFile("zzz", paths); ok {
		t.Error("expected no match")
	}
}

func TestSubmitFlow(t *testing.T) {
	relay := stubRelay{resp: model.GenerateResponse{
		Files:   map[string]string{"src/app.js": "run()", "index.html": "<h1>hi</h1>"},
		Message: "Created a page",
	}}
	m, _ := newTestModel(t, relay)

	m = typeText(m, "make a page")
	m, cmd := update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.busy || cmd == nil {
		t.Fatal("enter should start a generation")
	}

	// A second submission while busy is refused.
	m = typeText(m, "again")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.input.Value() != "again" {
		t.Error("input should be kept while busy")
	}

	m, _ = update(m, generatedMsg{err: m.app.Submit(testContext(t), "make a page")})
	if m.busy {
		t.Error("still busy after generation finished")
	}

	view := m.View()
	for _, want := range []string{"index.html", "app.js", "<h1>hi</h1>", "Created a page"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q", want)
		}
	}
}

func TestGenerationErrorShown(t *testing.T) {
	m, _ := newTestModel(t, stubRelay{err: errors.New("relay down")})
	m, _ = update(m, generatedMsg{err: m.app.Submit(testContext(t), "x")})
	if m.err == nil || !strings.Contains(m.View(), "relay down") {
		t.Errorf("error not shown: %v", m.err)
	}
	if last, _ := m.app.Store().LastMessage(model.RoleAssistant); last.Content != hatch.GenerateFailedMessage {
		t.Errorf("last reply = %q", last.Content)
	}
}

func TestCopyLastCode(t *testing.T) {
	m, copied := newTestModel(t, stubRelay{})
	m.app.Store().AddChatMessage(model.RoleAssistant, "here:\n```go\nfmt.Println(1)\n```\nand\n```sh\nls\n```")

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyCtrlY})
	if len(*copied) != 1 || (*copied)[0] != "ls" {
		t.Errorf("copied = %v", *copied)
	}
}

func TestSlashCommands(t *testing.T) {
	m, _ := newTestModel(t, stubRelay{})
	st := m.app.Store()
	st.SetFiles(map[string]string{"a.txt": "A", "docs/readme.md": "R"})

	m = typeText(m, "/token gho_1")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if st.GithubToken() != "gho_1" {
		t.Errorf("token = %q", st.GithubToken())
	}

	m = typeText(m, "/open readme")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if cur, _ := st.CurrentFile(); cur != "docs/readme.md" {
		t.Errorf("current = %q", cur)
	}

	m = typeText(m, "/bogus")
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !strings.Contains(m.status, "unknown command") {
		t.Errorf("status = %q", m.status)
	}
}

func TestExplorerNavigation(t *testing.T) {
	m, _ := newTestModel(t, stubRelay{})
	st := m.app.Store()
	st.SetFiles(map[string]string{"a.txt": "A", "b.txt": "B"})
	st.SetCurrentFile("a.txt")

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != paneExplorer {
		t.Fatalf("focus = %v", m.focus)
	}
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	if cur, _ := st.CurrentFile(); cur != "b.txt" {
		t.Errorf("current = %q", cur)
	}
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyDown})
	if cur, _ := st.CurrentFile(); cur != "b.txt" {
		t.Errorf("selection should stop at the last file, got %q", cur)
	}
}

func TestRenderSegmentsHidesDefaultLanguage(t *testing.T) {
	out := renderSegments([]model.Segment{
		{Kind: model.SegmentCode, Language: "text", Content: "plain"},
		{Kind: model.SegmentCode, Language: "go", Content: "x := 1"},
	}, 40)
	if strings.Contains(out, "text\n") {
		t.Error("default language label should not be rendered")
	}
	if !strings.Contains(out, "go") {
		t.Error("explicit language label missing")
	}
}
