package hatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/sokinpui/hatch/internal/archive"
	"github.com/sokinpui/hatch/internal/fs"
	"github.com/sokinpui/hatch/internal/runner"
	"github.com/sokinpui/hatch/internal/state"
	"github.com/sokinpui/hatch/internal/tree"
	"github.com/sokinpui/hatch/model"
)

// Assistant messages and defaults used by App.
const (
	// GenerateFailedMessage is appended to the chat when generation fails.
	GenerateFailedMessage = "Sorry, I encountered an error while generating code. Please try again."
	// PublishFailedMessage is appended to the chat when publishing fails.
	PublishFailedMessage = "Sorry, I encountered an error while deploying to GitHub. Please try again."
	// CommitMessage is the message of the commit Publish pushes.
	CommitMessage = "Initial commit from hatch"
	// RepoDescription is used when Publish is given no description.
	RepoDescription = "Generated with hatch"
)

var (
	// ErrNoToken is returned by Publish without a GitHub token.
	ErrNoToken = errors.New("no GitHub token set")
	// ErrNoFiles is returned by Publish and Export for an empty project.
	ErrNoFiles = errors.New("project has no files")
	// ErrBusy is returned when a session call is made while another one
	// (generation, publish, undo, redo or import) is running.
	ErrBusy = errors.New("another request is in progress")
	// ErrInvalidReply is returned by Submit when the generated file set
	// cannot form a tree.
	ErrInvalidReply = errors.New("generated files have invalid paths")
)

// Relay is the remote side of a session.
type Relay interface {
	Generate(ctx context.Context, prompt string, files map[string]string) (model.GenerateResponse, error)
	CreateRepo(ctx context.Context, token string, repo model.RepoRequest) (map[string]any, error)
	PushFiles(ctx context.Context, token, repoName string, files map[string]string, commitMessage string) (model.PushResponse, error)
}

// App is one workbench session: the project store, its generation history
// and the relay it talks to.
type App struct {
	store   *state.Store
	relay   Relay
	history *state.History
	archive *archive.DB
	session string
	busy    atomic.Bool
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

func (e *DetailedError) Unwrap() error { return e.Err }

// Recover turns a panic into a DetailedError stored in *err. Use it as
// `defer hatch.Recover(&err)`.
func Recover(err *error) {
	if r := recover(); r != nil {
		*err = &DetailedError{
			Err:   fmt.Errorf("internal panic: %v", r),
			Stack: debug.Stack(),
		}
	}
}

// New creates a session. db may be nil, in which case history lives only in
// memory and transcripts are not archived.
func New(relay Relay, db *archive.DB) (*App, error) {
	var p state.Persister
	if db != nil {
		p = db
	}
	history, err := state.NewHistory(p)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}

	a := &App{
		store:   state.NewStore(),
		relay:   relay,
		history: history,
		archive: db,
		session: newSessionName(time.Now()),
	}
	if entry, ok := history.Current(); ok {
		a.apply(entry.Files)
	}
	return a, nil
}

// newSessionName returns a sortable, unique transcript name: the start
// time followed by random hex.
func newSessionName(now time.Time) string {
	id := uuid.New()
	return fmt.Sprintf("%s-%x", now.UTC().Format("20060102-150405"), id[:4])
}

// Store exposes the session state to views.
func (a *App) Store() *state.Store { return a.store }

// Session names the transcript archived by Close.
func (a *App) Session() string { return a.session }

// Busy reports whether a generation or publish is outstanding.
func (a *App) Busy() bool { return a.busy.Load() }

func (a *App) acquire() bool { return a.busy.CompareAndSwap(false, true) }

func (a *App) release() { a.busy.Store(false) }

// Submit sends prompt to the model with the current files as context and
// replaces the project with the returned files. A blank prompt is ignored.
func (a *App) Submit(ctx context.Context, prompt string) error {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil
	}
	if !a.acquire() {
		return ErrBusy
	}
	defer a.release()

	a.store.AddChatMessage(model.RoleUser, prompt)

	resp, err := a.relay.Generate(ctx, prompt, a.store.Files())
	if err != nil {
		a.store.AddChatMessage(model.RoleAssistant, GenerateFailedMessage)
		return fmt.Errorf("generate: %w", err)
	}
	if len(resp.Files) > 0 {
		if _, err := tree.Build(resp.Files); err != nil {
			a.store.AddChatMessage(model.RoleAssistant, fmt.Sprintf(
				"Sorry, the generated project could not be applied: %v. Your files were left unchanged.", err))
			return fmt.Errorf("%w: %w", ErrInvalidReply, err)
		}
	}
	a.store.AddChatMessage(model.RoleAssistant, resp.Message)

	if len(resp.Files) == 0 {
		return nil
	}
	a.apply(resp.Files)
	if err := a.history.Record(resp.Files, resp.Message); err != nil {
		return fmt.Errorf("record history: %w", err)
	}
	return nil
}

// apply replaces the project with files and selects the first path.
func (a *App) apply(files map[string]string) {
	a.store.SetFiles(files)
	paths := tree.SortedPaths(files)
	if len(paths) == 0 {
		a.store.SetCurrentFile("")
		return
	}
	a.store.SetCurrentFile(paths[0])
}

// Publish creates a repository and pushes the project to it. An empty name
// is replaced by a time-stamped one.
func (a *App) Publish(ctx context.Context, name, description string, private bool) (model.PushResponse, error) {
	token := a.store.GithubToken()
	files := a.store.Files()
	switch {
	case token == "":
		return model.PushResponse{}, ErrNoToken
	case len(files) == 0:
		return model.PushResponse{}, ErrNoFiles
	}
	if !a.acquire() {
		return model.PushResponse{}, ErrBusy
	}
	defer a.release()

	if name == "" {
		name = fmt.Sprintf("hatch-project-%d", time.Now().UnixMilli())
	}
	if description == "" {
		description = RepoDescription
	}

	if _, err := a.relay.CreateRepo(ctx, token, model.RepoRequest{Name: name, Description: description, Private: private}); err != nil {
		a.store.AddChatMessage(model.RoleAssistant, PublishFailedMessage)
		return model.PushResponse{}, fmt.Errorf("create repository: %w", err)
	}
	resp, err := a.relay.PushFiles(ctx, token, name, files, CommitMessage)
	if err != nil {
		a.store.AddChatMessage(model.RoleAssistant, PublishFailedMessage)
		return model.PushResponse{}, fmt.Errorf("push files: %w", err)
	}

	a.store.AddChatMessage(model.RoleAssistant, fmt.Sprintf(
		"🎉 Successfully created repository %q and pushed your code to GitHub! %s", name, resp.RepoURL))
	return resp, nil
}

// Undo restores the file set before the last generation. It reports false
// when there is nothing to undo and ErrBusy while a request is running.
// A failure to save the new position is returned after the files are
// restored.
func (a *App) Undo() (bool, error) {
	return a.move(a.history.Undo)
}

// Redo restores the file set of the next generation, like Undo.
func (a *App) Redo() (bool, error) {
	return a.move(a.history.Redo)
}

func (a *App) move(step func() (map[string]string, bool, error)) (bool, error) {
	if !a.acquire() {
		return false, ErrBusy
	}
	defer a.release()

	files, ok, err := step()
	if ok {
		a.apply(files)
	}
	if err != nil {
		return ok, fmt.Errorf("history: %w", err)
	}
	return ok, nil
}

// Edit replaces the content of one file, creating it when missing.
func (a *App) Edit(path, content string) error {
	files := a.store.Files()
	files[path] = content
	if _, err := tree.Build(files); err != nil {
		return err
	}
	a.store.UpdateFile(path, content)
	return nil
}

// Open selects path as the current file.
func (a *App) Open(path string) error {
	if _, ok := a.store.File(path); !ok {
		return fmt.Errorf("no such file: %s", path)
	}
	a.store.SetCurrentFile(path)
	return nil
}

// Export writes the project under dir.
func (a *App) Export(dir string) (model.Summary, error) {
	files := a.store.Files()
	if len(files) == 0 {
		return model.Summary{}, ErrNoFiles
	}
	return fs.Export(dir, files)
}

// Import loads the text files under dir as the project and records them
// in the history.
func (a *App) Import(dir string) (int, error) {
	if !a.acquire() {
		return 0, ErrBusy
	}
	defer a.release()

	files, err := fs.Import(dir)
	if err != nil {
		return 0, err
	}
	if _, err := tree.Build(files); err != nil {
		return 0, err
	}
	a.apply(files)
	if err := a.history.Record(files, "imported "+dir); err != nil {
		return len(files), fmt.Errorf("record history: %w", err)
	}
	return len(files), nil
}

// Run exports the project to dir and runs line there through the shell,
// streaming its output into the terminal log.
func (a *App) Run(ctx context.Context, dir, line string) (int, error) {
	if _, err := a.Export(dir); err != nil && !errors.Is(err, ErrNoFiles) {
		return -1, err
	}
	a.store.AddTerminalOutput("$ " + line)
	return runner.Shell(ctx, dir, line, a.store)
}

// Close archives the chat transcript of the session.
func (a *App) Close() error {
	if a.archive == nil {
		return nil
	}
	msgs := a.store.Messages()
	if len(msgs) == 0 {
		return nil
	}
	return a.archive.SaveTranscript(a.session, msgs)
}
