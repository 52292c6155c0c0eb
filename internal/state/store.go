package state

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sokinpui/hatch/internal/tree"
	"github.com/sokinpui/hatch/model"
)

// Store holds the project files, chat log and workbench flags of one
// session. Every operation is synchronous and total; readers receive copies.
type Store struct {
	mu sync.RWMutex

	files          map[string]string
	currentFile    string
	running        bool
	terminalOutput []string
	previewURL     string
	messages       []model.ChatMessage
	githubToken    string
	seq            uint64

	now func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		files: make(map[string]string),
		now:   time.Now,
	}
}

// SetFiles replaces the entire file set.
func (s *Store) SetFiles(files map[string]string) {
	cp := make(map[string]string, len(files))
	for p, c := range files {
		cp[p] = c
	}
	s.mu.Lock()
	s.files = cp
	s.mu.Unlock()
}

// UpdateFile inserts or replaces a single file.
func (s *Store) UpdateFile(path, content string) {
	s.mu.Lock()
	s.files[path] = content
	s.mu.Unlock()
}

// Files returns a copy of the file set.
func (s *Store) Files() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make(map[string]string, len(s.files))
	for p, c := range s.files {
		cp[p] = c
	}
	return cp
}

// File returns the content of one file.
func (s *Store) File(path string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.files[path]
	return c, ok
}

// FileCount returns the number of files in the project.
func (s *Store) FileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

// FileTree materializes the current file set.
func (s *Store) FileTree() ([]*model.FileNode, error) {
	return tree.Build(s.Files())
}

// SetCurrentFile selects a file. An empty path selects none.
func (s *Store) SetCurrentFile(path string) {
	s.mu.Lock()
	s.currentFile = path
	s.mu.Unlock()
}

// CurrentFile returns the selected path, if any.
func (s *Store) CurrentFile() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentFile, s.currentFile != ""
}

// AddChatMessage appends a message, assigning its id, sequence number and
// timestamp, and returns the stored message.
func (s *Store) AddChatMessage(role model.Role, content string) model.ChatMessage {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	msg := model.ChatMessage{
		ID:        id.String(),
		Seq:       s.seq,
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}
	s.messages = append(s.messages, msg)
	return msg
}

// ClearChat empties the chat log. Sequence numbers keep increasing.
func (s *Store) ClearChat() {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()
}

// Messages returns a copy of the chat log.
func (s *Store) Messages() []model.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ChatMessage(nil), s.messages...)
}

// LastMessage returns the most recent message with the given role.
func (s *Store) LastMessage(role model.Role) (model.ChatMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].Role == role {
			return s.messages[i], true
		}
	}
	return model.ChatMessage{}, false
}

// SetRunning toggles the running/preview flag.
func (s *Store) SetRunning(running bool) {
	s.mu.Lock()
	s.running = running
	s.mu.Unlock()
}

// Running reports the running/preview flag.
func (s *Store) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// AddTerminalOutput appends one line of terminal output.
func (s *Store) AddTerminalOutput(line string) {
	s.mu.Lock()
	s.terminalOutput = append(s.terminalOutput, line)
	s.mu.Unlock()
}

// ClearTerminalOutput drops all terminal output.
func (s *Store) ClearTerminalOutput() {
	s.mu.Lock()
	s.terminalOutput = nil
	s.mu.Unlock()
}

// TerminalOutput returns a copy of the terminal lines.
func (s *Store) TerminalOutput() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.terminalOutput...)
}

// SetPreviewURL records where the running project can be previewed.
func (s *Store) SetPreviewURL(url string) {
	s.mu.Lock()
	s.previewURL = url
	s.mu.Unlock()
}

// PreviewURL returns the preview location, if any.
func (s *Store) PreviewURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.previewURL
}

// SetGithubToken stores the GitHub access token. An empty token signs out.
func (s *Store) SetGithubToken(token string) {
	s.mu.Lock()
	s.githubToken = token
	s.mu.Unlock()
}

// GithubToken returns the GitHub access token.
func (s *Store) GithubToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.githubToken
}
