package model

import "time"

// NodeType distinguishes folders from files in a materialized tree.
type NodeType string

const (
	NodeFile   NodeType = "file"
	NodeFolder NodeType = "folder"
)

// FileEntry is one project file keyed by its slash-delimited path.
type FileEntry struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// FileNode is a derived view of the flat file set. It is rebuilt on every
// read and never mutated by callers.
type FileNode struct {
	Name     string      `json:"name" yaml:"name"`
	Type     NodeType    `json:"type" yaml:"type"`
	Path     string      `json:"path" yaml:"path"`
	Content  *string     `json:"content,omitempty" yaml:"content,omitempty"`
	Children []*FileNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// IsFolder reports whether the node is a folder.
func (n *FileNode) IsFolder() bool { return n.Type == NodeFolder }

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn of the conversation. ID, Seq and Timestamp are
// assigned by the store when the message is appended.
type ChatMessage struct {
	ID        string    `json:"id"`
	Seq       uint64    `json:"seq"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SegmentKind labels a parsed piece of an assistant reply.
type SegmentKind string

const (
	SegmentText SegmentKind = "text"
	SegmentCode SegmentKind = "code"
)

// Segment is a prose or fenced-code piece of a raw LLM response.
type Segment struct {
	Kind     SegmentKind `json:"kind"`
	Content  string      `json:"content"`
	Language string      `json:"language,omitempty"`
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Prompt  string            `json:"prompt"`
	Context map[string]string `json:"context,omitempty"`
}

// GenerateResponse is the project returned by the LLM.
type GenerateResponse struct {
	Files   map[string]string `json:"files"`
	Message string            `json:"message"`
}

// RepoRequest is the body of POST /api/github/create-repo.
type RepoRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Private     bool   `json:"private,omitempty"`
}

// PushRequest is the body of POST /api/github/push-files.
type PushRequest struct {
	RepoName      string            `json:"repoName"`
	Files         map[string]string `json:"files"`
	CommitMessage string            `json:"commitMessage"`
}

// PushResponse is returned after a successful push.
type PushResponse struct {
	Success   bool   `json:"success"`
	CommitSHA string `json:"commitSha"`
	RepoURL   string `json:"repoUrl"`
}

// OAuthRequest is the body of POST /api/github/oauth.
type OAuthRequest struct {
	Code string `json:"code"`
}

// OAuthResponse is GitHub's access token payload, relayed unchanged. A
// rejected code arrives with status 200 and Error set.
type OAuthResponse struct {
	AccessToken           string `json:"access_token,omitempty"`
	TokenType             string `json:"token_type,omitempty"`
	Scope                 string `json:"scope,omitempty"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	ExpiresIn             int    `json:"expires_in,omitempty"`
	RefreshTokenExpiresIn int    `json:"refresh_token_expires_in,omitempty"`
	Error                 string `json:"error,omitempty"`
	ErrorDescription      string `json:"error_description,omitempty"`
}

// ErrorResponse is the body of every failed relay request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Health is the body of GET /health.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Summary holds the results of an operation for display.
type Summary struct {
	Created  []string
	Modified []string
	Failed   []string
	Message  string
}
