package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github.com/sokinpui/hatch/model"
)

// DefaultBaseURL is where a locally started relay listens.
const DefaultBaseURL = "http://localhost:3001"

// DefaultCommitMessage is used when PushFiles is given an empty message.
const DefaultCommitMessage = "Initial commit from hatch"

// Error is a non-2xx relay response.
type Error struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("relay: %d %s: %s", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("relay: %d %s", e.StatusCode, e.Message)
}

// Client calls the relay HTTP API. Every method is a single round trip.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the relay at baseURL. A nil httpClient uses
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// BaseURL returns the relay address.
func (c *Client) BaseURL() string { return c.baseURL }

// Generate asks the relay for a project built from prompt, with the current
// files as context.
func (c *Client) Generate(ctx context.Context, prompt string, files map[string]string) (model.GenerateResponse, error) {
	var resp model.GenerateResponse
	err := c.do(ctx, http.MethodPost, "/api/generate", "", model.GenerateRequest{Prompt: prompt, Context: files}, &resp)
	return resp, err
}

// CreateRepo creates a GitHub repository and returns GitHub's repository
// object as decoded JSON.
func (c *Client) CreateRepo(ctx context.Context, token string, repo model.RepoRequest) (map[string]any, error) {
	var resp map[string]any
	err := c.do(ctx, http.MethodPost, "/api/github/create-repo", token, repo, &resp)
	return resp, err
}

// PushFiles commits files to the default branch of repoName.
func (c *Client) PushFiles(ctx context.Context, token, repoName string, files map[string]string, commitMessage string) (model.PushResponse, error) {
	if commitMessage == "" {
		commitMessage = DefaultCommitMessage
	}
	var resp model.PushResponse
	err := c.do(ctx, http.MethodPost, "/api/github/push-files", token, model.PushRequest{
		RepoName:      repoName,
		Files:         files,
		CommitMessage: commitMessage,
	}, &resp)
	return resp, err
}

// OAuth exchanges a GitHub authorization code for a token. A code GitHub
// rejects is returned as an *Error carrying GitHub's error and description
// alongside the payload.
func (c *Client) OAuth(ctx context.Context, code string) (model.OAuthResponse, error) {
	var resp model.OAuthResponse
	if err := c.do(ctx, http.MethodPost, "/api/github/oauth", "", model.OAuthRequest{Code: code}, &resp); err != nil {
		return resp, err
	}
	if resp.Error != "" {
		return resp, &Error{StatusCode: http.StatusOK, Message: resp.Error, Details: resp.ErrorDescription}
	}
	return resp, nil
}

// Health reports the relay status.
func (c *Client) Health(ctx context.Context) (model.Health, error) {
	var resp model.Health
	err := c.do(ctx, http.MethodGet, "/health", "", nil, &resp)
	return resp, err
}

// AuthURL returns the GitHub page a user visits to authorize the app. The
// code GitHub appends to redirectURI is passed to OAuth.
func AuthURL(clientID, redirectURI string) string {
	conf := &oauth2.Config{
		ClientID:    clientID,
		Endpoint:    githuboauth.Endpoint,
		RedirectURL: redirectURI,
		Scopes:      []string{"repo", "user"},
	}
	return conf.AuthCodeURL("")
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeError(status int, data []byte) *Error {
	e := &Error{StatusCode: status, Message: http.StatusText(status)}
	if !gjson.ValidBytes(data) {
		if text := strings.TrimSpace(string(data)); text != "" {
			e.Details = text
		}
		return e
	}
	if msg := gjson.GetBytes(data, "error"); msg.Exists() {
		e.Message = msg.String()
	}
	e.Details = gjson.GetBytes(data, "details").String()
	return e
}
