package relayclient

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sokinpui/hatch/model"
)

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/generate" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req model.GenerateRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Prompt != "todo app" || req.Context["a.txt"] != "A" {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(model.GenerateResponse{
			Files:   map[string]string{"index.html": "<ul></ul>"},
			Message: "Created a todo app",
		})
	}))
	defer srv.Close()

	resp, err := New(srv.URL+"/", nil).Generate(testContext(t), "todo app", map[string]string{"a.txt": "A"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Created a todo app" || resp.Files["index.html"] != "<ul></ul>" {
		t.Errorf("response = %+v", resp)
	}
}

func TestPushFilesSendsTokenAndDefaultMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer gho_1" {
			t.Errorf("Authorization = %q", got)
		}
		var req model.PushRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.RepoName != "demo" || req.CommitMessage != DefaultCommitMessage || len(req.Files) != 1 {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(model.PushResponse{Success: true, CommitSHA: "abc", RepoURL: "https://github.com/o/demo"})
	}))
	defer srv.Close()

	resp, err := New(srv.URL, nil).PushFiles(testContext(t), "gho_1", "demo", map[string]string{"x": "y"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if !resp.Success || resp.CommitSHA != "abc" {
		t.Errorf("response = %+v", resp)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantDetails string
	}{
		{"relay error", 500, `{"error":"Failed to push files","details":"tree rejected"}`, "Failed to push files", "tree rejected"},
		{"no details", 401, `{"error":"No GitHub token provided"}`, "No GitHub token provided", ""},
		{"plain text", 502, "bad gateway\n", "Bad Gateway", "bad gateway"},
		{"empty body", 503, "", "Service Unavailable", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, nil).CreateRepo(testContext(t), "tok", model.RepoRequest{Name: "x"})
			var relayErr *Error
			if !errors.As(err, &relayErr) {
				t.Fatalf("err = %v; want *Error", err)
			}
			if relayErr.StatusCode != tc.status || relayErr.Message != tc.wantMessage || relayErr.Details != tc.wantDetails {
				t.Errorf("error = %+v", relayErr)
			}
		})
	}
}

func TestHealthAndOAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			json.NewEncoder(w).Encode(model.Health{Status: "OK", Timestamp: "2026-01-01T00:00:00Z"})
		case "/api/github/oauth":
			if r.Header.Get("Authorization") != "" {
				t.Error("oauth must not send a bearer token")
			}
			json.NewEncoder(w).Encode(model.OAuthResponse{AccessToken: "gho_x", TokenType: "bearer", Scope: "repo"})
		}
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	h, err := c.Health(testContext(t))
	if err != nil || h.Status != "OK" {
		t.Errorf("Health = %+v, %v", h, err)
	}
	tok, err := c.OAuth(testContext(t), "code")
	if err != nil || tok.AccessToken != "gho_x" {
		t.Errorf("OAuth = %+v, %v", tok, err)
	}
}

func TestOAuthRejectedCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"error":"bad_verification_code","error_description":"The code passed is incorrect or expired."}`)
	}))
	defer srv.Close()

	tok, err := New(srv.URL, nil).OAuth(testContext(t), "stale")
	var relayErr *Error
	if !errors.As(err, &relayErr) {
		t.Fatalf("OAuth error = %v; want *Error", err)
	}
	if relayErr.Message != "bad_verification_code" || relayErr.Details != "The code passed is incorrect or expired." {
		t.Errorf("error = %+v", relayErr)
	}
	if tok.Error != "bad_verification_code" || tok.AccessToken != "" {
		t.Errorf("payload = %+v", tok)
	}
}

func TestAuthURL(t *testing.T) {
	u, err := url.Parse(AuthURL("client-1", "http://localhost:5173/auth/github/callback"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(u.String(), "https://github.com/login/oauth/authorize?") {
		t.Errorf("url = %s", u)
	}
	q := u.Query()
	if q.Get("client_id") != "client-1" || q.Get("scope") != "repo user" || q.Get("redirect_uri") != "http://localhost:5173/auth/github/callback" {
		t.Errorf("query = %v", q)
	}
}
