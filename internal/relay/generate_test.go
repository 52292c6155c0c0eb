package relay

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sokinpui/hatch/model"
)

type fakeLLM struct {
	mu       sync.Mutex
	requests []openai.ChatCompletionRequest
}

func newFakeLLM(t *testing.T, status int, content string) (*fakeLLM, *httptest.Server) {
	t.Helper()
	f := &fakeLLM{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		var req openai.ChatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode completion request: %v", err)
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": content, "type": "server_error"},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":     "cmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func postGenerate(t *testing.T, relayURL string, req model.GenerateRequest) *http.Response {
	t.Helper()
	body, _ := json.Marshal(req)
	resp, err := http.Post(relayURL+"/api/generate", "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestGenerateJSONReply(t *testing.T) {
	reply := `{"files":{"index.html":"<h1>hi</h1>","src/app.js":"run()"},"message":"Created a page"}`
	llm, llmSrv := newFakeLLM(t, http.StatusOK, reply)
	srv := newTestServer(t, Config{TogetherAPIKey: "k", TogetherBaseURL: llmSrv.URL + "/v1"})

	resp := postGenerate(t, srv.URL, model.GenerateRequest{Prompt: "make a page"})
	var got model.GenerateResponse
	decodeJSON(t, resp, &got)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(got.Files) != 2 || got.Files["src/app.js"] != "run()" || got.Message != "Created a page" {
		t.Errorf("response = %+v", got)
	}

	if len(llm.requests) != 1 {
		t.Fatalf("expected 1 upstream call, got %d", len(llm.requests))
	}
	up := llm.requests[0]
	if up.Model != DefaultModel || up.MaxTokens != maxTokens {
		t.Errorf("upstream model=%q max_tokens=%d", up.Model, up.MaxTokens)
	}
	if len(up.Messages) != 2 || up.Messages[0].Role != openai.ChatMessageRoleSystem || up.Messages[1].Content != "make a page" {
		t.Fatalf("unexpected messages: %+v", up.Messages)
	}
	if !strings.Contains(up.Messages[0].Content, "Current project context: No existing files") {
		t.Errorf("system prompt lacks empty context marker:\n%s", up.Messages[0].Content)
	}
}

func TestGenerateSendsContext(t *testing.T) {
	llm, llmSrv := newFakeLLM(t, http.StatusOK, `{"files":{},"message":"ok"}`)
	srv := newTestServer(t, Config{TogetherBaseURL: llmSrv.URL + "/v1"})

	resp := postGenerate(t, srv.URL, model.GenerateRequest{
		Prompt:  "add a footer",
		Context: map[string]string{"index.html": "<body></body>"},
	})
	resp.Body.Close()

	if !strings.Contains(llm.requests[0].Messages[0].Content, `{"index.html":"<body></body>"}`) {
		t.Errorf("system prompt lacks context:\n%s", llm.requests[0].Messages[0].Content)
	}
}

func TestGenerateNonJSONReplyFallsBack(t *testing.T) {
	raw := "Sure! Here is a todo app:\n```js\nconsole.log('todo')\n```"
	_, llmSrv := newFakeLLM(t, http.StatusOK, raw)
	srv := newTestServer(t, Config{TogetherBaseURL: llmSrv.URL + "/v1"})

	resp := postGenerate(t, srv.URL, model.GenerateRequest{Prompt: "todo"})
	var got model.GenerateResponse
	decodeJSON(t, resp, &got)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(got.Files) != 1 || got.Files[FallbackFile] != raw {
		t.Errorf("files = %v; want only %s with the raw reply", got.Files, FallbackFile)
	}
	if got.Message != FallbackMessage {
		t.Errorf("message = %q", got.Message)
	}
}

func TestGenerateUpstreamFailure(t *testing.T) {
	_, llmSrv := newFakeLLM(t, http.StatusInternalServerError, "model overloaded")
	srv := newTestServer(t, Config{TogetherBaseURL: llmSrv.URL + "/v1"})

	resp := postGenerate(t, srv.URL, model.GenerateRequest{Prompt: "x"})
	var e model.ErrorResponse
	decodeJSON(t, resp, &e)

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if e.Error != "Failed to generate code" || !strings.Contains(e.Details, "model overloaded") {
		t.Errorf("error body = %+v", e)
	}
}
