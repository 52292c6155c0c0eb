package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/felixge/httpsnoop"
	"github.com/go-logr/logr"
	"github.com/rs/cors"
	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github.com/sokinpui/hatch/model"
)

const (
	// TogetherBaseURL is the OpenAI-compatible endpoint of Together AI.
	TogetherBaseURL = "https://api.together.xyz/v1"
	DefaultModel    = "codellama/CodeLlama-34b-Instruct-hf"

	maxBodyBytes = 10 << 20
)

// Config holds the credentials and upstream endpoints of the relay.
type Config struct {
	TogetherAPIKey  string
	TogetherBaseURL string
	Model           string

	GitHubClientID     string
	GitHubClientSecret string
	// GitHubAPIURL overrides the REST base URL. It must end with a slash.
	GitHubAPIURL string
	// GitHubTokenURL overrides the OAuth token endpoint.
	GitHubTokenURL string
}

// Server is the HTTP relay between the client, the LLM and GitHub.
type Server struct {
	cfg   Config
	llm   *openai.Client
	oauth *oauth2.Config
	log   logr.Logger
	now   func() time.Time
}

// New builds a relay server from cfg.
func New(cfg Config, log logr.Logger) *Server {
	if cfg.TogetherBaseURL == "" {
		cfg.TogetherBaseURL = TogetherBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	llmCfg := openai.DefaultConfig(cfg.TogetherAPIKey)
	llmCfg.BaseURL = cfg.TogetherBaseURL

	endpoint := githuboauth.Endpoint
	if cfg.GitHubTokenURL != "" {
		endpoint.TokenURL = cfg.GitHubTokenURL
	}

	return &Server{
		cfg: cfg,
		llm: openai.NewClientWithConfig(llmCfg),
		oauth: &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			Endpoint:     endpoint,
			Scopes:       []string{"repo", "user"},
		},
		log: log,
		now: time.Now,
	}
}

// Handler returns the routed handler with CORS, body limit and request
// logging applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/github/oauth", s.handleOAuth)
	mux.HandleFunc("POST /api/github/create-repo", s.handleCreateRepo)
	mux.HandleFunc("POST /api/github/push-files", s.handlePushFiles)
	mux.HandleFunc("GET /health", s.handleHealth)

	return cors.AllowAll().Handler(s.logRequests(limitBody(mux)))
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("relay listening", "addr", addr, "health", "http://"+addr+"/health")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Health{
		Status:    "OK",
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		s.log.V(1).Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"bytes", m.Written,
			"duration", m.Duration,
		)
	})
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := model.ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
