package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/sokinpui/hatch/model"
)

const maxTokenBytes = 1 << 20

// ExchangeCode trades a GitHub OAuth code for a token and returns the token
// endpoint's JSON body unchanged. GitHub reports a rejected code with status
// 200 and an "error" field, which is passed through as well.
func (s *Server) ExchangeCode(ctx context.Context, code string) (json.RawMessage, error) {
	form := url.Values{
		"client_id":     {s.oauth.ClientID},
		"client_secret": {s.oauth.ClientSecret},
		"code":          {code},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.oauth.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := oauth2.NewClient(ctx, nil).Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBytes))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("token endpoint returned %s", resp.Status)
	}
	if !json.Valid(body) {
		return nil, errors.New("token endpoint returned invalid JSON")
	}
	return body, nil
}

func (s *Server) handleOAuth(w http.ResponseWriter, r *http.Request) {
	var req model.OAuthRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	body, err := s.ExchangeCode(r.Context(), req.Code)
	if err != nil {
		s.log.Error(err, "github oauth failed")
		writeError(w, http.StatusInternalServerError, "OAuth failed", nil)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
