package relay

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-logr/logr"

	"github.com/sokinpui/hatch/model"
)

func discard() logr.Logger { return logr.Discard() }

func newFakeTokenEndpoint(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		if r.FormValue("code") == "broken" {
			http.Error(w, "boom", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.FormValue("code") != "good-code" {
			io.WriteString(w, `{"error":"bad_verification_code","error_description":"The code passed is incorrect or expired."}`)
			return
		}
		if r.FormValue("client_id") != "id" || r.FormValue("client_secret") != "secret" {
			t.Errorf("credentials = %q/%q", r.FormValue("client_id"), r.FormValue("client_secret"))
		}
		io.WriteString(w, `{"access_token":"ghu_abc","token_type":"bearer","scope":"repo,user",`+
			`"refresh_token":"ghr_def","expires_in":28800,"refresh_token_expires_in":15897600}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOAuthExchangeRelaysTokenPayload(t *testing.T) {
	tokenSrv := newFakeTokenEndpoint(t)
	srv := newTestServer(t, Config{
		GitHubClientID:     "id",
		GitHubClientSecret: "secret",
		GitHubTokenURL:     tokenSrv.URL,
	})

	resp := post(t, srv.URL+"/api/github/oauth", "", model.OAuthRequest{Code: "good-code"})
	var got model.OAuthResponse
	decodeJSON(t, resp, &got)

	want := model.OAuthResponse{
		AccessToken:           "ghu_abc",
		TokenType:             "bearer",
		Scope:                 "repo,user",
		RefreshToken:          "ghr_def",
		ExpiresIn:             28800,
		RefreshTokenExpiresIn: 15897600,
	}
	if resp.StatusCode != http.StatusOK || got != want {
		t.Errorf("status = %d, body = %+v; want %+v", resp.StatusCode, got, want)
	}
}

func TestOAuthBadCodeIsPassedThrough(t *testing.T) {
	tokenSrv := newFakeTokenEndpoint(t)
	srv := newTestServer(t, Config{GitHubTokenURL: tokenSrv.URL})

	resp := post(t, srv.URL+"/api/github/oauth", "", model.OAuthRequest{Code: "stale"})
	var body map[string]any
	decodeJSON(t, resp, &body)
	if resp.StatusCode != http.StatusOK || body["error"] != "bad_verification_code" {
		t.Errorf("status = %d, body = %v", resp.StatusCode, body)
	}
	if _, ok := body["access_token"]; ok {
		t.Errorf("unexpected access_token in %v", body)
	}
}

func TestOAuthUpstreamFailure(t *testing.T) {
	tokenSrv := newFakeTokenEndpoint(t)
	srv := newTestServer(t, Config{GitHubTokenURL: tokenSrv.URL})

	resp := post(t, srv.URL+"/api/github/oauth", "", model.OAuthRequest{Code: "broken"})
	var e model.ErrorResponse
	decodeJSON(t, resp, &e)
	if resp.StatusCode != http.StatusInternalServerError || e.Error != "OAuth failed" {
		t.Errorf("status = %d, body = %+v", resp.StatusCode, e)
	}
}
