package relay

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"github.com/sokinpui/hatch/internal/tree"
	"github.com/sokinpui/hatch/model"
)

const msgNoToken = "No GitHub token provided"

var errNoToken = errors.New("no github token provided")

// bearerToken extracts the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, error) {
	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if token == "" {
		return "", errNoToken
	}
	return token, nil
}

func (s *Server) githubClient(ctx context.Context, token string) (*github.Client, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	client := github.NewClient(httpClient)
	if s.cfg.GitHubAPIURL != "" {
		base, err := url.Parse(s.cfg.GitHubAPIURL)
		if err != nil {
			return nil, fmt.Errorf("invalid github api url: %w", err)
		}
		client.BaseURL = base
	}
	return client, nil
}

// CreateRepo creates a repository for the token's user, initialized with a
// first commit so it has a default branch to push onto.
func (s *Server) CreateRepo(ctx context.Context, token string, req model.RepoRequest) (*github.Repository, error) {
	client, err := s.githubClient(ctx, token)
	if err != nil {
		return nil, err
	}
	repo, _, err := client.Repositories.Create(ctx, "", &github.Repository{
		Name:        github.String(req.Name),
		Description: github.String(req.Description),
		Private:     github.Bool(req.Private),
		AutoInit:    github.Bool(true),
	})
	return repo, err
}

// PushFiles commits files on top of the default branch of repoName.
// The returned saga lists the steps that completed, also on error.
func (s *Server) PushFiles(ctx context.Context, token string, req model.PushRequest) (model.PushResponse, *Saga, error) {
	saga := &Saga{}
	client, err := s.githubClient(ctx, token)
	if err != nil {
		return model.PushResponse{}, saga, err
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return model.PushResponse{}, saga, fmt.Errorf("get user: %w", err)
	}
	owner := user.GetLogin()

	repo, _, err := client.Repositories.Get(ctx, owner, req.RepoName)
	if err != nil {
		return model.PushResponse{}, saga, fmt.Errorf("get repository: %w", err)
	}
	branchName := repo.GetDefaultBranch()

	branch, _, err := client.Repositories.GetBranch(ctx, owner, req.RepoName, branchName, 1)
	if err != nil {
		return model.PushResponse{}, saga, fmt.Errorf("get branch %s: %w", branchName, err)
	}
	baseSHA := branch.GetCommit().GetSHA()

	paths := tree.SortedPaths(req.Files)
	entries := make([]*github.TreeEntry, 0, len(paths))
	for _, path := range paths {
		blob, _, err := client.Git.CreateBlob(ctx, owner, req.RepoName, &github.Blob{
			Content:  github.String(base64.StdEncoding.EncodeToString([]byte(req.Files[path]))),
			Encoding: github.String("base64"),
		})
		if err != nil {
			return model.PushResponse{}, saga, fmt.Errorf("create blob %s: %w", path, err)
		}
		saga.record(StepBlob, path, blob.GetSHA())
		entries = append(entries, &github.TreeEntry{
			Path: github.String(path),
			Mode: github.String("100644"),
			Type: github.String("blob"),
			SHA:  blob.SHA,
		})
	}

	newTree, _, err := client.Git.CreateTree(ctx, owner, req.RepoName, baseSHA, entries)
	if err != nil {
		return model.PushResponse{}, saga, fmt.Errorf("create tree: %w", err)
	}
	saga.record(StepTree, "", newTree.GetSHA())

	commit, _, err := client.Git.CreateCommit(ctx, owner, req.RepoName, &github.Commit{
		Message: github.String(req.CommitMessage),
		Tree:    &github.Tree{SHA: newTree.SHA},
		Parents: []*github.Commit{{SHA: github.String(baseSHA)}},
	}, nil)
	if err != nil {
		return model.PushResponse{}, saga, fmt.Errorf("create commit: %w", err)
	}
	saga.record(StepCommit, "", commit.GetSHA())

	_, _, err = client.Git.UpdateRef(ctx, owner, req.RepoName, &github.Reference{
		Ref:    github.String("heads/" + branchName),
		Object: &github.GitObject{SHA: commit.SHA},
	}, false)
	if err != nil {
		return model.PushResponse{}, saga, fmt.Errorf("update ref heads/%s: %w", branchName, err)
	}
	saga.record(StepRef, "heads/"+branchName, commit.GetSHA())

	return model.PushResponse{
		Success:   true,
		CommitSHA: commit.GetSHA(),
		RepoURL:   repo.GetHTMLURL(),
	}, saga, nil
}

func (s *Server) handleCreateRepo(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgNoToken, nil)
		return
	}
	var req model.RepoRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	repo, err := s.CreateRepo(r.Context(), token, req)
	if err != nil {
		s.log.Error(err, "create repository failed", "name", req.Name)
		writeError(w, http.StatusInternalServerError, "Failed to create repository", err)
		return
	}
	writeJSON(w, http.StatusOK, repo)
}

func (s *Server) handlePushFiles(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, msgNoToken, nil)
		return
	}
	var req model.PushRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	resp, saga, err := s.PushFiles(r.Context(), token, req)
	if err != nil {
		s.log.Error(err, "push failed, completed steps are left on the remote",
			"repo", req.RepoName, "steps", saga.String())
		writeError(w, http.StatusInternalServerError, "Failed to push files", err)
		return
	}
	s.log.Info("pushed files", "repo", req.RepoName, "commit", resp.CommitSHA, "blobs", saga.Count(StepBlob))
	writeJSON(w, http.StatusOK, resp)
}
