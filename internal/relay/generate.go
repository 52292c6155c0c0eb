package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/sokinpui/hatch/model"
)

const (
	maxTokens   = 4000
	temperature = 0.1
)

const systemPromptTemplate = `You are an expert full-stack developer. Generate complete, production-ready code based on the user's request. 

IMPORTANT: Respond with a JSON object in this exact format:
{
  "files": {
    "filename.ext": "file content here",
    "another-file.ext": "content here"
  },
  "message": "Brief description of what was created"
}

Rules:
1. Create complete, working applications
2. Include package.json with all necessary dependencies
3. Use modern best practices
4. Include proper error handling
5. Make the code production-ready
6. For React apps, use functional components and hooks
7. Include proper TypeScript types when applicable
8. Add comments for complex logic

Current project context: %s

User request: %s`

var errNoChoices = errors.New("model returned no choices")

// SystemPrompt renders the instructions sent ahead of the user prompt.
func SystemPrompt(prompt string, context map[string]string) string {
	ctx := "No existing files"
	if len(context) > 0 {
		if b, err := json.Marshal(context); err == nil {
			ctx = string(b)
		}
	}
	return fmt.Sprintf(systemPromptTemplate, ctx, prompt)
}

// Generate asks the model for a project and decodes its reply.
func (s *Server) Generate(ctx context.Context, req model.GenerateRequest) (Reply, error) {
	resp, err := s.llm.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: SystemPrompt(req.Prompt, req.Context)},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return Reply{}, err
	}
	if len(resp.Choices) == 0 {
		return Reply{}, errNoChoices
	}
	return DecodeReply(resp.Choices[0].Message.Content), nil
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	reply, err := s.Generate(r.Context(), req)
	if err != nil {
		s.log.Error(err, "generate failed")
		writeError(w, http.StatusInternalServerError, "Failed to generate code", err)
		return
	}
	if reply.Kind == ReplyMalformed {
		s.log.Info("model reply is not the expected JSON, saving as README", "reason", reply.Reason)
	}
	writeJSON(w, http.StatusOK, reply.Response())
}
