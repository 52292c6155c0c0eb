package relay

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/sokinpui/hatch/internal/parser"
	"github.com/sokinpui/hatch/model"
)

// FallbackFile and FallbackMessage form the response used when the model
// reply is not the requested JSON object.
const (
	FallbackFile    = "README.md"
	FallbackMessage = "Generated response (parsing failed, saved as README)"
)

// ReplyKind tells a usable project reply from one that needs the README
// fallback.
type ReplyKind int

const (
	// ReplyOK carries the files and message the model returned.
	ReplyOK ReplyKind = iota
	// ReplyMalformed is answered with the README fallback.
	ReplyMalformed
)

// String returns "ok" or "malformed".
func (k ReplyKind) String() string {
	if k == ReplyOK {
		return "ok"
	}
	return "malformed"
}

// Reply is the decoded model output. Raw is always set; Files and Message
// are only meaningful for ReplyOK.
type Reply struct {
	Kind    ReplyKind
	Files   map[string]string
	Message string
	Raw     string
	// Reason explains a ReplyMalformed result.
	Reason string
}

// DecodeReply reads a model reply as {"files": {...}, "message": "..."}.
// A reply wrapped in a single ```json fence is unwrapped first.
func DecodeReply(raw string) Reply {
	body := strings.TrimSpace(raw)
	if inner, ok := parser.SoleBlock(raw, "json"); ok {
		body = inner
	}

	var payload struct {
		Files   map[string]string `json:"files"`
		Message string            `json:"message"`
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	if err := dec.Decode(&payload); err != nil {
		return Reply{Kind: ReplyMalformed, Raw: raw, Reason: err.Error()}
	}
	if dec.More() {
		return Reply{Kind: ReplyMalformed, Raw: raw, Reason: "trailing data after JSON object"}
	}
	if payload.Files == nil {
		return Reply{Kind: ReplyMalformed, Raw: raw, Reason: `missing "files" object`}
	}
	return Reply{Kind: ReplyOK, Files: payload.Files, Message: payload.Message, Raw: raw}
}

// Response maps the reply onto the wire response, substituting the
// fallback for a malformed reply.
func (r Reply) Response() model.GenerateResponse {
	if r.Kind == ReplyOK {
		return model.GenerateResponse{Files: r.Files, Message: r.Message}
	}
	return model.GenerateResponse{
		Files:   map[string]string{FallbackFile: r.Raw},
		Message: FallbackMessage,
	}
}
