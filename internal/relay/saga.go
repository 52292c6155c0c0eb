package relay

import (
	"fmt"
	"strings"
)

// StepKind names the GitHub object a saga step wrote.
type StepKind string

const (
	StepBlob   StepKind = "blob"
	StepTree   StepKind = "tree"
	StepCommit StepKind = "commit"
	StepRef    StepKind = "ref"
)

// SagaStep is one completed remote write of a push.
type SagaStep struct {
	Kind StepKind
	Path string
	SHA  string
}

// Saga records the completed steps of a push. A failed push leaves the
// recorded objects on the remote; nothing is rolled back.
type Saga struct {
	Steps []SagaStep
}

func (s *Saga) record(kind StepKind, path, sha string) {
	s.Steps = append(s.Steps, SagaStep{Kind: kind, Path: path, SHA: sha})
}

// Count returns the number of completed steps of kind.
func (s *Saga) Count(kind StepKind) int {
	n := 0
	for _, st := range s.Steps {
		if st.Kind == kind {
			n++
		}
	}
	return n
}

func (s *Saga) String() string {
	parts := make([]string, 0, len(s.Steps))
	for _, st := range s.Steps {
		if st.Path != "" {
			parts = append(parts, fmt.Sprintf("%s(%s)=%s", st.Kind, st.Path, st.SHA))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%s", st.Kind, st.SHA))
		}
	}
	return strings.Join(parts, " ")
}
