package runner

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	lines   []string
	running []bool
}

func (r *recorder) SetRunning(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = append(r.running, v)
}

func (r *recorder) AddTerminalOutput(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

func TestShellStreamsLines(t *testing.T) {
	rec := &recorder{}
	code, err := Shell(testContext(t), t.TempDir(), "echo one; echo two 1>&2; echo three", rec)
	if err != nil {
		t.Fatal(err)
	}
	if code != 0 {
		t.Errorf("exit code = %d", code)
	}
	if !reflect.DeepEqual(rec.lines, []string{"one", "two", "three"}) {
		t.Errorf("lines = %q", rec.lines)
	}
	if !reflect.DeepEqual(rec.running, []bool{true, false}) {
		t.Errorf("running transitions = %v", rec.running)
	}
}

func TestShellExitCode(t *testing.T) {
	rec := &recorder{}
	code, err := Shell(testContext(t), t.TempDir(), "echo failing; exit 3", rec)
	if err != nil {
		t.Fatal(err)
	}
	if code != 3 {
		t.Errorf("exit code = %d; want 3", code)
	}
}

func TestRunMissingBinary(t *testing.T) {
	rec := &recorder{}
	if _, err := Run(testContext(t), t.TempDir(), "hatch-no-such-binary", nil, rec); err == nil {
		t.Fatal("expected an error for a missing binary")
	}
	if len(rec.running) != 0 {
		t.Errorf("running should not toggle when the command never starts: %v", rec.running)
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(testContext(t), 100*time.Millisecond)
	defer cancel()
	rec := &recorder{}
	if _, err := Shell(ctx, t.TempDir(), "sleep 5", rec); err == nil {
		t.Fatal("expected an interruption error")
	}
	if rec.running[len(rec.running)-1] {
		t.Error("running flag left set after cancellation")
	}
}
