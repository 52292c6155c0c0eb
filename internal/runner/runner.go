package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

const waitDelay = time.Second

// Sink receives the output lines and running state of a command.
// *state.Store satisfies it.
type Sink interface {
	SetRunning(running bool)
	AddTerminalOutput(line string)
}

// Run executes name with args inside dir and streams combined stdout and
// stderr to sink one line at a time. The sink is marked running for the
// lifetime of the process. A non-zero exit is reported through the exit
// code, not as an error.
func Run(ctx context.Context, dir, name string, args []string, sink Sink) (int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "CI=1")
	cmd.WaitDelay = waitDelay

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		return -1, fmt.Errorf("start %s: %w", name, err)
	}
	sink.SetRunning(true)
	defer sink.SetRunning(false)

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			sink.AddTerminalOutput(scanner.Text())
		}
		// Drain so the process never blocks on a full pipe.
		io.Copy(io.Discard, pr)
	}()

	err := cmd.Wait()
	pw.Close()
	<-done

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case ctx.Err() != nil:
		return -1, fmt.Errorf("%s interrupted: %w", name, ctx.Err())
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), nil
	default:
		return -1, err
	}
}

// Shell runs line through sh inside dir.
func Shell(ctx context.Context, dir, line string, sink Sink) (int, error) {
	return Run(ctx, dir, "sh", []string{"-c", line}, sink)
}
