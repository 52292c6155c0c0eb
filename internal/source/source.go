package source

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/sokinpui/hatch/internal/ui"
)

// Provider reads the text of an assistant reply.
type Provider struct {
	stdin     *os.File
	readClip  func() (string, error)
	writeClip func(string) error
}

// New returns a provider reading os.Stdin and the system clipboard.
func New() *Provider {
	return &Provider{
		stdin:     os.Stdin,
		readClip:  clipboard.ReadAll,
		writeClip: clipboard.WriteAll,
	}
}

// Content reads path when given ("-" is stdin), otherwise stdin when it is
// piped, otherwise the clipboard.
func (p *Provider) Content(path string) (string, error) {
	switch {
	case path == "-":
		return p.readStdin()
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return string(b), nil
	case !term.IsTerminal(int(p.stdin.Fd())):
		return p.readStdin()
	}

	ui.Header("--- Reading from clipboard ---")
	content, err := p.readClip()
	if err != nil {
		return "", fmt.Errorf("failed to read from clipboard: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		ui.Warning("Clipboard is empty. Nothing to process.")
		return "", nil
	}
	return content, nil
}

// Copy places text on the clipboard.
func (p *Provider) Copy(text string) error {
	if err := p.writeClip(text); err != nil {
		return fmt.Errorf("failed to write to clipboard: %w", err)
	}
	return nil
}

func (p *Provider) readStdin() (string, error) {
	content, err := io.ReadAll(p.stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read from stdin: %w", err)
	}
	return string(content), nil
}
