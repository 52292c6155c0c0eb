package nvim

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/neovim/go-client/nvim"

	"github.com/sokinpui/hatch/internal/fs"
	"github.com/sokinpui/hatch/internal/tree"
	"github.com/sokinpui/hatch/model"
)

// Manager handles the connection and interaction with a Neovim instance.
type Manager struct {
	nvim          *nvim.Nvim
	isSelfStarted bool
	cmd           *exec.Cmd
	socketPath    string
}

// New creates a new Neovim manager, connecting to an existing instance
// or starting a new headless one.
func New() (*Manager, error) {
	if addr := os.Getenv("NVIM_LISTEN_ADDRESS"); addr != "" {
		v, err := nvim.Dial(addr)
		if err == nil {
			return &Manager{nvim: v}, nil
		}
	}

	tmpDir, err := os.MkdirTemp("", "hatch-nvim-")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir for nvim: %w", err)
	}
	socketPath := filepath.Join(tmpDir, "nvim.sock")

	cmd := exec.Command("nvim", "--headless", "--clean", "--listen", socketPath)
	if err := cmd.Start(); err != nil {
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to start headless nvim: %w. Is 'nvim' in your PATH?", err)
	}

	// Wait for the socket file to appear.
	for i := 0; i < 40; i++ {
		if _, err := os.Stat(socketPath); err == nil {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	v, err := nvim.Dial(socketPath)
	if err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		os.RemoveAll(tmpDir)
		return nil, fmt.Errorf("failed to connect to headless nvim: %w", err)
	}

	m := &Manager{
		nvim:          v,
		isSelfStarted: true,
		cmd:           cmd,
		socketPath:    socketPath,
	}
	m.configureTempInstance()
	return m, nil
}

func (m *Manager) configureTempInstance() {
	b := m.nvim.NewBatch()
	b.Command("set hidden")
	b.Command("set noswapfile")
	if err := b.Execute(); err != nil {
		// Non-fatal: buffers still load, only switching may prompt.
	}
}

// Close disconnects from Neovim and cleans up if it was self-started.
func (m *Manager) Close() {
	if m.nvim != nil {
		m.nvim.Close()
	}
	if m.isSelfStarted && m.cmd != nil && m.cmd.Process != nil {
		if err := m.cmd.Process.Kill(); err == nil {
			m.cmd.Wait()
			os.RemoveAll(filepath.Dir(m.socketPath))
		}
	}
}

// processSequentially runs processFn over items in order, collecting the
// paths that succeeded and failed.
func processSequentially[T any](
	items []T,
	processFn func(item T) (path string, success bool),
	progressCb func(int),
) (succeeded, failed []string) {
	for i, item := range items {
		path, success := processFn(item)
		if success {
			succeeded = append(succeeded, path)
		} else {
			failed = append(failed, path)
		}
		if progressCb != nil {
			progressCb(i + 1)
		}
	}
	return succeeded, failed
}

// Push loads every project file into a buffer named after its location
// under root. With save set, modified buffers are written to disk.
func (m *Manager) Push(root string, files map[string]string, save bool, progressCb func(int)) model.Summary {
	paths := tree.SortedPaths(files)
	updated, failed := processSequentially(paths, func(path string) (string, bool) {
		abs, err := fs.Resolve(root, path)
		if err != nil {
			return path, false
		}
		if save {
			if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
				return path, false
			}
		}
		return path, m.setBuffer(abs, files[path])
	}, progressCb)

	if save && len(updated) > 0 {
		if err := m.nvim.Command("wa!"); err != nil {
			return model.Summary{Modified: updated, Failed: failed, Message: fmt.Sprintf("Buffers updated but not saved: %v", err)}
		}
	}
	return model.Summary{Modified: updated, Failed: failed}
}

// Pull reads the buffers of paths back as project files.
func (m *Manager) Pull(root string, paths []string) (map[string]string, []string) {
	files := make(map[string]string, len(paths))
	_, failed := processSequentially(paths, func(path string) (string, bool) {
		abs, err := fs.Resolve(root, path)
		if err != nil {
			return path, false
		}
		content, err := m.buffer(abs)
		if err != nil {
			return path, false
		}
		files[path] = content
		return path, true
	}, nil)
	return files, failed
}

func (m *Manager) setBuffer(absPath, content string) bool {
	lines := strings.Split(content, "\n")
	byteContent := make([][]byte, len(lines))
	for i, s := range lines {
		byteContent[i] = []byte(s)
	}

	b := m.nvim.NewBatch()
	b.Command("hide edit " + escapePath(absPath))
	b.SetBufferLines(0, 0, -1, true, byteContent)
	return b.Execute() == nil
}

func (m *Manager) buffer(absPath string) (string, error) {
	if err := m.nvim.Command("hide edit " + escapePath(absPath)); err != nil {
		return "", err
	}
	buf, err := m.nvim.CurrentBuffer()
	if err != nil {
		return "", err
	}
	lines, err := m.nvim.BufferLines(buf, 0, -1, true)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = string(l)
	}
	return strings.Join(parts, "\n"), nil
}

func escapePath(p string) string {
	return strings.NewReplacer(" ", `\ `, "%", `\%`, "#", `\#`).Replace(p)
}
