package fs

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sokinpui/hatch/internal/tree"
	"github.com/sokinpui/hatch/internal/ui"
	"github.com/sokinpui/hatch/model"
)

// Action says whether exporting a file creates or overwrites it.
type Action string

const (
	ActionCreate Action = "create"
	ActionModify Action = "modify"
)

// MaxImportSize is the largest file Import reads into the project.
const MaxImportSize = 1 << 20

// skippedDirs are never imported.
var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"dist":         true,
	"build":        true,
}

// Plan describes how a file set maps onto a directory.
type Plan struct {
	Root    string
	Actions map[string]Action
	Dirs    []string
}

// NewPlan resolves every project path under root and determines which
// files are new and which directories are missing.
func NewPlan(root string, files map[string]string) (*Plan, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	plan := &Plan{Root: abs, Actions: make(map[string]Action, len(files))}
	dirs := make(map[string]struct{})
	for _, path := range tree.SortedPaths(files) {
		target, err := Resolve(abs, path)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(target); os.IsNotExist(err) {
			plan.Actions[path] = ActionCreate
			dir := filepath.Dir(target)
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				dirs[dir] = struct{}{}
			}
		} else {
			plan.Actions[path] = ActionModify
		}
	}

	for dir := range dirs {
		plan.Dirs = append(plan.Dirs, dir)
	}
	sort.Strings(plan.Dirs)
	return plan, nil
}

// Resolve maps a slash-delimited project path to a location under root.
// Paths that would leave root are rejected.
func Resolve(root, path string) (string, error) {
	if err := tree.Validate(path); err != nil {
		return "", err
	}
	for _, part := range strings.Split(path, "/") {
		if part == "." || part == ".." {
			return "", fmt.Errorf("%w: %q leaves the project directory", tree.ErrInvalidPath, path)
		}
	}
	return filepath.Join(root, filepath.FromSlash(path)), nil
}

// ConfirmDirs lists the directories a plan creates and asks for approval on
// in. An empty list needs no approval.
func ConfirmDirs(dirs []string, in io.Reader) bool {
	if len(dirs) == 0 {
		return true
	}

	ui.Info("\nThe following directories need to be created:")
	for _, dir := range dirs {
		ui.Path("- %s", dir)
	}

	fmt.Fprint(os.Stderr, ui.Prompt("Do you want to create all these directories? (y/N): "))
	response, _ := bufio.NewReader(in).ReadString('\n')
	if strings.TrimSpace(strings.ToLower(response)) != "y" {
		ui.Warning("Directory creation declined.")
		return false
	}
	return true
}

// Apply creates the planned directories and writes every file. progress,
// when set, is called after each file.
func (p *Plan) Apply(files map[string]string, progress func(current, total int)) (model.Summary, error) {
	for _, dir := range p.Dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return model.Summary{}, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	var summary model.Summary
	paths := tree.SortedPaths(files)
	for i, path := range paths {
		target, err := Resolve(p.Root, path)
		if err == nil {
			err = os.MkdirAll(filepath.Dir(target), 0o755)
		}
		if err == nil {
			err = os.WriteFile(target, []byte(files[path]), 0o644)
		}

		switch {
		case err != nil:
			ui.Warning("Could not write %s: %v", path, err)
			summary.Failed = append(summary.Failed, path)
		case p.Actions[path] == ActionModify:
			summary.Modified = append(summary.Modified, path)
		default:
			summary.Created = append(summary.Created, path)
		}

		if progress != nil {
			progress(i+1, len(paths))
		}
	}

	summary.Message = fmt.Sprintf("Exported %d file(s) to %s", len(paths)-len(summary.Failed), p.Root)
	return summary, nil
}

// Export writes files under root, creating directories as needed.
func Export(root string, files map[string]string) (model.Summary, error) {
	plan, err := NewPlan(root, files)
	if err != nil {
		return model.Summary{}, err
	}
	return plan.Apply(files, nil)
}

// Import reads the text files under root into a project file set. Version
// control, dependency and hidden directories are skipped, as are binary
// files and files larger than MaxImportSize.
func Import(root string) (map[string]string, error) {
	files := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (skippedDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() > MaxImportSize {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if bytes.IndexByte(content, 0) >= 0 || !utf8.Valid(content) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(content)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
