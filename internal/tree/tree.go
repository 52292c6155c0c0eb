package tree

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sokinpui/hatch/model"
)

var (
	// ErrInvalidPath is returned for paths with empty segments, such as a
	// leading or trailing slash or "a//b".
	ErrInvalidPath = errors.New("invalid file path")
	// ErrPathConflict is returned when a path is used both as a file and as
	// a directory prefix of another path.
	ErrPathConflict = errors.New("path is both a file and a folder")
)

// Validate checks that a path can be placed in a tree.
func Validate(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, path)
		}
	}
	return nil
}

// SortedPaths returns the keys of files in lexicographic order.
func SortedPaths(files map[string]string) []string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Build derives the folder/file forest of a flat path -> content mapping.
//
// Paths are visited in lexicographic order so that a folder node always
// exists before a child is attached to it. Nodes are shared by cumulative
// path, folder children keep the order in which they were first seen, and
// root nodes are returned in first-seen order.
func Build(files map[string]string) ([]*model.FileNode, error) {
	roots := []*model.FileNode{}
	byPath := make(map[string]*model.FileNode, len(files))

	for _, path := range SortedPaths(files) {
		if err := Validate(path); err != nil {
			return nil, err
		}

		parts := strings.Split(path, "/")
		current := ""
		for i, part := range parts {
			parent := current
			if current == "" {
				current = part
			} else {
				current = current + "/" + part
			}

			isFile := i == len(parts)-1
			if existing, ok := byPath[current]; ok {
				if isFile || !existing.IsFolder() {
					return nil, fmt.Errorf("%w: %q", ErrPathConflict, current)
				}
				continue
			}

			node := &model.FileNode{Name: part, Path: current}
			if isFile {
				content := files[path]
				node.Type = model.NodeFile
				node.Content = &content
			} else {
				node.Type = model.NodeFolder
				node.Children = []*model.FileNode{}
			}
			byPath[current] = node

			if parent == "" {
				roots = append(roots, node)
			} else {
				byPath[parent].Children = append(byPath[parent].Children, node)
			}
		}
	}

	return roots, nil
}

// Walk visits every node depth-first in tree order.
func Walk(nodes []*model.FileNode, fn func(node *model.FileNode, depth int)) {
	var walk func([]*model.FileNode, int)
	walk = func(level []*model.FileNode, depth int) {
		for _, n := range level {
			fn(n, depth)
			if n.IsFolder() {
				walk(n.Children, depth+1)
			}
		}
	}
	walk(nodes, 0)
}

// Render draws the forest as an indented ASCII tree, one node per line.
// Folders carry a trailing slash.
func Render(nodes []*model.FileNode) string {
	var lines []string
	var walk func(prefix string, level []*model.FileNode)
	walk = func(prefix string, level []*model.FileNode) {
		for i, n := range level {
			last := i == len(level)-1
			marker, next := "├─ ", "│  "
			if last {
				marker, next = "└─ ", "   "
			}
			line := prefix + marker + n.Name
			if n.IsFolder() {
				line += "/"
			}
			lines = append(lines, line)
			if n.IsFolder() {
				walk(prefix+next, n.Children)
			}
		}
	}
	walk("", nodes)
	return strings.Join(lines, "\n")
}

// Dir is a nested directory listing: each entry is either a file's content
// (string) or a sub-directory (Dir).
type Dir map[string]any

// Nest converts a flat mapping into nested directories.
func Nest(files map[string]string) (Dir, error) {
	nodes, err := Build(files)
	if err != nil {
		return nil, err
	}
	var nest func([]*model.FileNode) Dir
	nest = func(level []*model.FileNode) Dir {
		d := make(Dir, len(level))
		for _, n := range level {
			if n.IsFolder() {
				d[n.Name] = nest(n.Children)
			} else {
				d[n.Name] = *n.Content
			}
		}
		return d
	}
	return nest(nodes), nil
}
