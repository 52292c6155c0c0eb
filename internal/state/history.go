package state

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// HistoryEntry is the file set produced by one generation.
type HistoryEntry struct {
	Timestamp int64
	Message   string
	Files     map[string]string
}

// Persister stores history entries and the history pointer.
type Persister interface {
	LoadHistory() (entries []HistoryEntry, currentIndex int, err error)
	SaveEntry(index int, entry HistoryEntry) error
	TruncateHistory(from int) error
	SetCurrentIndex(index int) error
}

// History is an undo/redo pointer over generated file sets. Index -1 is the
// empty project before the first generation. It is safe for concurrent use.
type History struct {
	mu           sync.Mutex
	entries      []HistoryEntry
	currentIndex int
	persister    Persister
}

// NewHistory creates a history, loading earlier entries when p is non-nil.
func NewHistory(p Persister) (*History, error) {
	h := &History{currentIndex: -1, persister: p}
	if p == nil {
		return h, nil
	}
	entries, index, err := p.LoadHistory()
	if err != nil {
		return nil, fmt.Errorf("could not load history: %w", err)
	}
	if index >= len(entries) {
		index = len(entries) - 1
	}
	h.entries = slices.Clone(entries)
	h.currentIndex = index
	return h, nil
}

// Record adds a new file set after the current position, dropping any
// entries that had been undone. The in-memory history is always updated;
// a persistence error is returned and leaves the archive behind memory.
func (h *History) Record(files map[string]string, message string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	from := h.currentIndex + 1
	truncated := from < len(h.entries)
	entry := HistoryEntry{
		Timestamp: time.Now().UTC().Unix(),
		Message:   message,
		Files:     copyFiles(files),
	}
	h.entries = append(h.entries[:from:from], entry)
	h.currentIndex = from

	if h.persister == nil {
		return nil
	}
	if truncated {
		if err := h.persister.TruncateHistory(from); err != nil {
			return fmt.Errorf("could not truncate history: %w", err)
		}
	}
	if err := h.persister.SaveEntry(from, entry); err != nil {
		return fmt.Errorf("could not save history entry: %w", err)
	}
	return h.persistIndex()
}

// Undo moves back one entry and returns the file set to restore. ok is
// false when there is nothing to undo. The move happens in memory even when
// saving the new position fails; that failure is returned as err.
func (h *History) Undo() (files map[string]string, ok bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.currentIndex < 0 {
		return nil, false, nil
	}
	h.currentIndex--
	err = h.persistIndex()
	if h.currentIndex < 0 {
		return map[string]string{}, true, err
	}
	return copyFiles(h.entries[h.currentIndex].Files), true, err
}

// Redo moves forward one entry and returns the file set to restore, with
// the same error semantics as Undo.
func (h *History) Redo() (files map[string]string, ok bool, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	next := h.currentIndex + 1
	if next >= len(h.entries) {
		return nil, false, nil
	}
	h.currentIndex = next
	err = h.persistIndex()
	return copyFiles(h.entries[h.currentIndex].Files), true, err
}

// Current returns the file set at the current position.
func (h *History) Current() (HistoryEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.currentIndex < 0 {
		return HistoryEntry{}, false
	}
	e := h.entries[h.currentIndex]
	e.Files = copyFiles(e.Files)
	return e, true
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Position returns the current index, -1 before the first entry.
func (h *History) Position() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentIndex
}

func (h *History) persistIndex() error {
	if h.persister == nil {
		return nil
	}
	if err := h.persister.SetCurrentIndex(h.currentIndex); err != nil {
		return fmt.Errorf("could not save history position: %w", err)
	}
	return nil
}

func copyFiles(files map[string]string) map[string]string {
	cp := make(map[string]string, len(files))
	for p, c := range files {
		cp[p] = c
	}
	return cp
}
