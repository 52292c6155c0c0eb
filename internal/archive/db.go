package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sokinpui/hatch/internal/state"
	"github.com/sokinpui/hatch/model"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS snapshots (
    idx        INTEGER PRIMARY KEY,
    created_at INTEGER NOT NULL,
    message    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS snapshot_files (
    idx     INTEGER NOT NULL,
    path    TEXT NOT NULL,
    content TEXT NOT NULL,
    PRIMARY KEY (idx, path)
);

CREATE TABLE IF NOT EXISTS messages (
    session TEXT NOT NULL,
    seq     INTEGER NOT NULL,
    id      TEXT NOT NULL,
    role    TEXT NOT NULL,
    content TEXT NOT NULL,
    ts      TEXT NOT NULL,
    PRIMARY KEY (session, seq)
);

CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const currentIndexKey = "current_index"

// DB persists generation history and chat transcripts.
type DB struct {
	db *sql.DB
}

var _ state.Persister = (*DB)(nil)

// Open opens or creates the archive at dbPath.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// LoadHistory returns all snapshots in index order and the saved pointer.
func (d *DB) LoadHistory() ([]state.HistoryEntry, int, error) {
	rows, err := d.db.Query("SELECT idx, created_at, message FROM snapshots ORDER BY idx")
	if err != nil {
		return nil, -1, fmt.Errorf("query snapshots: %w", err)
	}
	var entries []state.HistoryEntry
	for rows.Next() {
		var idx int
		var e state.HistoryEntry
		if err := rows.Scan(&idx, &e.Timestamp, &e.Message); err != nil {
			rows.Close()
			return nil, -1, err
		}
		e.Files = make(map[string]string)
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, -1, err
	}

	files, err := d.db.Query("SELECT idx, path, content FROM snapshot_files")
	if err != nil {
		return nil, -1, fmt.Errorf("query snapshot files: %w", err)
	}
	defer files.Close()
	for files.Next() {
		var idx int
		var path, content string
		if err := files.Scan(&idx, &path, &content); err != nil {
			return nil, -1, err
		}
		if idx >= 0 && idx < len(entries) {
			entries[idx].Files[path] = content
		}
	}
	if err := files.Err(); err != nil {
		return nil, -1, err
	}

	index := -1
	var raw string
	err = d.db.QueryRow("SELECT value FROM meta WHERE key = ?", currentIndexKey).Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		index = len(entries) - 1
	case err != nil:
		return nil, -1, err
	default:
		if index, err = strconv.Atoi(raw); err != nil {
			return nil, -1, fmt.Errorf("invalid history pointer %q: %w", raw, err)
		}
	}
	return entries, index, nil
}

// SaveEntry writes one snapshot, replacing any snapshot at the same index.
func (d *DB) SaveEntry(index int, entry state.HistoryEntry) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM snapshot_files WHERE idx = ?", index); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT OR REPLACE INTO snapshots (idx, created_at, message) VALUES (?, ?, ?)",
		index, entry.Timestamp, entry.Message); err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT INTO snapshot_files (idx, path, content) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for path, content := range entry.Files {
		if _, err := stmt.Exec(index, path, content); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
	}
	return tx.Commit()
}

// TruncateHistory removes snapshots at index from and later.
func (d *DB) TruncateHistory(from int) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM snapshot_files WHERE idx >= ?", from); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM snapshots WHERE idx >= ?", from); err != nil {
		return err
	}
	return tx.Commit()
}

// SetCurrentIndex saves the history pointer.
func (d *DB) SetCurrentIndex(index int) error {
	_, err := d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)",
		currentIndexKey, strconv.Itoa(index))
	return err
}

// SaveTranscript stores the chat log of a session, replacing earlier copies.
func (d *DB) SaveTranscript(session string, messages []model.ChatMessage) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE session = ?", session); err != nil {
		return err
	}
	for _, m := range messages {
		if _, err := tx.Exec(
			"INSERT INTO messages (session, seq, id, role, content, ts) VALUES (?, ?, ?, ?, ?, ?)",
			session, m.Seq, m.ID, string(m.Role), m.Content, m.Timestamp.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("save message %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// Transcript loads the chat log of a session in sequence order.
func (d *DB) Transcript(session string) ([]model.ChatMessage, error) {
	rows, err := d.db.Query(
		"SELECT seq, id, role, content, ts FROM messages WHERE session = ? ORDER BY seq", session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		var role, ts string
		if err := rows.Scan(&m.Seq, &m.ID, &role, &m.Content, &ts); err != nil {
			return nil, err
		}
		m.Role = model.Role(role)
		m.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Sessions lists archived session names, most recent first.
func (d *DB) Sessions() ([]string, error) {
	rows, err := d.db.Query("SELECT session FROM messages GROUP BY session ORDER BY MAX(ts) DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
