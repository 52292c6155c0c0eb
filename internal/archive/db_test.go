package archive

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sokinpui/hatch/internal/state"
	"github.com/sokinpui/hatch/model"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "hatch.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestHistoryRoundTripThroughState(t *testing.T) {
	db := openTemp(t)

	h, err := state.NewHistory(db)
	if err != nil {
		t.Fatal(err)
	}
	v1 := map[string]string{"index.html": "<h1>1</h1>"}
	v2 := map[string]string{"index.html": "<h1>2</h1>", "src/app.js": "run()"}
	v3 := map[string]string{"README.md": "three"}
	for i, v := range []map[string]string{v1, v2} {
		if err := h.Record(v, "gen"); err != nil {
			t.Fatalf("Record %d: %v", i, err)
		}
	}
	if _, _, err := h.Undo(); err != nil {
		t.Fatal(err)
	}
	if err := h.Record(v3, "replaced"); err != nil {
		t.Fatal(err)
	}

	reloaded, err := state.NewHistory(db)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Len() != 2 || reloaded.Position() != 1 {
		t.Fatalf("len=%d pos=%d; want 2, 1", reloaded.Len(), reloaded.Position())
	}
	cur, _ := reloaded.Current()
	if !reflect.DeepEqual(cur.Files, v3) || cur.Message != "replaced" {
		t.Errorf("current = %+v", cur)
	}
	files, ok, err := reloaded.Undo()
	if err != nil || !ok || !reflect.DeepEqual(files, v1) {
		t.Errorf("Undo = %v, %v, %v; want %v", files, ok, err, v1)
	}
}

func TestEmptyArchive(t *testing.T) {
	db := openTemp(t)
	entries, index, err := db.LoadHistory()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 || index != -1 {
		t.Errorf("entries=%d index=%d; want 0, -1", len(entries), index)
	}
}

func TestTranscripts(t *testing.T) {
	db := openTemp(t)
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msgs := []model.ChatMessage{
		{ID: "a", Seq: 1, Role: model.RoleUser, Content: "make a todo app", Timestamp: ts},
		{ID: "b", Seq: 2, Role: model.RoleAssistant, Content: "Created a todo app", Timestamp: ts.Add(time.Second)},
	}
	if err := db.SaveTranscript("s1", msgs); err != nil {
		t.Fatal(err)
	}
	if err := db.SaveTranscript("s1", msgs); err != nil {
		t.Fatalf("saving twice should replace: %v", err)
	}

	got, err := db.Transcript("s1")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, msgs) {
		t.Errorf("Transcript mismatch:\ngot:  %+v\nwant: %+v", got, msgs)
	}

	sessions, err := db.Sessions()
	if err != nil || len(sessions) != 1 || sessions[0] != "s1" {
		t.Errorf("Sessions = %v, %v", sessions, err)
	}
}
