package storage

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileRecorder_AppendAndLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "journal.jsonl")
	rec, err := NewFileRecorder(p)
	if err != nil {
		t.Fatalf("init recorder: %v", err)
	}

	ev1 := Event{ID: "a", Timestamp: time.Unix(1, 0).UTC(), UserID: 1, Kind: KindResearch, OK: true}
	ev2 := Event{ID: "b", Timestamp: time.Unix(2, 0).UTC(), UserID: 2, Kind: KindPublish, Detail: "403"}
	if err := rec.Append(ev1); err != nil {
		t.Fatalf("append1: %v", err)
	}
	if err := rec.Append(ev2); err != nil {
		t.Fatalf("append2: %v", err)
	}
	// garbage lines are ignored on load
	f, _ := os.OpenFile(p, os.O_APPEND|os.O_WRONLY, 0o644)
	_, _ = f.WriteString("not json\n\n")
	_ = f.Close()

	events, err := rec.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("want 2, got %d", len(events))
	}
	if events[0].UserID != 1 || events[1].Kind != KindPublish || events[1].OK {
		t.Fatalf("order mismatch: %+v", events)
	}
}

func TestNewEvent(t *testing.T) {
	a := NewEvent(7, KindDraft, true, "ok")
	b := NewEvent(7, KindDraft, true, "ok")
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("ids not unique: %q %q", a.ID, b.ID)
	}
	if a.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp not UTC")
	}
}

func TestJSONFile_Update(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "doc.json")
	jf, err := NewJSONFile(p)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var empty map[string]int
	if err := jf.Read(&empty); err != nil || empty != nil {
		t.Fatalf("missing file should read as empty: %v %v", empty, err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			doc := map[string]int{}
			if err := jf.Update(&doc, func() error { doc["n"]++; return nil }); err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	got := map[string]int{}
	if err := jf.Read(&got); err != nil {
		t.Fatalf("read: %v", err)
	}
	if got["n"] != 20 {
		t.Fatalf("lost updates: n=%d", got["n"])
	}
	matches, _ := filepath.Glob(p + ".*.tmp")
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}
