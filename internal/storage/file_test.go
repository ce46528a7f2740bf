package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediatopicbot/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	for _, driver := range []string{"", "none", "NONE"} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("open %q: %v", driver, err)
		}
		if st != nil {
			t.Fatalf("expected nil store for driver %q", driver)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestFileAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deletions.jsonl")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	now := time.Now()
	entries := []DeletionEntry{
		{At: now, ChatID: 456, ThreadID: 123, MessageID: 1, FromUsername: "alice", Outcome: "deleted"},
		{At: now, ChatID: 456, ThreadID: 123, MessageID: 2, Outcome: "delete_failed", Error: "forbidden"},
	}
	for _, e := range entries {
		if err := st.AppendDeletion(context.Background(), e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open written file: %v", err)
	}
	defer f.Close()

	var got []DeletionEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e DeletionEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			t.Fatalf("bad json line: %v", err)
		}
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got))
	}
	if got[0].MessageID != 1 || got[0].FromUsername != "alice" {
		t.Fatalf("unexpected first entry: %+v", got[0])
	}
	if got[1].Outcome != "delete_failed" || got[1].Error != "forbidden" {
		t.Fatalf("unexpected second entry: %+v", got[1])
	}
}

func TestSQLiteAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	st, err := Open(Config{Driver: "sqlite", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	err = st.AppendDeletion(context.Background(), DeletionEntry{
		ChatID:    456,
		ThreadID:  123,
		MessageID: 7,
		MediaKind: "voice",
		Outcome:   "deleted",
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database file missing: %v", err)
	}
}
