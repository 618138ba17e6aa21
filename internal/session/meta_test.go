package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMetaRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.yaml")

	sess := &Session{
		ID:           "pop-20250601-120000-77",
		Kind:         KindFix,
		Model:        "gpt-oss",
		Prompt:       "make it retry",
		OutputPath:   "tool.py_popfix",
		State:        StateFailed,
		Attempt:      3,
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		EndedAt:      time.Date(2025, 6, 1, 12, 3, 0, 0, time.UTC),
		PID:          77,
		Reason:       "attempt limit reached",
		Dependencies: []string{"opencv-python", "requests"},
	}

	if err := writeMeta(path, recordFromSession(sess)); err != nil {
		t.Fatalf("writeMeta: %v", err)
	}
	rec, err := readMeta(path)
	if err != nil {
		t.Fatalf("readMeta: %v", err)
	}
	got := rec.toSession(sess.ID)

	if got.Kind != sess.Kind || got.Model != sess.Model || got.Prompt != sess.Prompt {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.State != StateFailed {
		t.Errorf("state = %q", got.State)
	}
	if got.Attempt != 3 || got.PID != 77 {
		t.Errorf("attempts/pid = %d/%d", got.Attempt, got.PID)
	}
	if !got.CreatedAt.Equal(sess.CreatedAt) || !got.EndedAt.Equal(sess.EndedAt) {
		t.Errorf("times = %v / %v", got.CreatedAt, got.EndedAt)
	}
	if got.Reason != sess.Reason {
		t.Errorf("reason = %q", got.Reason)
	}
	if len(got.Dependencies) != 2 || got.Dependencies[0] != "opencv-python" {
		t.Errorf("deps = %v", got.Dependencies)
	}
}

func TestMetaUsesStableKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.yaml")
	sess := &Session{
		ID:        "pop-20250601-120000-1",
		Kind:      KindGenerate,
		Model:     "gpt-oss",
		Prompt:    "hello",
		State:     StateRunning,
		CreatedAt: time.Now(),
		PID:       1,
	}
	if err := writeMeta(path, recordFromSession(sess)); err != nil {
		t.Fatalf("writeMeta: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"START_TIME:", "MODEL_NAME:", "PROMPT_TEXT:", "KIND:", "STATUS:", "PID:"} {
		if !strings.Contains(string(raw), key) {
			t.Errorf("meta missing key %s", key)
		}
	}
	if strings.Contains(string(raw), "END_TIME:") {
		t.Error("running record should omit END_TIME")
	}
}

func TestReadMetaMissingFile(t *testing.T) {
	if _, err := readMeta(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing meta file")
	}
}

func TestIndexRoundtrip(t *testing.T) {
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "active.db"))
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	defer idx.Close()

	if err := idx.Register("pop-a", 10); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := idx.Register("pop-b", 20); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := idx.SetPID("pop-a", 11); err != nil {
		t.Fatalf("SetPID: %v", err)
	}

	entries, err := idx.Active()
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	pids := map[string]int{}
	for _, e := range entries {
		pids[e.ID] = e.PID
	}
	if pids["pop-a"] != 11 || pids["pop-b"] != 20 {
		t.Errorf("pids = %v", pids)
	}

	if err := idx.Remove("pop-a"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	entries, err = idx.Active()
	if err != nil {
		t.Fatalf("Active after remove: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "pop-b" {
		t.Errorf("entries = %+v", entries)
	}
}
