package session

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/pop-sh/pop/internal/generate"
	"github.com/pop-sh/pop/internal/log"
	"github.com/pop-sh/pop/internal/verify"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	t.Cleanup(func() { m.Close() })
	return m
}

func TestCreateWritesRunningRecord(t *testing.T) {
	m := newTestManager(t)

	sess, err := m.Create(KindGenerate, "gpt-oss", "list files", "out.sh")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !strings.HasPrefix(sess.ID, "pop-") {
		t.Errorf("id %q missing pop- prefix", sess.ID)
	}
	if !strings.HasSuffix(sess.ID, "-"+strconv.Itoa(os.Getpid())) {
		t.Errorf("id %q missing pid suffix", sess.ID)
	}

	got, err := m.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != StateRunning {
		t.Errorf("state = %q, want running", got.State)
	}
	if got.Model != "gpt-oss" || got.Prompt != "list files" || got.OutputPath != "out.sh" {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.Kind != KindGenerate {
		t.Errorf("kind = %q", got.Kind)
	}

	// No torn temp file should survive the atomic write.
	entries, _ := os.ReadDir(m.Dir(sess.ID))
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestAttachWorkerUpdatesPID(t *testing.T) {
	m := newTestManager(t)
	sess, err := m.Create(KindFix, "gpt-oss", "fix it", "script.py_popfix")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := m.AttachWorker(sess.ID, 4242); err != nil {
		t.Fatalf("AttachWorker: %v", err)
	}
	got, err := m.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.PID != 4242 {
		t.Errorf("pid = %d, want 4242", got.PID)
	}
}

func TestMarkTerminalIsIdempotent(t *testing.T) {
	m := newTestManager(t)
	sess, err := m.Create(KindGenerate, "gpt-oss", "p", "out.py")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := m.MarkTerminal(sess.ID, StateSucceeded, "", 2, nil, "out-1.py"); err != nil {
		t.Fatalf("MarkTerminal: %v", err)
	}

	// Second transition must not overwrite the first terminal record.
	if err := m.MarkTerminal(sess.ID, StateFailed, "late failure", 3, nil, ""); err != nil {
		t.Fatalf("second MarkTerminal: %v", err)
	}

	got, err := m.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != StateSucceeded {
		t.Errorf("state = %q, want succeeded", got.State)
	}
	if got.Attempt != 2 {
		t.Errorf("attempts = %d, want 2", got.Attempt)
	}
	if got.OutputPath != "out-1.py" {
		t.Errorf("output = %q, want out-1.py", got.OutputPath)
	}
	if got.EndedAt.IsZero() {
		t.Error("EndedAt not set")
	}
	if got.Reason != "" {
		t.Errorf("reason = %q, want empty", got.Reason)
	}
}

func TestMarkTerminalRejectsNonTerminalState(t *testing.T) {
	m := newTestManager(t)
	sess, err := m.Create(KindGenerate, "gpt-oss", "p", "out.py")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := m.MarkTerminal(sess.ID, StateRunning, "", 0, nil, ""); err == nil {
		t.Fatal("expected error for non-terminal state")
	}
}

func TestListHealsCrashedWorker(t *testing.T) {
	m := newTestManager(t)
	sess, err := m.Create(KindGenerate, "gpt-oss", "p", "out.py")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// A pid far beyond any plausible pid table entry.
	if err := m.AttachWorker(sess.ID, 999999999); err != nil {
		t.Fatalf("AttachWorker: %v", err)
	}

	active, past, err := m.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active = %d sessions, want 0", len(active))
	}
	if len(past) != 1 {
		t.Fatalf("past = %d sessions, want 1", len(past))
	}
	healed := past[0]
	if healed.State != StateFailed {
		t.Errorf("state = %q, want failed", healed.State)
	}
	if healed.Reason != "process vanished" {
		t.Errorf("reason = %q", healed.Reason)
	}
	if healed.EndedAt.IsZero() {
		t.Error("EndedAt not set on healed session")
	}

	// Healing is durable: a second List must not find anything active.
	active, past, err = m.List(10)
	if err != nil {
		t.Fatalf("second List: %v", err)
	}
	if len(active) != 0 || len(past) != 1 {
		t.Errorf("after heal: active=%d past=%d", len(active), len(past))
	}
}

func TestListKeepsLiveWorkerActive(t *testing.T) {
	m := newTestManager(t)
	sess, err := m.Create(KindGenerate, "gpt-oss", "p", "out.py")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// The creating process (this test) is alive.
	active, past, err := m.List(10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(active) != 1 || active[0].ID != sess.ID {
		t.Fatalf("active = %+v, want [%s]", active, sess.ID)
	}
	if len(past) != 0 {
		t.Errorf("past = %d, want 0", len(past))
	}
}

func TestPastSessionsLimitAndOrder(t *testing.T) {
	m := newTestManager(t)

	ids := []string{"pop-20250101-000001-1", "pop-20250101-000002-1", "pop-20250101-000003-1"}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range ids {
		dir := m.Dir(id)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		sess := &Session{
			ID:        id,
			Kind:      KindGenerate,
			Model:     "gpt-oss",
			State:     StateSucceeded,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			EndedAt:   base.Add(time.Duration(i+1) * time.Minute),
		}
		if err := writeMeta(filepath.Join(dir, metaFileName), recordFromSession(sess)); err != nil {
			t.Fatal(err)
		}
	}

	_, past, err := m.List(2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(past) != 2 {
		t.Fatalf("past = %d sessions, want 2", len(past))
	}
	// Most recent two, oldest first.
	if past[0].ID != ids[1] || past[1].ID != ids[2] {
		t.Errorf("past order = [%s %s]", past[0].ID, past[1].ID)
	}
}

func TestRecorderWritesBothLogs(t *testing.T) {
	m := newTestManager(t)
	sess, err := m.Create(KindGenerate, "gpt-oss", "p", "out.py")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := m.NewRecorder(sess.ID)
	rec.RecordAttempt(generate.Attempt{
		Index:       1,
		RawResponse: "```python\nprint(1)\n```",
		Extracted:   "print(1)\n",
		Syntax:      verify.Result{Pass: false, Diagnostic: "unexpected indent"},
		Outcome:     generate.OutcomeRejectedSyntax,
	})
	rec.RecordAttempt(generate.Attempt{
		Index:        2,
		RawResponse:  "```python\nprint(2)\n```",
		Extracted:    "print(2)\n",
		Syntax:       verify.Result{Pass: true},
		Completeness: verify.Result{Pass: true},
		Outcome:      generate.OutcomeAccepted,
	})

	text, err := os.ReadFile(m.LogPath(sess.ID))
	if err != nil {
		t.Fatalf("reading session log: %v", err)
	}
	for _, want := range []string{"Attempt 1", "unexpected indent", "Attempt 2", "completeness: COMPLETE"} {
		if !strings.Contains(string(text), want) {
			t.Errorf("session.log missing %q", want)
		}
	}

	events, err := log.NewLogger(m.EventsPath(sess.ID)).ReadAll()
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	var kinds []string
	for _, e := range events {
		kinds = append(kinds, e.Event)
	}
	joined := strings.Join(kinds, ",")
	if !strings.Contains(joined, log.EventSyntaxFailed) || !strings.Contains(joined, log.EventAttemptAccepted) {
		t.Errorf("events = %v", kinds)
	}
}
