// manager.go is the top-level lifecycle surface: create, attach, terminate,
// and list sessions with liveness reconciliation.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pop-sh/pop/internal/log"
)

const (
	sessionsDirName = "sessions"
	indexFileName   = "active.db"
	metaFileName    = "meta.yaml"
	logFileName     = "session.log"
	eventsFileName  = "events.jsonl"
	workerLogName   = "worker.log"
)

// Manager coordinates session records under one pop directory.
type Manager struct {
	root  string
	index *Index
}

// NewManager opens (and if needed initializes) the session storage under root.
func NewManager(root string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Join(root, sessionsDirName), 0755); err != nil {
		return nil, fmt.Errorf("creating sessions directory: %w", err)
	}

	index, err := OpenIndex(filepath.Join(root, indexFileName))
	if err != nil {
		return nil, err
	}

	return &Manager{root: root, index: index}, nil
}

// Close releases the active index.
func (m *Manager) Close() error {
	return m.index.Close()
}

// SessionsDir returns the directory holding all session directories.
func (m *Manager) SessionsDir() string {
	return filepath.Join(m.root, sessionsDirName)
}

// ActiveIDs returns the ids currently registered in the active index.
func (m *Manager) ActiveIDs() (map[string]bool, error) {
	entries, err := m.index.Active()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(entries))
	for _, e := range entries {
		ids[e.ID] = true
	}
	return ids, nil
}

// Dir returns the session's directory.
func (m *Manager) Dir(id string) string {
	return filepath.Join(m.root, sessionsDirName, id)
}

// LogPath returns the session's plain-text log path.
func (m *Manager) LogPath(id string) string {
	return filepath.Join(m.Dir(id), logFileName)
}

// EventsPath returns the session's JSONL event log path.
func (m *Manager) EventsPath(id string) string {
	return filepath.Join(m.Dir(id), eventsFileName)
}

// WorkerLogPath returns the file that captures the detached worker's stdio.
func (m *Manager) WorkerLogPath(id string) string {
	return filepath.Join(m.Dir(id), workerLogName)
}

// Create allocates a fresh session id, writes the initial running record,
// and registers the job in the active index under the caller's pid. The
// worker pid is attached later via AttachWorker.
func (m *Manager) Create(kind Kind, model, prompt, outputPath string) (*Session, error) {
	now := time.Now()
	id := fmt.Sprintf("pop-%s-%d", now.Format("20060102-150405"), os.Getpid())

	dir := m.Dir(id)
	if _, err := os.Stat(dir); err == nil {
		return nil, fmt.Errorf("session %s already exists", id)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating session directory: %w", err)
	}

	sess := &Session{
		ID:         id,
		Kind:       kind,
		Model:      model,
		Prompt:     prompt,
		OutputPath: outputPath,
		State:      StateRunning,
		CreatedAt:  now,
		PID:        os.Getpid(),
	}

	if err := writeMeta(filepath.Join(dir, metaFileName), recordFromSession(sess)); err != nil {
		return nil, err
	}
	if err := m.index.Register(id, sess.PID); err != nil {
		return nil, err
	}

	_ = log.NewLogger(m.EventsPath(id)).Append(log.LogEvent{
		Event:     log.EventSessionStarted,
		SessionID: id,
		Model:     model,
		Data:      map[string]interface{}{"kind": string(kind), "output": outputPath},
	})

	return sess, nil
}

// AttachWorker records the detached worker's process identity for liveness
// checks.
func (m *Manager) AttachWorker(id string, pid int) error {
	sess, err := m.Get(id)
	if err != nil {
		return err
	}
	sess.PID = pid

	if err := writeMeta(filepath.Join(m.Dir(id), metaFileName), recordFromSession(sess)); err != nil {
		return err
	}
	if err := m.index.SetPID(id, pid); err != nil {
		return err
	}

	_ = log.NewLogger(m.EventsPath(id)).Append(log.LogEvent{
		Event:     log.EventWorkerAttached,
		SessionID: id,
		Data:      map[string]interface{}{"pid": pid},
	})
	return nil
}

// Get reads the durable record for id.
func (m *Manager) Get(id string) (*Session, error) {
	rec, err := readMeta(filepath.Join(m.Dir(id), metaFileName))
	if err != nil {
		return nil, err
	}
	return rec.toSession(id), nil
}

// MarkTerminal transitions the session to a terminal state and drops it from
// the active index. Idempotent: a second call on an already-terminal session
// only logs and returns nil, preserving the first terminal record.
func (m *Manager) MarkTerminal(id string, state State, reason string, attempts int, deps []string, finalOutput string) error {
	if !state.Terminal() {
		return fmt.Errorf("state %q is not terminal", state)
	}

	sess, err := m.Get(id)
	if err != nil {
		return err
	}

	events := log.NewLogger(m.EventsPath(id))

	if sess.State.Terminal() {
		_ = events.Append(log.LogEvent{
			Event:     log.EventSessionCompleted,
			SessionID: id,
			Reason:    "duplicate terminal transition ignored",
		})
		return nil
	}

	sess.State = state
	sess.EndedAt = time.Now()
	sess.Reason = reason
	if attempts > 0 {
		sess.Attempt = attempts
	}
	if len(deps) > 0 {
		sess.Dependencies = deps
	}
	if finalOutput != "" {
		sess.OutputPath = finalOutput
	}

	if err := writeMeta(filepath.Join(m.Dir(id), metaFileName), recordFromSession(sess)); err != nil {
		return err
	}
	if err := m.index.Remove(id); err != nil {
		return err
	}

	event := log.EventSessionCompleted
	if state == StateFailed {
		event = log.EventSessionFailed
	}
	_ = events.Append(log.LogEvent{
		Event:     event,
		SessionID: id,
		Attempt:   sess.Attempt,
		Reason:    reason,
		Output:    sess.OutputPath,
	})
	return nil
}

// List reconciles the active index against process liveness and returns
// active sessions plus the recentLimit most recent past sessions, both
// oldest-first. An indexed session whose worker no longer exists is
// reclassified as Failed before being returned (self-healing).
func (m *Manager) List(recentLimit int) (active, past []Session, err error) {
	entries, err := m.index.Active()
	if err != nil {
		return nil, nil, err
	}

	for _, e := range entries {
		sess, getErr := m.Get(e.ID)
		if getErr != nil {
			// Record is gone; drop the stale index entry.
			_ = m.index.Remove(e.ID)
			continue
		}

		if processAlive(e.PID) {
			active = append(active, *sess)
			continue
		}

		if healErr := m.MarkTerminal(e.ID, StateFailed, "process vanished", sess.Attempt, nil, ""); healErr != nil {
			return nil, nil, healErr
		}
	}

	past, err = m.pastSessions(recentLimit)
	if err != nil {
		return nil, nil, err
	}
	return active, past, nil
}

// pastSessions scans the metadata files for terminal sessions, oldest-first,
// keeping only the limit most recent.
func (m *Manager) pastSessions(limit int) ([]Session, error) {
	entries, err := os.ReadDir(filepath.Join(m.root, sessionsDirName))
	if err != nil {
		return nil, fmt.Errorf("reading sessions directory: %w", err)
	}

	var past []Session
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rec, err := readMeta(filepath.Join(m.Dir(entry.Name()), metaFileName))
		if err != nil {
			continue // torn or foreign directory, skip
		}
		sess := rec.toSession(entry.Name())
		if sess.State.Terminal() {
			past = append(past, *sess)
		}
	}

	sort.Slice(past, func(i, j int) bool {
		return past[i].CreatedAt.Before(past[j].CreatedAt)
	})

	if limit > 0 && len(past) > limit {
		past = past[len(past)-limit:]
	}
	return past, nil
}
