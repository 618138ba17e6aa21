// meta.go persists the per-session metadata record. Writes are atomic
// (temp file + rename) so a concurrent reader never observes a torn record.
package session

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// metaRecord is the on-disk key/value form of a Session.
type metaRecord struct {
	StartTime   string `yaml:"START_TIME"`
	Model       string `yaml:"MODEL_NAME"`
	OutputFile  string `yaml:"OUTPUT_FILE"`
	Prompt      string `yaml:"PROMPT_TEXT"`
	Kind        string `yaml:"KIND"`
	Status      string `yaml:"STATUS"`
	EndTime     string `yaml:"END_TIME,omitempty"`
	PID         int    `yaml:"PID"`
	Attempts    int    `yaml:"ATTEMPTS,omitempty"`
	MissingDeps string `yaml:"MISSING_DEPS,omitempty"`
	Reason      string `yaml:"REASON,omitempty"`
}

func recordFromSession(s *Session) metaRecord {
	rec := metaRecord{
		StartTime:  s.CreatedAt.UTC().Format(time.RFC3339),
		Model:      s.Model,
		OutputFile: s.OutputPath,
		Prompt:     s.Prompt,
		Kind:       string(s.Kind),
		Status:     s.State.status(),
		PID:        s.PID,
		Attempts:   s.Attempt,
		Reason:     s.Reason,
	}
	if !s.EndedAt.IsZero() {
		rec.EndTime = s.EndedAt.UTC().Format(time.RFC3339)
	}
	if len(s.Dependencies) > 0 {
		rec.MissingDeps = strings.Join(s.Dependencies, ",")
	}
	return rec
}

func (r metaRecord) toSession(id string) *Session {
	s := &Session{
		ID:         id,
		Kind:       Kind(r.Kind),
		Model:      r.Model,
		Prompt:     r.Prompt,
		OutputPath: r.OutputFile,
		Attempt:    r.Attempts,
		PID:        r.PID,
		Reason:     r.Reason,
	}

	switch r.Status {
	case "success":
		s.State = StateSucceeded
	case "failed":
		s.State = StateFailed
	default:
		s.State = StateRunning
	}

	if t, err := time.Parse(time.RFC3339, r.StartTime); err == nil {
		s.CreatedAt = t
	}
	if r.EndTime != "" {
		if t, err := time.Parse(time.RFC3339, r.EndTime); err == nil {
			s.EndedAt = t
		}
	}
	if r.MissingDeps != "" {
		s.Dependencies = strings.Split(r.MissingDeps, ",")
	}
	return s
}

// writeMeta writes the record to path atomically.
func writeMeta(path string, rec metaRecord) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshalling session metadata: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("writing temp metadata: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming metadata into place: %w", err)
	}
	return nil
}

// readMeta reads and parses the record at path.
func readMeta(path string) (metaRecord, error) {
	var rec metaRecord

	data, err := os.ReadFile(path)
	if err != nil {
		return rec, fmt.Errorf("reading session metadata: %w", err)
	}
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("parsing session metadata: %w", err)
	}
	return rec, nil
}
