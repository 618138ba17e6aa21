// Package cleanup implements pruning of old pop session directories.
package cleanup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Session directories are named pop-YYYYMMDD-HHMMSS-<pid>.
const (
	idPrefix        = "pop-"
	timestampLayout = "20060102-150405"
)

// sessionTime extracts the creation timestamp from a session directory name.
// Returns false for names that are not session ids.
func sessionTime(name string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(name, idPrefix)
	if !ok || len(rest) < len(timestampLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(timestampLayout, rest[:len(timestampLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// PruneByAge removes session directories older than maxAgeDays. Ids present
// in keep (active sessions) are never removed. If dryRun is true, nothing is
// deleted; the function only returns the names that would be removed.
func PruneByAge(sessionsDir string, maxAgeDays int, keep map[string]bool, dryRun bool) ([]string, error) {
	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sessions directory: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	var pruned []string

	for _, entry := range entries {
		if !entry.IsDir() || keep[entry.Name()] {
			continue
		}

		t, ok := sessionTime(entry.Name())
		if !ok {
			continue
		}

		if t.Before(cutoff) {
			if !dryRun {
				path := filepath.Join(sessionsDir, entry.Name())
				if rmErr := os.RemoveAll(path); rmErr != nil {
					return pruned, fmt.Errorf("removing %s: %w", entry.Name(), rmErr)
				}
			}
			pruned = append(pruned, entry.Name())
		}
	}

	return pruned, nil
}

// PruneKeepRecent removes all session directories except the most recent
// keepCount, never touching ids present in keep. If dryRun is true, nothing
// is deleted.
func PruneKeepRecent(sessionsDir string, keepCount int, keep map[string]bool, dryRun bool) ([]string, error) {
	entries, err := os.ReadDir(sessionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading sessions directory: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		if !entry.IsDir() || keep[entry.Name()] {
			continue
		}
		if _, ok := sessionTime(entry.Name()); ok {
			dirs = append(dirs, entry.Name())
		}
	}

	// Timestamped names sort chronologically.
	sort.Strings(dirs)

	if len(dirs) <= keepCount {
		return nil, nil
	}

	toRemove := dirs[:len(dirs)-keepCount]
	var pruned []string

	for _, name := range toRemove {
		if !dryRun {
			path := filepath.Join(sessionsDir, name)
			if rmErr := os.RemoveAll(path); rmErr != nil {
				return pruned, fmt.Errorf("removing %s: %w", name, rmErr)
			}
		}
		pruned = append(pruned, name)
	}

	return pruned, nil
}
