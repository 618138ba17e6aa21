//go:build !windows

package session

import "syscall"

// processAlive checks whether a process with the given PID is still running
// by sending signal 0 (Unix-specific).
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return syscall.Kill(pid, 0) == nil
}
