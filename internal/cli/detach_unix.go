//go:build !windows

package cli

import "syscall"

// detachAttr puts the worker in its own session so it survives the parent
// exiting and ignores the controlling terminal.
func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
