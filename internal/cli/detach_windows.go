//go:build windows

package cli

import "syscall"

// CREATE_NEW_PROCESS_GROUP | DETACHED_PROCESS
const detachedCreationFlags = 0x00000200 | 0x00000008

func detachAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{CreationFlags: detachedCreationFlags}
}
