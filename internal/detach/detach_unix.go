//go:build unix

package detach

import "syscall"

// A new session also means a new process group without a controlling
// terminal.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setsid: true}
}
