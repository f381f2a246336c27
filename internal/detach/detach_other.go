//go:build !unix && !windows

package detach

import "syscall"

func sysProcAttr() *syscall.SysProcAttr { return nil }
