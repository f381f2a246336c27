// Package detach starts child processes outside the caller's process
// group, so signals aimed at the parent (Ctrl-C, a service stop) do not
// reach them.
package detach

import "os/exec"

// Apply marks cmd to run detached. It must be called before cmd.Start.
func Apply(cmd *exec.Cmd) {
	cmd.SysProcAttr = sysProcAttr()
}
