//go:build !windows

package process

import (
	"os/exec"
	"syscall"
)

// Isolate places cmd in its own process group so KillProcessGroup can
// reach every child it spawns.
func Isolate(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

// KillProcessGroup sends SIGKILL to the process group led by pid.
// Errors are ignored: the group may already be gone.
func KillProcessGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
