//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// Isolate is a no-op on Windows; taskkill /T walks the process tree.
func Isolate(*exec.Cmd) {}

// KillProcessGroup force-kills pid and its children with taskkill.
func KillProcessGroup(pid int) {
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run() // #nosec G204 -- pid is numeric
}
