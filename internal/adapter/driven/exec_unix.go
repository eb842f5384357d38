//go:build unix

package driven

import (
	"os/exec"
	"syscall"
)

// detachFromTerminal puts the child in its own process group so a terminal
// interrupt reaches only this program, which then stops between endpoints.
func detachFromTerminal(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
