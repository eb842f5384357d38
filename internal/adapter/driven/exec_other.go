//go:build !unix

package driven

import "os/exec"

func detachFromTerminal(cmd *exec.Cmd) {}
