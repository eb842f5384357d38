package driven

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the command
// was killed, in case it left children holding them open.
const waitDelay = 2 * time.Second

// CommandResult holds the captured output of an external command.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	// Signaled is set when the process was killed by a signal instead of exiting.
	Signaled bool
}

// CommandExitError reports a command that ran but did not exit cleanly.
type CommandExitError struct {
	Command  string
	ExitCode int
	Signaled bool
	Stderr   string
}

func (e *CommandExitError) Error() string {
	if e.Signaled {
		return fmt.Sprintf("%s: terminated by signal", e.Command)
	}
	msg := fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

// ExecRunner runs external commands, waiting for them to exit.
type ExecRunner struct {
	timeout time.Duration
	logger  *slog.Logger
}

// NewExecRunner creates a runner. A zero timeout means commands only stop
// when the context given to Run is done.
func NewExecRunner(timeout time.Duration, logger *slog.Logger) *ExecRunner {
	return &ExecRunner{timeout: timeout, logger: logger}
}

// Run starts name with args and waits for it to exit. A command that could
// not be started returns a plain error; a command that exited non-zero or
// was killed returns its captured output together with a *CommandExitError.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string) (CommandResult, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = waitDelay
	detachFromTerminal(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	r.logger.Debug("running command", "command", name, "args", args)
	err := cmd.Run()

	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
		result.Signaled = result.ExitCode == -1
	}

	r.logger.Debug("command finished",
		"command", name,
		"exit_code", result.ExitCode,
		"elapsed", time.Since(start).String(),
	)

	if err == nil {
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return result, &CommandExitError{
			Command:  name,
			ExitCode: result.ExitCode,
			Signaled: result.Signaled,
			Stderr:   result.Stderr,
		}
	}
	return result, fmt.Errorf("failed to run %s: %w", name, err)
}
