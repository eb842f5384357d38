package driven

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alorle/vpn-ranker/internal/endpoint"
)

// CommandRunner runs an external command to completion.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string) (CommandResult, error)
}

// CommandSwitcher implements the EndpointSwitcher port by invoking a VPN
// client CLI. The argument template may use the {endpoint}, {label} and
// {number} placeholders.
type CommandSwitcher struct {
	runner  CommandRunner
	command string
	args    []string
	logger  *slog.Logger
}

// NewCommandSwitcher creates a switcher running command with the argument
// template args for every endpoint.
func NewCommandSwitcher(runner CommandRunner, command string, args []string, logger *slog.Logger) (*CommandSwitcher, error) {
	if runner == nil {
		return nil, errors.New("runner cannot be nil")
	}
	if command == "" {
		return nil, errors.New("switch command cannot be empty")
	}
	return &CommandSwitcher{
		runner:  runner,
		command: command,
		args:    append([]string(nil), args...),
		logger:  logger,
	}, nil
}

// SwitchTo runs the VPN client for host and waits for it to exit.
func (s *CommandSwitcher) SwitchTo(ctx context.Context, host string) error {
	args, err := endpoint.Expand(s.args, host)
	if err != nil {
		return fmt.Errorf("failed to build switch command: %w", err)
	}

	s.logger.Debug("switching endpoint", "endpoint", host, "command", s.command, "args", args)

	result, err := s.runner.Run(ctx, s.command, args)
	if err != nil {
		s.logger.Debug("vpn client output", "endpoint", host, "stdout", result.Stdout, "stderr", result.Stderr)
		return fmt.Errorf("failed to switch to %s: %w", host, err)
	}
	return nil
}
