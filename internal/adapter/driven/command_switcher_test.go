package driven

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alorle/vpn-ranker/internal/endpoint"
)

// mockRunner is a test double for CommandRunner.
type mockRunner struct {
	runFunc func(ctx context.Context, name string, args []string) (CommandResult, error)
	calls   [][]string
}

func (m *mockRunner) Run(ctx context.Context, name string, args []string) (CommandResult, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	if m.runFunc != nil {
		return m.runFunc(ctx, name, args)
	}
	return CommandResult{}, nil
}

func TestNewCommandSwitcher(t *testing.T) {
	_, err := NewCommandSwitcher(nil, "nordvpn", nil, newTestLogger())
	assert.Error(t, err)

	_, err = NewCommandSwitcher(&mockRunner{}, "", nil, newTestLogger())
	assert.Error(t, err)
}

func TestCommandSwitcher_SwitchTo(t *testing.T) {
	ctx := context.Background()

	t.Run("expands placeholders", func(t *testing.T) {
		runner := &mockRunner{}
		sw, err := NewCommandSwitcher(runner, "NordVPN.exe", []string{"-c", "-n", "Singapore #{number}"}, newTestLogger())
		require.NoError(t, err)

		require.NoError(t, sw.SwitchTo(ctx, "sg467.nordvpn.com"))
		require.Len(t, runner.calls, 1)
		assert.Equal(t, []string{"NordVPN.exe", "-c", "-n", "Singapore #467"}, runner.calls[0])
	})

	t.Run("wraps client failure", func(t *testing.T) {
		runner := &mockRunner{
			runFunc: func(ctx context.Context, name string, args []string) (CommandResult, error) {
				return CommandResult{ExitCode: 1}, &CommandExitError{Command: name, ExitCode: 1}
			},
		}
		sw, err := NewCommandSwitcher(runner, "nordvpn", []string{"connect", "{label}"}, newTestLogger())
		require.NoError(t, err)

		err = sw.SwitchTo(ctx, "sg467.nordvpn.com")
		require.Error(t, err)

		var exitErr *CommandExitError
		require.True(t, errors.As(err, &exitErr))
		assert.Equal(t, 1, exitErr.ExitCode)
		assert.Equal(t, []string{"nordvpn", "connect", "sg467"}, runner.calls[0])
	})

	t.Run("endpoint without number", func(t *testing.T) {
		runner := &mockRunner{}
		sw, err := NewCommandSwitcher(runner, "nordvpn", []string{"#{number}"}, newTestLogger())
		require.NoError(t, err)

		err = sw.SwitchTo(ctx, "vpn.example.com")
		assert.ErrorIs(t, err, endpoint.ErrNoServerIndex)
		assert.Empty(t, runner.calls, "client must not run without a server number")
	})
}
