// Package launch starts the external tools the workflow depends on:
// TensorBoard and the Python feature extraction script.
package launch

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrLaunchFailed wraps every failure to start or finish an external process.
var ErrLaunchFailed = errors.New("launch failed")

// Command is an external process invocation. Env holds extra KEY=VALUE pairs
// added to the current environment.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// String renders the command the way a shell user would type it.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	for _, p := range append([]string{c.Name}, c.Args...) {
		if p == "" || strings.ContainsAny(p, " \t\"'") {
			p = strconv.Quote(p)
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

// Runner executes commands.
type Runner interface {
	// Run streams the process output and waits for it to exit.
	Run(ctx context.Context, cmd Command) error
	// Output waits for the process and returns its standard output.
	Output(ctx context.Context, cmd Command) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
	logger *zap.Logger
}

// NewExecRunner returns a runner attached to the process's stdout and stderr.
func NewExecRunner(logger *zap.Logger) *ExecRunner {
	return &ExecRunner{Stdout: os.Stdout, Stderr: os.Stderr, logger: logger}
}

func (r *ExecRunner) command(ctx context.Context, c Command) *exec.Cmd {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	return cmd
}

func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := r.command(ctx, c)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	r.logger.Debug("starting process", zap.String("command", c.String()))
	if err := cmd.Run(); err != nil {
		return err
	}
	r.logger.Debug("process exited", zap.String("command", c.Name), zap.Int("exit_code", cmd.ProcessState.ExitCode()))
	return nil
}

func (r *ExecRunner) Output(ctx context.Context, c Command) ([]byte, error) {
	cmd := r.command(ctx, c)
	r.logger.Debug("starting process", zap.String("command", c.String()))
	return cmd.Output()
}
