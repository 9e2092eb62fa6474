package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"

	"cmcl/internal/config"
)

// TensorBoard serves the training summaries written under a log directory.
type TensorBoard struct {
	cfg    config.TensorBoardConfig
	runner Runner
	out    io.Writer
	logger *zap.Logger
	DryRun bool
}

func NewTensorBoard(cfg config.TensorBoardConfig, runner Runner, out io.Writer, logger *zap.Logger) *TensorBoard {
	return &TensorBoard{cfg: cfg, runner: runner, out: out, logger: logger}
}

// Command returns the TensorBoard invocation.
func (t *TensorBoard) Command() Command {
	return Command{
		Name: t.cfg.Binary,
		Args: []string{"--logdir", t.cfg.LogDir, "--port", strconv.Itoa(t.cfg.Port)},
	}
}

// Run blocks until TensorBoard exits or ctx is cancelled. Cancellation (for
// example Ctrl+C) is a normal stop, not an error.
func (t *TensorBoard) Run(ctx context.Context) error {
	fmt.Fprintf(t.out, "Starting TensorBoard with logs from: %s\n", t.cfg.LogDir)
	fmt.Fprintf(t.out, "Access TensorBoard at: http://localhost:%d\n", t.cfg.Port)

	if _, err := os.Stat(t.cfg.LogDir); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(t.out, "Warning: Log directory %s does not exist yet.\n", t.cfg.LogDir)
		fmt.Fprintln(t.out, "TensorBoard will start but may not show any data until training begins.")
		t.logger.Warn("log directory missing", zap.String("logdir", t.cfg.LogDir))
	}

	cmd := t.Command()
	fmt.Fprintf(t.out, "Executing: %s\n", cmd)
	if t.DryRun {
		return nil
	}

	err := t.runner.Run(ctx, cmd)
	if ctx.Err() != nil {
		fmt.Fprintln(t.out, "\nTensorBoard stopped.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: starting TensorBoard: %w", ErrLaunchFailed, err)
	}
	return nil
}
