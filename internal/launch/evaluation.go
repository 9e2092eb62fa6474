package launch

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"cmcl/internal/config"
)

// Evaluation runs the Python script that extracts features from a trained
// checkpoint into the save directory.
type Evaluation struct {
	cfg    config.RunEvalConfig
	runner Runner
	out    io.Writer
	logger *zap.Logger
	DryRun bool
}

func NewEvaluation(cfg config.RunEvalConfig, runner Runner, out io.Writer, logger *zap.Logger) *Evaluation {
	return &Evaluation{cfg: cfg, runner: runner, out: out, logger: logger}
}

// Command returns the script invocation. The GPU selection is passed both as
// a flag and through CUDA_VISIBLE_DEVICES.
func (e *Evaluation) Command() Command {
	return Command{
		Name: e.cfg.Python,
		Args: []string{
			e.cfg.Script,
			"--dataset", e.cfg.Dataset,
			"--model_folder", e.cfg.ModelFolder,
			"--iterations", strconv.Itoa(e.cfg.Iterations),
			"--gpu_id", e.cfg.GPUID,
			"--save", e.cfg.Save,
		},
		Env: []string{"CUDA_VISIBLE_DEVICES=" + e.cfg.GPUID},
	}
}

func (e *Evaluation) Run(ctx context.Context) error {
	fmt.Fprintf(e.out, "Running evaluation for %s\n", e.cfg.Dataset)
	fmt.Fprintf(e.out, "Model folder: %s\n", e.cfg.ModelFolder)
	fmt.Fprintf(e.out, "Trained for %d iterations\n", e.cfg.Iterations)
	fmt.Fprintf(e.out, "Using GPUs: %s\n", e.cfg.GPUID)
	fmt.Fprintf(e.out, "Saving features to: %s\n", e.cfg.Save)

	cmd := e.Command()
	fmt.Fprintf(e.out, "Executing: %s\n", cmd)
	if e.DryRun {
		return nil
	}
	if err := e.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLaunchFailed, e.cfg.Script, err)
	}
	e.logger.Info("feature extraction finished", zap.String("save", e.cfg.Save))
	return nil
}
