package setup

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cmcl/internal/config"
	"cmcl/internal/launch"
)

// scriptedRunner answers Output calls from a table keyed by the last argument
// (the package name) or the command name.
type scriptedRunner struct {
	missing map[string]bool
	gpu     string
	gpuErr  error
	calls   []launch.Command
}

func (s *scriptedRunner) Run(ctx context.Context, cmd launch.Command) error {
	_, err := s.Output(ctx, cmd)
	return err
}

func (s *scriptedRunner) Output(_ context.Context, cmd launch.Command) ([]byte, error) {
	s.calls = append(s.calls, cmd)
	if cmd.Name == "nvidia-smi" {
		return []byte(s.gpu), s.gpuErr
	}
	pkg := cmd.Args[len(cmd.Args)-1]
	if s.missing[pkg] {
		return nil, errors.New("exit status 1")
	}
	return nil, nil
}

func projectRoot(t *testing.T, cfg config.SetupConfig) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range cfg.Directories {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
	}
	files := append(append(append([]string{}, cfg.ProjectFiles...), cfg.ModelFiles...), cfg.ToolFiles...)
	for _, f := range files {
		p := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("# stub\n"), 0o644))
	}
	return root
}

func sectionByName(t *testing.T, r Report, name string) Section {
	t.Helper()
	for _, s := range r.Sections {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("section %q not found", name)
	return Section{}
}

func TestChecker_AllPresent(t *testing.T) {
	cfg := config.Default().Setup
	cfg.Root = projectRoot(t, cfg)
	runner := &scriptedRunner{gpu: "NVIDIA A100-SXM4-40GB\nNVIDIA A100-SXM4-40GB\n"}

	report, err := NewChecker(cfg, runner, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.AllPassed())

	names := make([]string, 0, len(report.Sections))
	for _, s := range report.Sections {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Python Packages", "Project Files", "Model Files", "Tool Files", "Directories", "GPU Support"}, names)

	gpu := sectionByName(t, report, "GPU Support")
	require.Len(t, gpu.Items, 2)
	assert.Equal(t, "CUDA available with 2 device(s)", gpu.Items[0].Name)
	assert.Equal(t, "Current device: NVIDIA A100-SXM4-40GB", gpu.Items[1].Name)

	var buf bytes.Buffer
	Render(&buf, report)
	assert.Contains(t, buf.String(), "✓ All checks passed! The setup is complete.")
	assert.Contains(t, buf.String(), "✓ torch")
	assert.NotContains(t, buf.String(), "Common fixes")
}

func TestChecker_PackageProbeCommand(t *testing.T) {
	cfg := config.Default().Setup
	cfg.Root = projectRoot(t, cfg)
	cfg.Packages = []string{"numpy"}
	runner := &scriptedRunner{}

	_, err := NewChecker(cfg, runner, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, runner.calls)
	assert.Equal(t, "python3", runner.calls[0].Name)
	assert.Equal(t, []string{"-c", findSpec, "numpy"}, runner.calls[0].Args)
}

func TestChecker_MissingPieces(t *testing.T) {
	cfg := config.Default().Setup
	cfg.Root = projectRoot(t, cfg)
	require.NoError(t, os.Remove(filepath.Join(cfg.Root, "models", "dgcnn.py")))
	require.NoError(t, os.RemoveAll(filepath.Join(cfg.Root, "checkpoints")))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Root, "checkpoints"), nil, 0o644))
	runner := &scriptedRunner{missing: map[string]bool{"h5py": true}, gpuErr: errors.New("executable file not found")}

	report, err := NewChecker(cfg, runner, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.AllPassed())

	assert.False(t, sectionByName(t, report, "Python Packages").Passed())
	assert.True(t, sectionByName(t, report, "Project Files").Passed())
	assert.False(t, sectionByName(t, report, "Model Files").Passed())

	dirs := sectionByName(t, report, "Directories")
	assert.Contains(t, dirs.Items, Item{Name: "checkpoints", Detail: "not a directory"})

	var buf bytes.Buffer
	Render(&buf, report)
	out := buf.String()
	assert.Contains(t, out, "✗ h5py (missing)")
	assert.Contains(t, out, "✗ models/dgcnn.py (missing)")
	assert.Contains(t, out, "✗ CUDA not available")
	assert.Contains(t, out, "Some checks failed")
	assert.Contains(t, out, "pip install -r requirements.txt")
}

func TestChecker_GPUIsOptional(t *testing.T) {
	cfg := config.Default().Setup
	cfg.Root = projectRoot(t, cfg)
	runner := &scriptedRunner{gpuErr: errors.New("exit status 9")}

	report, err := NewChecker(cfg, runner, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, sectionByName(t, report, "GPU Support").Passed())
	assert.True(t, report.AllPassed())
}

func TestChecker_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewChecker(config.Default().Setup, &scriptedRunner{}, zap.NewNop()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
