package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_MatchesTrainingScriptDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "ModelNet40", cfg.Train.Dataset)
	assert.Equal(t, 40, cfg.Train.NumClasses)
	assert.Equal(t, 96, cfg.Train.BatchSize)
	assert.Equal(t, 1000, cfg.Train.Epochs)
	assert.Equal(t, 0.001, cfg.Train.LR)
	assert.Equal(t, 20000, cfg.Train.LRStep)
	assert.Equal(t, 0.9, cfg.Train.Momentum)
	assert.Equal(t, 1e-3, cfg.Train.WeightDecay)
	assert.Equal(t, 1024, cfg.Train.NumPoints)
	assert.Equal(t, 10.0, cfg.Train.WeightCenter)
	assert.Equal(t, "1", cfg.Train.GPUID)
	assert.Equal(t, 20, cfg.Train.K)
	assert.Equal(t, []int{1, 2, 4}, cfg.Eval.Views)
	assert.Equal(t, 55000, cfg.RunEval.Iterations)
	assert.Equal(t, 6006, cfg.TensorBoard.Port)

	require.NoError(t, cfg.Train.Validate())
	require.NoError(t, cfg.Eval.Validate())
	require.NoError(t, cfg.RunEval.Validate())
	require.NoError(t, cfg.TensorBoard.Validate())
	require.NoError(t, cfg.Log.Validate())
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cmcl.yaml")
	data := []byte(`
train:
  dataset: ModelNet10
  num_classes: 10
eval:
  views: [12]
  format: ""
tensorboard:
  port: 7007
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ModelNet10", cfg.Train.Dataset)
	assert.Equal(t, 10, cfg.Train.NumClasses)
	assert.Equal(t, 96, cfg.Train.BatchSize)
	assert.Equal(t, []int{12}, cfg.Eval.Views)
	assert.Equal(t, "npy", cfg.Eval.Format)
	assert.Equal(t, 7007, cfg.TensorBoard.Port)
	assert.Equal(t, "tensorboard", cfg.TensorBoard.Binary)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("train: [unterminated"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	want := Default()
	want.Eval.ExcludeSelf = true
	want.Setup.Packages = []string{"numpy"}

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CMCL_TRAIN_BATCH_SIZE", "32")
	t.Setenv("CMCL_TRAIN_LR_CENTER", "0.5")
	t.Setenv("CMCL_EVAL_VIEWS", "1,12")
	t.Setenv("CMCL_EVAL_EXCLUDE_SELF", "true")
	t.Setenv("CMCL_TENSORBOARD_PORT", "8080")
	t.Setenv("CMCL_RUN_EVAL_GPUID", "2,3")

	cfg := Default()
	require.NoError(t, ApplyEnv(cfg))
	assert.Equal(t, 32, cfg.Train.BatchSize)
	assert.Equal(t, 0.5, cfg.Train.LRCenter)
	assert.Equal(t, []int{1, 12}, cfg.Eval.Views)
	assert.True(t, cfg.Eval.ExcludeSelf)
	assert.Equal(t, 8080, cfg.TensorBoard.Port)
	assert.Equal(t, "2,3", cfg.RunEval.GPUID)
	// untouched values survive
	assert.Equal(t, "ModelNet40", cfg.Train.Dataset)
}

func TestApplyEnv_BadValue(t *testing.T) {
	t.Setenv("CMCL_TRAIN_EPOCHS", "many")
	assert.Error(t, ApplyEnv(Default()))
}

func TestTrainValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*TrainConfig)
		want   error
	}{
		{"unknown dataset", func(c *TrainConfig) { c.Dataset = "ShapeNet" }, ErrInvalidDataset},
		{"classes", func(c *TrainConfig) { c.NumClasses = 0 }, ErrInvalidNumClasses},
		{"batch size", func(c *TrainConfig) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"epochs", func(c *TrainConfig) { c.Epochs = -1 }, ErrInvalidEpochs},
		{"learning rate", func(c *TrainConfig) { c.LRCenter = 0 }, ErrInvalidLearningRate},
		{"interval", func(c *TrainConfig) { c.PerPrint = 0 }, ErrInvalidInterval},
		{"points", func(c *TrainConfig) { c.NumPoints = 0 }, ErrInvalidNumPoints},
		{"neighbors", func(c *TrainConfig) { c.K = 0 }, ErrInvalidNeighbors},
		{"save path", func(c *TrainConfig) { c.Save = "" }, ErrEmptyPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default().Train
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), tt.want)
		})
	}
}

func TestTrainCheckClasses(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	BindTrainFlags(fs, &cfg.Train)
	require.NoError(t, fs.Parse([]string{"-dataset", "ModelNet10"}))

	// the mismatch is only a warning: the config stays valid
	require.NoError(t, cfg.Train.Validate())
	err := cfg.Train.CheckClasses()
	assert.ErrorIs(t, err, ErrInvalidNumClasses)
	assert.Contains(t, err.Error(), "ModelNet10 has 10 classes, got 40")

	cfg.Train.NumClasses = 10
	assert.NoError(t, cfg.Train.CheckClasses())
}

func TestEvalValidate(t *testing.T) {
	c := Default().Eval
	c.Views = nil
	assert.ErrorIs(t, c.Validate(), ErrInvalidViews)

	c = Default().Eval
	c.Views = []int{1, 0}
	assert.ErrorIs(t, c.Validate(), ErrInvalidViews)

	c = Default().Eval
	c.Format = "csv"
	assert.ErrorIs(t, c.Validate(), ErrInvalidFormat)

	c = Default().Eval
	c.Output = "xml"
	assert.ErrorIs(t, c.Validate(), ErrInvalidOutput)
}

func TestLauncherValidate(t *testing.T) {
	tb := Default().TensorBoard
	tb.Port = 70000
	assert.ErrorIs(t, tb.Validate(), ErrInvalidPort)

	re := Default().RunEval
	re.Iterations = 0
	assert.ErrorIs(t, re.Validate(), ErrInvalidIterations)

	lc := LogConfig{Format: "xml", Level: "info"}
	assert.ErrorIs(t, lc.Validate(), ErrInvalidLogFormat)
	lc = LogConfig{Format: "json", Level: "trace"}
	assert.ErrorIs(t, lc.Validate(), ErrInvalidLogLevel)
}

func TestBindTrainFlags_OverrideLoadedValues(t *testing.T) {
	cfg := Default()
	cfg.Train.BatchSize = 48

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	BindTrainFlags(fs, &cfg.Train)
	require.NoError(t, fs.Parse([]string{"-dataset", "ModelNet10", "-num_classes=10", "-lr", "0.01"}))

	assert.Equal(t, "ModelNet10", cfg.Train.Dataset)
	assert.Equal(t, 10, cfg.Train.NumClasses)
	assert.Equal(t, 0.01, cfg.Train.LR)
	assert.Equal(t, 48, cfg.Train.BatchSize)
}

func TestBindEvalFlags_Views(t *testing.T) {
	cfg := Default()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	BindEvalFlags(fs, &cfg.Eval)
	require.NoError(t, fs.Parse([]string{"-views", "4, 8", "-exclude-self"}))

	assert.Equal(t, []int{4, 8}, cfg.Eval.Views)
	assert.True(t, cfg.Eval.ExcludeSelf)

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(&discard{})
	BindEvalFlags(fs, &cfg.Eval)
	assert.Error(t, fs.Parse([]string{"-views", "four"}))
}

func TestPathFromArgs(t *testing.T) {
	assert.Equal(t, "a.yaml", PathFromArgs([]string{"-config", "a.yaml", "-views", "1"}))
	assert.Equal(t, "b.yaml", PathFromArgs([]string{"-views=1", "--config=b.yaml"}))
	assert.Equal(t, "", PathFromArgs([]string{"config", "x"}))
	assert.Equal(t, "", PathFromArgs([]string{"--", "-config", "c.yaml"}))
	assert.Equal(t, "", PathFromArgs([]string{"-config"}))
}

func TestTrainSummary(t *testing.T) {
	lines := Default().Train.Summary()
	assert.Equal(t, []string{
		"Dataset: ModelNet40",
		"Number of classes: 40",
		"Batch size: 96",
		"Learning rate: 0.001",
		"GPU IDs: 1",
	}, lines)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
