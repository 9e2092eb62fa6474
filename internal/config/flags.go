package config

import (
	"flag"
	"fmt"
	"strconv"
	"strings"
)

// IntList is a comma-separated list of integers usable as a flag value.
type IntList []int

func (l *IntList) String() string {
	if l == nil {
		return ""
	}
	parts := make([]string, len(*l))
	for i, v := range *l {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// Set replaces the list with the parsed values.
func (l *IntList) Set(s string) error {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("invalid integer %q", part)
		}
		out = append(out, v)
	}
	*l = out
	return nil
}

// PathFromArgs finds the value of -config/--config in args without parsing
// the remaining flags, so the file can be loaded before flags are bound.
func PathFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if v, ok := strings.CutPrefix(name, "config="); ok {
			return v
		}
		if name == "config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// BindConfigFlag registers -config so PathFromArgs and flag parsing agree.
func BindConfigFlag(fs *flag.FlagSet, current string) {
	fs.String("config", current, "Path to YAML config file (optional; uses ./cmcl.yaml or ~/.config/cmcl/config.yaml if not provided)")
}

// BindTrainFlags registers the training flags with the current values as defaults.
func BindTrainFlags(fs *flag.FlagSet, c *TrainConfig) {
	fs.StringVar(&c.Dataset, "dataset", c.Dataset, "ModelNet10 or ModelNet40")
	fs.StringVar(&c.DatasetDir, "dataset_dir", c.DatasetDir, "Path to dataset directory")
	fs.IntVar(&c.NumClasses, "num_classes", c.NumClasses, "Number of classes (10 or 40)")
	fs.IntVar(&c.BatchSize, "batch_size", c.BatchSize, "Batch size")
	fs.IntVar(&c.Epochs, "epochs", c.Epochs, "Number of epochs to train")
	fs.Float64Var(&c.LR, "lr", c.LR, "Learning rate")
	fs.IntVar(&c.LRStep, "lr_step", c.LRStep, "Iterations to decrease learning rate")
	fs.Float64Var(&c.LRCenter, "lr_center", c.LRCenter, "Learning rate for center loss")
	fs.Float64Var(&c.Momentum, "momentum", c.Momentum, "SGD momentum")
	fs.Float64Var(&c.WeightDecay, "weight_decay", c.WeightDecay, "Weight decay")
	fs.IntVar(&c.NumPoints, "num_points", c.NumPoints, "Number of points in point cloud")
	fs.Float64Var(&c.WeightCenter, "weight_center", c.WeightCenter, "Weight for center loss")
	fs.IntVar(&c.PerSave, "per_save", c.PerSave, "Iterations to save model")
	fs.IntVar(&c.PerPrint, "per_print", c.PerPrint, "Iterations to print loss and accuracy")
	fs.StringVar(&c.Save, "save", c.Save, "Path to save model checkpoints")
	fs.StringVar(&c.GPUID, "gpu_id", c.GPUID, "GPU IDs to use")
	fs.StringVar(&c.Log, "log", c.Log, "Path to log information")
	fs.IntVar(&c.K, "k", c.K, "The number of nearest neighbors in DGCNN")
}

// BindEvalFlags registers the evaluator flags.
func BindEvalFlags(fs *flag.FlagSet, c *EvalConfig) {
	fs.StringVar(&c.FeaturesDir, "dir", c.FeaturesDir, "Directory with extracted features")
	fs.Var((*IntList)(&c.Views), "views", "Comma-separated image view counts to evaluate")
	fs.StringVar(&c.Format, "format", c.Format, "Feature file format: npy or parquet")
	fs.BoolVar(&c.ExcludeSelf, "exclude-self", c.ExcludeSelf, "Drop each query from its own gallery in same-modality pairs")
	fs.IntVar(&c.Parallelism, "parallelism", c.Parallelism, "Pairs evaluated concurrently")
	fs.StringVar(&c.Output, "output", c.Output, "Report format: text or json")
	fs.StringVar(&c.MetricsFile, "metrics-file", c.MetricsFile, "Write Prometheus textfile metrics to this path")
}

// BindRunEvalFlags registers the evaluation launcher flags.
func BindRunEvalFlags(fs *flag.FlagSet, c *RunEvalConfig) {
	fs.StringVar(&c.Dataset, "dataset", c.Dataset, "ModelNet10 or ModelNet40")
	fs.StringVar(&c.ModelFolder, "model_folder", c.ModelFolder, "Model folder name")
	fs.IntVar(&c.Iterations, "iterations", c.Iterations, "Number of iterations the model was trained for")
	fs.StringVar(&c.GPUID, "gpu_id", c.GPUID, "GPU IDs to use for evaluation")
	fs.StringVar(&c.Save, "save", c.Save, "Path to save extracted features")
	fs.StringVar(&c.Python, "python", c.Python, "Python interpreter")
	fs.StringVar(&c.Script, "script", c.Script, "Feature extraction script")
}

// BindTensorBoardFlags registers the TensorBoard launcher flags.
func BindTensorBoardFlags(fs *flag.FlagSet, c *TensorBoardConfig) {
	fs.StringVar(&c.LogDir, "logdir", c.LogDir, "Directory with TensorBoard logs")
	fs.IntVar(&c.Port, "port", c.Port, "Port to run TensorBoard on")
	fs.StringVar(&c.Binary, "tensorboard", c.Binary, "TensorBoard executable")
}

// BindLogFlags registers the logging flags.
func BindLogFlags(fs *flag.FlagSet, c *LogConfig) {
	fs.StringVar(&c.Format, "log-format", c.Format, "Log format: json or console")
	fs.StringVar(&c.Level, "log-level", c.Level, "Log level: debug, info, warn, error")
}

// Summary lists the settings printed by the config command.
func (c TrainConfig) Summary() []string {
	return []string{
		"Dataset: " + c.Dataset,
		fmt.Sprintf("Number of classes: %d", c.NumClasses),
		fmt.Sprintf("Batch size: %d", c.BatchSize),
		fmt.Sprintf("Learning rate: %v", c.LR),
		"GPU IDs: " + c.GPUID,
	}
}
