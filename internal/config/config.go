package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. CMCL_TRAIN_BATCH_SIZE.
const EnvPrefix = "CMCL"

// TrainConfig holds the hyperparameters handed to the training script.
type TrainConfig struct {
	Dataset      string  `yaml:"dataset" split_words:"true"`
	DatasetDir   string  `yaml:"dataset_dir" split_words:"true"`
	NumClasses   int     `yaml:"num_classes" split_words:"true"`
	BatchSize    int     `yaml:"batch_size" split_words:"true"`
	Epochs       int     `yaml:"epochs" split_words:"true"`
	LR           float64 `yaml:"lr" split_words:"true"`
	LRStep       int     `yaml:"lr_step" split_words:"true"`
	LRCenter     float64 `yaml:"lr_center" split_words:"true"`
	Momentum     float64 `yaml:"momentum" split_words:"true"`
	WeightDecay  float64 `yaml:"weight_decay" split_words:"true"`
	NumPoints    int     `yaml:"num_points" split_words:"true"`
	WeightCenter float64 `yaml:"weight_center" split_words:"true"`
	PerSave      int     `yaml:"per_save" split_words:"true"`
	PerPrint     int     `yaml:"per_print" split_words:"true"`
	Save         string  `yaml:"save" split_words:"true"`
	GPUID        string  `yaml:"gpu_id" split_words:"true"`
	Log          string  `yaml:"log" split_words:"true"`
	K            int     `yaml:"k" split_words:"true"`
}

// EvalConfig configures the feature evaluator.
type EvalConfig struct {
	FeaturesDir string `yaml:"features_dir" split_words:"true"`
	Views       []int  `yaml:"views" split_words:"true"`
	Format      string `yaml:"format" split_words:"true"`
	ExcludeSelf bool   `yaml:"exclude_self" split_words:"true"`
	Parallelism int    `yaml:"parallelism" split_words:"true"`
	Output      string `yaml:"output" split_words:"true"`
	MetricsFile string `yaml:"metrics_file" split_words:"true"`
}

// RunEvalConfig configures the launcher of the Python feature extraction script.
type RunEvalConfig struct {
	Dataset     string `yaml:"dataset" split_words:"true"`
	ModelFolder string `yaml:"model_folder" split_words:"true"`
	Iterations  int    `yaml:"iterations" split_words:"true"`
	GPUID       string `yaml:"gpu_id" split_words:"true"`
	Save        string `yaml:"save" split_words:"true"`
	Python      string `yaml:"python" split_words:"true"`
	Script      string `yaml:"script" split_words:"true"`
}

// TensorBoardConfig configures the TensorBoard launcher.
type TensorBoardConfig struct {
	LogDir string `yaml:"logdir" split_words:"true"`
	Port   int    `yaml:"port" split_words:"true"`
	Binary string `yaml:"binary" split_words:"true"`
}

// SetupConfig lists what the setup checker expects to find.
type SetupConfig struct {
	Root         string   `yaml:"root" split_words:"true"`
	Python       string   `yaml:"python" split_words:"true"`
	Packages     []string `yaml:"packages" split_words:"true"`
	ProjectFiles []string `yaml:"project_files" split_words:"true"`
	ModelFiles   []string `yaml:"model_files" split_words:"true"`
	ToolFiles    []string `yaml:"tool_files" split_words:"true"`
	Directories  []string `yaml:"directories" split_words:"true"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `yaml:"format" split_words:"true"`
	Level  string `yaml:"level" split_words:"true"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Train       TrainConfig       `yaml:"train" envconfig:"train"`
	Eval        EvalConfig        `yaml:"eval" envconfig:"eval"`
	RunEval     RunEvalConfig     `yaml:"run_eval" envconfig:"run_eval"`
	TensorBoard TensorBoardConfig `yaml:"tensorboard" envconfig:"tensorboard"`
	Setup       SetupConfig       `yaml:"setup" envconfig:"setup"`
	Log         LogConfig         `yaml:"log" envconfig:"log"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

// LoadDefault tries ./cmcl.yaml first, then ~/.config/cmcl/config.yaml.
// If neither exists, it writes defaults to ~/.config/cmcl/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "cmcl.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Resolve loads the file at path (or the default locations when path is
// empty) and applies CMCL_* environment overrides on top.
func Resolve(path string) (*AppConfig, string, error) {
	var cfg *AppConfig
	var err error
	if path == "" {
		cfg, path, err = LoadDefault()
	} else {
		cfg, err = Load(path)
	}
	if err != nil {
		return nil, "", err
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// ApplyEnv overrides cfg with any CMCL_<SECTION>_<KEY> variables that are set.
func ApplyEnv(cfg *AppConfig) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return err
	}
	applyConfigDefaults(cfg)
	return nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cmcl", "config.yaml"), nil
}

// Default returns the configuration used when no file is present.
func Default() *AppConfig {
	return &AppConfig{
		Train: TrainConfig{
			Dataset:      "ModelNet40",
			DatasetDir:   "./dataset/",
			NumClasses:   40,
			BatchSize:    96,
			Epochs:       1000,
			LR:           0.001,
			LRStep:       20000,
			LRCenter:     0.001,
			Momentum:     0.9,
			WeightDecay:  1e-3,
			NumPoints:    1024,
			WeightCenter: 10,
			PerSave:      5000,
			PerPrint:     100,
			Save:         "./checkpoints/ModelNet40",
			GPUID:        "1",
			Log:          "log/",
			K:            20,
		},
		Eval: EvalConfig{
			FeaturesDir: "extracted_features/ModelNet40",
			Views:       []int{1, 2, 4},
			Format:      "npy",
			Parallelism: 3,
			Output:      "text",
		},
		RunEval: RunEvalConfig{
			Dataset:     "ModelNet40",
			ModelFolder: "ModelNet40",
			Iterations:  55000,
			GPUID:       "0",
			Save:        "extracted_features/ModelNet40",
			Python:      "python",
			Script:      "evaluate_retrieval.py",
		},
		TensorBoard: TensorBoardConfig{
			LogDir: "checkpoints/ModelNet40/summary",
			Port:   6006,
			Binary: "tensorboard",
		},
		Setup: SetupConfig{
			Root:   ".",
			Python: "python3",
			Packages: []string{
				"torch", "torchvision", "numpy", "scipy", "sklearn",
				"matplotlib", "tensorboard", "h5py", "PIL", "tqdm",
			},
			ProjectFiles: []string{"train.py", "evaluate_retrieval.py", "requirements.txt", "README.md"},
			ModelFiles:   []string{"models/corrnet.py", "models/dgcnn.py", "models/meshnet.py", "models/resnet.py"},
			ToolFiles:    []string{"tools/dataloader.py", "tools/test_dataloader.py"},
			Directories:  []string{"models", "tools", "dataset", "checkpoints"},
		},
		Log: LogConfig{Format: "console", Level: "info"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Eval.Format == "" {
		cfg.Eval.Format = "npy"
	}
	if cfg.Eval.Output == "" {
		cfg.Eval.Output = "text"
	}
	if cfg.Eval.Parallelism <= 0 {
		cfg.Eval.Parallelism = 1
	}
	if cfg.RunEval.Python == "" {
		cfg.RunEval.Python = "python"
	}
	if cfg.RunEval.Script == "" {
		cfg.RunEval.Script = "evaluate_retrieval.py"
	}
	if cfg.TensorBoard.Binary == "" {
		cfg.TensorBoard.Binary = "tensorboard"
	}
	if cfg.Setup.Python == "" {
		cfg.Setup.Python = "python3"
	}
	if cfg.Setup.Root == "" {
		cfg.Setup.Root = "."
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
