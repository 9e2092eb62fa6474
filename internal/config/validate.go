package config

import (
	"errors"
	"fmt"
)

// Config validation errors
var (
	ErrInvalidDataset      = errors.New("dataset must be ModelNet10 or ModelNet40")
	ErrInvalidNumClasses   = errors.New("num_classes must be positive and match the dataset")
	ErrInvalidBatchSize    = errors.New("batch_size must be positive")
	ErrInvalidEpochs       = errors.New("epochs must be positive")
	ErrInvalidLearningRate = errors.New("learning rates must be positive")
	ErrInvalidInterval     = errors.New("lr_step, per_save and per_print must be positive")
	ErrInvalidNumPoints    = errors.New("num_points must be positive")
	ErrInvalidNeighbors    = errors.New("k must be positive")
	ErrInvalidViews        = errors.New("views must be a non-empty list of positive counts")
	ErrInvalidFormat       = errors.New("format must be 'npy' or 'parquet'")
	ErrInvalidOutput       = errors.New("output must be 'text' or 'json'")
	ErrInvalidIterations   = errors.New("iterations must be positive")
	ErrInvalidPort         = errors.New("port must be between 1 and 65535")
	ErrInvalidLogFormat    = errors.New("log format must be 'json' or 'console'")
	ErrInvalidLogLevel     = errors.New("log level must be debug, info, warn, or error")
	ErrEmptyPath           = errors.New("path cannot be empty")
)

var datasetClasses = map[string]int{
	"ModelNet10": 10,
	"ModelNet40": 40,
}

// Validate checks the training hyperparameters. A class count that does not
// match the dataset is reported by CheckClasses instead.
func (c TrainConfig) Validate() error {
	if _, ok := datasetClasses[c.Dataset]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidDataset, c.Dataset)
	}
	if c.NumClasses <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidNumClasses, c.NumClasses)
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.Epochs <= 0 {
		return ErrInvalidEpochs
	}
	if c.LR <= 0 || c.LRCenter <= 0 {
		return ErrInvalidLearningRate
	}
	if c.LRStep <= 0 || c.PerSave <= 0 || c.PerPrint <= 0 {
		return ErrInvalidInterval
	}
	if c.NumPoints <= 0 {
		return ErrInvalidNumPoints
	}
	if c.K <= 0 {
		return ErrInvalidNeighbors
	}
	if c.DatasetDir == "" || c.Save == "" {
		return ErrEmptyPath
	}
	return nil
}

// CheckClasses reports when NumClasses differs from the dataset's class count.
func (c TrainConfig) CheckClasses() error {
	classes, ok := datasetClasses[c.Dataset]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidDataset, c.Dataset)
	}
	if c.NumClasses != classes {
		return fmt.Errorf("%w: %s has %d classes, got %d", ErrInvalidNumClasses, c.Dataset, classes, c.NumClasses)
	}
	return nil
}

// Validate checks the evaluator settings.
func (c EvalConfig) Validate() error {
	if c.FeaturesDir == "" {
		return ErrEmptyPath
	}
	if len(c.Views) == 0 {
		return ErrInvalidViews
	}
	for _, v := range c.Views {
		if v <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidViews, v)
		}
	}
	if c.Format != "npy" && c.Format != "parquet" {
		return ErrInvalidFormat
	}
	if c.Output != "text" && c.Output != "json" {
		return ErrInvalidOutput
	}
	return nil
}

// Validate checks the evaluation launcher settings.
func (c RunEvalConfig) Validate() error {
	if _, ok := datasetClasses[c.Dataset]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidDataset, c.Dataset)
	}
	if c.Iterations <= 0 {
		return ErrInvalidIterations
	}
	if c.ModelFolder == "" || c.Save == "" {
		return ErrEmptyPath
	}
	return nil
}

// Validate checks the TensorBoard launcher settings.
func (c TensorBoardConfig) Validate() error {
	if c.LogDir == "" {
		return ErrEmptyPath
	}
	if c.Port <= 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	return nil
}

// Validate checks the logging settings.
func (c LogConfig) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return ErrInvalidLogFormat
	}
	switch c.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return ErrInvalidLogLevel
	}
}
