// Package setup verifies that a checkout has everything the training and
// evaluation workflow needs.
package setup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"cmcl/internal/config"
	"cmcl/internal/launch"
)

// findSpec exits 0 when the module named by argv[1] is importable.
const findSpec = "import importlib.util,sys; sys.exit(0 if importlib.util.find_spec(sys.argv[1]) else 1)"

// Item is a single probe result.
type Item struct {
	Name   string
	Passed bool
	Detail string
}

// Section groups the probes of one check.
type Section struct {
	Name  string
	Items []Item
	// Optional sections are reported but do not fail the check.
	Optional bool
}

// Passed reports whether every item of the section passed.
func (s Section) Passed() bool {
	for _, it := range s.Items {
		if !it.Passed {
			return false
		}
	}
	return true
}

// Report is the outcome of a full setup check.
type Report struct {
	Sections []Section
}

// AllPassed reports whether every mandatory section passed.
func (r Report) AllPassed() bool {
	for _, s := range r.Sections {
		if !s.Optional && !s.Passed() {
			return false
		}
	}
	return true
}

// Checker runs the setup probes against a project root.
type Checker struct {
	cfg    config.SetupConfig
	runner launch.Runner
	logger *zap.Logger
}

func NewChecker(cfg config.SetupConfig, runner launch.Runner, logger *zap.Logger) *Checker {
	return &Checker{cfg: cfg, runner: runner, logger: logger}
}

// Run executes every check in order. It stops early only when ctx is done.
func (c *Checker) Run(ctx context.Context) (Report, error) {
	steps := []struct {
		name     string
		optional bool
		run      func(context.Context) []Item
	}{
		{"Python Packages", false, c.checkPackages},
		{"Project Files", false, func(context.Context) []Item { return c.checkPaths(c.cfg.ProjectFiles, false) }},
		{"Model Files", false, func(context.Context) []Item { return c.checkPaths(c.cfg.ModelFiles, false) }},
		{"Tool Files", false, func(context.Context) []Item { return c.checkPaths(c.cfg.ToolFiles, false) }},
		{"Directories", false, func(context.Context) []Item { return c.checkPaths(c.cfg.Directories, true) }},
		{"GPU Support", true, c.checkGPU},
	}

	var report Report
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		sec := Section{Name: step.name, Optional: step.optional, Items: step.run(ctx)}
		c.logger.Debug("setup section checked", zap.String("section", sec.Name), zap.Bool("passed", sec.Passed()))
		report.Sections = append(report.Sections, sec)
	}
	return report, nil
}

func (c *Checker) checkPackages(ctx context.Context) []Item {
	items := make([]Item, 0, len(c.cfg.Packages))
	for _, pkg := range c.cfg.Packages {
		cmd := launch.Command{Name: c.cfg.Python, Args: []string{"-c", findSpec, pkg}}
		if _, err := c.runner.Output(ctx, cmd); err != nil {
			c.logger.Debug("package probe failed", zap.String("package", pkg), zap.Error(err))
			items = append(items, Item{Name: pkg, Detail: "missing"})
			continue
		}
		items = append(items, Item{Name: pkg, Passed: true})
	}
	return items
}

func (c *Checker) checkPaths(paths []string, dirs bool) []Item {
	items := make([]Item, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(filepath.Join(c.cfg.Root, p))
		switch {
		case err != nil:
			items = append(items, Item{Name: p, Detail: "missing"})
		case dirs && !info.IsDir():
			items = append(items, Item{Name: p, Detail: "not a directory"})
		default:
			items = append(items, Item{Name: p, Passed: true})
		}
	}
	return items
}

func (c *Checker) checkGPU(ctx context.Context) []Item {
	out, err := c.runner.Output(ctx, launch.Command{
		Name: "nvidia-smi",
		Args: []string{"--query-gpu=name", "--format=csv,noheader"},
	})
	if err != nil {
		c.logger.Debug("nvidia-smi unavailable", zap.Error(err))
		return []Item{{Name: "CUDA not available"}}
	}
	var devices []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			devices = append(devices, line)
		}
	}
	if len(devices) == 0 {
		return []Item{{Name: "CUDA not available"}}
	}
	return []Item{
		{Name: fmt.Sprintf("CUDA available with %d device(s)", len(devices)), Passed: true},
		{Name: "Current device: " + devices[0], Passed: true},
	}
}
