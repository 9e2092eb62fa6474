package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cmcl/internal/config"
	"cmcl/internal/features"
	"cmcl/internal/logging"
	"cmcl/internal/report"
	"cmcl/internal/service"
	"cmcl/internal/tui"
)

func main() {
	_ = godotenv.Load()

	cfg, cfgPath, err := config.Resolve(config.PathFromArgs(os.Args[1:]))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	config.BindConfigFlag(flag.CommandLine, cfgPath)
	config.BindEvalFlags(flag.CommandLine, &cfg.Eval)
	config.BindLogFlags(flag.CommandLine, &cfg.Log)
	browse := flag.Bool("tui", false, "Open the interactive result browser after evaluating")
	flag.Usage = func() {
		fmt.Fprintln(flag.CommandLine.Output(), "Usage: cmcl-eval [flags] [features-dir]")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}
	if flag.NArg() == 1 {
		cfg.Eval.FeaturesDir = flag.Arg(0)
	}

	logger, err := logging.NewLogger(logging.Config{Format: cfg.Log.Format, Level: cfg.Log.Level})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.Eval.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	format, err := features.ParseFormat(cfg.Eval.Format)
	if err != nil {
		logger.Fatal("invalid format", zap.Error(err))
	}
	loader, err := features.NewLoader(format)
	if err != nil {
		logger.Fatal("loader init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := service.NewEvaluationService(loader, logger, service.Options{
		ExcludeSelf: cfg.Eval.ExcludeSelf,
		Parallelism: cfg.Eval.Parallelism,
	})
	logger.Info("evaluating features",
		zap.String("dir", cfg.Eval.FeaturesDir),
		zap.Ints("views", cfg.Eval.Views),
		zap.String("format", string(format)),
		zap.Bool("exclude_self", cfg.Eval.ExcludeSelf))

	reports, err := svc.EvaluateViews(ctx, cfg.Eval.FeaturesDir, cfg.Eval.Views)
	if err != nil {
		logger.Fatal("evaluation failed", zap.Error(err))
	}

	switch cfg.Eval.Output {
	case "json":
		err = report.WriteJSON(os.Stdout, reports)
	default:
		for _, r := range reports {
			if err = report.WriteText(os.Stdout, r); err != nil {
				break
			}
		}
	}
	if err != nil {
		logger.Fatal("write report failed", zap.Error(err))
	}

	if cfg.Eval.MetricsFile != "" {
		exp := report.NewExporter()
		for _, r := range reports {
			exp.Observe(r)
		}
		if err := exp.WriteTextfile(cfg.Eval.MetricsFile); err != nil {
			logger.Fatal("write metrics failed", zap.Error(err), zap.String("path", cfg.Eval.MetricsFile))
		}
		logger.Info("metrics written", zap.String("path", cfg.Eval.MetricsFile))
	}

	if *browse {
		m := tui.New(svc, reports)
		if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
			logger.Fatal("tui failed", zap.Error(err))
		}
	}
}
