package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cmcl/internal/config"
	"cmcl/internal/launch"
	"cmcl/internal/logging"
	"cmcl/internal/setup"
)

func main() {
	_ = godotenv.Load()

	cfg, cfgPath, err := config.Resolve(config.PathFromArgs(os.Args[1:]))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	config.BindConfigFlag(flag.CommandLine, cfgPath)
	config.BindLogFlags(flag.CommandLine, &cfg.Log)
	flag.StringVar(&cfg.Setup.Root, "root", cfg.Setup.Root, "Project root to check")
	flag.StringVar(&cfg.Setup.Python, "python", cfg.Setup.Python, "Python interpreter used to probe packages")
	flag.Parse()

	logger, err := logging.NewLogger(logging.Config{Format: cfg.Log.Format, Level: cfg.Log.Level})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	checker := setup.NewChecker(cfg.Setup, launch.NewExecRunner(logger), logger)
	rep, err := checker.Run(ctx)
	if err != nil {
		logger.Fatal("setup check interrupted", zap.Error(err))
	}
	setup.Render(os.Stdout, rep)
	if !rep.AllPassed() {
		_ = logger.Sync()
		os.Exit(1)
	}
}
