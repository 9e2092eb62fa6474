package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cmcl/internal/config"
	"cmcl/internal/launch"
	"cmcl/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, cfgPath, err := config.Resolve(config.PathFromArgs(os.Args[1:]))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	config.BindConfigFlag(flag.CommandLine, cfgPath)
	config.BindTensorBoardFlags(flag.CommandLine, &cfg.TensorBoard)
	config.BindLogFlags(flag.CommandLine, &cfg.Log)
	dryRun := flag.Bool("dry-run", false, "Print the command without running it")
	flag.Parse()

	logger, err := logging.NewLogger(logging.Config{Format: cfg.Log.Format, Level: cfg.Log.Level})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.TensorBoard.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tb := launch.NewTensorBoard(cfg.TensorBoard, launch.NewExecRunner(logger), os.Stdout, logger)
	tb.DryRun = *dryRun
	if err := tb.Run(ctx); err != nil {
		logger.Error("Error starting TensorBoard", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}
