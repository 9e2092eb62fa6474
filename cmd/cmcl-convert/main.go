package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"cmcl/internal/config"
	"cmcl/internal/features"
	"cmcl/internal/logging"
)

func main() {
	_ = godotenv.Load()

	cfg, cfgPath, err := config.Resolve(config.PathFromArgs(os.Args[1:]))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	config.BindConfigFlag(flag.CommandLine, cfgPath)
	config.BindLogFlags(flag.CommandLine, &cfg.Log)
	src := flag.String("dir", cfg.Eval.FeaturesDir, "Directory with extracted features")
	dst := flag.String("out", "", "Output directory (defaults to -dir)")
	from := flag.String("from", string(features.FormatNPY), "Source format: npy or parquet")
	to := flag.String("to", string(features.FormatParquet), "Target format: npy or parquet")
	views := config.IntList(cfg.Eval.Views)
	flag.Var(&views, "views", "Comma-separated image view counts to convert")
	flag.Parse()
	if *dst == "" {
		*dst = *src
	}

	logger, err := logging.NewLogger(logging.Config{Format: cfg.Log.Format, Level: cfg.Log.Level})
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	srcFormat, err := features.ParseFormat(*from)
	if err != nil {
		logger.Fatal("invalid source format", zap.Error(err))
	}
	dstFormat, err := features.ParseFormat(*to)
	if err != nil {
		logger.Fatal("invalid target format", zap.Error(err))
	}
	if srcFormat == dstFormat && *src == *dst {
		logger.Fatal("source and target are the same", zap.String("dir", *src), zap.String("format", string(srcFormat)))
	}

	loader, err := features.NewLoader(srcFormat)
	if err != nil {
		logger.Fatal("loader init failed", zap.Error(err))
	}
	writer, err := features.NewWriter(dstFormat)
	if err != nil {
		logger.Fatal("writer init failed", zap.Error(err))
	}
	if err := os.MkdirAll(*dst, 0o755); err != nil {
		logger.Fatal("create output dir", zap.Error(err))
	}

	for _, v := range views {
		set, err := loader.Load(context.Background(), *src, v)
		if err != nil {
			logger.Fatal("load failed", zap.Int("views", v), zap.Error(err))
		}
		if err := writer.Write(*dst, set); err != nil {
			logger.Fatal("write failed", zap.Int("views", v), zap.Error(err))
		}
		logger.Info("converted",
			zap.Int("views", v),
			zap.Int("samples", set.Samples()),
			zap.String("from", string(srcFormat)),
			zap.String("to", string(dstFormat)),
			zap.String("out", *dst))
	}
}
