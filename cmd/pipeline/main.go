package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/nguyentantai21042004/minutes-flow/internal/audio"
	"github.com/nguyentantai21042004/minutes-flow/internal/config"
	"github.com/nguyentantai21042004/minutes-flow/internal/history"
	"github.com/nguyentantai21042004/minutes-flow/internal/inference"
	"github.com/nguyentantai21042004/minutes-flow/internal/logger"
	"github.com/nguyentantai21042004/minutes-flow/internal/objectstore"
	"github.com/nguyentantai21042004/minutes-flow/internal/pipeline"
	"github.com/nguyentantai21042004/minutes-flow/internal/watcher"
	"github.com/nguyentantai21042004/minutes-flow/pkg/executor"
)

func main() {
	var (
		configPath = flag.String("config", "config.yaml", "path to the YAML config")
		envFile    = flag.String("env", ".env", "dotenv file with HF_TOKEN and API keys")
		audioPath  = flag.String("audio", "", "recording to process")
		prefix     = flag.String("prefix", "", "output file prefix (default: recording name)")
		stage      = flag.String("stage", "", "run a single stage: diarization|asr|correction|summarization|minutes")
		watch      = flag.Bool("watch", false, "watch paths.input for new recordings")
		showRuns   = flag.Int("history", 0, "print the N most recent runs and exit")
	)
	flag.Parse()

	if err := run(*configPath, *envFile, *audioPath, *prefix, *stage, *watch, *showRuns); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func run(configPath, envFile, audioPath, prefix, stage string, watch bool, showRuns int) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.NewWithWriter(os.Stdout, cfg.Logging.Level, cfg.Logging.Format)

	var store history.Store
	if cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
	}

	if showRuns > 0 {
		if store == nil {
			return fmt.Errorf("history.path is not configured")
		}
		return printHistory(ctx, store, showRuns)
	}

	log.Info(ctx, "========================================")
	log.Info(ctx, "Meeting Minutes Pipeline")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s", runtime.GOOS, runtime.GOARCH)
	log.Info(ctx, "Device: %s", cfg.Device)
	log.Info(ctx, "Diarization: %s (%s)", cfg.Models.Diarization.Model, cfg.Models.Diarization.Backend)
	log.Info(ctx, "ASR: %s (%s, %s)", cfg.Models.ASR.Model, cfg.Models.ASR.Backend, cfg.Models.ASR.Language)
	log.Info(ctx, "Correction: %s (%s)", cfg.Models.Correction.Model, cfg.Models.Correction.Backend)
	log.Info(ctx, "Summarization: %s (%s)", cfg.Models.Summarization.Model, cfg.Models.Summarization.Backend)

	if err := ensureDirectories(cfg); err != nil {
		return err
	}

	exec := executor.New()
	models, err := inference.NewModels(cfg, exec, log)
	if err != nil {
		return fmt.Errorf("init models: %w", err)
	}

	opts := []pipeline.Option{}
	if store != nil {
		opts = append(opts, pipeline.WithHistory(store))
	}
	if cfg.Storage.Enabled() {
		pub, err := objectstore.New(ctx, cfg.Storage, log)
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
		opts = append(opts, pipeline.WithPublisher(pub))
	}

	p := pipeline.New(cfg, models, audio.NewLoader(exec, cfg.Paths.Temp, log), log, opts...)

	switch {
	case watch:
		return watchInput(ctx, cfg, p, log)
	case stage != "":
		return runStage(ctx, cfg, p, stage, audioPath, prefix)
	case audioPath == "":
		return fmt.Errorf("-audio is required unless -watch or -history is set")
	}

	report, err := p.Run(ctx, audioPath, prefixOrDefault(prefix, audioPath))
	if err != nil {
		return err
	}
	// an empty diarization or recognition table is a normal stop
	printReport(report)
	return nil
}

func watchInput(ctx context.Context, cfg *config.Config, p pipeline.Pipeline, log logger.Logger) error {
	w, err := watcher.New(cfg.Paths.Input, archivingHandler(cfg, p, log), log, cfg.Performance.MaxConcurrent)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Stop()

	log.Info(ctx, "========================================")
	log.Info(ctx, "Pipeline is ready!")
	log.Info(ctx, "Monitoring: %s", cfg.Paths.Input)
	log.Info(ctx, "Output: %s", cfg.Paths.Output)
	log.Info(ctx, "Concurrent: %d recordings at once", cfg.Performance.MaxConcurrent)
	log.Info(ctx, "Press Ctrl+C to stop")
	log.Info(ctx, "========================================")

	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info(ctx, "Pipeline stopped")
	return nil
}

// ensureDirectories creates required directories if they don't exist
func ensureDirectories(cfg *config.Config) error {
	dirs := []string{
		cfg.Paths.Input,
		cfg.Paths.Output,
		cfg.Paths.Archived,
		cfg.Paths.Temp,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
