package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nguyentantai21042004/minutes-flow/internal/config"
	"github.com/nguyentantai21042004/minutes-flow/internal/logger"
	"github.com/nguyentantai21042004/minutes-flow/internal/pipeline"
	"github.com/nguyentantai21042004/minutes-flow/internal/watcher"
)

// archivingHandler runs the pipeline on a dropped recording and then moves
// the recording to paths.archived so it is not picked up again.
func archivingHandler(cfg *config.Config, p pipeline.Pipeline, log logger.Logger) watcher.EventHandler {
	return func(ctx context.Context, filePath string) error {
		report, err := p.Run(ctx, filePath, prefixOrDefault("", filePath))
		if err != nil {
			return err
		}
		if halted := report.Halted(); halted != nil {
			log.Warn(ctx, "%s: %v", filepath.Base(filePath), halted)
		} else {
			printReport(report)
		}

		if err := moveToArchived(filePath, cfg.Paths.Archived); err != nil {
			log.Warn(ctx, "Failed to move recording to archived folder: %v", err)
		}
		return nil
	}
}

// moveToArchived moves the processed recording into the archived folder
func moveToArchived(filePath, archivedDir string) error {
	dest := filepath.Join(archivedDir, filepath.Base(filePath))
	if err := os.Rename(filePath, dest); err != nil {
		return fmt.Errorf("move to archived: %w", err)
	}
	return nil
}
