package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/minutes-flow/internal/config"
	"github.com/nguyentantai21042004/minutes-flow/internal/pipeline"
)

// runStage runs one stage on the files a full run with the same prefix
// would use, and prints that stage's metrics.
func runStage(ctx context.Context, cfg *config.Config, p pipeline.Pipeline, stage, audioPath, prefix string) error {
	if prefix == "" && audioPath == "" {
		return fmt.Errorf("-prefix or -audio is required with -stage")
	}
	out := pipeline.OutputsFor(cfg.Paths.Output, prefixOrDefault(prefix, audioPath))

	var (
		metrics any
		err     error
	)
	switch stage {
	case pipeline.StageDiarization:
		_, metrics, err = p.Diarize(ctx, audioPath, out.Diarization)
	case pipeline.StageASR:
		_, metrics, err = p.Recognize(ctx, audioPath, out.Diarization, out.ASR)
	case pipeline.StageCorrection:
		_, metrics, err = p.Correct(ctx, out.ASR, out.Correction)
	case pipeline.StageSummarization:
		_, metrics, err = p.Summarize(ctx, out.Correction, out.Summarization)
	case "minutes":
		return p.WriteMinutes(ctx, out.Summarization, out.Minutes)
	default:
		return fmt.Errorf("unknown stage %q", stage)
	}
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(map[string]any{stage: metrics}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}

// prefixOrDefault names outputs after the recording when no prefix is given
func prefixOrDefault(prefix, audioPath string) string {
	if prefix != "" {
		return prefix
	}
	base := filepath.Base(audioPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
