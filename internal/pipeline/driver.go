package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/minutes-flow/internal/history"
	"github.com/nguyentantai21042004/minutes-flow/internal/logger"
)

// Outputs are the files one Run writes under paths.output.
type Outputs struct {
	Diarization   string
	ASR           string
	Correction    string
	Summarization string
	Minutes       string
	Metrics       string
}

// OutputsFor names the files of a run with the given prefix.
func OutputsFor(dir, prefix string) Outputs {
	name := func(suffix string) string {
		return filepath.Join(dir, prefix+suffix)
	}
	return Outputs{
		Diarization:   name("_diarization.csv"),
		ASR:           name("_asr.csv"),
		Correction:    name("_correction.csv"),
		Summarization: name("_summarization.csv"),
		Minutes:       name("_meeting_minutes.txt"),
		Metrics:       name("_metrics.json"),
	}
}

// Run orchestrates the entire pipeline for one recording. When diarization
// or recognition yields no rows the run stops, returns the metrics gathered
// so far and writes no metrics file.
func (p *implPipeline) Run(ctx context.Context, audioPath, outputPrefix string) (Report, error) {
	startTime := time.Now()
	report := Report{RunID: uuid.NewString()}
	ctx = logger.WithRunID(ctx, report.RunID)

	if err := requireFile(audioPath); err != nil {
		return report, err
	}
	if err := os.MkdirAll(p.cfg.Paths.Output, 0755); err != nil {
		return report, fmt.Errorf("create output dir: %w", err)
	}
	out := OutputsFor(p.cfg.Paths.Output, outputPrefix)

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Starting pipeline: %s", audioPath)
	p.logger.Info(ctx, "========================================")

	p.logger.Info(ctx, "Step 1/4: diarization")
	segs, dm, err := p.Diarize(ctx, audioPath, out.Diarization)
	if err != nil {
		return report, fmt.Errorf("diarization: %w", err)
	}
	report.Diarization = &dm
	if len(segs) == 0 {
		return p.halt(ctx, report, StageDiarization, audioPath, outputPrefix, startTime), nil
	}

	p.logger.Info(ctx, "Step 2/4: speech recognition")
	rows, am, err := p.Recognize(ctx, audioPath, out.Diarization, out.ASR)
	if err != nil {
		return report, fmt.Errorf("recognition: %w", err)
	}
	report.ASR = &am
	if len(rows) == 0 {
		return p.halt(ctx, report, StageASR, audioPath, outputPrefix, startTime), nil
	}

	p.logger.Info(ctx, "Step 3/4: correction")
	_, cm, err := p.Correct(ctx, out.ASR, out.Correction)
	if err != nil {
		return report, fmt.Errorf("correction: %w", err)
	}
	report.Correction = &cm

	p.logger.Info(ctx, "Step 4/4: summarization")
	_, sm, err := p.Summarize(ctx, out.Correction, out.Summarization)
	if err != nil {
		return report, fmt.Errorf("summarization: %w", err)
	}
	report.Summarization = &sm

	if err := p.WriteMinutes(ctx, out.Summarization, out.Minutes); err != nil {
		return report, fmt.Errorf("minutes: %w", err)
	}
	if err := writeReport(out.Metrics, report); err != nil {
		return report, err
	}

	p.logger.Info(ctx, "========================================")
	p.logger.Info(ctx, "Pipeline completed successfully!")
	p.logger.Info(ctx, "Total pipeline execution time: %.2f seconds", report.TotalTime())
	p.logger.Info(ctx, "Final metrics saved to: %s", out.Metrics)
	p.logger.Info(ctx, "Speakers identified: %d", dm.SpeakersCount)
	p.logger.Info(ctx, "Speech segments: %d", am.SegmentsWithSpeech)
	p.logger.Info(ctx, "Total words: %d", am.TotalWords)
	p.logger.Info(ctx, "Correction success rate: %.2f%%", cm.SuccessRate*100)
	p.logger.Info(ctx, "Summarization success rate: %.2f%%", sm.SuccessRate*100)
	p.logger.Info(ctx, "========================================")

	p.record(ctx, report, audioPath, outputPrefix, startTime)
	p.publish(ctx, report.RunID, out.artifacts(p.cfg.Minutes.Docx))

	return report, nil
}

func (p *implPipeline) halt(ctx context.Context, report Report, stage, audioPath, outputPrefix string, startTime time.Time) Report {
	report.HaltedAt = stage
	p.logger.Warn(ctx, "%s stage produced no rows - stopping pipeline", stage)
	p.record(ctx, report, audioPath, outputPrefix, startTime)
	return report
}

// record stores the run in history; failures are logged only
func (p *implPipeline) record(ctx context.Context, report Report, audioPath, outputPrefix string, startTime time.Time) {
	if p.history == nil {
		return
	}

	metrics, err := report.MarshalIndent()
	if err != nil {
		p.logger.Warn(ctx, "Failed to encode metrics for history: %v", err)
	}

	run := history.Run{
		ID:          report.RunID,
		AudioPath:   audioPath,
		Prefix:      outputPrefix,
		StartedAt:   startTime,
		Duration:    time.Since(startTime),
		HaltedAt:    report.HaltedAt,
		MetricsJSON: string(metrics),
	}
	if report.Diarization != nil {
		run.SpeakersCount = report.Diarization.SpeakersCount
	}
	if report.ASR != nil {
		run.SpeechSegments = report.ASR.SegmentsWithSpeech
		run.TotalWords = report.ASR.TotalWords
	}
	if report.Correction != nil {
		run.CorrectionSuccessRate = report.Correction.SuccessRate
	}
	if report.Summarization != nil {
		run.SummarizationSuccessRate = report.Summarization.SuccessRate
	}

	if err := p.history.Record(ctx, run); err != nil {
		p.logger.Warn(ctx, "Failed to record run history: %v", err)
	}
}

// publish uploads run artifacts; failures are logged only
func (p *implPipeline) publish(ctx context.Context, runID string, files []string) {
	if p.publisher == nil {
		return
	}
	objects, err := p.publisher.Publish(ctx, runID, files)
	if err != nil {
		p.logger.Warn(ctx, "Failed to publish artifacts: %v", err)
	}
	p.logger.Info(ctx, "Published %d/%d artifacts", len(objects), len(files))
}

func (o Outputs) artifacts(withDocx bool) []string {
	files := []string{o.Diarization, o.ASR, o.Correction, o.Summarization, o.Minutes}
	if withDocx {
		files = append(files, docxPathFor(o.Minutes))
	}
	return append(files, o.Metrics)
}
