package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Stage names, also the keys of the metrics report.
const (
	StageDiarization   = "diarization"
	StageASR           = "asr"
	StageCorrection    = "correction"
	StageSummarization = "summarization"
)

// Fields tagged omitempty are absent when the stage produced no rows.
type DiarizationMetrics struct {
	ExecutionTime float64 `json:"execution_time"`
	SegmentsCount int     `json:"segments_count"`
	SpeakersCount int     `json:"speakers_count,omitempty"`
	AudioDuration float64 `json:"audio_duration,omitempty"`
}

type RecognitionMetrics struct {
	ExecutionTime      float64 `json:"execution_time"`
	SegmentsProcessed  int     `json:"segments_processed"`
	SegmentsWithSpeech int     `json:"segments_with_speech,omitempty"`
	SuccessRate        float64 `json:"success_rate,omitempty"`
	TotalWords         int     `json:"total_words,omitempty"`
	SpeakersCount      int     `json:"speakers_count,omitempty"`
}

type CorrectionMetrics struct {
	ExecutionTime               float64 `json:"execution_time"`
	SegmentsCount               int     `json:"segments_count"`
	SuccessfulCorrections       int     `json:"successful_corrections"`
	SuccessRate                 float64 `json:"success_rate"`
	AvgProcessingTimePerSegment float64 `json:"avg_processing_time_per_segment"`
	TotalCharactersProcessed    int     `json:"total_characters_processed"`
	AvgEditRate                 float64 `json:"avg_edit_rate"`
}

type SummarizationMetrics struct {
	ExecutionTime               float64 `json:"execution_time"`
	SpeakersCount               int     `json:"speakers_count"`
	SuccessfulSummaries         int     `json:"successful_summaries"`
	SuccessRate                 float64 `json:"success_rate"`
	AvgProcessingTimePerSpeaker float64 `json:"avg_processing_time_per_speaker"`
	AvgCompressionRatio         float64 `json:"avg_compression_ratio"`
	TotalCharactersProcessed    int     `json:"total_characters_processed"`
}

// Report is the consolidated metrics of one Run, keyed by stage name.
// Stages that did not run are nil and left out of the JSON.
type Report struct {
	RunID    string `json:"-"`
	HaltedAt string `json:"-"`

	Diarization   *DiarizationMetrics   `json:"diarization,omitempty"`
	ASR           *RecognitionMetrics   `json:"asr,omitempty"`
	Correction    *CorrectionMetrics    `json:"correction,omitempty"`
	Summarization *SummarizationMetrics `json:"summarization,omitempty"`
}

// Halted reports why the run stopped early, wrapping ErrEmptyTable.
func (r Report) Halted() error {
	if r.HaltedAt == "" {
		return nil
	}
	return fmt.Errorf("%w: %s stage produced no rows", ErrEmptyTable, r.HaltedAt)
}

// TotalTime is the sum of the execution times of the stages that ran.
func (r Report) TotalTime() float64 {
	var total float64
	if r.Diarization != nil {
		total += r.Diarization.ExecutionTime
	}
	if r.ASR != nil {
		total += r.ASR.ExecutionTime
	}
	if r.Correction != nil {
		total += r.Correction.ExecutionTime
	}
	if r.Summarization != nil {
		total += r.Summarization.ExecutionTime
	}
	return total
}

// MarshalIndent encodes the report with two-space indentation.
func (r Report) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

func writeReport(path string, r Report) error {
	data, err := r.MarshalIndent()
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func since(start time.Time) float64 {
	return time.Since(start).Seconds()
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
