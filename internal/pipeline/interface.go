package pipeline

import (
	"context"

	"github.com/nguyentantai21042004/minutes-flow/internal/table"
)

// Pipeline runs the meeting-transcription stages. Every stage can be
// invoked on its own; Run chains them.
type Pipeline interface {
	Run(ctx context.Context, audioPath, outputPrefix string) (Report, error)
	Diarize(ctx context.Context, audioPath, outputCSV string) ([]table.DiarizationSegment, DiarizationMetrics, error)
	Recognize(ctx context.Context, audioPath, diarizationCSV, outputCSV string) ([]table.TranscriptSegment, RecognitionMetrics, error)
	Correct(ctx context.Context, recognitionCSV, outputCSV string) ([]table.CorrectedSegment, CorrectionMetrics, error)
	Summarize(ctx context.Context, correctionCSV, outputCSV string) ([]table.SpeakerSummary, SummarizationMetrics, error)
	WriteMinutes(ctx context.Context, summarizationCSV, outputTXT string) error
}
