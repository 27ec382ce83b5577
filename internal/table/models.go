// Package table holds the row types exchanged between pipeline stages and
// their CSV encoding.
package table

// DiarizationSegment is one speaker turn, times in seconds.
type DiarizationSegment struct {
	Speaker   string
	StartTime float64
	EndTime   float64
	Duration  float64
}

// TranscriptSegment is a diarization turn that produced speech.
type TranscriptSegment struct {
	DiarizationSegment
	Text      string
	WordCount int
}

// CorrectedSegment adds the grammar-corrected text.
type CorrectedSegment struct {
	TranscriptSegment
	CorrectedText string
}

// SpeakerSummary is the per-speaker summarization result.
type SpeakerSummary struct {
	Speaker            string
	OriginalTextLength int
	SummaryLength      int
	CompressionRatio   float64
	Summary            string
}

var (
	DiarizationColumns   = []string{"speaker", "start_time", "end_time", "duration"}
	TranscriptColumns    = append(append([]string{}, DiarizationColumns...), "text", "word_count")
	CorrectedColumns     = append(append([]string{}, TranscriptColumns...), "corrected_text")
	SummarizationColumns = []string{"speaker", "original_text_length", "summary_length", "compression_ratio", "summary"}
)
