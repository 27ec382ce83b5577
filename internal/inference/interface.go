package inference

import "context"

// Turn is one speaker-attributed interval reported by a diarization model.
type Turn struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// Diarizer splits a recording into speaker turns.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath string) ([]Turn, error)
}

// Transcriber converts one speech WAV file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, wavPath string) (string, error)
}

// Corrector rewrites recognized text into grammatical text.
type Corrector interface {
	Correct(ctx context.Context, text string) (string, error)
}

// Summarizer condenses a speaker's text into key points.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}
