package history

import (
	"context"
	"time"
)

// Run is one pipeline execution as kept in the history database.
type Run struct {
	ID                       string
	AudioPath                string
	Prefix                   string
	StartedAt                time.Time
	Duration                 time.Duration
	HaltedAt                 string
	SpeakersCount            int
	SpeechSegments           int
	TotalWords               int
	CorrectionSuccessRate    float64
	SummarizationSuccessRate float64
	MetricsJSON              string
}

// Store persists pipeline runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	List(ctx context.Context, limit int) ([]Run, error)
	Close() error
}
