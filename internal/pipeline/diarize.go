package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/nguyentantai21042004/minutes-flow/internal/inference"
	"github.com/nguyentantai21042004/minutes-flow/internal/table"
)

// Diarize splits the recording into speaker segments of at least the
// configured minimum duration, sorted by start time. The table is written
// only when at least one segment survives.
func (p *implPipeline) Diarize(ctx context.Context, audioPath, outputCSV string) ([]table.DiarizationSegment, DiarizationMetrics, error) {
	start := time.Now()
	if err := requireFile(audioPath); err != nil {
		return nil, DiarizationMetrics{}, err
	}

	p.logger.Info(ctx, "Performing diarization: %s", audioPath)
	turns, err := p.models.Diarizer.Diarize(ctx, audioPath)
	if err != nil {
		return nil, DiarizationMetrics{}, fmt.Errorf("diarize: %w", err)
	}

	segs := filterTurns(turns, *p.cfg.Processing.MinSegmentDuration)
	if len(segs) == 0 {
		p.logger.Warn(ctx, "No speaker segments of at least %.2fs found (%d raw turns)",
			*p.cfg.Processing.MinSegmentDuration, len(turns))
		return nil, DiarizationMetrics{ExecutionTime: since(start)}, nil
	}

	if err := table.WriteDiarization(outputCSV, segs); err != nil {
		return nil, DiarizationMetrics{}, fmt.Errorf("write diarization table: %w", err)
	}

	var audioDuration float64
	speakers := make(map[string]struct{})
	for _, s := range segs {
		speakers[s.Speaker] = struct{}{}
		audioDuration = max(audioDuration, s.EndTime)
	}

	m := DiarizationMetrics{
		ExecutionTime: since(start),
		SegmentsCount: len(segs),
		SpeakersCount: len(speakers),
		AudioDuration: audioDuration,
	}
	p.logger.Info(ctx, "Diarization completed: %d segments, %d speakers, %.2fs", m.SegmentsCount, m.SpeakersCount, m.ExecutionTime)
	return segs, m, nil
}

// filterTurns keeps turns with end > start lasting at least minDuration,
// stably sorted by start time.
func filterTurns(turns []inference.Turn, minDuration float64) []table.DiarizationSegment {
	var segs []table.DiarizationSegment
	for _, t := range turns {
		duration := t.End - t.Start
		if t.End <= t.Start || duration < minDuration {
			continue
		}
		segs = append(segs, table.DiarizationSegment{
			Speaker:   t.Speaker,
			StartTime: t.Start,
			EndTime:   t.End,
			Duration:  duration,
		})
	}
	sort.SliceStable(segs, func(i, j int) bool {
		return segs[i].StartTime < segs[j].StartTime
	})
	return segs
}
