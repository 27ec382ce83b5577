package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/minutes-flow/internal/audio"
	"github.com/nguyentantai21042004/minutes-flow/internal/table"
)

// Recognize transcribes every diarization segment of the recording.
// Failed segments and segments without speech are skipped; the table is
// written only when at least one row survives.
func (p *implPipeline) Recognize(ctx context.Context, audioPath, diarizationCSV, outputCSV string) ([]table.TranscriptSegment, RecognitionMetrics, error) {
	start := time.Now()
	if err := requireFile(audioPath); err != nil {
		return nil, RecognitionMetrics{}, err
	}
	if err := requireFile(diarizationCSV); err != nil {
		return nil, RecognitionMetrics{}, err
	}

	segs, err := table.ReadDiarization(diarizationCSV)
	if err != nil {
		return nil, RecognitionMetrics{}, fmt.Errorf("read diarization table: %w", err)
	}

	clip, err := p.loader.Load(ctx, audioPath)
	if err != nil {
		return nil, RecognitionMetrics{}, fmt.Errorf("load audio: %w", err)
	}
	if err := os.MkdirAll(p.cfg.Paths.Temp, 0755); err != nil {
		return nil, RecognitionMetrics{}, fmt.Errorf("create temp dir: %w", err)
	}

	p.logger.Info(ctx, "Transcribing %d segments...", len(segs))

	var rows []table.TranscriptSegment
	for i, seg := range segs {
		if err := ctx.Err(); err != nil {
			return nil, RecognitionMetrics{}, err
		}

		res := p.transcribeSegment(ctx, clip, seg)
		if !res.OK() {
			p.logger.Warn(ctx, "Segment %d/%d (%s %.2f-%.2f) failed: %v",
				i+1, len(segs), seg.Speaker, seg.StartTime, seg.EndTime, res.Err)
			continue
		}
		if p.isNoSpeech(res.Value) {
			p.logger.Debug(ctx, "Segment %d/%d has no speech", i+1, len(segs))
			continue
		}

		rows = append(rows, table.TranscriptSegment{
			DiarizationSegment: seg,
			Text:               res.Value,
			WordCount:          len(strings.Fields(res.Value)),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].StartTime < rows[j].StartTime
	})

	if len(rows) == 0 {
		p.logger.Warn(ctx, "No speech recognized in %d segments", len(segs))
		return nil, RecognitionMetrics{ExecutionTime: since(start), SegmentsProcessed: len(segs)}, nil
	}

	if err := table.WriteTranscripts(outputCSV, rows); err != nil {
		return nil, RecognitionMetrics{}, fmt.Errorf("write recognition table: %w", err)
	}

	var words int
	speakers := make(map[string]struct{})
	for _, r := range rows {
		words += r.WordCount
		speakers[r.Speaker] = struct{}{}
	}

	m := RecognitionMetrics{
		ExecutionTime:      since(start),
		SegmentsProcessed:  len(segs),
		SegmentsWithSpeech: len(rows),
		SuccessRate:        ratio(len(rows), len(segs)),
		TotalWords:         words,
		SpeakersCount:      len(speakers),
	}
	p.logger.Info(ctx, "Recognition completed: %d/%d segments with speech, %d words, %.2fs",
		m.SegmentsWithSpeech, m.SegmentsProcessed, m.TotalWords, m.ExecutionTime)
	return rows, m, nil
}

// transcribeSegment writes the [start, end) samples of seg to a temp WAV,
// transcribes it and always removes the temp file.
func (p *implPipeline) transcribeSegment(ctx context.Context, clip *audio.Clip, seg table.DiarizationSegment) Result[string] {
	path := filepath.Join(p.cfg.Paths.Temp, "segment_"+uuid.NewString()+".wav")
	defer p.cleanupTempFile(ctx, path)

	if err := clip.Slice(seg.StartTime, seg.EndTime).WriteWAV(path); err != nil {
		return failure("", fmt.Errorf("write segment: %w", err))
	}

	text, err := p.models.Transcriber.Transcribe(ctx, path)
	if err != nil {
		return failure("", err)
	}
	return success(strings.TrimSpace(text))
}

func (p *implPipeline) isNoSpeech(text string) bool {
	return text == "" || slices.Contains(p.cfg.Processing.NoSpeechPlaceholders, text)
}
