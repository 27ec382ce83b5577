package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nguyentantai21042004/minutes-flow/internal/table"
	"github.com/texttheater/golang-levenshtein/levenshtein"
)

var editOptions = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// Correct rewrites every recognized text. A failed call keeps the original
// text, so the output has exactly as many rows as the input.
func (p *implPipeline) Correct(ctx context.Context, recognitionCSV, outputCSV string) ([]table.CorrectedSegment, CorrectionMetrics, error) {
	start := time.Now()
	if err := requireFile(recognitionCSV); err != nil {
		return nil, CorrectionMetrics{}, err
	}

	rows, err := table.ReadTranscripts(recognitionCSV)
	if err != nil {
		return nil, CorrectionMetrics{}, fmt.Errorf("read recognition table: %w", err)
	}

	p.logger.Info(ctx, "Correcting %d segments...", len(rows))

	out := make([]table.CorrectedSegment, 0, len(rows))
	var (
		successes int
		chars     int
		times     []float64
		editRates []float64
	)
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, CorrectionMetrics{}, err
		}
		p.logger.Info(ctx, "Correcting segment %d/%d...", i+1, len(rows))

		segStart := time.Now()
		res := p.correctText(ctx, row.Text)
		elapsed := since(segStart)
		times = append(times, elapsed)

		if res.OK() {
			successes++
		} else {
			p.logger.Warn(ctx, "Correction of segment %d/%d failed, keeping original: %v", i+1, len(rows), res.Err)
		}
		p.logger.Debug(ctx, "Original: %s", row.Text)
		p.logger.Debug(ctx, "Corrected: %s", res.Value)
		p.logger.Debug(ctx, "Processing time: %.2f seconds", elapsed)

		out = append(out, table.CorrectedSegment{TranscriptSegment: row, CorrectedText: res.Value})
		chars += utf8.RuneCountInString(row.Text)
		editRates = append(editRates, editRate(row.Text, res.Value))
	}

	if err := table.WriteCorrected(outputCSV, out); err != nil {
		return nil, CorrectionMetrics{}, fmt.Errorf("write correction table: %w", err)
	}

	m := CorrectionMetrics{
		ExecutionTime:               since(start),
		SegmentsCount:               len(rows),
		SuccessfulCorrections:       successes,
		SuccessRate:                 ratio(successes, len(rows)),
		AvgProcessingTimePerSegment: mean(times),
		TotalCharactersProcessed:    chars,
		AvgEditRate:                 mean(editRates),
	}
	p.logger.Info(ctx, "Correction completed: %d/%d successful, %.2fs", successes, len(rows), m.ExecutionTime)
	return out, m, nil
}

func (p *implPipeline) correctText(ctx context.Context, text string) Result[string] {
	corrected, err := p.models.Corrector.Correct(ctx, text)
	if err != nil {
		return failure(text, err)
	}
	return success(strings.TrimSpace(corrected))
}

// editRate is the character edit distance between the texts relative to
// the length of the original.
func editRate(original, corrected string) float64 {
	a, b := []rune(original), []rune(corrected)
	if len(a) == 0 {
		return 0
	}
	return float64(levenshtein.DistanceForStrings(a, b, editOptions)) / float64(len(a))
}
