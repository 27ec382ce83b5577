package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nguyentantai21042004/minutes-flow/internal/table"
)

const ellipsis = "..."

type speakerText struct {
	speaker string
	text    string
}

// Summarize condenses each speaker's corrected text into one summary row.
// A failed call falls back to the beginning of the speaker's text.
func (p *implPipeline) Summarize(ctx context.Context, correctionCSV, outputCSV string) ([]table.SpeakerSummary, SummarizationMetrics, error) {
	start := time.Now()
	if err := requireFile(correctionCSV); err != nil {
		return nil, SummarizationMetrics{}, err
	}

	rows, err := table.ReadCorrected(correctionCSV)
	if err != nil {
		return nil, SummarizationMetrics{}, fmt.Errorf("read correction table: %w", err)
	}

	groups := groupBySpeaker(rows)
	p.logger.Info(ctx, "Summarizing texts for %d speakers...", len(groups))

	maxInput := p.cfg.Processing.MaxSummaryInputLength
	out := make([]table.SpeakerSummary, 0, len(groups))
	var (
		successes int
		chars     int
		times     []float64
		ratios    []float64
	)
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, SummarizationMetrics{}, err
		}
		p.logger.Info(ctx, "Summarizing for %s...", g.speaker)

		input := g.text
		if utf8.RuneCountInString(input) > maxInput {
			input = prefix(input, maxInput) + ellipsis
			p.logger.Debug(ctx, "Text of %s truncated to %d characters", g.speaker, maxInput)
		}

		segStart := time.Now()
		res := p.summarizeText(ctx, input, g.text)
		times = append(times, since(segStart))

		if res.OK() {
			successes++
		} else {
			p.logger.Warn(ctx, "Summarization for %s failed, using text prefix: %v", g.speaker, res.Err)
		}

		origLen := utf8.RuneCountInString(g.text)
		sumLen := utf8.RuneCountInString(res.Value)
		r := ratio(sumLen, origLen)
		ratios = append(ratios, r)
		chars += origLen

		p.logger.Debug(ctx, "Original text length: %d, summary length: %d, compression: %.2f", origLen, sumLen, r)

		out = append(out, table.SpeakerSummary{
			Speaker:            g.speaker,
			OriginalTextLength: origLen,
			SummaryLength:      sumLen,
			CompressionRatio:   r,
			Summary:            res.Value,
		})
	}

	if err := table.WriteSummaries(outputCSV, out); err != nil {
		return nil, SummarizationMetrics{}, fmt.Errorf("write summarization table: %w", err)
	}

	m := SummarizationMetrics{
		ExecutionTime:               since(start),
		SpeakersCount:               len(groups),
		SuccessfulSummaries:         successes,
		SuccessRate:                 ratio(successes, len(groups)),
		AvgProcessingTimePerSpeaker: mean(times),
		AvgCompressionRatio:         mean(ratios),
		TotalCharactersProcessed:    chars,
	}
	p.logger.Info(ctx, "Summarization completed: %d/%d successful, %.2fs", successes, len(groups), m.ExecutionTime)
	return out, m, nil
}

// summarizeText falls back to the first fallback_summary_length characters
// of original followed by an ellipsis.
func (p *implPipeline) summarizeText(ctx context.Context, input, original string) Result[string] {
	summary, err := p.models.Summarizer.Summarize(ctx, input)
	if err != nil {
		return failure(prefix(original, p.cfg.Processing.FallbackSummaryLength)+ellipsis, err)
	}
	return success(strings.TrimSpace(summary))
}

// groupBySpeaker joins each speaker's corrected text with single spaces in
// row order. Groups are ordered by speaker id.
func groupBySpeaker(rows []table.CorrectedSegment) []speakerText {
	texts := make(map[string][]string)
	for _, r := range rows {
		texts[r.Speaker] = append(texts[r.Speaker], r.CorrectedText)
	}

	speakers := make([]string, 0, len(texts))
	for s := range texts {
		speakers = append(speakers, s)
	}
	sort.Strings(speakers)

	groups := make([]speakerText, 0, len(speakers))
	for _, s := range speakers {
		groups = append(groups, speakerText{speaker: s, text: strings.Join(texts[s], " ")})
	}
	return groups
}

// prefix returns the first n runes of s.
func prefix(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
