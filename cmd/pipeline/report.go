package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nguyentantai21042004/minutes-flow/internal/history"
	"github.com/nguyentantai21042004/minutes-flow/internal/pipeline"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF0000"))
)

// printReport prints the key metrics of a finished run
func printReport(r pipeline.Report) {
	fmt.Fprint(os.Stdout, renderReport(r))
}

func renderReport(r pipeline.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("KEY METRICS") + "\n")

	if err := r.Halted(); err != nil {
		b.WriteString(warnStyle.Render("Pipeline stopped: "+err.Error()) + "\n")
	}

	line := func(label, value string) {
		b.WriteString(labelStyle.Render("- "+label+": ") + valueStyle.Render(value) + "\n")
	}
	if r.Diarization != nil {
		line("Speakers identified", fmt.Sprint(r.Diarization.SpeakersCount))
	}
	if r.ASR != nil {
		line("Speech segments", fmt.Sprint(r.ASR.SegmentsWithSpeech))
		line("Total words", fmt.Sprint(r.ASR.TotalWords))
	}
	if r.Correction != nil {
		line("Correction success rate", percent(r.Correction.SuccessRate))
	}
	if r.Summarization != nil {
		line("Summarization success rate", percent(r.Summarization.SuccessRate))
	}
	line("Total pipeline execution time", fmt.Sprintf("%.2f seconds", r.TotalTime()))
	return b.String()
}

func printHistory(ctx context.Context, store history.Store, limit int) error {
	runs, err := store.List(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, renderHistory(runs))
	return nil
}

func renderHistory(runs []history.Run) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("RECENT RUNS (%d)", len(runs))) + "\n")
	for _, r := range runs {
		status := valueStyle.Render("completed")
		if r.HaltedAt != "" {
			status = warnStyle.Render("halted at " + r.HaltedAt)
		}
		fmt.Fprintf(&b, "%s %s %s %s\n",
			labelStyle.Render(r.StartedAt.Format("2006-01-02 15:04")),
			r.Prefix,
			status,
			labelStyle.Render(fmt.Sprintf("(%d speakers, %d words, %.1fs)", r.SpeakersCount, r.TotalWords, r.Duration.Seconds())),
		)
	}
	return b.String()
}

func percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}
