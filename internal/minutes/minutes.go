package minutes

import (
	"fmt"
	"os"
	"strings"

	"github.com/nguyentantai21042004/minutes-flow/internal/config"
	"github.com/nguyentantai21042004/minutes-flow/internal/table"
)

const dividerWidth = 50

// Render lays out the meeting minutes: a title, then one block per speaker
// in row order.
func Render(rows []table.SpeakerSummary, labels config.MinutesConfig) string {
	var b strings.Builder
	b.WriteString(labels.Title + "\n")
	b.WriteString(strings.Repeat("=", dividerWidth) + "\n\n")

	for _, row := range rows {
		fmt.Fprintf(&b, "%s: %s\n", labels.SpeakerLabel, row.Speaker)
		fmt.Fprintf(&b, "%s:\n", labels.ThesesLabel)
		b.WriteString(row.Summary + "\n")
		b.WriteString(strings.Repeat("-", dividerWidth) + "\n\n")
	}
	return b.String()
}

// WriteText renders rows and writes them to path as UTF-8 text.
func WriteText(path string, rows []table.SpeakerSummary, labels config.MinutesConfig) error {
	if err := os.WriteFile(path, []byte(Render(rows, labels)), 0644); err != nil {
		return fmt.Errorf("write minutes: %w", err)
	}
	return nil
}
