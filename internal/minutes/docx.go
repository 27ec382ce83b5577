package minutes

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gomutex/godocx"
	"github.com/gomutex/godocx/docx"
	"github.com/nguyentantai21042004/minutes-flow/internal/config"
	"github.com/nguyentantai21042004/minutes-flow/internal/table"
)

const (
	fontName = "Times New Roman"
	fontSize = 13
)

var (
	reBold   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reBullet = regexp.MustCompile(`^[\-\*•]\s+(.+)$`)
)

// WriteDocx renders the same minutes as WriteText into a styled .docx file.
// Summaries produced by chat models may carry markdown bullets and bold
// markers; those are turned into docx formatting.
func WriteDocx(path string, rows []table.SpeakerSummary, labels config.MinutesConfig) error {
	doc, err := godocx.NewDocument()
	if err != nil {
		return fmt.Errorf("create docx: %w", err)
	}

	addStyledRun(doc.AddParagraph(""), labels.Title, true, 16)

	for _, row := range rows {
		doc.AddParagraph("")
		addStyledRun(doc.AddParagraph(""), labels.SpeakerLabel+": "+row.Speaker, true, 14)
		addStyledRun(doc.AddParagraph(""), labels.ThesesLabel+":", true, fontSize)

		for _, line := range strings.Split(row.Summary, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" {
				continue
			}
			if m := reBullet.FindStringSubmatch(trimmed); m != nil {
				addRichText(doc.AddParagraph(""), "• "+m[1])
				continue
			}
			addRichText(doc.AddParagraph(""), trimmed)
		}
	}

	if err := doc.SaveTo(path); err != nil {
		return fmt.Errorf("save docx: %w", err)
	}
	return nil
}

func addStyledRun(p *docx.Paragraph, text string, bold bool, size uint64) {
	text = cleanMarkdownInline(text)
	run := p.AddText(text).Font(fontName).Size(size).Color("000000")
	if bold {
		run.Bold(true)
	}
}

func addRichText(p *docx.Paragraph, text string) {
	parts := reBold.Split(text, -1)
	matches := reBold.FindAllStringSubmatch(text, -1)

	for i, part := range parts {
		if part != "" {
			p.AddText(cleanMarkdownInline(part)).Font(fontName).Size(fontSize).Color("000000")
		}
		if i < len(matches) {
			p.AddText(cleanMarkdownInline(matches[i][1])).Font(fontName).Size(fontSize).Color("000000").Bold(true)
		}
	}
}

func cleanMarkdownInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = strings.ReplaceAll(s, "`", "")
	return s
}
