package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/minutes-flow/internal/minutes"
	"github.com/nguyentantai21042004/minutes-flow/internal/table"
)

// WriteMinutes renders the summarization table as a plain-text meeting
// minutes document, plus a .docx copy when minutes.docx is enabled.
func (p *implPipeline) WriteMinutes(ctx context.Context, summarizationCSV, outputTXT string) error {
	if err := requireFile(summarizationCSV); err != nil {
		return err
	}

	rows, err := table.ReadSummaries(summarizationCSV)
	if err != nil {
		return fmt.Errorf("read summarization table: %w", err)
	}

	if err := minutes.WriteText(outputTXT, rows, p.cfg.Minutes); err != nil {
		return err
	}
	p.logger.Info(ctx, "Meeting minutes saved to %s", outputTXT)

	if p.cfg.Minutes.Docx {
		docxPath := docxPathFor(outputTXT)
		if err := minutes.WriteDocx(docxPath, rows, p.cfg.Minutes); err != nil {
			return err
		}
		p.logger.Info(ctx, "Meeting minutes saved to %s", docxPath)
	}
	return nil
}

func docxPathFor(txtPath string) string {
	return strings.TrimSuffix(txtPath, filepath.Ext(txtPath)) + ".docx"
}
