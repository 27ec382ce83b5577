package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// cleanupTempFile removes a temporary file, logs warning if fails
func (p *implPipeline) cleanupTempFile(ctx context.Context, filePath string) {
	err := os.Remove(filePath)
	switch {
	case err == nil:
		p.logger.Debug(ctx, "Cleaned up temp file: %s", filePath)
	case errors.Is(err, fs.ErrNotExist):
	default:
		p.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", filePath, err)
	}
}
