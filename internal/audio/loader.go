package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/minutes-flow/internal/logger"
	"github.com/nguyentantai21042004/minutes-flow/pkg/executor"
)

// Loader turns any recording into a PCM clip.
type Loader interface {
	Load(ctx context.Context, path string) (*Clip, error)
}

type implLoader struct {
	executor executor.Executor
	tempDir  string
	logger   logger.Logger
}

// NewLoader creates a Loader that normalises non-PCM input through ffmpeg.
func NewLoader(exec executor.Executor, tempDir string, log logger.Logger) Loader {
	return &implLoader{executor: exec, tempDir: tempDir, logger: log}
}

// Load decodes path directly when it is already a 16kHz mono 16-bit PCM WAV,
// otherwise converts it with ffmpeg first. The converted file is removed
// before returning.
func (l *implLoader) Load(ctx context.Context, path string) (*Clip, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat audio: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".wav") {
		clip, err := ReadWAV(path)
		if err == nil && isSpeechFormat(clip) {
			return clip, nil
		}
		if err != nil {
			l.logger.Debug(ctx, "WAV %s needs conversion: %v", path, err)
		}
	}

	wavPath, err := l.normalize(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(wavPath); err != nil {
			l.logger.Warn(ctx, "Failed to cleanup temp file %s: %v", wavPath, err)
		}
	}()

	return ReadWAV(wavPath)
}

// normalize converts a recording to 16kHz mono 16-bit PCM WAV
func (l *implLoader) normalize(ctx context.Context, path string) (string, error) {
	if err := os.MkdirAll(l.tempDir, 0755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	out := filepath.Join(l.tempDir, "normalized_"+uuid.NewString()+".wav")

	l.logger.Info(ctx, "Converting audio to 16kHz mono PCM: %s", path)

	args := []string{
		"-i", path,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		out,
	}
	if _, err := l.executor.Execute(ctx, "ffmpeg", args...); err != nil {
		os.Remove(out)
		return "", fmt.Errorf("ffmpeg convert audio: %w", err)
	}
	return out, nil
}

func isSpeechFormat(c *Clip) bool {
	return c.SampleRate == 16000 && c.Channels == 1 && c.BitDepth == 16
}
