package inference

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nguyentantai21042004/minutes-flow/internal/logger"
	"github.com/nguyentantai21042004/minutes-flow/pkg/executor"
)

// whisperLanguages maps long language names to the codes whisper.cpp accepts
var whisperLanguages = map[string]string{
	"russian":    "ru",
	"english":    "en",
	"ukrainian":  "uk",
	"german":     "de",
	"french":     "fr",
	"spanish":    "es",
	"vietnamese": "vi",
}

type whisperTranscriber struct {
	executor   executor.Executor
	logger     logger.Logger
	binaryPath string
	modelPath  string
	language   string
	task       string
	threads    int
}

// NewWhisperTranscriber runs the whisper.cpp CLI on each segment.
func NewWhisperTranscriber(exec executor.Executor, log logger.Logger, binaryPath, modelPath, language, task string, threads int) Transcriber {
	return &whisperTranscriber{
		executor:   exec,
		logger:     log,
		binaryPath: binaryPath,
		modelPath:  modelPath,
		language:   languageCode(language),
		task:       task,
		threads:    threads,
	}
}

func (w *whisperTranscriber) Transcribe(ctx context.Context, wavPath string) (string, error) {
	// -nt: no timestamps, -np: only the transcript on stdout
	args := []string{
		"-m", w.modelPath,
		"-f", wavPath,
		"-l", w.language,
		"-t", strconv.Itoa(w.threads),
		"-nt",
		"-np",
	}
	if w.task == "translate" {
		args = append(args, "-tr")
	}

	w.logger.Debug(ctx, "whisper.cpp %s", strings.Join(args, " "))

	out, err := w.executor.Execute(ctx, w.binaryPath, args...)
	if err != nil {
		return "", fmt.Errorf("whisper transcribe: %w", err)
	}

	return strings.Join(strings.Fields(out), " "), nil
}

func languageCode(language string) string {
	if code, ok := whisperLanguages[strings.ToLower(language)]; ok {
		return code
	}
	return language
}
