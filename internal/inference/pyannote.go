package inference

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nguyentantai21042004/minutes-flow/internal/logger"
	"github.com/nguyentantai21042004/minutes-flow/pkg/executor"
)

//go:embed assets/pyannote_diarize.py
var pyannoteScript []byte

type pyannoteDiarizer struct {
	executor executor.Executor
	logger   logger.Logger
	python   string
	model    string
	hfToken  string
	device   string
	tempDir  string
}

// NewPyannoteDiarizer runs the pyannote pipeline through a python helper.
func NewPyannoteDiarizer(exec executor.Executor, log logger.Logger, python, model, hfToken, device, tempDir string) Diarizer {
	return &pyannoteDiarizer{
		executor: exec,
		logger:   log,
		python:   python,
		model:    model,
		hfToken:  hfToken,
		device:   device,
		tempDir:  tempDir,
	}
}

func (d *pyannoteDiarizer) Diarize(ctx context.Context, audioPath string) ([]Turn, error) {
	if err := os.MkdirAll(d.tempDir, 0755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	script := filepath.Join(d.tempDir, "pyannote_"+uuid.NewString()+".py")
	if err := os.WriteFile(script, pyannoteScript, 0644); err != nil {
		return nil, fmt.Errorf("write diarization helper: %w", err)
	}
	defer os.Remove(script)

	d.logger.Info(ctx, "Running diarization model %s on %s (device: %s)", d.model, audioPath, d.device)

	out, err := d.executor.ExecuteWithEnv(ctx,
		[]string{"HF_TOKEN=" + d.hfToken},
		d.python, script,
		"--audio", audioPath,
		"--model", d.model,
		"--device", d.device,
	)
	if err != nil {
		return nil, fmt.Errorf("pyannote diarize: %w", err)
	}

	return parseTurns(out)
}

// parseTurns reads the JSON array printed on the helper's last stdout line.
// Libraries loaded by the helper may print warnings before it.
func parseTurns(out string) ([]Turn, error) {
	out = strings.TrimSpace(out)
	if i := strings.LastIndex(out, "\n"); i >= 0 {
		out = out[i+1:]
	}
	var turns []Turn
	if err := json.Unmarshal([]byte(out), &turns); err != nil {
		return nil, fmt.Errorf("decode diarization output: %w", err)
	}
	return turns, nil
}
