package inference

import (
	"fmt"
	"net/http"

	"github.com/nguyentantai21042004/minutes-flow/internal/config"
	"github.com/nguyentantai21042004/minutes-flow/internal/logger"
	"github.com/nguyentantai21042004/minutes-flow/pkg/executor"
)

// Models bundles the four capabilities a pipeline run needs.
type Models struct {
	Diarizer    Diarizer
	Transcriber Transcriber
	Corrector   Corrector
	Summarizer  Summarizer
}

// NewModels builds every backend selected in cfg.
func NewModels(cfg *config.Config, exec executor.Executor, log logger.Logger) (Models, error) {
	var (
		m   Models
		err error
	)
	if m.Diarizer, err = NewDiarizer(cfg, exec, log); err != nil {
		return Models{}, err
	}
	if m.Transcriber, err = NewTranscriber(cfg, exec, log); err != nil {
		return Models{}, err
	}
	if m.Corrector, err = NewCorrector(cfg, log); err != nil {
		return Models{}, err
	}
	if m.Summarizer, err = NewSummarizer(cfg, log); err != nil {
		return Models{}, err
	}
	return m, nil
}

func NewDiarizer(cfg *config.Config, exec executor.Executor, log logger.Logger) (Diarizer, error) {
	d := cfg.Models.Diarization
	switch d.Backend {
	case config.BackendPyannote:
		return NewPyannoteDiarizer(exec, log, d.Python, d.Model, cfg.Models.HFToken, cfg.Device, cfg.Paths.Temp), nil
	}
	return nil, fmt.Errorf("unknown diarization backend %q", d.Backend)
}

func NewTranscriber(cfg *config.Config, exec executor.Executor, log logger.Logger) (Transcriber, error) {
	a := cfg.Models.ASR
	switch a.Backend {
	case config.BackendWhisperCPP:
		return NewWhisperTranscriber(exec, log, a.BinaryPath, a.Model, a.Language, a.Task, a.Threads), nil
	case config.BackendOpenAI:
		return NewOpenAITranscriber(httpClient(cfg), a.Endpoint, a.APIKey, a.Model, a.Language, a.Task), nil
	}
	return nil, fmt.Errorf("unknown asr backend %q", a.Backend)
}

func NewCorrector(cfg *config.Config, log logger.Logger) (Corrector, error) {
	c := cfg.Models.Correction
	switch c.Backend {
	case config.BackendHuggingFace:
		return NewHubCorrector(httpClient(cfg), c.Endpoint, c.Model, cfg.Models.HFToken, c.ForcedBOSTokenID), nil
	case config.BackendGemini:
		return NewGeminiCorrector(c.APIKeys, c.Model, c.TgtLang, log), nil
	}
	return nil, fmt.Errorf("unknown correction backend %q", c.Backend)
}

func NewSummarizer(cfg *config.Config, log logger.Logger) (Summarizer, error) {
	s := cfg.Models.Summarization
	switch s.Backend {
	case config.BackendHuggingFace:
		params := GenerationParams{
			NumBeams:          s.NumBeams,
			MinNewTokens:      s.MinNewTokens,
			MaxNewTokens:      s.MaxNewTokens,
			DoSample:          s.DoSample != nil && *s.DoSample,
			NoRepeatNgramSize: s.NoRepeatNgramSize,
			TopP:              s.TopP,
		}
		return NewHubSummarizer(httpClient(cfg), s.Endpoint, s.Model, cfg.Models.HFToken, s.Prompt, params), nil
	case config.BackendGemini:
		return NewGeminiSummarizer(s.APIKeys, s.Model, s.Prompt, log), nil
	}
	return nil, fmt.Errorf("unknown summarization backend %q", s.Backend)
}

// httpClient has no timeout unless models.request_timeout is set
func httpClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Models.RequestTimeout}
}
