package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultCorrectionModel = "ai-forever/sage-m2m100-1.2B"
	// id of __ru__ in the m2m100 tokenizer
	m2m100RussianTokenID = 128077
)

// Backend names accepted in models.*.backend
const (
	BackendPyannote    = "pyannote"
	BackendWhisperCPP  = "whisper-cpp"
	BackendOpenAI      = "openai"
	BackendHuggingFace = "huggingface"
	BackendGemini      = "gemini"
)

type Config struct {
	Models      ModelsConfig      `yaml:"models"`
	Processing  ProcessingConfig  `yaml:"processing"`
	Device      string            `yaml:"device"`
	Paths       PathsConfig       `yaml:"paths"`
	Minutes     MinutesConfig     `yaml:"minutes"`
	Logging     LoggingConfig     `yaml:"logging"`
	Performance PerformanceConfig `yaml:"performance"`
	History     HistoryConfig     `yaml:"history"`
	Storage     StorageConfig     `yaml:"storage"`
}

type ModelsConfig struct {
	HFToken        string                   `yaml:"hf_token"`
	RequestTimeout time.Duration            `yaml:"request_timeout"`
	Diarization    DiarizationModelConfig   `yaml:"diarization"`
	ASR            ASRModelConfig           `yaml:"asr"`
	Correction     CorrectionModelConfig    `yaml:"correction"`
	Summarization  SummarizationModelConfig `yaml:"summarization"`
}

type DiarizationModelConfig struct {
	Backend string `yaml:"backend"`
	Model   string `yaml:"model"`
	Python  string `yaml:"python"`
}

type ASRModelConfig struct {
	Backend    string `yaml:"backend"`
	Model      string `yaml:"model"`
	BinaryPath string `yaml:"binary_path"`
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Language   string `yaml:"language"`
	Task       string `yaml:"task"`
	Threads    int    `yaml:"threads"`
}

type CorrectionModelConfig struct {
	Backend  string   `yaml:"backend"`
	Model    string   `yaml:"model"`
	Endpoint string   `yaml:"endpoint"`
	APIKeys  []string `yaml:"api_keys"`
	TgtLang  string   `yaml:"tgt_lang"`
	// ForcedBOSTokenID is the decoder's target-language token for
	// huggingface seq2seq models. Negative disables it.
	ForcedBOSTokenID int `yaml:"forced_bos_token_id"`
}

type SummarizationModelConfig struct {
	Backend           string   `yaml:"backend"`
	Model             string   `yaml:"model"`
	Endpoint          string   `yaml:"endpoint"`
	APIKeys           []string `yaml:"api_keys"`
	Prompt            string   `yaml:"prompt"`
	NumBeams          int      `yaml:"num_beams"`
	MinNewTokens      int      `yaml:"min_new_tokens"`
	MaxNewTokens      int      `yaml:"max_new_tokens"`
	DoSample          *bool    `yaml:"do_sample"`
	NoRepeatNgramSize int      `yaml:"no_repeat_ngram_size"`
	TopP              float64  `yaml:"top_p"`
}

type ProcessingConfig struct {
	MinSegmentDuration    *float64 `yaml:"min_segment_duration"`
	MaxSummaryInputLength int      `yaml:"max_summary_input_length"`
	FallbackSummaryLength int      `yaml:"fallback_summary_length"`
	NoSpeechPlaceholders  []string `yaml:"no_speech_placeholders"`
}

type PathsConfig struct {
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Archived string `yaml:"archived"`
	Temp     string `yaml:"temp"`
}

type MinutesConfig struct {
	Title        string `yaml:"title"`
	SpeakerLabel string `yaml:"speaker_label"`
	ThesesLabel  string `yaml:"theses_label"`
	Docx         bool   `yaml:"docx"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type PerformanceConfig struct {
	MaxConcurrent int `yaml:"max_concurrent"`
}

type HistoryConfig struct {
	Path string `yaml:"path"`
}

type StorageConfig struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	UseSSL          bool   `yaml:"use_ssl"`
	Prefix          string `yaml:"prefix"`
}

// Enabled reports whether artifact publishing is configured
func (s StorageConfig) Enabled() bool {
	return s.Endpoint != ""
}

func (c *Config) Validate() error {
	c.applyModelDefaults()

	switch c.Models.Diarization.Backend {
	case BackendPyannote:
		if c.Models.HFToken == "" {
			return fmt.Errorf("models.hf_token is required for the pyannote diarizer (or set HF_TOKEN)")
		}
	default:
		return fmt.Errorf("models.diarization.backend %q is not supported", c.Models.Diarization.Backend)
	}

	switch c.Models.ASR.Backend {
	case BackendWhisperCPP:
		if c.Models.ASR.Model == "" {
			return fmt.Errorf("models.asr.model is required for whisper-cpp (path to a ggml model)")
		}
	case BackendOpenAI:
	default:
		return fmt.Errorf("models.asr.backend %q is not supported", c.Models.ASR.Backend)
	}
	if c.Models.ASR.Task != "transcribe" && c.Models.ASR.Task != "translate" {
		return fmt.Errorf("models.asr.task must be transcribe or translate")
	}

	if err := validateTextBackend("correction", c.Models.Correction.Backend, c.Models.Correction.APIKeys); err != nil {
		return err
	}
	if err := validateTextBackend("summarization", c.Models.Summarization.Backend, c.Models.Summarization.APIKeys); err != nil {
		return err
	}

	switch c.Device {
	case "":
		c.Device = "auto"
	case "auto", "cpu", "cuda":
	default:
		return fmt.Errorf("device must be one of auto, cpu, cuda")
	}

	if err := c.Processing.validate(); err != nil {
		return err
	}
	if c.Paths.Output == "" {
		c.Paths.Output = "data/output"
	}
	if c.Paths.Input == "" {
		c.Paths.Input = "data/input"
	}
	if c.Paths.Archived == "" {
		c.Paths.Archived = "data/archived"
	}
	if c.Paths.Temp == "" {
		c.Paths.Temp = "data/temp"
	}

	if c.Minutes.Title == "" {
		c.Minutes.Title = "ПРОТОКОЛ ВСТРЕЧИ"
	}
	if c.Minutes.SpeakerLabel == "" {
		c.Minutes.SpeakerLabel = "СПИКЕР"
	}
	if c.Minutes.ThesesLabel == "" {
		c.Minutes.ThesesLabel = "КЛЮЧЕВЫЕ ТЕЗИСЫ"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Performance.MaxConcurrent == 0 {
		c.Performance.MaxConcurrent = 1
	}

	if c.Storage.Enabled() && c.Storage.Bucket == "" {
		return fmt.Errorf("storage.bucket is required when storage.endpoint is set")
	}

	return nil
}

// validate rejects negative limits and fills defaults. An explicit
// min_segment_duration of 0 keeps every turn with end > start.
func (p *ProcessingConfig) validate() error {
	if p.MinSegmentDuration == nil {
		minDuration := 0.5
		p.MinSegmentDuration = &minDuration
	}
	if *p.MinSegmentDuration < 0 {
		return fmt.Errorf("processing.min_segment_duration must not be negative")
	}
	if p.MaxSummaryInputLength < 0 {
		return fmt.Errorf("processing.max_summary_input_length must not be negative")
	}
	if p.MaxSummaryInputLength == 0 {
		p.MaxSummaryInputLength = 2000
	}
	if p.FallbackSummaryLength < 0 {
		return fmt.Errorf("processing.fallback_summary_length must not be negative")
	}
	if p.FallbackSummaryLength == 0 {
		p.FallbackSummaryLength = 200
	}
	if p.NoSpeechPlaceholders == nil {
		p.NoSpeechPlaceholders = []string{"", ".", "..."}
	}
	return nil
}

func (c *Config) applyModelDefaults() {
	d := &c.Models.Diarization
	if d.Backend == "" {
		d.Backend = BackendPyannote
	}
	if d.Model == "" {
		d.Model = "pyannote/speaker-diarization-3.1"
	}
	if d.Python == "" {
		d.Python = "python3"
	}

	a := &c.Models.ASR
	if a.Backend == "" {
		a.Backend = BackendWhisperCPP
	}
	if a.BinaryPath == "" {
		a.BinaryPath = "whisper-cli"
	}
	if a.Backend == BackendOpenAI {
		if a.Endpoint == "" {
			a.Endpoint = "https://api.openai.com/v1"
		}
		if a.Model == "" {
			a.Model = "whisper-1"
		}
	}
	if a.Language == "" {
		a.Language = "russian"
	}
	if a.Task == "" {
		a.Task = "transcribe"
	}
	if a.Threads == 0 {
		a.Threads = 4
	}

	cr := &c.Models.Correction
	if cr.Backend == "" {
		cr.Backend = BackendHuggingFace
	}
	if cr.Model == "" {
		cr.Model = defaultModel(cr.Backend, defaultCorrectionModel)
	}
	if cr.Endpoint == "" && cr.Backend == BackendHuggingFace {
		cr.Endpoint = "https://api-inference.huggingface.co/models"
	}
	if cr.ForcedBOSTokenID == 0 && cr.Backend == BackendHuggingFace && cr.Model == defaultCorrectionModel {
		cr.ForcedBOSTokenID = m2m100RussianTokenID
	}
	if cr.TgtLang == "" {
		cr.TgtLang = "ru"
	}

	s := &c.Models.Summarization
	if s.Backend == "" {
		s.Backend = BackendHuggingFace
	}
	if s.Model == "" {
		s.Model = defaultModel(s.Backend, "RussianNLP/FRED-T5-Summarizer")
	}
	if s.Endpoint == "" && s.Backend == BackendHuggingFace {
		s.Endpoint = "https://api-inference.huggingface.co/models"
	}
	if s.Prompt == "" {
		s.Prompt = "<LM> Сократи текст.\n {text}"
		if s.Backend == BackendGemini {
			s.Prompt = "Сократи текст выступления участника встречи до ключевых тезисов. Ответь только тезисами, без вступления.\n\n{text}"
		}
	}
	if s.NumBeams == 0 {
		s.NumBeams = 5
	}
	if s.MinNewTokens == 0 {
		s.MinNewTokens = 17
	}
	if s.MaxNewTokens == 0 {
		s.MaxNewTokens = 200
	}
	if s.DoSample == nil {
		sample := true
		s.DoSample = &sample
	}
	if s.NoRepeatNgramSize == 0 {
		s.NoRepeatNgramSize = 4
	}
	if s.TopP == 0 {
		s.TopP = 0.9
	}
}

func defaultModel(backend, hubModel string) string {
	if backend == BackendGemini {
		return "gemini-2.5-flash"
	}
	return hubModel
}

func validateTextBackend(stage, backend string, apiKeys []string) error {
	switch backend {
	case BackendHuggingFace:
		return nil
	case BackendGemini:
		if len(apiKeys) == 0 {
			return fmt.Errorf("models.%s.api_keys is required for gemini (or set GEMINI_API_KEYS)", stage)
		}
		return nil
	default:
		return fmt.Errorf("models.%s.backend %q is not supported", stage, backend)
	}
}

// splitKeys parses a comma separated key list from the environment
func splitKeys(raw string) []string {
	var keys []string
	for _, k := range strings.Split(raw, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}
