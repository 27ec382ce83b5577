package inference

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nguyentantai21042004/minutes-flow/internal/config"
	"github.com/nguyentantai21042004/minutes-flow/internal/logger"
)

func discard() logger.Logger {
	return logger.NewWithWriter(io.Discard, "error", "text")
}

type recordingExecutor struct {
	name   string
	args   []string
	env    []string
	output string
	err    error
	// seen is called with the command line before returning
	seen func(args []string)
}

func (r *recordingExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	r.name, r.args = name, args
	if r.seen != nil {
		r.seen(args)
	}
	return r.output, r.err
}

func (r *recordingExecutor) ExecuteWithEnv(ctx context.Context, env []string, name string, args ...string) (string, error) {
	r.env = env
	return r.Execute(ctx, name, args...)
}

func TestPyannoteDiarizer(t *testing.T) {
	tempDir := t.TempDir()
	var scriptSeen bool
	exec := &recordingExecutor{
		output: "Lightning warning: upgrade\n" + `[{"speaker":"SPEAKER_00","start":0.5,"end":2.0},{"speaker":"SPEAKER_01","start":2.1,"end":4.0}]`,
	}
	exec.seen = func(args []string) {
		_, err := os.Stat(args[0])
		scriptSeen = err == nil
	}

	d := NewPyannoteDiarizer(exec, discard(), "python3", "pyannote/speaker-diarization-3.1", "hf_secret", "cpu", tempDir)
	turns, err := d.Diarize(context.Background(), "meeting.wav")
	if err != nil {
		t.Fatalf("Diarize() error = %v", err)
	}

	if len(turns) != 2 || turns[1] != (Turn{Speaker: "SPEAKER_01", Start: 2.1, End: 4.0}) {
		t.Errorf("Diarize() = %+v", turns)
	}
	if exec.name != "python3" {
		t.Errorf("command = %q, want python3", exec.name)
	}
	if !scriptSeen {
		t.Error("helper script should exist while the command runs")
	}
	if len(exec.env) != 1 || exec.env[0] != "HF_TOKEN=hf_secret" {
		t.Errorf("env = %v", exec.env)
	}
	joined := strings.Join(exec.args, " ")
	for _, want := range []string{"--audio meeting.wav", "--model pyannote/speaker-diarization-3.1", "--device cpu"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}

	entries, _ := os.ReadDir(tempDir)
	if len(entries) != 0 {
		t.Errorf("helper script left in temp dir: %v", entries)
	}
}

func TestPyannoteHelperHandlesBothPipelineAPIs(t *testing.T) {
	tests := []struct {
		name  string
		model string
	}{
		{"pyannote.audio 3.x pipeline", "pyannote/speaker-diarization-3.1"},
		{"pyannote.audio 4.x pipeline", "pyannote/speaker-diarization-community-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var script string
			exec := &recordingExecutor{output: `[]`}
			exec.seen = func(args []string) {
				data, err := os.ReadFile(args[0])
				if err == nil {
					script = string(data)
				}
			}

			d := NewPyannoteDiarizer(exec, discard(), "python3", tt.model, "hf_secret", "auto", t.TempDir())
			if _, err := d.Diarize(context.Background(), "meeting.wav"); err != nil {
				t.Fatalf("Diarize() error = %v", err)
			}

			joined := strings.Join(exec.args, " ")
			if !strings.Contains(joined, "--model "+tt.model) || !strings.Contains(joined, "--device auto") {
				t.Errorf("args = %q", joined)
			}
			if len(exec.env) != 1 || exec.env[0] != "HF_TOKEN=hf_secret" {
				t.Errorf("env = %v", exec.env)
			}
			for _, want := range []string{
				"from_pretrained(model, token=token)",
				"except TypeError:",
				"from_pretrained(model, use_auth_token=token)",
				`getattr(output, "speaker_diarization", output)`,
			} {
				if !strings.Contains(script, want) {
					t.Errorf("helper script missing %q", want)
				}
			}
		})
	}
}

func TestPyannoteDiarizerErrors(t *testing.T) {
	tests := []struct {
		name string
		exec *recordingExecutor
	}{
		{"command fails", &recordingExecutor{err: errors.New("exit status 1")}},
		{"bad output", &recordingExecutor{output: "Traceback (most recent call last)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewPyannoteDiarizer(tt.exec, discard(), "python3", "m", "tok", "auto", t.TempDir())
			if _, err := d.Diarize(context.Background(), "a.wav"); err == nil {
				t.Error("Diarize() should fail")
			}
		})
	}
}

func TestWhisperTranscriber(t *testing.T) {
	tests := []struct {
		name      string
		task      string
		wantTrans bool
	}{
		{"transcribe", "transcribe", false},
		{"translate", "translate", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &recordingExecutor{output: "  Добрый день,\n коллеги.  \n"}
			w := NewWhisperTranscriber(exec, discard(), "whisper-cli", "models/ggml-small.bin", "russian", tt.task, 8)

			text, err := w.Transcribe(context.Background(), "seg.wav")
			if err != nil {
				t.Fatalf("Transcribe() error = %v", err)
			}
			if text != "Добрый день, коллеги." {
				t.Errorf("Transcribe() = %q", text)
			}

			joined := strings.Join(exec.args, " ")
			if !strings.Contains(joined, "-l ru") || !strings.Contains(joined, "-t 8") || !strings.Contains(joined, "-f seg.wav") {
				t.Errorf("args = %q", joined)
			}
			if got := strings.Contains(joined, "-tr"); got != tt.wantTrans {
				t.Errorf("translate flag = %v, want %v", got, tt.wantTrans)
			}
		})
	}
}

func TestOpenAITranscriber(t *testing.T) {
	wav := filepath.Join(t.TempDir(), "seg.wav")
	if err := os.WriteFile(wav, []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}

	var gotPath, gotAuth, gotModel, gotLang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model")
		gotLang = r.FormValue("language")
		json.NewEncoder(w).Encode(map[string]string{"text": "привет"})
	}))
	defer srv.Close()

	tr := NewOpenAITranscriber(srv.Client(), srv.URL+"/v1/", "sk-test", "whisper-1", "russian", "transcribe")
	text, err := tr.Transcribe(context.Background(), wav)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "привет" {
		t.Errorf("Transcribe() = %q", text)
	}
	if gotPath != "/v1/audio/transcriptions" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer sk-test" || gotModel != "whisper-1" || gotLang != "ru" {
		t.Errorf("auth=%q model=%q language=%q", gotAuth, gotModel, gotLang)
	}
}

func TestOpenAITranscriberHTTPError(t *testing.T) {
	wav := filepath.Join(t.TempDir(), "seg.wav")
	if err := os.WriteFile(wav, []byte("RIFF"), 0644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	tr := NewOpenAITranscriber(srv.Client(), srv.URL, "", "whisper-1", "ru", "transcribe")
	_, err := tr.Transcribe(context.Background(), wav)
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Errorf("Transcribe() error = %v, want http 401", err)
	}
}

func TestHubCorrector(t *testing.T) {
	var req hubRequest
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&req)
		w.Write([]byte(`[{"generated_text":"Привет, мир!"}]`))
	}))
	defer srv.Close()

	c := NewHubCorrector(srv.Client(), srv.URL+"/models", "ai-forever/sage-m2m100-1.2B", "hf_tok", 128077)
	got, err := c.Correct(context.Background(), "привет мир")
	if err != nil {
		t.Fatalf("Correct() error = %v", err)
	}
	if got != "Привет, мир!" {
		t.Errorf("Correct() = %q", got)
	}
	if gotPath != "/models/ai-forever/sage-m2m100-1.2B" || gotAuth != "Bearer hf_tok" {
		t.Errorf("path=%q auth=%q", gotPath, gotAuth)
	}
	if req.Inputs != "привет мир" || !req.Options.WaitForModel {
		t.Errorf("request = %+v", req)
	}
	// JSON numbers decode as float64
	if len(req.Parameters) != 1 || req.Parameters["forced_bos_token_id"] != float64(128077) {
		t.Errorf("parameters = %v, want only forced_bos_token_id", req.Parameters)
	}
}

func TestHubCorrectorOmitsUnsetTokenID(t *testing.T) {
	tests := []struct {
		name    string
		tokenID int
	}{
		{"zero", 0},
		{"disabled", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewDecoder(r.Body).Decode(&body)
				w.Write([]byte(`[{"generated_text":"ok"}]`))
			}))
			defer srv.Close()

			c := NewHubCorrector(srv.Client(), srv.URL, "m", "", tt.tokenID)
			if _, err := c.Correct(context.Background(), "x"); err != nil {
				t.Fatalf("Correct() error = %v", err)
			}
			if _, ok := body["parameters"]; ok {
				t.Errorf("parameters sent: %v", body["parameters"])
			}
		})
	}
}

func TestHubSummarizer(t *testing.T) {
	var req hubRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&req)
		w.Write([]byte(`[{"summary_text":"Кратко."}]`))
	}))
	defer srv.Close()

	params := GenerationParams{NumBeams: 5, MinNewTokens: 17, MaxNewTokens: 200, DoSample: true, NoRepeatNgramSize: 4, TopP: 0.9}
	s := NewHubSummarizer(srv.Client(), srv.URL, "RussianNLP/FRED-T5-Summarizer", "", "<LM> Сократи текст.\n {text}", params)

	got, err := s.Summarize(context.Background(), "Длинный текст")
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got != "Кратко." {
		t.Errorf("Summarize() = %q", got)
	}
	if req.Inputs != "<LM> Сократи текст.\n Длинный текст" {
		t.Errorf("inputs = %q", req.Inputs)
	}
	// JSON numbers decode as float64
	if req.Parameters["num_beams"] != float64(5) || req.Parameters["do_sample"] != true || req.Parameters["top_p"] != 0.9 {
		t.Errorf("parameters = %v", req.Parameters)
	}
}

func TestHubErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"http error", http.StatusServiceUnavailable, `{"error":"loading"}`},
		{"empty list", http.StatusOK, `[]`},
		{"no text", http.StatusOK, `[{}]`},
		{"not json", http.StatusOK, `oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewHubCorrector(srv.Client(), srv.URL, "m", "", 0)
			if _, err := c.Correct(context.Background(), "x"); err == nil {
				t.Error("Correct() should fail")
			}
		})
	}
}

func TestRenderPrompt(t *testing.T) {
	tests := []struct {
		prompt, text, want string
	}{
		{"<LM> Сократи текст.\n {text}", "abc", "<LM> Сократи текст.\n abc"},
		{"Summarize:", "abc", "Summarize:\nabc"},
	}
	for _, tt := range tests {
		if got := renderPrompt(tt.prompt, tt.text); got != tt.want {
			t.Errorf("renderPrompt(%q) = %q, want %q", tt.prompt, got, tt.want)
		}
	}
}

func TestGeminiKeyRotation(t *testing.T) {
	var used []string
	g := newGeminiClient([]string{"k1", "k2", "k3"}, "gemini-2.5-flash", discard())
	g.generate = func(ctx context.Context, key, model, prompt string) (string, error) {
		used = append(used, key)
		if key != "k3" {
			return "", errors.New("Error 429, RESOURCE_EXHAUSTED")
		}
		return "ok", nil
	}

	got, err := g.call(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("call() error = %v", err)
	}
	if got != "ok" {
		t.Errorf("call() = %q", got)
	}
	if strings.Join(used, ",") != "k1,k2,k3" {
		t.Errorf("keys used = %v", used)
	}
	if g.currentKey != 2 {
		t.Errorf("currentKey = %d, want 2", g.currentKey)
	}
}

func TestGeminiAllKeysExhausted(t *testing.T) {
	g := newGeminiClient([]string{"k1", "k2"}, "m", discard())
	calls := 0
	g.generate = func(ctx context.Context, key, model, prompt string) (string, error) {
		calls++
		return "", errors.New("quota exceeded")
	}

	_, err := g.call(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "exhausted") {
		t.Errorf("call() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestGeminiNonRateLimitErrorStops(t *testing.T) {
	g := newGeminiClient([]string{"k1", "k2"}, "m", discard())
	calls := 0
	g.generate = func(ctx context.Context, key, model, prompt string) (string, error) {
		calls++
		return "", errors.New("invalid argument")
	}

	if _, err := g.call(context.Background(), "p"); err == nil {
		t.Error("call() should fail")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestGeminiSummarizerUsesPrompt(t *testing.T) {
	s := NewGeminiSummarizer([]string{"k"}, "m", "Кратко: {text}", discard()).(*geminiSummarizer)
	var gotPrompt string
	s.client.generate = func(ctx context.Context, key, model, prompt string) (string, error) {
		gotPrompt = prompt
		return "тезис", nil
	}
	if _, err := s.Summarize(context.Background(), "текст"); err != nil {
		t.Fatal(err)
	}
	if gotPrompt != "Кратко: текст" {
		t.Errorf("prompt = %q", gotPrompt)
	}
}

func TestNewModels(t *testing.T) {
	cfg := &config.Config{}
	cfg.Models.HFToken = "tok"
	cfg.Models.ASR.Model = "ggml-small.bin"
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	m, err := NewModels(cfg, &recordingExecutor{}, discard())
	if err != nil {
		t.Fatalf("NewModels() error = %v", err)
	}
	if _, ok := m.Transcriber.(*whisperTranscriber); !ok {
		t.Errorf("Transcriber = %T, want whisper", m.Transcriber)
	}
	if _, ok := m.Corrector.(*hubCorrector); !ok {
		t.Errorf("Corrector = %T, want hub", m.Corrector)
	}

	cfg.Models.Summarization.Backend = "bogus"
	if _, err := NewSummarizer(cfg, discard()); err == nil {
		t.Error("NewSummarizer() should reject unknown backends")
	}
}
