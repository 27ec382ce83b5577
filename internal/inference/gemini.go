package inference

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nguyentantai21042004/minutes-flow/internal/logger"
	"google.golang.org/genai"
)

const correctionPrompt = `Исправь орфографические, пунктуационные и грамматические ошибки в распознанной речи. Сохрани смысл и язык (%s). Ответь только исправленным текстом.

Текст:
%s`

// generateFunc sends one prompt with one API key
type generateFunc func(ctx context.Context, apiKey, model, prompt string) (string, error)

// geminiClient rotates through API keys on 429 / quota errors.
type geminiClient struct {
	mu         sync.Mutex
	apiKeys    []string
	currentKey int
	model      string
	logger     logger.Logger
	generate   generateFunc
}

func newGeminiClient(apiKeys []string, model string, log logger.Logger) *geminiClient {
	return &geminiClient{
		apiKeys:  apiKeys,
		model:    model,
		logger:   log,
		generate: callGemini,
	}
}

func (g *geminiClient) call(ctx context.Context, prompt string) (string, error) {
	if len(g.apiKeys) == 0 {
		return "", fmt.Errorf("no Gemini API keys configured")
	}

	var lastErr error
	for range len(g.apiKeys) {
		idx, key := g.key()

		text, err := g.generate(ctx, key, g.model, prompt)
		if err == nil {
			return text, nil
		}
		if !isRateLimited(err) {
			return "", err
		}

		g.logger.Warn(ctx, "Key %d rate limited, rotating...", idx+1)
		g.rotateKey(idx)
		lastErr = err
	}

	return "", fmt.Errorf("all API keys exhausted: %w", lastErr)
}

func (g *geminiClient) key() (int, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentKey, g.apiKeys[g.currentKey]
}

// rotateKey advances past from unless another caller already rotated
func (g *geminiClient) rotateKey(from int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currentKey == from {
		g.currentKey = (g.currentKey + 1) % len(g.apiKeys)
	}
}

func isRateLimited(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}

func callGemini(ctx context.Context, apiKey, model, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("create client: %w", err)
	}

	result, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if result != nil && len(result.Candidates) > 0 && result.Candidates[0].Content != nil {
		var text strings.Builder
		for _, part := range result.Candidates[0].Content.Parts {
			text.WriteString(part.Text)
		}
		return strings.TrimSpace(text.String()), nil
	}

	return "", fmt.Errorf("empty response from Gemini")
}

type geminiCorrector struct {
	client   *geminiClient
	language string
}

// NewGeminiCorrector corrects text with a Gemini model.
func NewGeminiCorrector(apiKeys []string, model, language string, log logger.Logger) Corrector {
	return &geminiCorrector{client: newGeminiClient(apiKeys, model, log), language: language}
}

func (c *geminiCorrector) Correct(ctx context.Context, text string) (string, error) {
	return c.client.call(ctx, fmt.Sprintf(correctionPrompt, c.language, text))
}

type geminiSummarizer struct {
	client *geminiClient
	prompt string
}

// NewGeminiSummarizer summarizes with a Gemini model. {text} in prompt is
// replaced with the speaker's text.
func NewGeminiSummarizer(apiKeys []string, model, prompt string, log logger.Logger) Summarizer {
	return &geminiSummarizer{client: newGeminiClient(apiKeys, model, log), prompt: prompt}
}

func (s *geminiSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	return s.client.call(ctx, renderPrompt(s.prompt, text))
}
