package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// hubClient calls a hosted text2text model on a Hugging Face style
// inference endpoint.
type hubClient struct {
	client   *http.Client
	endpoint string
	model    string
	token    string
}

type hubRequest struct {
	Inputs     string         `json:"inputs"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Options    hubOptions     `json:"options"`
}

type hubOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

type hubOutput struct {
	GeneratedText   string `json:"generated_text"`
	TranslationText string `json:"translation_text"`
	SummaryText     string `json:"summary_text"`
}

func (h *hubClient) generate(ctx context.Context, inputs string, params map[string]any) (string, error) {
	payload, err := json.Marshal(hubRequest{
		Inputs:     inputs,
		Parameters: params,
		Options:    hubOptions{WaitForModel: true},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := strings.TrimRight(h.endpoint, "/") + "/" + h.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call %s: %w", h.model, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%s http %d: %s", h.model, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var outputs []hubOutput
	if err := json.Unmarshal(body, &outputs); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(outputs) == 0 {
		return "", fmt.Errorf("empty response from %s", h.model)
	}

	o := outputs[0]
	switch {
	case o.GeneratedText != "":
		return o.GeneratedText, nil
	case o.TranslationText != "":
		return o.TranslationText, nil
	case o.SummaryText != "":
		return o.SummaryText, nil
	}
	return "", fmt.Errorf("no text in response from %s", h.model)
}

type hubCorrector struct {
	hub              hubClient
	forcedBOSTokenID int
}

// NewHubCorrector corrects text with a seq2seq spelling model. A positive
// forcedBOSTokenID is passed as the generate kwarg forced_bos_token_id so
// multilingual models decode into the target language; the source language
// comes from the model's own tokenizer config.
func NewHubCorrector(client *http.Client, endpoint, model, token string, forcedBOSTokenID int) Corrector {
	return &hubCorrector{
		hub:              hubClient{client: client, endpoint: endpoint, model: model, token: token},
		forcedBOSTokenID: forcedBOSTokenID,
	}
}

func (c *hubCorrector) Correct(ctx context.Context, text string) (string, error) {
	var params map[string]any
	if c.forcedBOSTokenID > 0 {
		params = map[string]any{"forced_bos_token_id": c.forcedBOSTokenID}
	}
	return c.hub.generate(ctx, text, params)
}

// GenerationParams are the decoding settings passed to the summarization model.
type GenerationParams struct {
	NumBeams          int
	MinNewTokens      int
	MaxNewTokens      int
	DoSample          bool
	NoRepeatNgramSize int
	TopP              float64
}

type hubSummarizer struct {
	hub    hubClient
	prompt string
	params GenerationParams
}

// NewHubSummarizer summarizes with an instruction-prefixed seq2seq model.
// {text} in prompt is replaced with the speaker's text.
func NewHubSummarizer(client *http.Client, endpoint, model, token, prompt string, params GenerationParams) Summarizer {
	return &hubSummarizer{
		hub:    hubClient{client: client, endpoint: endpoint, model: model, token: token},
		prompt: prompt,
		params: params,
	}
}

func (s *hubSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	return s.hub.generate(ctx, renderPrompt(s.prompt, text), map[string]any{
		"num_beams":            s.params.NumBeams,
		"min_new_tokens":       s.params.MinNewTokens,
		"max_new_tokens":       s.params.MaxNewTokens,
		"do_sample":            s.params.DoSample,
		"no_repeat_ngram_size": s.params.NoRepeatNgramSize,
		"top_p":                s.params.TopP,
	})
}

func renderPrompt(prompt, text string) string {
	if !strings.Contains(prompt, "{text}") {
		return prompt + "\n" + text
	}
	return strings.ReplaceAll(prompt, "{text}", text)
}
