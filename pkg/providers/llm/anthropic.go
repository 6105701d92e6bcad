package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

// AnthropicLLM is a secondary, non-grounded completion provider that can be
// used in place of GoogleLLM for the Meet Agent and the Summarizer.
type AnthropicLLM struct {
	apiKey string
	url    string
	model  string
}

func NewAnthropicLLM(apiKey string, model string) *AnthropicLLM {
	if model == "" {
		model = "claude-3-5-sonnet-20240620"
	}
	return &AnthropicLLM{
		apiKey: apiKey,
		url:    "https://api.anthropic.com/v1/messages",
		model:  model,
	}
}

func (l *AnthropicLLM) Complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]interface{}{
		"model":      l.model,
		"messages":   []map[string]string{{"role": "user", "content": prompt}},
		"max_tokens": 1024,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", l.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return "", fmt.Errorf("anthropic llm error (status %d): %v", resp.StatusCode, errResp)
	}

	var result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	if len(result.Content) == 0 {
		return "", fmt.Errorf("no content returned from anthropic")
	}

	return result.Content[0].Text, nil
}

// CompleteGrounded has no search-grounding capability on this provider; it
// falls back to a plain completion.
func (l *AnthropicLLM) CompleteGrounded(ctx context.Context, prompt string) (string, error) {
	return l.Complete(ctx, prompt)
}

// CompleteStructured asks for JSON in the prompt and unmarshals the reply;
// Anthropic has no native structured-output enforcement in this client.
func (l *AnthropicLLM) CompleteStructured(ctx context.Context, prompt string, out interface{}) error {
	text, err := l.Complete(ctx, prompt+"\n\nRespond with JSON only.")
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(text), out)
}

func (l *AnthropicLLM) Name() string {
	return "anthropic-llm:" + l.model
}

var _ meeting.LLMProvider = (*AnthropicLLM)(nil)
