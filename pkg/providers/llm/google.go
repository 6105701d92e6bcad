// Package llm provides single-prompt completion with optional search
// grounding, structured JSON completion, and embeddings, backed by the
// google.golang.org/genai SDK along with secondary Anthropic and OpenAI
// raw-HTTP providers.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/lokutor-ai/meetscribe/pkg/meeting"
)

const (
	defaultCompletionModel = "gemini-2.5-flash"
	defaultGroundedModel   = "gemini-2.5-flash-lite"
	defaultEmbeddingModel  = "text-embedding-004"
)

// GoogleLLM is the primary LLM/embedding provider, used by the Summarizer
// Pipeline and the Meet Agent's query path.
type GoogleLLM struct {
	apiKey         string
	model          string
	groundedModel  string
	embeddingModel string
}

func NewGoogleLLM(apiKey, model string) *GoogleLLM {
	if model == "" {
		model = defaultCompletionModel
	}
	return &GoogleLLM{
		apiKey:         apiKey,
		model:          model,
		groundedModel:  defaultGroundedModel,
		embeddingModel: defaultEmbeddingModel,
	}
}

func (l *GoogleLLM) Name() string { return "google-llm:" + l.model }

func (l *GoogleLLM) newClient(ctx context.Context) (*genai.Client, error) {
	return genai.NewClient(ctx, &genai.ClientConfig{APIKey: l.apiKey, Backend: genai.BackendGeminiAPI})
}

// Complete is a plain, non-grounded single-prompt completion — used by the
// Summarizer's per-chunk step.
func (l *GoogleLLM) Complete(ctx context.Context, prompt string) (string, error) {
	client, err := l.newClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}
	resp, err := client.Models.GenerateContent(ctx, l.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return responseText(resp), nil
}

// CompleteGrounded answers with Google Search grounding enabled, used to
// answer a meeting participant's spoken question.
func (l *GoogleLLM) CompleteGrounded(ctx context.Context, prompt string) (string, error) {
	client, err := l.newClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create genai client: %w", err)
	}
	cfg := &genai.GenerateContentConfig{
		Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
	}
	resp, err := client.Models.GenerateContent(ctx, l.groundedModel, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("generate grounded content: %w", err)
	}
	return cleanGeminiText(responseText(resp)), nil
}

// CompleteStructured enforces a JSON response shaped like out's type,
// exercised only by the summarizer's merge step.
func (l *GoogleLLM) CompleteStructured(ctx context.Context, prompt string, out interface{}) error {
	client, err := l.newClient(ctx)
	if err != nil {
		return fmt.Errorf("create genai client: %w", err)
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	resp, err := client.Models.GenerateContent(ctx, l.model, genai.Text(prompt), cfg)
	if err != nil {
		return fmt.Errorf("generate structured content: %w", err)
	}
	text := responseText(resp)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("unmarshal structured response: %w", err)
	}
	return nil
}

// Embed produces an embedding vector for the Vector Indexer.
func (l *GoogleLLM) Embed(ctx context.Context, text string) ([]float32, error) {
	client, err := l.newClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	resp, err := client.Models.EmbedContent(ctx, l.embeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Embeddings[0].Values, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// cleanGeminiText strips markdown bullets/symbols and collapses whitespace.
func cleanGeminiText(s string) string {
	replacer := strings.NewReplacer("**", "", "* ", "", "#", "")
	s = replacer.Replace(s)
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

var _ meeting.LLMProvider = (*GoogleLLM)(nil)
var _ meeting.EmbeddingProvider = (*GoogleLLM)(nil)
