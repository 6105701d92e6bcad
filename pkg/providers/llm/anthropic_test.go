package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAnthropicCompleteParsesContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "test-key" {
			t.Fatalf("missing or wrong x-api-key header")
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{{"text": "hello from claude"}},
		})
	}))
	defer srv.Close()

	llm := NewAnthropicLLM("test-key", "")
	llm.url = srv.URL

	out, err := llm.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if out != "hello from claude" {
		t.Fatalf("unexpected completion text: %q", out)
	}
}

func TestAnthropicCompleteStructuredUnmarshals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]string{{"text": `{"overview":"x"}`}},
		})
	}))
	defer srv.Close()

	llm := NewAnthropicLLM("test-key", "")
	llm.url = srv.URL

	var out struct {
		Overview string `json:"overview"`
	}
	if err := llm.CompleteStructured(context.Background(), "summarize", &out); err != nil {
		t.Fatalf("CompleteStructured returned error: %v", err)
	}
	if out.Overview != "x" {
		t.Fatalf("unexpected structured output: %+v", out)
	}
}

func TestAnthropicCompleteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "bad key"})
	}))
	defer srv.Close()

	llm := NewAnthropicLLM("bad-key", "")
	llm.url = srv.URL

	if _, err := llm.Complete(context.Background(), "hi"); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}
