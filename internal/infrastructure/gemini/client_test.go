package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"project-scaffold-web/internal/domain/models"
	"project-scaffold-web/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := config.Parse([]byte(fmt.Sprintf("gemini:\n  api_key: test-key\n  api_endpoint: %q\n  model: test-model\n  max_retries: 3\n", srv.URL)))
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(cfg)
	c.retryDelay = time.Millisecond
	return c
}

func writeText(w http.ResponseWriter, text string) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"candidates": []any{map[string]any{
			"content":      map[string]any{"parts": []any{map[string]any{"text": text}}},
			"finishReason": "STOP",
		}},
	})
}

func TestGenerate(t *testing.T) {
	var got GeminiRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/test-model:generateContent" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing api key")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeText(w, `{"projectName":"X"}`)
	})

	text, err := c.Generate(context.Background(), models.Prompt{
		Text:   "hello",
		Config: models.GenerationConfig{Temperature: 0.7, MaxOutputTokens: 2048},
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != `{"projectName":"X"}` {
		t.Errorf("text = %q", text)
	}
	if got.Contents[0].Parts[0].Text != "hello" || got.GenerationConfig == nil || got.GenerationConfig.MaxOutputTokens != 2048 {
		t.Errorf("request = %+v", got)
	}
}

func TestGenerateRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		writeText(w, "ok")
	})
	text, err := c.Generate(context.Background(), models.Prompt{Text: "x"})
	if err != nil || text != "ok" {
		t.Fatalf("Generate = %q, %v", text, err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusForbidden)
	})
	_, err := c.Generate(context.Background(), models.Prompt{Text: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("err = %v, want APIError 403", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestGenerateGivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})
	_, err := c.Generate(context.Background(), models.Prompt{Text: "x"})
	if err == nil || !strings.Contains(err.Error(), "最大重试次数") {
		t.Fatalf("err = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestGenerateWithoutKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	c := NewClient(config.Default())
	if c.Configured() {
		t.Fatal("client should not be configured")
	}
	if _, err := c.Generate(context.Background(), models.Prompt{Text: "x"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("err = %v, want ErrNotConfigured", err)
	}
	if _, err := c.GenerateStream(context.Background(), models.Prompt{Text: "x"}); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("stream err = %v, want ErrNotConfigured", err)
	}
}

func TestGenerateStream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/test-model:streamGenerateContent" || r.URL.Query().Get("alt") != "sse" {
			t.Errorf("url = %s", r.URL)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, part := range []string{`{"candidates":[{"content":{"parts":[{"text":"Hel"}]}}]}`,
			`{"candidates":[{"content":{"parts":[{"text":"lo"}]},"finishReason":"STOP"}]}`} {
			fmt.Fprintf(w, "data: %s\n\n", part)
		}
	})

	ch, err := c.GenerateStream(context.Background(), models.Prompt{Text: "x"})
	if err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	var finish string
	for chunk := range ch {
		if chunk.Error != nil {
			t.Fatalf("chunk error: %v", chunk.Error)
		}
		b.WriteString(chunk.Text)
		finish = chunk.FinishReason
	}
	if b.String() != "Hello" || finish != "STOP" {
		t.Errorf("stream = %q finish %q", b.String(), finish)
	}
}
