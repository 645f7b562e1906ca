package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"burnish/internal/services"
)

func TestClientCorrectReturnsContent(t *testing.T) {
	var gotAuth, gotTitle string
	var gotBody chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotTitle = r.Header.Get("X-Title")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": `{"speakers":{"Speaker_1":"coach"},"segments":[]}`,
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model", Title: "burnish"})
	content, err := client.Correct(context.Background(), "system instructions", "[1] Speaker_1: 好")
	if err != nil {
		t.Fatalf("Correct returned error: %v", err)
	}
	if !strings.Contains(content, `"coach"`) {
		t.Fatalf("unexpected content %q", content)
	}
	if gotAuth != "Bearer test" {
		t.Errorf("authorization header = %q", gotAuth)
	}
	if gotTitle != "burnish" {
		t.Errorf("x-title header = %q", gotTitle)
	}
	if gotBody.Model != "demo-model" {
		t.Errorf("model = %q", gotBody.Model)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[0].Role != "system" || gotBody.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", gotBody.Messages)
	}
	if gotBody.ResponseFormat["type"] != "json_object" {
		t.Errorf("response_format = %v", gotBody.ResponseFormat)
	}
}

func TestClientCorrectKeepsCodeFenceForParser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": "```json\n{\"speakers\":{}}\n```",
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	content, err := client.Correct(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Correct returned error: %v", err)
	}
	if !strings.Contains(content, "```") {
		t.Fatalf("expected raw fenced content to pass through, got %q", content)
	}
}

func TestClientCorrectToolCallArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "tool_calls",
					"message": map[string]any{
						"content": "",
						"tool_calls": []any{
							map[string]any{
								"type": "function",
								"id":   "call_1",
								"function": map[string]any{
									"name":      "correct_transcript",
									"arguments": `{"speakers":{"Speaker_1":"coach"}}`,
								},
							},
						},
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	content, err := client.Correct(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Correct returned error: %v", err)
	}
	if !strings.Contains(content, `"coach"`) {
		t.Fatalf("expected tool call arguments, got %q", content)
	}
}

func TestClientCorrectDeltaContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "",
					"delta": map[string]any{
						"content": `{"speakers":{"Speaker_2":"client"}}`,
					},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	content, err := client.Correct(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Correct returned error: %v", err)
	}
	if !strings.Contains(content, `"client"`) {
		t.Fatalf("expected delta content, got %q", content)
	}
}

func TestClientRetriesOnHTTP429RespectingRetryAfter(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"content": `{"ok":true}`},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo", RetryAttempts: 2},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
	)
	content, err := client.Correct(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Correct returned error: %v", err)
	}
	if !strings.Contains(content, "true") {
		t.Fatalf("unexpected content %q", content)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientNeverExceedsOneRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "boom"})
	}))
	defer server.Close()

	// A misconfigured attempt count must still clamp to one retry.
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo", RetryAttempts: 9},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.Correct(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 calls, got %d", calls)
	}
	if !errors.Is(err, services.ErrCollaborator) {
		t.Errorf("expected collaborator error, got %v", err)
	}
	if !services.Degradable(err) {
		t.Errorf("provider failure must be degradable, got %v", err)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := ""
		if calls >= 2 {
			content = `{"ok":true}`
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "stop",
					"message":       map[string]any{"content": content},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo", RetryAttempts: 2},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	content, err := client.Correct(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Correct returned error: %v", err)
	}
	if !strings.Contains(content, "true") {
		t.Fatalf("unexpected content %q", content)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestClientCorrectDeadlineTaggedAsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := client.Correct(ctx, "system", "user")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Errorf("expected timeout classification, got %v", err)
	}
	if !services.Degradable(err) {
		t.Errorf("timeout must be degradable, got %v", err)
	}
}

func TestClientCorrectValidation(t *testing.T) {
	client := NewClient(Config{APIKey: "test", BaseURL: "http://127.0.0.1:0", Model: "demo"})

	if _, err := client.Correct(context.Background(), "", "user"); !errors.Is(err, services.ErrValidation) {
		t.Errorf("empty system prompt: got %v", err)
	}
	if _, err := client.Correct(context.Background(), "system", ""); !errors.Is(err, services.ErrValidation) {
		t.Errorf("empty user prompt: got %v", err)
	}

	noKey := NewClient(Config{BaseURL: "http://127.0.0.1:0", Model: "demo"})
	_, err := noKey.Correct(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("missing api key: got %v", err)
	}
	if services.Degradable(err) {
		t.Errorf("configuration errors must not be degradable, got %v", err)
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"content": "```json\n{\"ok\":true}\n```"},
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	type target struct {
		OK bool `json:"ok"`
	}

	tests := []struct {
		name    string
		content string
		wantOK  bool
		wantErr bool
	}{
		{"direct", `{"ok":true}`, true, false},
		{"fenced", "```json\n{\"ok\":true}\n```", true, false},
		{"prose wrapped", `Here is the result: {"ok":true} hope that helps`, true, false},
		{"empty", "", false, true},
		{"no json", "sorry, I cannot help with that", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got target
			err := DecodeLLMJSON(tt.content, &got)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeLLMJSON: %v", err)
			}
			if got.OK != tt.wantOK {
				t.Errorf("ok = %v, want %v", got.OK, tt.wantOK)
			}
		})
	}
}
