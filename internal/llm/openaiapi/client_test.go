package openaiapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

const okBody = `{
	"error": {"code": "", "message": ""},
	"output": [
		{
			"type": "message",
			"role": "assistant",
			"content": [
				{"type": "output_text", "text": "void setup() {}", "annotations": []}
			]
		}
	]
}`

func TestClientComplete_SendsExpectedPayloadAndParsesOutput(t *testing.T) {
	const envKey = "FIRMGEN_OPENAI_TEST_KEY"
	t.Setenv(envKey, "test-api-key")

	var gotAuth string
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read request body: %v", err)
		}
		if err := json.Unmarshal(body, &gotBody); err != nil {
			t.Fatalf("unmarshal request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		Model:     "gpt-5",
		BaseURL:   srv.URL,
		APIKeyEnv: envKey,
	}, srv.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if client.Model() != "gpt-5" {
		t.Fatalf("model = %q, want %q", client.Model(), "gpt-5")
	}

	out, err := client.Complete(context.Background(), CompletionRequest{
		Instructions: "You are an expert Arduino developer.",
		Input:        "Blink D13",
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if out.OutputText != "void setup() {}" {
		t.Fatalf("output text = %q, want %q", out.OutputText, "void setup() {}")
	}
	if gotAuth != "Bearer test-api-key" {
		t.Fatalf("authorization header = %q, want bearer auth", gotAuth)
	}
	if gotPath != "/responses" {
		t.Fatalf("path = %q, want %q", gotPath, "/responses")
	}
	if gotBody["model"] != "gpt-5" {
		t.Fatalf("model = %v, want %q", gotBody["model"], "gpt-5")
	}
	if gotBody["instructions"] != "You are an expert Arduino developer." {
		t.Fatalf("instructions = %v", gotBody["instructions"])
	}
	if gotBody["input"] != "Blink D13" {
		t.Fatalf("input = %v, want %q", gotBody["input"], "Blink D13")
	}
}

func TestClientComplete_JSONAppendsDirective(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{Model: "gpt-5", BaseURL: srv.URL, APIKey: "k"}, srv.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := client.Complete(context.Background(), CompletionRequest{Input: "x", JSON: true}); err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if gotBody["instructions"] != jsonDirective {
		t.Fatalf("instructions = %v, want %q", gotBody["instructions"], jsonDirective)
	}
}

func TestNewClient_ReturnsErrorWhenAPIKeyMissing(t *testing.T) {
	const envKey = "FIRMGEN_OPENAI_MISSING_KEY"
	if err := os.Unsetenv(envKey); err != nil {
		t.Fatalf("unset env: %v", err)
	}

	_, err := NewClient(Config{
		Model:     "gpt-5",
		BaseURL:   "http://127.0.0.1",
		APIKeyEnv: envKey,
	}, nil)
	if err == nil {
		t.Fatal("NewClient returned nil error, want error")
	}
}

func TestClientComplete_ReturnsErrorWhenOutputTextMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": {"code": "", "message": ""}, "output": []}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{Model: "gpt-5", BaseURL: srv.URL, APIKey: "test-api-key"}, srv.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	_, err = client.Complete(context.Background(), CompletionRequest{Input: "{}"})
	if !errors.Is(err, ErrNoOutput) {
		t.Fatalf("error = %v, want ErrNoOutput", err)
	}
}

func TestStatusCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{Model: "gpt-5", BaseURL: srv.URL, APIKey: "bad"}, srv.Client())
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = client.Complete(context.Background(), CompletionRequest{Input: "x"})
	if err == nil {
		t.Fatal("Complete returned nil error, want error")
	}
	if got := StatusCode(err); got != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d (err %v)", got, http.StatusUnauthorized, err)
	}
	if StatusCode(errors.New("plain")) != 0 {
		t.Fatal("plain error should have no status")
	}
}
