package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metalagman/firmgen/internal/config"
	"github.com/metalagman/firmgen/internal/llm/openaiapi"
)

var errFlaky = errors.New("flaky")

func TestRetry_SucceedsAfterTransientErrors(t *testing.T) {
	t.Parallel()

	f := NewFake().Push(Reply{Err: errFlaky}, Reply{Err: errFlaky}, Reply{Text: "ok"})
	c := Wrap(f, Retry(3, time.Millisecond))

	resp, err := c.Generate(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Len(t, f.Calls(), 3)
}

func TestRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	f := NewFake().Push(Reply{Err: errFlaky}, Reply{Err: errFlaky}, Reply{Text: "late"})
	_, err := Wrap(f, Retry(2, time.Millisecond)).Generate(context.Background(), Request{})
	require.ErrorIs(t, err, errFlaky)
	assert.Len(t, f.Calls(), 2)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	t.Parallel()

	f := NewFake().Push(Reply{Err: NewPermanentError(errors.New("bad key"))}, Reply{Text: "never"})
	_, err := Wrap(f, Retry(5, time.Millisecond)).Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
	assert.Len(t, f.Calls(), 1)
}

func TestRetry_StopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	f := NewFake().Push(Reply{Err: errFlaky}, Reply{Text: "never"})
	c := Wrap(f, Retry(3, time.Hour))

	done := make(chan error, 1)
	go func() {
		_, err := c.Generate(ctx, Request{})
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not stop on cancellation")
	}
}

type recorder struct {
	name  string
	trace *[]string
	next  Client
}

func (r *recorder) Name() string { return r.next.Name() }

func (r *recorder) Generate(ctx context.Context, req Request) (Response, error) {
	*r.trace = append(*r.trace, r.name)
	return r.next.Generate(ctx, req)
}

func TestWrap_AppliesLeftToRight(t *testing.T) {
	t.Parallel()

	var trace []string
	mw := func(name string) Middleware {
		return func(next Client) Client { return &recorder{name: name, trace: &trace, next: next} }
	}
	c := Wrap(NewFake("x"), mw("A"), mw("B"))
	_, err := c.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, trace)
	assert.Equal(t, "fake", c.Name())
}

type slowClient struct{}

func (slowClient) Name() string { return "slow" }

func (slowClient) Generate(ctx context.Context, _ Request) (Response, error) {
	<-ctx.Done()
	return Response{}, ctx.Err()
}

func TestTimeout(t *testing.T) {
	t.Parallel()

	_, err := Wrap(slowClient{}, Timeout(10*time.Millisecond)).Generate(context.Background(), Request{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFake_ExhaustedScript(t *testing.T) {
	t.Parallel()

	f := NewFake("one")
	_, err := f.Generate(context.Background(), Request{Prompt: "a"})
	require.NoError(t, err)
	_, err = f.Generate(context.Background(), Request{Prompt: "b"})
	require.ErrorIs(t, err, ErrScriptExhausted)
	assert.Equal(t, []Request{{Prompt: "a"}, {Prompt: "b"}}, f.Calls())
}

func TestGemini_Generate(t *testing.T) {
	t.Parallel()

	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"void app_main(void) {}"}]}}]}`))
	}))
	t.Cleanup(srv.Close)

	g, err := NewGemini(context.Background(), GeminiConfig{Model: "gemini-2.5-flash", APIKey: "test-key", BaseURL: srv.URL}, srv.Client())
	require.NoError(t, err)
	assert.Equal(t, "gemini:gemini-2.5-flash", g.Name())

	resp, err := g.Generate(context.Background(), Request{System: "be terse", Prompt: "blink", JSON: true})
	require.NoError(t, err)
	assert.Equal(t, "void app_main(void) {}", resp.Text)
	assert.True(t, strings.HasSuffix(gotPath, "models/gemini-2.5-flash:generateContent"), gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Contains(t, gotBody, "systemInstruction")
	gen, _ := gotBody["generationConfig"].(map[string]any)
	assert.Equal(t, "application/json", gen["responseMimeType"])
}

func TestGemini_ClientErrorIsPermanent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`))
	}))
	t.Cleanup(srv.Close)

	g, err := NewGemini(context.Background(), GeminiConfig{Model: "m", APIKey: "bad", BaseURL: srv.URL}, srv.Client())
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestNewGemini_MissingKey(t *testing.T) {
	t.Parallel()

	_, err := NewGemini(context.Background(), GeminiConfig{Model: "m"}, nil)
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestOpenAI_UnauthorizedIsPermanent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	t.Cleanup(srv.Close)

	c, err := openaiapi.NewClient(openaiapi.Config{Model: "gpt-5", BaseURL: srv.URL, APIKey: "bad"}, srv.Client())
	require.NoError(t, err)
	o := NewOpenAI(c)
	assert.Equal(t, "openai:gpt-5", o.Name())

	_, err = o.Generate(context.Background(), Request{Prompt: "x"})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), config.LLMConfig{Provider: "claude"})
	require.ErrorContains(t, err, "unknown llm provider")

	_, err = New(context.Background(), config.LLMConfig{Provider: config.ProviderExec})
	require.Error(t, err)
	assert.True(t, IsPermanent(err))

	c, err := New(context.Background(), config.LLMConfig{
		Provider:   config.ProviderGemini,
		Model:      "gemini-2.5-flash",
		APIKey:     "k",
		MaxRetries: 2,
		Timeout:    time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "gemini:gemini-2.5-flash", c.Name())
}
