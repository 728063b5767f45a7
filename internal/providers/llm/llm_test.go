package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go/option"
	"github.com/sandevgo/samara/internal/core"
	"github.com/sandevgo/samara/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type providerConfig struct {
	provider string
	model    string
	apiKey   string
	baseURL  string
	setErr   error
}

func (c *providerConfig) GetProvider() string { return c.provider }
func (c *providerConfig) GetModel() string    { return c.model }
func (c *providerConfig) GetAPIKey() string   { return c.apiKey }
func (c *providerConfig) GetBaseURL() string  { return c.baseURL }
func (c *providerConfig) SetModel(model string) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.model = model
	return nil
}

var history = []core.Message{
	{Role: core.RoleSystem, Content: "be brief"},
	{Role: core.RoleUser, Content: "ana: hola"},
}

func completionHandler(t *testing.T, reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body struct {
			Model    string         `json:"model"`
			Messages []core.Message `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		assert.Len(t, body.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","created":1,"model":"test-model","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":` + reply + `}}]}`))
	}
}

func TestOpenAICompatible_Chat(t *testing.T) {
	srv := httptest.NewServer(completionHandler(t, `"hola ana"`))
	defer srv.Close()

	p := NewCustomOpenAI(srv.URL, "secret", "test-model")
	msg, err := p.Chat(context.Background(), history)

	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, msg.Role)
	assert.Equal(t, "hola ana", msg.Content)
}

func TestOpenAICompatible_StatusError(t *testing.T) {
	tests := []struct {
		code      int
		retryable bool
	}{
		{code: http.StatusUnauthorized, retryable: false},
		{code: http.StatusTooManyRequests, retryable: true},
		{code: http.StatusBadGateway, retryable: true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.code)
			}))
			defer srv.Close()

			_, err := NewOllama(srv.URL, "", "test-model").Chat(context.Background(), history)

			var se *StatusError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.retryable, se.Retryable())
		})
	}
}

func TestOpenAI_Chat(t *testing.T) {
	srv := httptest.NewServer(completionHandler(t, `"from the sdk"`))
	defer srv.Close()

	p := NewOpenAI("secret", "test-model", option.WithBaseURL(srv.URL))
	msg, err := p.Chat(context.Background(), history)

	require.NoError(t, err)
	assert.Equal(t, "from the sdk", msg.Content)
}

func TestAnthropic_Chat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "be brief", body["system"])
		assert.Len(t, body["messages"], 1)

		_, _ = w.Write([]byte(`{"content":[{"type":"thinking","thinking":"hmm"},{"type":"text","text":"hola"},{"type":"text","text":" ana"}]}`))
	}))
	defer srv.Close()

	p := NewAnthropic("secret", "claude")
	p.baseURL = srv.URL

	msg, err := p.Chat(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "hola ana", msg.Content)
	assert.Equal(t, "hmm", msg.Reasoning)
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name    string
		cfg     providerConfig
		wantErr bool
	}{
		{name: "openai", cfg: providerConfig{provider: "openai", model: "gpt-4o-mini"}},
		{name: "anthropic", cfg: providerConfig{provider: "anthropic", model: "claude"}},
		{name: "openrouter", cfg: providerConfig{provider: "openrouter", model: "x/y"}},
		{name: "ollama", cfg: providerConfig{provider: "ollama", model: "llama3", baseURL: "http://localhost:11434"}},
		{name: "custom without url", cfg: providerConfig{provider: "custom", model: "m"}, wantErr: true},
		{name: "missing model", cfg: providerConfig{provider: "openai"}, wantErr: true},
		{name: "unknown", cfg: providerConfig{provider: "carrier-pigeon", model: "m"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(context.Background(), &tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}

func fastRetrier() *retry.Retrier {
	return retry.NewRetrier(&retry.Config{
		MaxRetries:    2,
		BackoffFactor: 1,
		InitialDelay:  time.Millisecond,
		MaxDelay:      time.Millisecond,
	})
}

func TestDynamicProvider_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		completionHandler(t, `"second time"`)(w, r)
	}))
	defer srv.Close()

	cfg := &providerConfig{provider: "custom", model: "test-model", apiKey: "secret", baseURL: srv.URL}
	d, err := NewDynamicProvider(context.Background(), cfg, time.Second)
	require.NoError(t, err)
	d.retrier = fastRetrier()

	msg, err := d.Chat(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, "second time", msg.Content)
	assert.EqualValues(t, 2, calls.Load())
}

func TestDynamicProvider_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := &providerConfig{provider: "custom", model: "test-model", apiKey: "secret", baseURL: srv.URL}
	d, err := NewDynamicProvider(context.Background(), cfg, time.Second)
	require.NoError(t, err)
	d.retrier = fastRetrier()

	_, err = d.Chat(context.Background(), history)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.EqualValues(t, 1, calls.Load())
}

func TestDynamicProvider_SetModel(t *testing.T) {
	ctx := context.Background()
	cfg := &providerConfig{provider: "openrouter", model: "a/b"}
	d, err := NewDynamicProvider(ctx, cfg, 0)
	require.NoError(t, err)

	require.NoError(t, d.SetModel(ctx, "c/d"))
	assert.Equal(t, "c/d", d.GetModel())

	cfg.setErr = errors.New("read-only")
	assert.Error(t, d.SetModel(ctx, "e/f"))
	assert.Equal(t, "c/d", d.GetModel())
}
