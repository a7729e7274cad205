package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ashudevin/caremind/internal/llm/anthropic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			System    string `json:"system"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-3-5-haiku-20241022", body.Model)
		assert.Positive(t, body.MaxTokens)
		assert.NotEmpty(t, body.System)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "user", body.Messages[0].Role)
		assert.Equal(t, "validate me", body.Messages[0].Content)

		w.Write([]byte(`{"content":[{"type":"text","text":"That sounds "},{"type":"text","text":"really hard."}],"usage":{"input_tokens":30,"output_tokens":12}}`))
	}))
	defer srv.Close()

	p := anthropic.NewProvider("sk-ant-test", "", srv.URL+"/")
	assert.Equal(t, "anthropic", p.Name())

	resp, err := p.Generate(context.Background(), "validate me", "")
	require.NoError(t, err)
	assert.Equal(t, "That sounds really hard.", resp.Text)
	assert.Equal(t, 42, resp.TokensUsed)
	assert.Equal(t, "claude-3-5-haiku-20241022", resp.Model)
}

func TestProvider_Errors(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := anthropic.NewProvider("k", "", srv.URL).Generate(context.Background(), "p", "")
		assert.ErrorContains(t, err, "status 429")
	})

	t.Run("empty content", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"content":[]}`))
		}))
		defer srv.Close()

		_, err := anthropic.NewProvider("k", "", srv.URL).Generate(context.Background(), "p", "")
		assert.Error(t, err)
	})
}

func TestProvider_IsConfigured(t *testing.T) {
	assert.False(t, anthropic.NewProvider("", "", "").IsConfigured())
	assert.True(t, anthropic.NewProvider("k", "", "").IsConfigured())
}
