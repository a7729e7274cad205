package ollama_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ashudevin/caremind/internal/llm/ollama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvider_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "llama3", body["model"])
		assert.Equal(t, "hello", body["prompt"])
		assert.Equal(t, false, body["stream"])

		json.NewEncoder(w).Encode(map[string]any{"response": "It sounds heavy.", "done": true, "eval_count": 12})
	}))
	defer srv.Close()

	p := ollama.NewProvider(srv.URL, "")
	require.True(t, p.IsConfigured())

	resp, err := p.Generate(context.Background(), "hello", "")
	require.NoError(t, err)
	assert.Equal(t, "It sounds heavy.", resp.Text)
	assert.Equal(t, 12, resp.TokensUsed)
	assert.Equal(t, "llama3", resp.Model)
}

func TestProvider_GenerateStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := ollama.NewProvider(srv.URL, "mistral").Generate(context.Background(), "hello", "")
	assert.ErrorContains(t, err, "status 500")
}
