package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ashudevin/caremind/internal/api"
	"github.com/ashudevin/caremind/internal/config"
	"github.com/ashudevin/caremind/internal/llm"
	"github.com/ashudevin/caremind/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoProvider struct{}

func (echoProvider) Name() string              { return "echo" }
func (echoProvider) AvailableModels() []string { return []string{"echo-1"} }
func (echoProvider) DefaultModel() string      { return "echo-1" }
func (echoProvider) IsConfigured() bool        { return true }
func (echoProvider) Generate(ctx context.Context, prompt, model string) (*llm.Response, error) {
	return &llm.Response{Text: "I hear you.", Model: model}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "router-test-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: time.Hour,
		},
		LLM: config.LLMConfig{DefaultProvider: "echo", Timeout: time.Second},
	}

	llmRouter := llm.NewRouter("echo")
	llmRouter.RegisterProvider(echoProvider{})

	sessions := memory.NewSessionRepository()
	srv := httptest.NewServer(api.NewRouter(cfg, api.Deps{
		Sessions: sessions,
		Users:    memory.NewUserRepository(),
		Store:    sessions,
		LLM:      llmRouter,
	}))
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token, body string) (int, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func data(out map[string]any) map[string]any {
	d, _ := out["data"].(map[string]any)
	return d
}

func TestRouter_ConversationFlow(t *testing.T) {
	srv := newTestServer(t)

	status, _ := call(t, srv, http.MethodGet, "/api/v1/health", "", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodGet, "/api/v1/ready", "", "")
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, srv, http.MethodPost, "/api/v1/auth/signup", "",
		`{"name":"Riley","email":"riley@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, status)

	status, out := call(t, srv, http.MethodPost, "/api/v1/auth/login", "",
		`{"email":"riley@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, status)
	token := data(out)["access_token"].(string)

	status, _ = call(t, srv, http.MethodPost, "/api/v1/chat", "", `{}`)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, out = call(t, srv, http.MethodPost, "/api/v1/chat/reset-on-login", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, data(out)["is_returning"])

	status, out = call(t, srv, http.MethodPost, "/api/v1/chat", token, `{}`)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, data(out)["message"], "Hello Riley")

	status, out = call(t, srv, http.MethodPost, "/api/v1/chat", token, `{"message":"I am happy"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, data(out)["message"], "positive")

	status, out = call(t, srv, http.MethodPost, "/api/v1/chat", token, `{"message":"exams are coming"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "I hear you.", data(out)["message"])

	// a new login after progress makes the user returning
	status, out = call(t, srv, http.MethodPost, "/api/v1/chat/reset-on-login", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, data(out)["is_returning"])

	status, out = call(t, srv, http.MethodPost, "/api/v1/chat", token, `{"message":"hi again"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, data(out)["message"], "Welcome back, Riley")

	status, out = call(t, srv, http.MethodGet, "/api/v1/me", token, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "riley@example.com", data(out)["email"])

	status, _ = call(t, srv, http.MethodPost, "/api/v1/auth/logout", token, "")
	assert.Equal(t, http.StatusOK, status)
}

func TestRouter_LLMProviders(t *testing.T) {
	srv := newTestServer(t)

	status, out := call(t, srv, http.MethodGet, "/api/v1/llm-providers", "", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "echo", data(out)["default_provider"])
}
