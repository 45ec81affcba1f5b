package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func baseEnv() map[string]string {
	return map[string]string{
		"APP_ENV":           "development",
		"HTTP_PORT":         "8080",
		"DB_NAME":           "learnfinity",
		"DB_USER":           "postgres",
		"JWT_ACCESS_SECRET": "secret",
		"LLM_API_KEY":       "key",
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(mapLookup(baseEnv()))
	require.NoError(t, err)

	assert.Equal(t, 1500, cfg.LLM.MaxTokens)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 0.0001)
	assert.Equal(t, 5, cfg.LLM.MaxConcurrentRequests)
	assert.Equal(t, []string{"llama3-70b-8192"}, cfg.LLM.FallbackModels)
	assert.True(t, cfg.Features.EnableLLM)
	assert.False(t, cfg.Features.EnableBatchProcessing)
	assert.Equal(t, 600*time.Second, cfg.Redis.TTL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.HTTP.AllowedOrigins)
}

func TestFromLookup_MissingRequired(t *testing.T) {
	env := baseEnv()
	delete(env, "HTTP_PORT")
	delete(env, "LLM_API_KEY")

	_, err := FromLookup(mapLookup(env))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errMissingRequiredEnv))
	assert.Contains(t, err.Error(), "HTTP_PORT")
	assert.Contains(t, err.Error(), "LLM_API_KEY")
}

func TestFromLookup_LLMKeyOptionalWhenDisabled(t *testing.T) {
	env := baseEnv()
	delete(env, "LLM_API_KEY")
	env["ENABLE_LLM"] = "false"

	cfg, err := FromLookup(mapLookup(env))
	require.NoError(t, err)
	assert.False(t, cfg.Features.EnableLLM)
}

func TestFromLookup_InvalidValues(t *testing.T) {
	env := baseEnv()
	env["LLM_MAX_TOKENS"] = "lots"
	env["ENABLE_BATCH_PROCESSING"] = "maybe"

	_, err := FromLookup(mapLookup(env))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errInvalidEnv))
	assert.Contains(t, err.Error(), "LLM_MAX_TOKENS")
	assert.Contains(t, err.Error(), "ENABLE_BATCH_PROCESSING")
}

func TestFromLookup_OriginList(t *testing.T) {
	env := baseEnv()
	env["CORS_ALLOWED_ORIGINS"] = "https://app.learnfinity.io, "

	cfg, err := FromLookup(mapLookup(env))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://app.learnfinity.io"}, cfg.HTTP.AllowedOrigins)
}
