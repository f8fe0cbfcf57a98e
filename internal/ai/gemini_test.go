package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/logger"
)

func newTestGemini(t *testing.T, handler http.HandlerFunc) *Gemini {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	g, err := NewGemini(context.Background(), "test-key", "", Config{
		GeminiBaseURL: server.URL,
		HTTPClient:    server.Client(),
	}, logger.Discard())
	require.NoError(t, err)
	return g
}

func candidate(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []any{map[string]any{
			"content": map[string]any{
				"role":  "model",
				"parts": []any{map[string]any{"text": text}},
			},
		}},
	})
	return string(b)
}

func TestGemini_ScanImage(t *testing.T) {
	var path string
	var body map[string]any
	g := newTestGemini(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidate(`{"title":"Wings of Fire","author":"A. P. J. Abdul Kalam","estimatedValue":250,"minAge":10}`)))
	})

	d, err := g.ScanImage(context.Background(), []byte("png"), "image/png")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(path, "models/"+DefaultGeminiModel+":generateContent"), path)
	assert.Contains(t, body, "generationConfig")
	assert.Equal(t, "Wings of Fire", d.Title)
	assert.InDelta(t, 250, d.EstimatedValue, 0.001)
	require.NotNil(t, d.MinAge)
	assert.Equal(t, 10, *d.MinAge)
}

func TestGemini_RecommendAndPersonas(t *testing.T) {
	answers := []string{
		`[{"title":"The Little Prince","author":"Antoine de Saint-Exupéry","reason":"Gentle"}]`,
		`[{"universe":"Narnia","character":"Lucy Pevensie","reason":"Curious"}]`,
	}
	calls := 0
	g := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(candidate(answers[calls])))
		calls++
	})

	recs, err := g.Recommend(context.Background(), "Suggest.")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "The Little Prince", recs[0].Title)

	personas, err := g.Personas(context.Background(), "Match.")
	require.NoError(t, err)
	require.Len(t, personas, 1)
	assert.Equal(t, "Narnia", personas[0].Universe)
}

func TestGemini_ServerError(t *testing.T) {
	g := newTestGemini(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`, http.StatusBadRequest)
	})

	_, err := g.Recommend(context.Background(), "Suggest.")
	assert.Equal(t, errors.CodeUnavailable, errors.CodeOf(err))
}
