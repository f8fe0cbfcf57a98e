package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homelibrarian/homelibrarian/internal/errors"
	"github.com/homelibrarian/homelibrarian/internal/logger"
)

func newTestOllama(t *testing.T, handler http.HandlerFunc) *Ollama {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	o, err := NewOllama(server.URL+"/", "llava", server.Client(), logger.Discard())
	require.NoError(t, err)
	return o
}

func respond(t *testing.T, w http.ResponseWriter, answer string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(generateResponse{Response: answer}))
}

func TestOllama_ScanImage(t *testing.T) {
	var got generateRequest
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(t, w, `{"title":"Gitanjali","author":"Rabindranath Tagore","estimatedValue":"₹150","minAge":"12"}`)
	})

	d, err := o.ScanImage(context.Background(), []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "llava", got.Model)
	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
	assert.Equal(t, []string{base64.StdEncoding.EncodeToString([]byte("jpeg"))}, got.Images)
	assert.Equal(t, "Gitanjali", d.Title)
	assert.InDelta(t, 150, d.EstimatedValue, 0.001)
	require.NotNil(t, d.MinAge)
	assert.Equal(t, 12, *d.MinAge)
}

func TestOllama_Recommend(t *testing.T) {
	var got generateRequest
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		respond(t, w, `{"recommendations":[{"title":"Malgudi Days","author":"R. K. Narayan","reason":"Short stories"},{"title":""}]}`)
	})

	recs, err := o.Recommend(context.Background(), "Suggest 3 books.")
	require.NoError(t, err)
	assert.Contains(t, got.Prompt, "Suggest 3 books.")
	assert.Contains(t, got.Prompt, "JSON array")
	assert.Empty(t, got.Images)
	require.Len(t, recs, 1)
	assert.Equal(t, "Malgudi Days", recs[0].Title)
}

func TestOllama_Personas(t *testing.T) {
	o := newTestOllama(t, func(w http.ResponseWriter, _ *http.Request) {
		respond(t, w, `[{"universe":"Harry Potter","character":"Hermione Granger","reason":"Reads everything"}]`)
	})

	personas, err := o.Personas(context.Background(), "Who am I?")
	require.NoError(t, err)
	require.Len(t, personas, 1)
	assert.Equal(t, "Hermione Granger", personas[0].Character)
}

func TestOllama_ListModels(t *testing.T) {
	o := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"},{"name":"llava:7b"}]}`))
	})

	models, err := o.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.2:latest", "llava:7b"}, models)
}

func TestOllama_Errors(t *testing.T) {
	o := newTestOllama(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})
	_, err := o.Recommend(context.Background(), "x")
	assert.Equal(t, errors.CodeUnavailable, errors.CodeOf(err))

	unreachable, err := NewOllama("http://127.0.0.1:1", "llama3.2", nil, logger.Discard())
	require.NoError(t, err)
	_, err = unreachable.ListModels(context.Background())
	assert.Equal(t, errors.CodeUnavailable, errors.CodeOf(err))

	_, err = NewOllama("", "", nil, logger.Discard())
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}
