package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

// DefaultOllamaURL is the address of a local Ollama daemon.
const DefaultOllamaURL = "http://localhost:11434"

// Ollama talks to a self-hosted Ollama server.
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewOllama creates an Ollama provider. Local models are slow, so the default
// client allows two minutes per request.
func NewOllama(baseURL, model string, httpClient *http.Client, logger *slog.Logger) (*Ollama, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		return nil, errors.Validation("ollama model is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Ollama{baseURL: baseURL, model: model, httpClient: httpClient, logger: logger}, nil
}

// Name implements Provider.
func (o *Ollama) Name() string { return domain.ProviderOllama }

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Stream bool     `json:"stream"`
	Format string   `json:"format"`
	Images []string `json:"images,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// ScanImage implements Provider.
func (o *Ollama) ScanImage(ctx context.Context, image []byte, _ string) (*domain.BookDraft, error) {
	prompt := scanPrompt + "\nReturn JSON only."
	text, err := o.generate(ctx, prompt, base64.StdEncoding.EncodeToString(image))
	if err != nil {
		return nil, err
	}
	return decodeDraft(text)
}

// Recommend implements Provider.
func (o *Ollama) Recommend(ctx context.Context, prompt string) ([]domain.Recommendation, error) {
	text, err := o.generate(ctx, prompt+"\nFormat: JSON array [{title, author, reason, type}]", "")
	if err != nil {
		return nil, err
	}
	recs, err := decodeList[domain.Recommendation](text)
	if err != nil {
		return nil, err
	}
	return cleanRecommendations(recs), nil
}

// Personas implements Provider.
func (o *Ollama) Personas(ctx context.Context, prompt string) ([]domain.Persona, error) {
	text, err := o.generate(ctx, prompt+"\nFormat: JSON array [{universe, character, reason}]", "")
	if err != nil {
		return nil, err
	}
	personas, err := decodeList[domain.Persona](text)
	if err != nil {
		return nil, err
	}
	return cleanPersonas(personas), nil
}

func (o *Ollama) generate(ctx context.Context, prompt, image string) (string, error) {
	req := generateRequest{Model: o.model, Prompt: prompt, Format: "json"}
	if image != "" {
		req.Images = []string{image}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	var out generateResponse
	if err := o.do(ctx, http.MethodPost, "/api/generate", bytes.NewReader(body), &out); err != nil {
		return "", err
	}
	o.logger.Debug("ollama response", "model", o.model, "bytes", len(out.Response))
	if strings.TrimSpace(out.Response) == "" {
		return "{}", nil
	}
	return out.Response, nil
}

// ListModels returns the names of the models installed on the server.
func (o *Ollama) ListModels(ctx context.Context) ([]string, error) {
	var out struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := o.do(ctx, http.MethodGet, "/api/tags", nil, &out); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(out.Models))
	for _, m := range out.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func (o *Ollama) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, o.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return errors.Unavailablef("ollama at %s is unreachable", o.baseURL).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Unavailablef("ollama returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Unavailablef("decode ollama response").WithCause(err)
	}
	return nil
}
