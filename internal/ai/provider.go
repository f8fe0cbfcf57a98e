// Package ai talks to the language models that enrich the catalog: reading a
// book from a photo of its cover, suggesting what to read or buy next, and
// matching readers with fictional characters.
//
// Model output is untrusted. Every field is optional and numbers may arrive as
// strings; decoding is lenient and never invents values.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

// Provider is a model backend.
type Provider interface {
	// Name identifies the provider in logs and metrics.
	Name() string
	// ScanImage extracts book metadata from a cover photo.
	ScanImage(ctx context.Context, image []byte, mimeType string) (*domain.BookDraft, error)
	// Recommend answers a recommendation prompt.
	Recommend(ctx context.Context, prompt string) ([]domain.Recommendation, error)
	// Personas answers a persona prompt.
	Personas(ctx context.Context, prompt string) ([]domain.Persona, error)
}

// Config holds credentials and transport settings that do not belong in the
// catalog document.
type Config struct {
	GeminiAPIKey  string
	GeminiBaseURL string // Overrides the Gemini endpoint; used by tests
	HTTPClient    *http.Client
}

// New returns the provider selected by settings.
func New(ctx context.Context, settings domain.AISettings, cfg Config, logger *slog.Logger) (Provider, error) {
	switch settings.Provider {
	case domain.ProviderOllama:
		return NewOllama(settings.OllamaURL, settings.OllamaModel, cfg.HTTPClient, logger)
	case domain.ProviderGemini, "":
		return NewGemini(ctx, cfg.GeminiAPIKey, settings.GeminiModel, cfg, logger)
	default:
		return nil, errors.Unsupportedf("unknown AI provider %q", settings.Provider)
	}
}

// scanPrompt is the instruction sent with a cover photo.
const scanPrompt = `Analyze this book for the Home Librarian app (India context).
1. Extract ISBN, Title, Author.
2. Provide a summary (approx 50 words).
3. Estimated value in INR (be realistic, used book market).
4. Insights: understanding guide and parental advice.
5. Media: any movies or shows based on it?
6. Minimum reader age.`

// draftPayload is the lenient shape of a scanned book.
type draftPayload struct {
	ISBN               string                   `json:"isbn"`
	Title              string                   `json:"title"`
	Author             string                   `json:"author"`
	Summary            string                   `json:"summary"`
	Genres             []string                 `json:"genres"`
	Tags               []string                 `json:"tags"`
	IsFirstEdition     bool                     `json:"isFirstEdition"`
	EstimatedValue     flexNumber               `json:"estimatedValue"`
	TotalPages         flexNumber               `json:"totalPages"`
	MinAge             *flexNumber              `json:"minAge"`
	ParentalAdvice     string                   `json:"parentalAdvice"`
	UnderstandingGuide string                   `json:"understandingGuide"`
	MediaAdaptations   []domain.MediaAdaptation `json:"mediaAdaptations"`
	CulturalReference  string                   `json:"culturalReference"`
}

func (p *draftPayload) toDraft() *domain.BookDraft {
	d := &domain.BookDraft{
		ISBN:               domain.NormalizeISBN(p.ISBN),
		Title:              strings.TrimSpace(p.Title),
		Author:             strings.TrimSpace(p.Author),
		Summary:            strings.TrimSpace(p.Summary),
		Genres:             p.Genres,
		Tags:               p.Tags,
		EstimatedValue:     max(float64(p.EstimatedValue), 0),
		TotalPages:         max(int(p.TotalPages), 0),
		ParentalAdvice:     p.ParentalAdvice,
		UnderstandingGuide: p.UnderstandingGuide,
		MediaAdaptations:   p.MediaAdaptations,
		CulturalReference:  p.CulturalReference,
	}
	if p.MinAge != nil {
		age := min(max(int(*p.MinAge), 0), 21)
		d.MinAge = &age
	}
	return d
}

// flexNumber accepts 350, 350.5, "350" or "₹350".
type flexNumber float64

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*n = flexNumber(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		*n = 0
		return nil
	}
	s = strings.TrimLeftFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = flexNumber(f)
	return nil
}

// decodeList decodes a JSON array of T. Models asked for an array sometimes
// wrap it in an object ({"recommendations": [...]}); the first array-valued
// field is used then.
func decodeList[T any](raw string) ([]T, error) {
	raw = stripFences(raw)
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err == nil {
		return items, nil
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	for _, v := range wrapper {
		if err := json.Unmarshal(v, &items); err == nil {
			return items, nil
		}
	}
	return []T{}, nil
}

func decodeDraft(raw string) (*domain.BookDraft, error) {
	var p draftPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &p); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}
	return p.toDraft(), nil
}

// stripFences removes a markdown code fence around a JSON answer.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func cleanRecommendations(in []domain.Recommendation) []domain.Recommendation {
	out := make([]domain.Recommendation, 0, len(in))
	for _, r := range in {
		r.Title = strings.TrimSpace(r.Title)
		if r.Title == "" {
			continue
		}
		r.Author = strings.TrimSpace(r.Author)
		r.Reason = strings.TrimSpace(r.Reason)
		out = append(out, r)
	}
	return out
}

func cleanPersonas(in []domain.Persona) []domain.Persona {
	out := make([]domain.Persona, 0, len(in))
	for _, p := range in {
		if strings.TrimSpace(p.Character) == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
