package ai

import (
	"context"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/homelibrarian/homelibrarian/internal/domain"
	"github.com/homelibrarian/homelibrarian/internal/errors"
)

// DefaultGeminiModel is used when the settings name none.
const DefaultGeminiModel = "gemini-2.5-flash"

// Gemini uses Google's Gemini API with structured JSON output.
type Gemini struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// NewGemini creates a Gemini provider.
func NewGemini(ctx context.Context, apiKey, model string, cfg Config, logger *slog.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.Unavailablef("gemini API key is not configured")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.GeminiBaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(cfg.GeminiBaseURL, "/") + "/"}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Unavailablef("create gemini client").WithCause(err)
	}
	return &Gemini{client: client, model: model, logger: logger}, nil
}

// Name implements Provider.
func (g *Gemini) Name() string { return domain.ProviderGemini }

// ScanImage implements Provider.
func (g *Gemini) ScanImage(ctx context.Context, image []byte, mimeType string) (*domain.BookDraft, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(scanPrompt),
		}, genai.RoleUser),
	}
	text, err := g.generate(ctx, contents, bookSchema)
	if err != nil {
		return nil, err
	}
	return decodeDraft(text)
}

// Recommend implements Provider.
func (g *Gemini) Recommend(ctx context.Context, prompt string) ([]domain.Recommendation, error) {
	text, err := g.generate(ctx, genai.Text(prompt+" Return JSON array."), recommendationSchema)
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
func (g *Gemini) Personas(ctx context.Context, prompt string) ([]domain.Persona, error) {
	text, err := g.generate(ctx, genai.Text(prompt), personaSchema)
	if err != nil {
		return nil, err
	}
	personas, err := decodeList[domain.Persona](text)
	if err != nil {
		return nil, err
	}
	return cleanPersonas(personas), nil
}

func (g *Gemini) generate(ctx context.Context, contents []*genai.Content, schema *genai.Schema) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", errors.Unavailablef("gemini request failed").WithCause(err)
	}
	text := resp.Text()
	g.logger.Debug("gemini response", "model", g.model, "bytes", len(text))
	if strings.TrimSpace(text) == "" {
		return "{}", nil
	}
	return text, nil
}

var (
	stringSchema = &genai.Schema{Type: genai.TypeString}
	numberSchema = &genai.Schema{Type: genai.TypeNumber}

	bookSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"isbn":               stringSchema,
			"title":              stringSchema,
			"author":             stringSchema,
			"summary":            stringSchema,
			"genres":             {Type: genai.TypeArray, Items: stringSchema},
			"tags":               {Type: genai.TypeArray, Items: stringSchema},
			"isFirstEdition":     {Type: genai.TypeBoolean},
			"estimatedValue":     {Type: genai.TypeNumber, Description: "Estimated value in INR. Return a number only."},
			"totalPages":         numberSchema,
			"minAge":             numberSchema,
			"parentalAdvice":     stringSchema,
			"understandingGuide": stringSchema,
			"mediaAdaptations": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":       stringSchema,
						"type":        stringSchema,
						"youtubeLink": stringSchema,
						"description": stringSchema,
					},
				},
			},
			"culturalReference": stringSchema,
		},
		Required: []string{"title", "author", "genres", "minAge", "estimatedValue", "summary"},
	}

	recommendationSchema = &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title":  stringSchema,
				"author": stringSchema,
				"reason": stringSchema,
				"type":   {Type: genai.TypeString, Enum: []string{domain.ReadNext, domain.BuyNext}},
			},
		},
	}

	personaSchema = &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"universe":  {Type: genai.TypeString, Description: "e.g. Marvel, Tolkien, Star Wars"},
				"character": {Type: genai.TypeString, Description: "e.g. Iron Man, Gandalf"},
				"reason":    {Type: genai.TypeString, Description: "Why this reader matches, based on their books"},
			},
		},
	}
)
