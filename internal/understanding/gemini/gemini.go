// Package gemini implements card detection and field extraction with the
// Gemini generative models, using JSON response schemas.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"simreg/internal/logger"
	"simreg/internal/understanding"
	"simreg/internal/upload"
)

const providerName = "gemini"

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-1.5-flash"

// Generator sends one multimodal prompt constrained by a response schema.
// It is satisfied by modelGenerator in production and by stubs in tests.
type Generator interface {
	Generate(ctx context.Context, schema *genai.Schema, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Service implements understanding.CardDetector and understanding.FieldExtractor.
type Service struct {
	gen    Generator
	client *genai.Client
	log    zerolog.Logger
}

// New creates a Gemini service. An empty apiKey is a configuration error.
func New(ctx context.Context, apiKey, model string) (*Service, error) {
	const op = "New"

	if apiKey == "" {
		return nil, understanding.MissingSetting(providerName, "GEMINI_API_KEY")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, understanding.WrapCapabilityError(op, err, "failed to create Gemini client")
	}

	s := NewWithGenerator(&modelGenerator{client: client, model: model})
	s.client = client
	return s, nil
}

// NewWithGenerator creates a service around an explicit generator (for testing).
func NewWithGenerator(gen Generator) *Service {
	return &Service{
		gen: gen,
		log: logger.WithComponent("gemini"),
	}
}

// DetectCardRegion asks the model whether an ID card is present and where.
func (s *Service) DetectCardRegion(ctx context.Context, image upload.File) (understanding.CardRegion, error) {
	const op = "DetectCardRegion"

	resp, err := s.gen.Generate(ctx, detectSchema(), genai.Text(understanding.DetectPrompt), blob(image))
	if err != nil {
		return understanding.CardRegion{}, understanding.WrapCapabilityError(op, fmt.Errorf("%w: %v", understanding.ErrRequestFailed, err), "Gemini call failed")
	}

	text := responseText(resp)
	s.log.Debug().Str("file", image.Name).Str("response", text).Msg("Gemini detection response")

	region, err := understanding.ParseCardRegion(text)
	if err != nil {
		return understanding.CardRegion{}, understanding.WrapCapabilityError(op, err, "")
	}
	return region, nil
}

// ExtractFields reads the card fields from the front and back images.
func (s *Service) ExtractFields(ctx context.Context, front, back upload.File) (*understanding.IDFields, error) {
	const op = "ExtractFields"

	resp, err := s.gen.Generate(ctx, fieldsSchema(), genai.Text(understanding.ExtractPrompt), blob(front), blob(back))
	if err != nil {
		return nil, understanding.WrapCapabilityError(op, fmt.Errorf("%w: %v", understanding.ErrRequestFailed, err), "Gemini call failed")
	}

	fields, err := understanding.ParseIDFields(responseText(resp))
	if err != nil {
		return nil, understanding.WrapCapabilityError(op, err, "")
	}
	return fields, nil
}

// Close releases the underlying client.
func (s *Service) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

type modelGenerator struct {
	client *genai.Client
	model  string
}

func (g *modelGenerator) Generate(ctx context.Context, schema *genai.Schema, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	model := g.client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema
	return model.GenerateContent(ctx, parts...)
}

func blob(f upload.File) genai.Blob {
	return genai.Blob{MIMEType: f.MIMEType, Data: f.Data}
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

func detectSchema() *genai.Schema {
	box := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{},
	}
	for _, key := range []string{"x", "y", "width", "height"} {
		box.Properties[key] = &genai.Schema{Type: genai.TypeNumber, Description: understanding.BoxDescriptions[key]}
	}
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"is_card_present": {Type: genai.TypeBoolean},
			"bounding_box":    box,
		},
	}
}

func fieldsSchema() *genai.Schema {
	schema := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{},
		Required:   understanding.FieldOrder,
	}
	for _, key := range understanding.FieldOrder {
		schema.Properties[key] = &genai.Schema{Type: genai.TypeString, Description: understanding.FieldDescriptions[key]}
	}
	return schema
}
