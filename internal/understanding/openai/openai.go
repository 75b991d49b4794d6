// Package openai implements card detection and field extraction with OpenAI
// vision-capable chat models in JSON-object response mode.
package openai

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"simreg/internal/logger"
	"simreg/internal/understanding"
	"simreg/internal/upload"
)

const providerName = "openai"

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

// ChatClient is the subset of openai.Client used here.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Service implements understanding.CardDetector and understanding.FieldExtractor.
type Service struct {
	client ChatClient
	model  string
	log    zerolog.Logger
}

// New creates a service. An empty apiKey is a configuration error.
func New(apiKey, model string) (*Service, error) {
	if apiKey == "" {
		return nil, understanding.MissingSetting(providerName, "OPENAI_API_KEY")
	}
	return NewWithClient(openai.NewClient(apiKey), model), nil
}

// NewWithClient creates a service with an explicit client (for testing).
func NewWithClient(client ChatClient, model string) *Service {
	if model == "" {
		model = DefaultModel
	}
	return &Service{
		client: client,
		model:  model,
		log:    logger.WithComponent("openai"),
	}
}

// DetectCardRegion asks the model whether an ID card is present and where.
func (s *Service) DetectCardRegion(ctx context.Context, image upload.File) (understanding.CardRegion, error) {
	const op = "DetectCardRegion"

	content, err := s.complete(ctx, understanding.DetectPrompt+"\n"+understanding.DetectJSONInstruction(), image)
	if err != nil {
		return understanding.CardRegion{}, understanding.WrapCapabilityError(op, err, "")
	}

	region, err := understanding.ParseCardRegion(content)
	if err != nil {
		return understanding.CardRegion{}, understanding.WrapCapabilityError(op, err, "")
	}
	return region, nil
}

// ExtractFields reads the card fields from the front and back images.
func (s *Service) ExtractFields(ctx context.Context, front, back upload.File) (*understanding.IDFields, error) {
	const op = "ExtractFields"

	content, err := s.complete(ctx, understanding.ExtractPrompt+"\n"+understanding.JSONInstruction(), front, back)
	if err != nil {
		return nil, understanding.WrapCapabilityError(op, err, "")
	}

	fields, err := understanding.ParseIDFields(content)
	if err != nil {
		return nil, understanding.WrapCapabilityError(op, err, "")
	}
	return fields, nil
}

func (s *Service) complete(ctx context.Context, prompt string, images ...upload.File) (string, error) {
	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: prompt}}
	for _, img := range images {
		if img.IsPDF() {
			return "", fmt.Errorf("%w: %s is a PDF", understanding.ErrUnsupportedInput, img.Name)
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    dataURI(img),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	request := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Temperature:    0,
	}

	s.log.Debug().
		Str("model", s.model).
		Int("images", len(images)).
		Msg("Sending chat completion request")

	resp, err := s.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("%w: %v", understanding.ErrRequestFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in the response", understanding.ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

func dataURI(f upload.File) string {
	return "data:" + f.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}
