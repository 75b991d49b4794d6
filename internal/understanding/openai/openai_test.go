package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simreg/internal/understanding"
	"simreg/internal/upload"
)

type stubChat struct {
	content string
	err     error
	request openai.ChatCompletionRequest
}

func (s *stubChat) CreateChatCompletion(_ context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.request = request
	if s.err != nil {
		return openai.ChatCompletionResponse{}, s.err
	}
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Content: s.content}},
	}}, nil
}

var png = upload.File{Name: "card.png", MIMEType: upload.MIMEPNG, Data: []byte("abc")}

func TestNew_MissingKey(t *testing.T) {
	_, err := New("", "")
	assert.True(t, understanding.IsConfigurationError(err))
}

func TestService_DetectCardRegion(t *testing.T) {
	chat := &stubChat{content: `{"is_card_present": false, "bounding_box": {"x": 0, "y": 0, "width": 1, "height": 1}}`}
	region, err := NewWithClient(chat, "").DetectCardRegion(context.Background(), png)
	require.NoError(t, err)
	assert.False(t, region.Present)

	assert.Equal(t, DefaultModel, chat.request.Model)
	require.Len(t, chat.request.Messages, 1)
	parts := chat.request.Messages[0].MultiContent
	require.Len(t, parts, 2)
	assert.Equal(t, "data:image/png;base64,YWJj", parts[1].ImageURL.URL)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, chat.request.ResponseFormat.Type)
}

func TestService_ExtractFields(t *testing.T) {
	t.Run("parses the json object", func(t *testing.T) {
		chat := &stubChat{content: `{"name":"Rahim","fatherName":"Karim","motherName":"Rahima","dateOfBirth":"1990-01-15","nidNumber":"1234567890","address":"A, B, C"}`}
		fields, err := NewWithClient(chat, "gpt-4o").ExtractFields(context.Background(), png, png)
		require.NoError(t, err)
		assert.Equal(t, "Karim", fields.FatherName)
		assert.Len(t, chat.request.Messages[0].MultiContent, 3)
	})

	t.Run("request errors are wrapped", func(t *testing.T) {
		chat := &stubChat{err: errors.New("429")}
		_, err := NewWithClient(chat, "").ExtractFields(context.Background(), png, png)
		assert.ErrorIs(t, err, understanding.ErrRequestFailed)
	})

	t.Run("pdf input is unsupported", func(t *testing.T) {
		chat := &stubChat{}
		_, err := NewWithClient(chat, "").ExtractFields(context.Background(), upload.File{Name: "a.pdf", MIMEType: upload.MIMEPDF}, png)
		assert.ErrorIs(t, err, understanding.ErrUnsupportedInput)
	})
}
