package documentai

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/type/date"

	"simreg/internal/understanding"
	"simreg/internal/upload"
)

type mockClient struct {
	docs  map[string]*documentaipb.Document
	err   error
	names []string
}

func (m *mockClient) ProcessDocument(_ context.Context, req *documentaipb.ProcessRequest, _ ...gax.CallOption) (*documentaipb.ProcessResponse, error) {
	m.names = append(m.names, req.GetName())
	if m.err != nil {
		return nil, m.err
	}
	raw := req.GetRawDocument()
	return &documentaipb.ProcessResponse{Document: m.docs[string(raw.GetContent())]}, nil
}

func entity(kind, text string) *documentaipb.Document_Entity {
	return &documentaipb.Document_Entity{Type: kind, MentionText: text, Confidence: 0.9}
}

var (
	front = upload.File{Name: "front.jpg", MIMEType: upload.MIMEJPEG, Data: []byte("front")}
	back  = upload.File{Name: "back.jpg", MIMEType: upload.MIMEJPEG, Data: []byte("back")}
	cfg   = Config{ProjectID: "proj", Location: "eu", ProcessorID: "abc"}
)

func TestConfig_ProcessorName(t *testing.T) {
	assert.Equal(t, "projects/proj/locations/eu/processors/abc", cfg.ProcessorName())
	versioned := cfg
	versioned.ProcessorVersion = "v2"
	assert.Equal(t, "projects/proj/locations/eu/processors/abc/processorVersions/v2", versioned.ProcessorName())
}

func TestNew_MissingSettings(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.True(t, understanding.IsConfigurationError(err))

	_, err = New(context.Background(), Config{ProjectID: "p"})
	assert.True(t, understanding.IsConfigurationError(err))
}

func TestExtractor_ExtractFields(t *testing.T) {
	t.Run("merges front fields with the back address", func(t *testing.T) {
		client := &mockClient{docs: map[string]*documentaipb.Document{
			"front": {Entities: []*documentaipb.Document_Entity{
				entity("name", " Rahim Uddin "),
				entity("father_name", "Karim Uddin"),
				entity("mother_name", "Rahima Khatun"),
				{
					Type:        "date_of_birth",
					MentionText: "15 Jan 1990",
					NormalizedValue: &documentaipb.Document_Entity_NormalizedValue{
						StructuredValue: &documentaipb.Document_Entity_NormalizedValue_DateValue{
							DateValue: &date.Date{Year: 1990, Month: 1, Day: 15},
						},
					},
				},
				entity("nid_number", "123 456 7890"),
			}},
			"back": {Entities: []*documentaipb.Document_Entity{
				entity("address", "Charpara, Sadar, Sadar"),
				entity("name", "ignored back name"),
			}},
		}}

		fields, err := NewWithClient(client, cfg).ExtractFields(context.Background(), front, back)
		require.NoError(t, err)

		assert.Equal(t, "Rahim Uddin", fields.Name)
		assert.Equal(t, "Karim Uddin", fields.FatherName)
		assert.Equal(t, "Rahima Khatun", fields.MotherName)
		assert.Equal(t, "1990-01-15", fields.DateOfBirth)
		assert.Equal(t, "1234567890", fields.NIDNumber)
		assert.Equal(t, "Charpara, Sadar, Sadar", fields.Address)
		assert.Equal(t, []string{cfg.ProcessorName(), cfg.ProcessorName()}, client.names)
	})

	t.Run("text dates are normalized", func(t *testing.T) {
		client := &mockClient{docs: map[string]*documentaipb.Document{
			"front": {Entities: []*documentaipb.Document_Entity{entity("date_of_birth", "02 Mar 1985")}},
			"back":  {},
		}}
		fields, err := NewWithClient(client, cfg).ExtractFields(context.Background(), front, back)
		require.NoError(t, err)
		assert.Equal(t, "1985-03-02", fields.DateOfBirth)
	})

	t.Run("missing documents are empty responses", func(t *testing.T) {
		client := &mockClient{docs: map[string]*documentaipb.Document{}}
		_, err := NewWithClient(client, cfg).ExtractFields(context.Background(), front, back)
		assert.ErrorIs(t, err, understanding.ErrEmptyResponse)
	})

	t.Run("processor errors are classified", func(t *testing.T) {
		client := &mockClient{err: errors.New("rpc error: code = NotFound desc = processor")}
		_, err := NewWithClient(client, cfg).ExtractFields(context.Background(), front, back)
		assert.ErrorIs(t, err, understanding.ErrRequestFailed)
		assert.Contains(t, err.Error(), "processor not found")
	})
}
