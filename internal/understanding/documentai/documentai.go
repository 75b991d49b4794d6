// Package documentai extracts ID card fields with a Document AI custom
// extractor processor. The processor is expected to emit the entity types
// name, father_name, mother_name, date_of_birth, nid_number and address.
package documentai

import (
	"context"
	"fmt"
	"strings"
	"time"

	documentaiapi "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"simreg/internal/logger"
	"simreg/internal/understanding"
	"simreg/internal/upload"
)

const providerName = "documentai"

// Client is the subset of documentai.DocumentProcessorClient used here.
type Client interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
}

// Config identifies the processor.
type Config struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
	Timeout          time.Duration
}

// ProcessorName returns the full resource name of the processor.
func (c Config) ProcessorName() string {
	if c.ProcessorVersion != "" {
		return fmt.Sprintf("projects/%s/locations/%s/processors/%s/processorVersions/%s",
			c.ProjectID, c.Location, c.ProcessorID, c.ProcessorVersion)
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s",
		c.ProjectID, c.Location, c.ProcessorID)
}

// Extractor implements understanding.FieldExtractor.
type Extractor struct {
	client Client
	closer func() error
	config Config
	log    zerolog.Logger
}

// New creates an extractor against a regional Document AI endpoint.
func New(ctx context.Context, config Config) (*Extractor, error) {
	const op = "New"

	if config.ProjectID == "" {
		return nil, understanding.MissingSetting(providerName, "GOOGLE_CLOUD_PROJECT")
	}
	if config.ProcessorID == "" {
		return nil, understanding.MissingSetting(providerName, "DOCUMENT_AI_PROCESSOR_ID")
	}
	if config.Location == "" {
		config.Location = "us"
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	creds := understanding.GoogleCredentialOptions()
	clientOptions := append([]option.ClientOption{}, creds...)
	if config.Location != "us" {
		clientOptions = append(clientOptions, option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)))
	}

	client, err := documentaiapi.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		if len(creds) == 0 {
			return nil, understanding.MissingSetting(providerName, "GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")
		}
		return nil, understanding.WrapCapabilityError(op, err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	e := NewWithClient(client, config)
	e.closer = client.Close
	return e, nil
}

// NewWithClient creates an extractor with an explicit client (for testing).
func NewWithClient(client Client, config Config) *Extractor {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return &Extractor{
		client: client,
		config: config,
		log:    logger.WithComponent("document-ai"),
	}
}

// ExtractFields processes both sides and merges their entities. Values found
// on the front win over the back, except the address, which is printed on the back.
func (e *Extractor) ExtractFields(ctx context.Context, front, back upload.File) (*understanding.IDFields, error) {
	const op = "ExtractFields"

	frontDoc, err := e.process(ctx, front)
	if err != nil {
		return nil, understanding.WrapCapabilityError(op, err, "front side")
	}
	backDoc, err := e.process(ctx, back)
	if err != nil {
		return nil, understanding.WrapCapabilityError(op, err, "back side")
	}

	fields := &understanding.IDFields{}
	applyEntities(fields, backDoc, e.log)
	applyEntities(fields, frontDoc, e.log)
	if addr := entityValue(backDoc, "address"); addr != "" {
		fields.Address = addr
	}
	return fields, nil
}

// Close releases the underlying client.
func (e *Extractor) Close() error {
	if e.closer != nil {
		return e.closer()
	}
	return nil
}

func (e *Extractor) process(ctx context.Context, f upload.File) (*documentaipb.Document, error) {
	processCtx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	req := &documentaipb.ProcessRequest{
		Name: e.config.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  f.Data,
				MimeType: f.MIMEType,
			},
		},
	}

	resp, err := e.client.ProcessDocument(processCtx, req)
	if err != nil {
		return nil, e.handleProcessingError(err)
	}
	if resp.GetDocument() == nil {
		return nil, fmt.Errorf("%w: no document in response", understanding.ErrEmptyResponse)
	}
	return resp.GetDocument(), nil
}

func (e *Extractor) handleProcessingError(err error) error {
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "PERMISSION_DENIED"), strings.Contains(errStr, "PermissionDenied"):
		return fmt.Errorf("%w: insufficient permissions for Document AI: %v", understanding.ErrRequestFailed, err)
	case strings.Contains(errStr, "NOT_FOUND"), strings.Contains(errStr, "NotFound"):
		return fmt.Errorf("%w: processor not found: %s", understanding.ErrRequestFailed, e.config.ProcessorID)
	case strings.Contains(errStr, "INVALID_ARGUMENT"), strings.Contains(errStr, "InvalidArgument"):
		return fmt.Errorf("%w: document format not supported or corrupted", understanding.ErrUnsupportedInput)
	default:
		return fmt.Errorf("%w: Document AI error: %v", understanding.ErrRequestFailed, err)
	}
}

// applyEntities copies every recognized entity into fields, overwriting earlier values.
func applyEntities(fields *understanding.IDFields, doc *documentaipb.Document, log zerolog.Logger) {
	for _, entity := range doc.GetEntities() {
		value := entityText(entity)
		if value == "" {
			continue
		}

		log.Debug().
			Str("entity_type", entity.GetType()).
			Float32("confidence", entity.GetConfidence()).
			Msg("Processing Document AI entity")

		switch entity.GetType() {
		case "name", "name_bn", "full_name":
			fields.Name = value
		case "father_name":
			fields.FatherName = value
		case "mother_name":
			fields.MotherName = value
		case "date_of_birth", "dob":
			fields.DateOfBirth = normalizeDate(entity, value)
		case "nid_number", "id_number":
			fields.NIDNumber = strings.ReplaceAll(value, " ", "")
		case "address":
			fields.Address = value
		}
	}
}

func entityValue(doc *documentaipb.Document, entityType string) string {
	for _, entity := range doc.GetEntities() {
		if entity.GetType() == entityType {
			return entityText(entity)
		}
	}
	return ""
}

func entityText(entity *documentaipb.Document_Entity) string {
	if nv := entity.GetNormalizedValue(); nv != nil && nv.GetText() != "" {
		return strings.TrimSpace(nv.GetText())
	}
	return strings.TrimSpace(entity.GetMentionText())
}

// normalizeDate prefers the structured date value and falls back to the text.
func normalizeDate(entity *documentaipb.Document_Entity, text string) string {
	if d := entity.GetNormalizedValue().GetDateValue(); d != nil && d.GetYear() > 0 {
		return fmt.Sprintf("%04d-%02d-%02d", d.GetYear(), d.GetMonth(), d.GetDay())
	}
	for _, layout := range []string{"2006-01-02", "02 Jan 2006", "2 Jan 2006", "02/01/2006"} {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return text
}
