// Package vision detects ID cards with Cloud Vision object localization.
// It only implements understanding.CardDetector; field extraction needs a
// generative model or a Document AI processor.
package vision

import (
	"context"
	"fmt"
	"math"
	"strings"

	visionapi "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"

	"simreg/internal/geometry"
	"simreg/internal/logger"
	"simreg/internal/understanding"
	"simreg/internal/upload"
)

const providerName = "vision"

// MinScore is the lowest localization score accepted as a confident detection.
const MinScore = 0.5

// cardLabels are substrings of object names that identify a card-shaped document.
var cardLabels = []string{"card", "identity document", "license", "licence", "passport", "document"}

// Client is the subset of vision.ImageAnnotatorClient used here.
// It exists so the detector can be tested without the API.
type Client interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
}

// Detector implements understanding.CardDetector.
type Detector struct {
	client Client
	closer func() error
	log    zerolog.Logger
}

// New creates a detector using Google Cloud credentials from the environment.
func New(ctx context.Context) (*Detector, error) {
	const op = "New"

	opts := understanding.GoogleCredentialOptions()
	client, err := visionapi.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, understanding.MissingSetting(providerName, "GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS")
		}
		return nil, understanding.WrapCapabilityError(op, err, "failed to create Vision client")
	}

	d := NewWithClient(client)
	d.closer = client.Close
	return d, nil
}

// NewWithClient creates a detector with an explicit client (for testing).
func NewWithClient(client Client) *Detector {
	return &Detector{
		client: client,
		log:    logger.WithComponent("vision"),
	}
}

// DetectCardRegion localizes objects and returns the best-scoring card-shaped one.
func (d *Detector) DetectCardRegion(ctx context.Context, image upload.File) (understanding.CardRegion, error) {
	const op = "DetectCardRegion"

	if image.IsPDF() {
		return understanding.CardRegion{}, understanding.WrapCapabilityError(op, understanding.ErrUnsupportedInput, "PDF documents cannot be localized")
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image.Data},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_OBJECT_LOCALIZATION, MaxResults: 10},
				},
			},
		},
	}

	resp, err := d.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return understanding.CardRegion{}, understanding.WrapCapabilityError(op, understanding.ErrRequestFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.GetResponses()) == 0 {
		return understanding.CardRegion{}, understanding.WrapCapabilityError(op, understanding.ErrEmptyResponse, "no response from Vision API")
	}
	imageResp := resp.GetResponses()[0]
	if imageResp.GetError() != nil && imageResp.GetError().GetMessage() != "" {
		return understanding.CardRegion{}, understanding.WrapCapabilityError(op, understanding.ErrRequestFailed, fmt.Sprintf("Vision API error: %s", imageResp.GetError().GetMessage()))
	}

	best := bestCard(imageResp.GetLocalizedObjectAnnotations())
	if best == nil {
		d.log.Debug().
			Str("file", image.Name).
			Int("objects", len(imageResp.GetLocalizedObjectAnnotations())).
			Msg("No card-shaped object localized")
		return understanding.CardRegion{Present: false}, nil
	}

	box, ok := boundingBox(best.GetBoundingPoly().GetNormalizedVertices())
	if !ok {
		return understanding.CardRegion{Present: false}, nil
	}

	d.log.Debug().
		Str("file", image.Name).
		Str("object", best.GetName()).
		Float32("score", best.GetScore()).
		Msg("Card localized")

	return understanding.CardRegion{Present: true, Box: &box}, nil
}

// Close releases the underlying client.
func (d *Detector) Close() error {
	if d.closer != nil {
		return d.closer()
	}
	return nil
}

func bestCard(objects []*visionpb.LocalizedObjectAnnotation) *visionpb.LocalizedObjectAnnotation {
	var best *visionpb.LocalizedObjectAnnotation
	for _, obj := range objects {
		if obj.GetScore() < MinScore || !isCardLabel(obj.GetName()) {
			continue
		}
		if best == nil || obj.GetScore() > best.GetScore() {
			best = obj
		}
	}
	return best
}

func isCardLabel(name string) bool {
	name = strings.ToLower(name)
	for _, label := range cardLabels {
		if strings.Contains(name, label) {
			return true
		}
	}
	return false
}

// boundingBox converts a normalized polygon into its axis-aligned bounds.
func boundingBox(vertices []*visionpb.NormalizedVertex) (geometry.Box, bool) {
	if len(vertices) == 0 {
		return geometry.Box{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, v := range vertices {
		x, y := float64(v.GetX()), float64(v.GetY())
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	if maxX <= minX || maxY <= minY {
		return geometry.Box{}, false
	}
	return geometry.Box{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, true
}
