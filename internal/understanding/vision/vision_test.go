package vision

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simreg/internal/understanding"
	"simreg/internal/upload"
)

type mockClient struct {
	resp *visionpb.BatchAnnotateImagesResponse
	err  error
	req  *visionpb.BatchAnnotateImagesRequest
}

func (m *mockClient) BatchAnnotateImages(_ context.Context, req *visionpb.BatchAnnotateImagesRequest, _ ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error) {
	m.req = req
	return m.resp, m.err
}

func object(name string, score float32, x0, y0, x1, y1 float32) *visionpb.LocalizedObjectAnnotation {
	return &visionpb.LocalizedObjectAnnotation{
		Name:  name,
		Score: score,
		BoundingPoly: &visionpb.BoundingPoly{NormalizedVertices: []*visionpb.NormalizedVertex{
			{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
		}},
	}
}

func responseWith(objects ...*visionpb.LocalizedObjectAnnotation) *visionpb.BatchAnnotateImagesResponse {
	return &visionpb.BatchAnnotateImagesResponse{
		Responses: []*visionpb.AnnotateImageResponse{{LocalizedObjectAnnotations: objects}},
	}
}

var scan = upload.File{Name: "scan.jpg", MIMEType: upload.MIMEJPEG, Data: []byte{1, 2, 3}}

func TestDetector_DetectCardRegion(t *testing.T) {
	t.Run("picks the highest scoring card-shaped object", func(t *testing.T) {
		client := &mockClient{resp: responseWith(
			object("Person", 0.99, 0, 0, 1, 1),
			object("Identity document", 0.7, 0.2, 0.2, 0.6, 0.5),
			object("Business card", 0.9, 0.1, 0.1, 0.9, 0.9),
		)}

		region, err := NewWithClient(client).DetectCardRegion(context.Background(), scan)
		require.NoError(t, err)
		require.True(t, region.Present)
		assert.InDelta(t, 0.1, region.Box.X, 1e-6)
		assert.InDelta(t, 0.8, region.Box.Width, 1e-6)

		require.Len(t, client.req.Requests, 1)
		assert.Equal(t, visionpb.Feature_OBJECT_LOCALIZATION, client.req.Requests[0].Features[0].Type)
		assert.Equal(t, scan.Data, client.req.Requests[0].Image.Content)
	})

	t.Run("low scores are not confident", func(t *testing.T) {
		client := &mockClient{resp: responseWith(object("Card", 0.3, 0.1, 0.1, 0.9, 0.9))}
		region, err := NewWithClient(client).DetectCardRegion(context.Background(), scan)
		require.NoError(t, err)
		assert.False(t, region.Present)
	})

	t.Run("degenerate polygons are not present", func(t *testing.T) {
		client := &mockClient{resp: responseWith(object("Card", 0.9, 0.5, 0.5, 0.5, 0.5))}
		region, err := NewWithClient(client).DetectCardRegion(context.Background(), scan)
		require.NoError(t, err)
		assert.False(t, region.Present)
	})

	t.Run("api errors are request failures", func(t *testing.T) {
		client := &mockClient{err: errors.New("deadline exceeded")}
		_, err := NewWithClient(client).DetectCardRegion(context.Background(), scan)
		assert.ErrorIs(t, err, understanding.ErrRequestFailed)
	})

	t.Run("empty responses are reported", func(t *testing.T) {
		client := &mockClient{resp: &visionpb.BatchAnnotateImagesResponse{}}
		_, err := NewWithClient(client).DetectCardRegion(context.Background(), scan)
		assert.ErrorIs(t, err, understanding.ErrEmptyResponse)
	})

	t.Run("pdf input is rejected without a call", func(t *testing.T) {
		client := &mockClient{}
		_, err := NewWithClient(client).DetectCardRegion(context.Background(), upload.File{MIMEType: upload.MIMEPDF})
		assert.ErrorIs(t, err, understanding.ErrUnsupportedInput)
		assert.Nil(t, client.req)
	})
}
