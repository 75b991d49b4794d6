package autofill

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simreg/internal/understanding"
	"simreg/internal/upload"
)

type stubExtractor struct {
	fields *understanding.IDFields
	err    error
	calls  int
}

func (s *stubExtractor) ExtractFields(context.Context, upload.File, upload.File) (*understanding.IDFields, error) {
	s.calls++
	return s.fields, s.err
}

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    [3]string
	}{
		{"comma separated", "Charpara, Sadar PO, Mymensingh Sadar", [3]string{"Charpara", "Sadar PO", "Mymensingh Sadar"}},
		{"danda separated", "চরপাড়া। সদর। ময়মনসিংহ সদর", [3]string{"চরপাড়া", "সদর", "ময়মনসিংহ সদর"}},
		{"mixed with extra parts dropped", "A, B। C, District, Division", [3]string{"A", "B", "C"}},
		{"fewer parts default to empty", "Only village", [3]string{"Only village", "", ""}},
		{"empty", "", [3]string{}},
		{"blank parts keep their position", "A,, B", [3]string{"A", "", "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, p, u := SplitAddress(tt.address)
			assert.Equal(t, tt.want, [3]string{v, p, u})
		})
	}
}

func TestService_Extract(t *testing.T) {
	front := &upload.File{Name: "front.png", MIMEType: upload.MIMEPNG, Data: []byte{1}}
	back := &upload.File{Name: "back.png", MIMEType: upload.MIMEPNG, Data: []byte{2}}

	t.Run("maps fields and splits the address", func(t *testing.T) {
		ext := &stubExtractor{fields: &understanding.IDFields{
			Name: "Rahim", FatherName: "Karim", MotherName: "Rahima",
			DateOfBirth: "1990-01-15", NIDNumber: "1234567890",
			Address: "Charpara, Sadar, Mymensingh Sadar, Mymensingh",
		}}
		res, err := NewService(ext, 0).Extract(context.Background(), front, back)
		require.NoError(t, err)
		assert.Equal(t, "Rahim", res.Name)
		assert.Equal(t, "Charpara", res.Village)
		assert.Equal(t, "Sadar", res.PostOffice)
		assert.Equal(t, "Mymensingh Sadar", res.Upazila)
	})

	t.Run("requires both sides without calling the extractor", func(t *testing.T) {
		ext := &stubExtractor{}
		_, err := NewService(ext, 0).Extract(context.Background(), front, nil)
		assert.ErrorIs(t, err, ErrDocumentsRequired)
		assert.Equal(t, 0, ext.calls)
	})

	t.Run("extractor errors become extraction failures", func(t *testing.T) {
		ext := &stubExtractor{err: errors.New("quota")}
		_, err := NewService(ext, 0).Extract(context.Background(), front, back)
		assert.ErrorIs(t, err, ErrExtractionFailed)
	})

	t.Run("empty answers become extraction failures", func(t *testing.T) {
		ext := &stubExtractor{fields: &understanding.IDFields{}}
		_, err := NewService(ext, 0).Extract(context.Background(), front, back)
		assert.ErrorIs(t, err, ErrExtractionFailed)
	})

	t.Run("configuration errors pass through", func(t *testing.T) {
		ext := &stubExtractor{err: understanding.MissingSetting("openai", "OPENAI_API_KEY")}
		_, err := NewService(ext, 0).Extract(context.Background(), front, back)
		assert.True(t, understanding.IsConfigurationError(err))
		assert.NotErrorIs(t, err, ErrExtractionFailed)
	})
}
