package upload

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicies_Check(t *testing.T) {
	policies := DefaultPolicies()

	t.Run("portrait rejects files over 2MB", func(t *testing.T) {
		f := File{Name: "me.jpg", MIMEType: MIMEJPEG, Data: bytes.Repeat([]byte{1}, 2*megabyte+1)}
		err := policies.Check(Portrait, f)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrFileTooLarge)
	})

	t.Run("documents accept the same file", func(t *testing.T) {
		f := File{Name: "card.jpg", MIMEType: MIMEJPEG, Data: bytes.Repeat([]byte{1}, 2*megabyte+1)}
		assert.NoError(t, policies.Check(DocumentFront, f))
	})

	t.Run("portrait rejects PDF", func(t *testing.T) {
		f := File{Name: "me.pdf", MIMEType: MIMEPDF, Data: []byte("%PDF-1.4")}
		assert.ErrorIs(t, policies.Check(Portrait, f), ErrUnsupportedType)
	})

	t.Run("documents accept PDF", func(t *testing.T) {
		f := File{Name: "card.pdf", MIMEType: MIMEPDF, Data: []byte("%PDF-1.4")}
		assert.NoError(t, policies.Check(DocumentBack, f))
	})

	t.Run("empty files are rejected", func(t *testing.T) {
		assert.ErrorIs(t, policies.Check(DocumentBack, File{MIMEType: MIMEPNG}), ErrEmptyFile)
	})

	t.Run("limits are configurable per slot", func(t *testing.T) {
		custom := policies.WithMaxBytes(DocumentBack, 10)
		f := File{MIMEType: MIMEPNG, Data: bytes.Repeat([]byte{1}, 11)}
		assert.ErrorIs(t, custom.Check(DocumentBack, f), ErrFileTooLarge)
		assert.NoError(t, custom.Check(DocumentFront, f))
		assert.Equal(t, int64(5*megabyte), policies[DocumentBack].MaxBytes, "original policies are not mutated")
	})
}

func TestParseSlot(t *testing.T) {
	s, err := ParseSlot(" Portrait ")
	require.NoError(t, err)
	assert.Equal(t, Portrait, s)
	assert.False(t, s.IsDocument())

	_, err = ParseSlot("selfie")
	assert.Error(t, err)
}
