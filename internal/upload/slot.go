// Package upload defines the three fixed upload slots of a registration, the
// committed file blobs they hold and the per-slot acceptance policy.
package upload

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Slot identifies one of the fixed upload roles.
type Slot string

const (
	DocumentFront Slot = "document-front"
	DocumentBack  Slot = "document-back"
	Portrait      Slot = "portrait"
)

// Slots lists every slot in display order.
var Slots = []Slot{DocumentFront, DocumentBack, Portrait}

// ParseSlot converts a user supplied slot name.
func ParseSlot(s string) (Slot, error) {
	switch Slot(strings.ToLower(strings.TrimSpace(s))) {
	case DocumentFront:
		return DocumentFront, nil
	case DocumentBack:
		return DocumentBack, nil
	case Portrait:
		return Portrait, nil
	}
	return "", fmt.Errorf("unknown upload slot %q (want document-front, document-back or portrait)", s)
}

// IsDocument reports whether the slot holds a side of the identity card.
func (s Slot) IsDocument() bool {
	return s == DocumentFront || s == DocumentBack
}

func (s Slot) String() string { return string(s) }

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"
	MIMEPDF  = "application/pdf"
)

// File is an opaque binary blob with a name and MIME type.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size returns the byte length of the blob.
func (f File) Size() int64 { return int64(len(f.Data)) }

// IsPDF reports whether the blob is a PDF document.
func (f File) IsPDF() bool { return f.MIMEType == MIMEPDF }

// MIMEFromName guesses a MIME type from a file extension.
func MIMEFromName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return MIMEJPEG
	case ".png":
		return MIMEPNG
	case ".pdf":
		return MIMEPDF
	}
	return "application/octet-stream"
}
