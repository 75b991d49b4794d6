// Package autofill reads both sides of an ID card and turns the extracted
// data into form field values.
package autofill

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"simreg/internal/logger"
	"simreg/internal/understanding"
	"simreg/internal/upload"
)

var (
	// ErrExtractionFailed is returned when extraction failed or produced no data.
	// Form fields must be left untouched.
	ErrExtractionFailed = errors.New("could not extract information from the ID card")

	// ErrDocumentsRequired is returned when either side of the card is missing.
	ErrDocumentsRequired = errors.New("both sides of the ID card are required for auto-fill")
)

// Result holds the values auto-fill writes into the form.
type Result struct {
	Name        string `json:"name"`
	FatherName  string `json:"fatherName"`
	MotherName  string `json:"motherName"`
	DateOfBirth string `json:"dateOfBirth"`
	NIDNumber   string `json:"nidNumber"`
	Village     string `json:"village"`
	PostOffice  string `json:"postOffice"`
	Upazila     string `json:"upazila"`
	Address     string `json:"address"`
}

// addressSeparators are the delimiters between address parts: comma and the
// Bengali full stop (danda).
const addressSeparators = ",।"

// SplitAddress splits a free-text address into village, post office and
// upazila. Parts are positional: an empty part between two separators stays
// empty, parts beyond the third are dropped and missing parts are empty.
func SplitAddress(address string) (village, postOffice, upazila string) {
	parts := splitAny(address, addressSeparators)
	var out [3]string
	for i := 0; i < len(out) && i < len(parts); i++ {
		out[i] = strings.TrimSpace(parts[i])
	}
	return out[0], out[1], out[2]
}

func splitAny(s, seps string) []string {
	var parts []string
	start := 0
	for i, r := range s {
		if strings.ContainsRune(seps, r) {
			parts = append(parts, s[start:i])
			start = i + utf8.RuneLen(r)
		}
	}
	return append(parts, s[start:])
}

// FromFields maps extracted card fields into a Result.
func FromFields(f *understanding.IDFields) Result {
	village, postOffice, upazila := SplitAddress(f.Address)
	return Result{
		Name:        f.Name,
		FatherName:  f.FatherName,
		MotherName:  f.MotherName,
		DateOfBirth: f.DateOfBirth,
		NIDNumber:   f.NIDNumber,
		Village:     village,
		PostOffice:  postOffice,
		Upazila:     upazila,
		Address:     f.Address,
	}
}

// Service runs extraction through a FieldExtractor.
type Service struct {
	extractor understanding.FieldExtractor
	timeout   time.Duration
	log       zerolog.Logger
}

// NewService creates an auto-fill service.
func NewService(extractor understanding.FieldExtractor, timeout time.Duration) *Service {
	return &Service{
		extractor: extractor,
		timeout:   timeout,
		log:       logger.WithComponent("autofill"),
	}
}

// Extract reads both sides of the card. A missing credential is returned as
// is; every other failure, including an empty answer, is ErrExtractionFailed.
func (s *Service) Extract(ctx context.Context, front, back *upload.File) (*Result, error) {
	if front == nil || back == nil {
		return nil, ErrDocumentsRequired
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	fields, err := s.extractor.ExtractFields(ctx, *front, *back)
	if err != nil {
		if understanding.IsConfigurationError(err) {
			return nil, err
		}
		s.log.Warn().Err(err).Msg("Field extraction failed")
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if fields.IsEmpty() {
		s.log.Warn().Msg("Field extraction returned no data")
		return nil, ErrExtractionFailed
	}

	result := FromFields(fields)
	s.log.Info().
		Dur("duration", time.Since(start)).
		Bool("has_address", result.Address != "").
		Msg("ID card fields extracted")
	return &result, nil
}
