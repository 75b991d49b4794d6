package understanding

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DetectPrompt asks a generative model for card presence and a normalized box.
const DetectPrompt = "Analyze this image to detect if a rectangular ID card is present. " +
	"If it is, provide its bounding box coordinates (x, y, width, height) as normalized values from 0 to 1. " +
	"If no card is clearly visible, set 'is_card_present' to false."

// ExtractPrompt asks a generative model to read both sides of a Bangladeshi national ID card.
const ExtractPrompt = "You are an expert at reading Bangladeshi National ID cards. " +
	"Extract the information from the provided front and back images. " +
	"Format the date of birth as YYYY-MM-DD. " +
	"Provide the response in JSON format conforming to the provided schema. " +
	"Ensure all textual data is in Bengali script as it appears on the card."

// Field descriptions shared by the providers that take a schema or a JSON instruction.
var FieldDescriptions = map[string]string{
	"name":        "The person's full name in Bengali as written on the card.",
	"fatherName":  "The person's father's name in Bengali as written on the card.",
	"motherName":  "The person's mother's name in Bengali as written on the card.",
	"dateOfBirth": "The person's date of birth. Format it as YYYY-MM-DD.",
	"nidNumber":   "The National ID number, which can be 10, 13 or 17 digits long.",
	"address":     "The person's full address as written on the back of the card, including village, post office, upazila, and district, all in Bengali in a single string.",
}

// FieldOrder is the order in which fields are listed to a model.
var FieldOrder = []string{"name", "fatherName", "motherName", "dateOfBirth", "nidNumber", "address"}

// BoxDescriptions describe the normalized bounding box members.
var BoxDescriptions = map[string]string{
	"x":      "X coordinate of the top-left corner (from 0 to 1)",
	"y":      "Y coordinate of the top-left corner (from 0 to 1)",
	"width":  "Width of the card (from 0 to 1)",
	"height": "Height of the card (from 0 to 1)",
}

// JSONInstruction lists the expected JSON members for providers without schema support.
func JSONInstruction() string {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object with these string members:\n")
	for _, key := range FieldOrder {
		fmt.Fprintf(&b, "- %s: %s\n", key, FieldDescriptions[key])
	}
	return b.String()
}

// DetectJSONInstruction describes the detection answer for providers without schema support.
func DetectJSONInstruction() string {
	return `Respond with a single JSON object: {"is_card_present": boolean, "bounding_box": {"x": number, "y": number, "width": number, "height": number}}. Omit bounding_box when no card is present.`
}

// ParseCardRegion decodes a detection answer. A present flag without a box is
// reported as not present.
func ParseCardRegion(raw string) (CardRegion, error) {
	payload := stripCodeFence(raw)
	if payload == "" {
		return CardRegion{}, ErrEmptyResponse
	}

	var region CardRegion
	if err := json.Unmarshal([]byte(payload), &region); err != nil {
		return CardRegion{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !region.Present || region.Box == nil {
		return CardRegion{Present: false, Box: region.Box}, nil
	}
	return region, nil
}

// ParseIDFields decodes an extraction answer.
func ParseIDFields(raw string) (*IDFields, error) {
	payload := stripCodeFence(raw)
	if payload == "" {
		return nil, ErrEmptyResponse
	}

	var fields IDFields
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	fields.Name = strings.TrimSpace(fields.Name)
	fields.FatherName = strings.TrimSpace(fields.FatherName)
	fields.MotherName = strings.TrimSpace(fields.MotherName)
	fields.DateOfBirth = strings.TrimSpace(fields.DateOfBirth)
	fields.NIDNumber = strings.TrimSpace(fields.NIDNumber)
	fields.Address = strings.TrimSpace(fields.Address)
	return &fields, nil
}

// stripCodeFence removes a surrounding markdown code fence, which some models
// add even when asked for bare JSON.
func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
