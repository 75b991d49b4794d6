package understanding

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is returned when a provider's credential is not configured.
	ErrMissingCredentials = errors.New("missing credentials for image-understanding provider")

	// ErrMalformedResponse is returned when a provider answers with data that cannot be parsed.
	ErrMalformedResponse = errors.New("malformed response from image-understanding provider")

	// ErrEmptyResponse is returned when a provider answers with no content.
	ErrEmptyResponse = errors.New("empty response from image-understanding provider")

	// ErrRequestFailed is returned when the provider call itself fails.
	ErrRequestFailed = errors.New("image-understanding request failed")

	// ErrUnsupportedInput is returned for images a provider cannot accept.
	ErrUnsupportedInput = errors.New("unsupported input for image-understanding provider")
)

// ConfigurationError reports a provider that cannot be constructed because a
// required setting is absent. It is fatal for auto-detect and auto-fill only.
type ConfigurationError struct {
	Provider string
	Setting  string
	Err      error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("understanding: %s is not configured: %s: %v", e.Provider, e.Setting, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// MissingSetting returns a ConfigurationError for an unset credential or setting.
func MissingSetting(provider, setting string) *ConfigurationError {
	return &ConfigurationError{Provider: provider, Setting: setting, Err: ErrMissingCredentials}
}

// CapabilityError wraps a failed provider call with the operation that failed.
type CapabilityError struct {
	Op      string
	Err     error
	Details string
}

func (e *CapabilityError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("understanding: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("understanding: %s failed: %v", e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() error {
	return e.Err
}

func (e *CapabilityError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapCapabilityError wraps err as a CapabilityError unless it already is one
// or is a ConfigurationError.
func WrapCapabilityError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return err
	}
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return err
	}

	return &CapabilityError{Op: op, Err: err, Details: details}
}

// IsConfigurationError reports whether err stems from missing provider configuration.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
