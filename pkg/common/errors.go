package common

import "fmt"

// DecodeError reports an input that could not be decoded as an image
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("Could not decode image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ProcessError reports a failure while rendering or saving the labeled image
type ProcessError struct {
	Message string
	Err     error
}

func (e *ProcessError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Could not process image: %s", e.Message)
	}
	return fmt.Sprintf("Could not process image: %s: %v", e.Message, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

type GeocodeError struct {
	Message string
	Err     error
}

func (e *GeocodeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Geocode Error: %s", e.Message)
	}
	return fmt.Sprintf("Geocode Error: %s: %v", e.Message, e.Err)
}

func (e *GeocodeError) Unwrap() error { return e.Err }

type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("Configuration Error: %s", e.Message)
}

type ShareError struct {
	Message string
	Err     error
}

func (e *ShareError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("Share Error: %s", e.Message)
	}
	return fmt.Sprintf("Share Error: %s: %v", e.Message, e.Err)
}

func (e *ShareError) Unwrap() error { return e.Err }

func NewDecodeError(path string, err error) error {
	return &DecodeError{Path: path, Err: err}
}

func NewProcessError(message string, err error) error {
	return &ProcessError{Message: message, Err: err}
}

func NewGeocodeError(message string, err error) error {
	return &GeocodeError{Message: message, Err: err}
}

func NewConfigError(message string) error {
	return &ConfigError{Message: message}
}

func NewShareError(message string, err error) error {
	return &ShareError{Message: message, Err: err}
}
