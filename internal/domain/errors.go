package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema signals a structurally invalid model artifact.
	ErrSchema = errors.New("schema error")
	// ErrMissingFeature signals a required feature absent from the input.
	ErrMissingFeature = errors.New("missing feature")
	// ErrInvalidFeatureValue signals a feature value that is not a finite real number.
	ErrInvalidFeatureValue = errors.New("invalid feature value")
	// ErrUnsupportedModelKind signals a model kind outside logistic/tree/forest.
	ErrUnsupportedModelKind = errors.New("unsupported model kind")

	// ErrModelNotFound signals a missing model in the registry.
	ErrModelNotFound = errors.New("model not found")
	// ErrInvalidName signals a malformed model name.
	ErrInvalidName = errors.New("invalid model name")
	// ErrBatchTooLarge signals a batch above the configured limit.
	ErrBatchTooLarge = errors.New("batch too large")
)

// SchemaError wraps ErrSchema with the location of the offending element.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrSchema.Error(), e.Reason)
	}
	return fmt.Sprintf("%s at %s: %s", ErrSchema.Error(), e.Path, e.Reason)
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// NewSchemaError creates a schema error for the given artifact path.
func NewSchemaError(path, format string, args ...any) error {
	return &SchemaError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// MissingFeatureError wraps ErrMissingFeature with the absent feature name.
type MissingFeatureError struct {
	Feature string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("%s: %q", ErrMissingFeature.Error(), e.Feature)
}

func (e *MissingFeatureError) Unwrap() error { return ErrMissingFeature }

// NewMissingFeature creates a missing feature error.
func NewMissingFeature(feature string) error {
	return &MissingFeatureError{Feature: feature}
}

// InvalidFeatureValueError wraps ErrInvalidFeatureValue with the offending feature.
type InvalidFeatureValueError struct {
	Feature string
	Value   any
	Reason  string
}

func (e *InvalidFeatureValueError) Error() string {
	return fmt.Sprintf("%s: %q (%v): %s", ErrInvalidFeatureValue.Error(), e.Feature, e.Value, e.Reason)
}

func (e *InvalidFeatureValueError) Unwrap() error { return ErrInvalidFeatureValue }

// NewInvalidFeatureValue creates an invalid feature value error.
func NewInvalidFeatureValue(feature string, value any, reason string) error {
	return &InvalidFeatureValueError{Feature: feature, Value: value, Reason: reason}
}

// UnsupportedModelKindError wraps ErrUnsupportedModelKind with the rejected kind.
type UnsupportedModelKindError struct {
	Kind string
}

func (e *UnsupportedModelKindError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnsupportedModelKind.Error(), e.Kind)
}

func (e *UnsupportedModelKindError) Unwrap() error { return ErrUnsupportedModelKind }

// NewUnsupportedModelKind creates an unsupported model kind error.
func NewUnsupportedModelKind(kind string) error {
	return &UnsupportedModelKindError{Kind: kind}
}
