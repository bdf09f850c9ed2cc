package modelserve

import "github.com/kailas-cloud/modelserve/internal/domain"

// Sentinel errors. Match with errors.Is.
var (
	ErrSchema               = domain.ErrSchema
	ErrMissingFeature       = domain.ErrMissingFeature
	ErrInvalidFeatureValue  = domain.ErrInvalidFeatureValue
	ErrUnsupportedModelKind = domain.ErrUnsupportedModelKind
	ErrModelNotFound        = domain.ErrModelNotFound
	ErrInvalidName          = domain.ErrInvalidName
	ErrBatchTooLarge        = domain.ErrBatchTooLarge
)

// Detailed error types. Match with errors.As.
type (
	SchemaError               = domain.SchemaError
	MissingFeatureError       = domain.MissingFeatureError
	InvalidFeatureValueError  = domain.InvalidFeatureValueError
	UnsupportedModelKindError = domain.UnsupportedModelKindError
)
