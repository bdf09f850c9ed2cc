package sdk

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/modelserve/internal/domain"
	gen "github.com/kailas-cloud/modelserve/internal/transport/generated"
)

// Sentinel errors matched by APIError. Use errors.Is() to check.
var (
	ErrModelNotFound        = domain.ErrModelNotFound
	ErrSchema               = domain.ErrSchema
	ErrMissingFeature       = domain.ErrMissingFeature
	ErrInvalidFeatureValue  = domain.ErrInvalidFeatureValue
	ErrUnsupportedModelKind = domain.ErrUnsupportedModelKind
	ErrInvalidName          = domain.ErrInvalidName
	ErrBatchTooLarge        = domain.ErrBatchTooLarge
	ErrUnauthorized         = errors.New("unauthorized")
	ErrBadRequest           = errors.New("bad request")
)

// APIError is a non-2xx response from the server, or a failed batch row
// (StatusCode 0).
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("modelserve: %s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("modelserve: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap maps the error code to a sentinel error.
func (e *APIError) Unwrap() error {
	switch gen.ErrorResponseCode(e.Code) {
	case gen.ErrorResponseCodeModelNotFound:
		return ErrModelNotFound
	case gen.ErrorResponseCodeSchemaError:
		return ErrSchema
	case gen.ErrorResponseCodeMissingFeature:
		return ErrMissingFeature
	case gen.ErrorResponseCodeInvalidFeatureValue:
		return ErrInvalidFeatureValue
	case gen.ErrorResponseCodeUnsupportedModelKind:
		return ErrUnsupportedModelKind
	case gen.ErrorResponseCodeInvalidModelName:
		return ErrInvalidName
	case gen.ErrorResponseCodeBatchTooLarge:
		return ErrBatchTooLarge
	case gen.ErrorResponseCodeUnauthorized:
		return ErrUnauthorized
	case gen.ErrorResponseCodeBadRequest:
		return ErrBadRequest
	default:
		return nil
	}
}
