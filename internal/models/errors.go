package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a document, its path or its PDF is missing
var ErrNotFound = errors.New("not found")

// StructuralValidationError reports a PDF whose page layout cannot hold front/back pairs
type StructuralValidationError struct {
	PageCount int
	Message   string
}

func (e *StructuralValidationError) Error() string {
	return fmt.Sprintf("structural validation failed (%d pages): %s", e.PageCount, e.Message)
}

// ExtractionParseError reports a model reply that is not JSON or lacks required keys
type ExtractionParseError struct {
	RawResponse string
	Err         error
}

func (e *ExtractionParseError) Error() string {
	return fmt.Sprintf("failed to parse check details: %v", e.Err)
}

func (e *ExtractionParseError) Unwrap() error { return e.Err }

// InfrastructureError marks a failure of the store or a collaborator's
// connection. It is never converted into a task status.
type InfrastructureError struct {
	Op  string
	Err error
}

func (e *InfrastructureError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InfrastructureError) Unwrap() error { return e.Err }

// IsInfrastructure reports whether err carries an InfrastructureError
func IsInfrastructure(err error) bool {
	var infra *InfrastructureError
	return errors.As(err, &infra)
}
