// Package recerrors provides sentinel and custom error types for the recommendation core.
package recerrors

import "fmt"

// ErrInsufficientData is the sentinel for too-few-ratings failures.
// User-correctable; surface the message verbatim.
var ErrInsufficientData = &InsufficientDataError{}

// InsufficientDataError is returned when a user has fewer on-platform ratings
// than the configured minimum for synthesis.
type InsufficientDataError struct {
	Have    int
	Minimum int
}

// NewInsufficientDataError creates an InsufficientDataError.
func NewInsufficientDataError(have, minimum int) *InsufficientDataError {
	return &InsufficientDataError{Have: have, Minimum: minimum}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	if e.Minimum > 0 {
		return fmt.Sprintf("need at least %d ratings to generate recommendations, have %d", e.Minimum, e.Have)
	}

	return "not enough ratings to generate recommendations"
}

// Is implements the error interface for error comparison.
func (e *InsufficientDataError) Is(target error) bool {
	_, ok := target.(*InsufficientDataError)

	return ok
}

// ErrRetrievalFailure is the sentinel for retrieval-stage failures.
var ErrRetrievalFailure = &RetrievalFailure{}

// RetrievalFailure is returned when the search-augmented LLM is unreachable or errors.
// Transient from the caller's perspective; no retry is performed here.
type RetrievalFailure struct {
	Cause error
}

// NewRetrievalFailure wraps the provider error from the retrieval stage.
func NewRetrievalFailure(cause error) *RetrievalFailure {
	return &RetrievalFailure{Cause: cause}
}

// Error implements the error interface.
func (e *RetrievalFailure) Error() string {
	if e.Cause != nil {
		return "retrieval stage failed: " + e.Cause.Error()
	}

	return "retrieval stage failed"
}

// Unwrap exposes the provider error.
func (e *RetrievalFailure) Unwrap() error { return e.Cause }

// Is implements the error interface for error comparison.
func (e *RetrievalFailure) Is(target error) bool {
	_, ok := target.(*RetrievalFailure)

	return ok
}

// ErrRefinementFailure is the sentinel for refinement-stage failures.
var ErrRefinementFailure = &RefinementFailure{}

// RefinementFailure is returned when the structured-generation LLM is unreachable or errors.
type RefinementFailure struct {
	Cause error
}

// NewRefinementFailure wraps the provider error from the refinement stage.
func NewRefinementFailure(cause error) *RefinementFailure {
	return &RefinementFailure{Cause: cause}
}

// Error implements the error interface.
func (e *RefinementFailure) Error() string {
	if e.Cause != nil {
		return "refinement stage failed: " + e.Cause.Error()
	}

	return "refinement stage failed"
}

// Unwrap exposes the provider error.
func (e *RefinementFailure) Unwrap() error { return e.Cause }

// Is implements the error interface for error comparison.
func (e *RefinementFailure) Is(target error) bool {
	_, ok := target.(*RefinementFailure)

	return ok
}

// ErrParseFailure is the sentinel for malformed structured output.
// Fatal for the whole synthesis run; never partially salvaged.
var ErrParseFailure = &ParseFailure{}

// ParseFailure is returned when the refinement response violates the JSON schema.
type ParseFailure struct {
	Message string
	Cause   error
}

// NewParseFailure creates a ParseFailure.
func NewParseFailure(message string, cause error) *ParseFailure {
	return &ParseFailure{Message: message, Cause: cause}
}

// Error implements the error interface.
func (e *ParseFailure) Error() string {
	if e.Message != "" {
		return "malformed model response: " + e.Message
	}

	return "malformed model response"
}

// Unwrap exposes the decode error, when there is one.
func (e *ParseFailure) Unwrap() error { return e.Cause }

// Is implements the error interface for error comparison.
func (e *ParseFailure) Is(target error) bool {
	_, ok := target.(*ParseFailure)

	return ok
}

// ErrEnrichmentFailure is the sentinel for best-effort enrichment failures.
// Callers log it and return the original record unmodified.
var ErrEnrichmentFailure = &EnrichmentFailure{}

// EnrichmentFailure is returned when the fact-retrieval call or its parse fails.
type EnrichmentFailure struct {
	Cause error
}

// NewEnrichmentFailure wraps the underlying enrichment error.
func NewEnrichmentFailure(cause error) *EnrichmentFailure {
	return &EnrichmentFailure{Cause: cause}
}

// Error implements the error interface.
func (e *EnrichmentFailure) Error() string {
	if e.Cause != nil {
		return "enrichment failed: " + e.Cause.Error()
	}

	return "enrichment failed"
}

// Unwrap exposes the underlying error.
func (e *EnrichmentFailure) Unwrap() error { return e.Cause }

// Is implements the error interface for error comparison.
func (e *EnrichmentFailure) Is(target error) bool {
	_, ok := target.(*EnrichmentFailure)

	return ok
}

// ErrNoData is the sentinel for preference analysis with zero positive ratings.
var ErrNoData = &NoDataError{}

// NoDataError is returned when preference analysis has nothing to work with.
type NoDataError struct {
	Message string
}

// NewNoDataError creates a NoDataError with a custom message.
func NewNoDataError(message string) *NoDataError {
	return &NoDataError{Message: message}
}

// Error implements the error interface.
func (e *NoDataError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	return "no data available"
}

// Is implements the error interface for error comparison.
func (e *NoDataError) Is(target error) bool {
	_, ok := target.(*NoDataError)

	return ok
}

// ErrNotFound is the sentinel for missing resources.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{Resource: resource, Message: message}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}
