// Package errors provides the standardized error taxonomy of the content
// orchestration pipeline. Only validation errors abort a run; backend and
// parse errors switch the issuing stage onto its deterministic fallback path,
// and consistency errors are recorded by the quality gate without stopping
// the pipeline.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Validation errors (fatal: abort before any backend call).
const (
	ErrCodeInvalidCampaignWindow ErrorCode = "INVALID_CAMPAIGN_WINDOW"
	ErrCodeInvalidInterval       ErrorCode = "INVALID_INTERVAL"
	ErrCodeWindowTooLarge        ErrorCode = "WINDOW_TOO_LARGE"
	ErrCodeEmptyTemplateCatalog  ErrorCode = "EMPTY_TEMPLATE_CATALOG"
)

// Backend errors (recoverable: trigger the stage fallback).
const (
	ErrCodeBackendCallFailed ErrorCode = "BACKEND_CALL_FAILED"
	ErrCodeBackendTimeout    ErrorCode = "BACKEND_TIMEOUT"
)

// Parse errors (recoverable: same fallback path as backend errors).
const (
	ErrCodeResponseNotJSON      ErrorCode = "RESPONSE_NOT_JSON"
	ErrCodeResponseSchemaFailed ErrorCode = "RESPONSE_SCHEMA_FAILED"
)

// Consistency errors (non-fatal: surfaced via the quality report).
const (
	ErrCodeDanglingTemplateRef ErrorCode = "DANGLING_TEMPLATE_REF"
	ErrCodeMissingResource     ErrorCode = "MISSING_RESOURCE"
)

// Infrastructure errors raised by the collaborator adapters.
const (
	ErrCodeCatalogQueryFailed ErrorCode = "CATALOG_QUERY_FAILED"
	ErrCodeCacheUnavailable   ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeArchiveIndexFailed ErrorCode = "ARCHIVE_INDEX_FAILED"
)

// PipelineError represents a structured pipeline error.
type PipelineError struct {
	Code        ErrorCode              `json:"code"`
	Message     string                 `json:"message"`
	Details     string                 `json:"details,omitempty"`
	Recoverable bool                   `json:"recoverable"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("PipelineError[%s]: %s", e.Code, e.Message)
}

// IsFatal reports whether the error must abort the run.
func (e *PipelineError) IsFatal() bool {
	return !e.Recoverable
}

// NewInvalidCampaignWindowError creates a fatal validation error for a
// malformed or inverted campaign window.
func NewInvalidCampaignWindowError(details string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeInvalidCampaignWindow,
		Message:     "Campaign window is malformed",
		Details:     details,
		Recoverable: false,
		Timestamp:   time.Now().UTC(),
	}
}

// NewInvalidIntervalError creates a fatal validation error for an interval
// outside the 0.5h-168h range.
func NewInvalidIntervalError(intervalHours float64) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeInvalidInterval,
		Message:     "Publishing interval out of range",
		Details:     fmt.Sprintf("intervalHours: %g (allowed 0.5-168)", intervalHours),
		Recoverable: false,
		Timestamp:   time.Now().UTC(),
	}
}

// NewWindowTooLargeError creates a fatal validation error for windows longer
// than 365 days.
func NewWindowTooLargeError(details string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeWindowTooLarge,
		Message:     "Campaign window exceeds 365 days",
		Details:     details,
		Recoverable: false,
		Timestamp:   time.Now().UTC(),
	}
}

// NewEmptyTemplateCatalogError creates a fatal validation error raised when a
// campaign has no templates to plan against.
func NewEmptyTemplateCatalogError(campaignID string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeEmptyTemplateCatalog,
		Message:     "Template catalog is empty",
		Details:     fmt.Sprintf("campaignId: %s", campaignID),
		Recoverable: false,
		Timestamp:   time.Now().UTC(),
	}
}

// NewBackendCallFailedError creates a recoverable generation backend error.
func NewBackendCallFailedError(stage string, err error) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeBackendCallFailed,
		Message:     "Generation backend call failed",
		Details:     fmt.Sprintf("stage: %s, error: %s", stage, err.Error()),
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// NewBackendTimeoutError creates a recoverable backend timeout error.
func NewBackendTimeoutError(stage string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeBackendTimeout,
		Message:     "Generation backend call timed out",
		Details:     fmt.Sprintf("stage: %s", stage),
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// NewResponseNotJSONError creates a recoverable parse error raised when no
// JSON object can be extracted from the backend text.
func NewResponseNotJSONError(stage string, err error) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeResponseNotJSON,
		Message:     "Backend response is not extractable JSON",
		Details:     fmt.Sprintf("stage: %s, error: %s", stage, err.Error()),
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// NewResponseSchemaFailedError creates a recoverable parse error raised when
// the extracted JSON does not satisfy the stage response schema.
func NewResponseSchemaFailedError(stage, details string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeResponseSchemaFailed,
		Message:     "Backend response failed schema validation",
		Details:     fmt.Sprintf("stage: %s, %s", stage, details),
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// NewDanglingTemplateRefError creates a consistency error for an idea
// referencing a template absent from the semantic index.
func NewDanglingTemplateRefError(slotID, templateID string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeDanglingTemplateRef,
		Message:     "Idea references a template missing from the semantic index",
		Details:     fmt.Sprintf("slotId: %s, templateId: %s", slotID, templateID),
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// NewMissingResourceError creates a consistency error for a required resource
// id absent from the available set.
func NewMissingResourceError(slotID, resourceID string) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeMissingResource,
		Message:     "Idea requires a resource missing from the catalog",
		Details:     fmt.Sprintf("slotId: %s, resourceId: %s", slotID, resourceID),
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// NewCatalogQueryFailedError creates a recoverable catalog adapter error.
func NewCatalogQueryFailedError(err error) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeCatalogQueryFailed,
		Message:     "Catalog query failed",
		Details:     err.Error(),
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a recoverable plan cache error.
func NewCacheUnavailableError(err error) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeCacheUnavailable,
		Message:     "Plan cache unavailable",
		Details:     err.Error(),
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// NewArchiveIndexFailedError creates a recoverable archive indexing error.
func NewArchiveIndexFailedError(err error) *PipelineError {
	return &PipelineError{
		Code:        ErrCodeArchiveIndexFailed,
		Message:     "Plan archive indexing failed",
		Details:     err.Error(),
		Recoverable: true,
		Timestamp:   time.Now().UTC(),
	}
}

// IsValidation reports whether an error is one of the fatal validation codes.
func IsValidation(err error) bool {
	pe, ok := err.(*PipelineError)
	if !ok {
		return false
	}
	switch pe.Code {
	case ErrCodeInvalidCampaignWindow, ErrCodeInvalidInterval,
		ErrCodeWindowTooLarge, ErrCodeEmptyTemplateCatalog:
		return true
	}
	return false
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "WINDOW") || strings.Contains(codeStr, "INTERVAL") || strings.Contains(codeStr, "CATALOG") && strings.Contains(codeStr, "EMPTY"):
		return "VALIDATION"
	case strings.Contains(codeStr, "BACKEND"):
		return "BACKEND"
	case strings.Contains(codeStr, "RESPONSE"):
		return "PARSE"
	case strings.Contains(codeStr, "DANGLING") || strings.Contains(codeStr, "MISSING"):
		return "CONSISTENCY"
	default:
		return "INFRASTRUCTURE"
	}
}
