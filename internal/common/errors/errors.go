// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Input / request errors. Never retried.
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodeLocationMissing       ErrorCode = "LOCATION_MISSING"

	// Lookup errors. The caller decides create-if-absent vs. surface.
	ErrCodeGroupProfileNotFound     ErrorCode = "GROUP_PROFILE_NOT_FOUND"
	ErrCodeMemberPreferenceNotFound ErrorCode = "MEMBER_PREFERENCE_NOT_FOUND"

	// Injected capability errors. The core degrades instead of failing.
	ErrCodeSearchCapabilityUnavailable     ErrorCode = "SEARCH_CAPABILITY_UNAVAILABLE"
	ErrCodeCompletionCapabilityUnavailable ErrorCode = "COMPLETION_CAPABILITY_UNAVAILABLE"
	ErrCodeSearchTimeout                   ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeCompletionTimeout               ErrorCode = "COMPLETION_TIMEOUT"

	// Workflow broker errors.
	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeBrokerTimeout     ErrorCode = "BROKER_TIMEOUT"

	// Storage errors.
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeProfileLoadFailed        ErrorCode = "PROFILE_LOAD_FAILED"
	ErrCodeProfileSaveFailed        ErrorCode = "PROFILE_SAVE_FAILED"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeIndexQueryFailed         ErrorCode = "INDEX_QUERY_FAILED"

	// Analysis outcomes. Informational; converted to fallback records,
	// never thrown to the workflow.
	ErrCodeAnalysisFallback ErrorCode = "ANALYSIS_FALLBACK"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches contextual key/values to the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// IsNotFound reports whether the error is one of the lookup conditions.
func IsNotFound(err error) bool {
	stdErr, ok := err.(*StandardError)
	if !ok {
		return false
	}
	return stdErr.Code == ErrCodeGroupProfileNotFound || stdErr.Code == ErrCodeMemberPreferenceNotFound
}

// IsCapabilityUnavailable reports whether the error came from an injected
// capability. Callers take the documented degrade path instead of failing.
func IsCapabilityUnavailable(err error) bool {
	stdErr, ok := err.(*StandardError)
	if !ok {
		return false
	}
	switch stdErr.Code {
	case ErrCodeSearchCapabilityUnavailable,
		ErrCodeCompletionCapabilityUnavailable,
		ErrCodeSearchTimeout,
		ErrCodeCompletionTimeout:
		return true
	}
	return false
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// BPMNErrorMapping maps internal error codes to the codes BPMN boundary
// events catch.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputValidationFailed:           "VALIDATION_ERROR",
	ErrCodeLocationMissing:                 "VALIDATION_ERROR",
	ErrCodeGroupProfileNotFound:            "NOT_FOUND",
	ErrCodeMemberPreferenceNotFound:        "NOT_FOUND",
	ErrCodeSearchCapabilityUnavailable:     "CAPABILITY_ERROR",
	ErrCodeCompletionCapabilityUnavailable: "CAPABILITY_ERROR",
	ErrCodeSearchTimeout:                   "CAPABILITY_ERROR",
	ErrCodeCompletionTimeout:               "CAPABILITY_ERROR",
	ErrCodeBrokerUnavailable:               "BROKER_ERROR",
	ErrCodeBrokerTimeout:                   "BROKER_ERROR",
	ErrCodeDatabaseConnectionFailed:        "STORAGE_ERROR",
	ErrCodeProfileLoadFailed:               "STORAGE_ERROR",
	ErrCodeProfileSaveFailed:               "STORAGE_ERROR",
	ErrCodeCacheUnavailable:                "STORAGE_ERROR",
	ErrCodeIndexQueryFailed:                "STORAGE_ERROR",
}

// ==========================
// 3. Error Constructors
// ==========================

// NewInputValidationError creates a non-retryable request validation error.
func NewInputValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInputValidationFailed,
		Message:   "Request input validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLocationMissingError creates a non-retryable error for scoring/search
// requests that carry neither a location name nor coordinates.
func NewLocationMissingError() *StandardError {
	return &StandardError{
		Code:      ErrCodeLocationMissing,
		Message:   "Either a location name or latitude/longitude is required",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGroupProfileNotFoundError creates a non-retryable lookup error.
func NewGroupProfileNotFoundError(groupID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeGroupProfileNotFound,
		Message:   "Group profile not found",
		Details:   fmt.Sprintf("groupId: %s", groupID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMemberPreferenceNotFoundError creates a non-retryable lookup error.
func NewMemberPreferenceNotFoundError(groupID, userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMemberPreferenceNotFound,
		Message:   "Member preference not found in group",
		Details:   fmt.Sprintf("groupId: %s, userId: %s", groupID, userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchCapabilityError creates a retryable restaurant-search capability error.
func NewSearchCapabilityError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchCapabilityUnavailable,
		Message:   "Restaurant search capability unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Restaurant search timed out",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCompletionCapabilityError creates a retryable text-completion capability error.
func NewCompletionCapabilityError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCompletionCapabilityUnavailable,
		Message:   "Text completion capability unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCompletionTimeoutError creates a retryable completion timeout error.
func NewCompletionTimeoutError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCompletionTimeout,
		Message:   "Text completion timed out",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBrokerUnavailableError creates a retryable workflow broker error.
func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrokerUnavailable,
		Message:   "Workflow broker unavailable",
		Details:   fmt.Sprintf("operation: %s: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewBrokerTimeoutError creates a retryable broker timeout error.
func NewBrokerTimeoutError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeBrokerTimeout,
		Message:   "Workflow broker request timed out",
		Details:   fmt.Sprintf("operation: %s: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Failed to connect to database",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileLoadFailedError creates a retryable profile read error.
func NewProfileLoadFailedError(groupID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileLoadFailed,
		Message:   "Failed to load group profile",
		Details:   fmt.Sprintf("groupId: %s: %s", groupID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileSaveFailedError creates a retryable profile write error.
func NewProfileSaveFailedError(groupID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileSaveFailed,
		Message:   "Failed to persist group profile",
		Details:   fmt.Sprintf("groupId: %s: %s", groupID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache error. Reads fall
// through to the database when this occurs.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Profile cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexQueryFailedError creates a retryable local restaurant index error.
func NewIndexQueryFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexQueryFailed,
		Message:   "Restaurant index query failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisFallbackError records why a message analysis degraded to the
// zero-relevance fallback. It is logged, never thrown.
func NewAnalysisFallbackError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisFallback,
		Message:   "Message analysis degraded to fallback result",
		Details:   fmt.Sprintf("stage: %s: %s", stage, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Retry Policy
// ==========================

// GetRetryCount returns the retry budget for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeProfileLoadFailed,
		ErrCodeProfileSaveFailed,
		ErrCodeIndexQueryFailed,
		ErrCodeBrokerUnavailable,
		ErrCodeBrokerTimeout:
		return 3 // Retryable technical errors

	case ErrCodeSearchTimeout,
		ErrCodeCompletionTimeout,
		ErrCodeCacheUnavailable:
		return 2 // Partial retry for timeouts

	case ErrCodeSearchCapabilityUnavailable,
		ErrCodeCompletionCapabilityUnavailable:
		return 1 // One retry, then the degrade path takes over

	default:
		return 0 // Validation and lookup errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "MISSING"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	case strings.Contains(codeStr, "CAPABILITY") || strings.Contains(codeStr, "TIMEOUT"):
		return "CAPABILITY"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "PROFILE") ||
		strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "INDEX"):
		return "STORAGE"
	case strings.Contains(codeStr, "ANALYSIS"):
		return "ANALYSIS"
	default:
		return "OTHER"
	}
}
