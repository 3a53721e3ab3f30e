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

// Planning pipeline errors
const (
	ErrCodeEmptyGroup             ErrorCode = "EMPTY_GROUP"
	ErrCodeMissingBudget          ErrorCode = "MISSING_BUDGET"
	ErrCodeInvalidPlanningRequest ErrorCode = "INVALID_PLANNING_REQUEST"

	ErrCodeNoCommonWindow         ErrorCode = "NO_COMMON_WINDOW"
	ErrCodeNoCityQualified        ErrorCode = "NO_CITY_QUALIFIED"
	ErrCodeNoQualifyingActivities ErrorCode = "NO_QUALIFYING_ACTIVITIES"

	ErrCodeRerankTimeout       ErrorCode = "RERANK_TIMEOUT"
	ErrCodeRerankMalformed     ErrorCode = "RERANK_MALFORMED"
	ErrCodeRerankRequestFailed ErrorCode = "RERANK_REQUEST_FAILED"

	ErrCodeFlightSearchFailed ErrorCode = "FLIGHT_SEARCH_FAILED"
	ErrCodeHotelSearchFailed  ErrorCode = "HOTEL_SEARCH_FAILED"

	ErrCodeCatalogLoadFailed ErrorCode = "CATALOG_LOAD_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
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

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewEmptyGroupError signals a planning request with no travelers.
func NewEmptyGroupError() *StandardError {
	return &StandardError{
		Code:      ErrCodeEmptyGroup,
		Message:   "Planning request contains no travelers",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingBudgetError signals a traveler without a positive budget.
func NewMissingBudgetError(travelerID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingBudget,
		Message:   "Traveler has no usable budget",
		Details:   fmt.Sprintf("travelerId: %s", travelerID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPlanningRequestError creates a non-retryable request validation error.
func NewInvalidPlanningRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPlanningRequest,
		Message:   "Planning request failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoCommonWindowError signals that no traveler proposed a travel window.
func NewNoCommonWindowError(totalTravelers int) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoCommonWindow,
		Message:   "No travel window proposed by any traveler",
		Details:   fmt.Sprintf("totalTravelers: %d", totalTravelers),
		Retryable: false,
		Metadata:  map[string]interface{}{"totalTravelers": totalTravelers},
		Timestamp: time.Now().UTC(),
	}
}

// NewNoCityQualifiedError signals that no city passed the minimum sample gate.
func NewNoCityQualifiedError(minActivities int) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoCityQualified,
		Message:   "No city has enough catalog activities to score",
		Details:   fmt.Sprintf("minActivities: %d", minActivities),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNoQualifyingActivitiesError signals an empty activity set after quality gates.
func NewNoQualifyingActivitiesError(city string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNoQualifyingActivities,
		Message:   "No activities passed the quality gates",
		Details:   fmt.Sprintf("city: %s", city),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRerankTimeoutError creates a retryable re-rank timeout error.
func NewRerankTimeoutError(travelerID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRerankTimeout,
		Message:   "Re-ranker call timed out",
		Details:   fmt.Sprintf("travelerId: %s", travelerID),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRerankMalformedError creates a non-retryable malformed response error.
func NewRerankMalformedError(travelerID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRerankMalformed,
		Message:   "Re-ranker returned a malformed response",
		Details:   fmt.Sprintf("travelerId: %s, error: %s", travelerID, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRerankRequestFailedError creates a retryable re-rank transport error.
func NewRerankRequestFailedError(travelerID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRerankRequestFailed,
		Message:   "Re-ranker request failed",
		Details:   fmt.Sprintf("travelerId: %s, error: %s", travelerID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewFlightSearchFailedError creates a retryable flight search error.
func NewFlightSearchFailedError(origin, destination string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFlightSearchFailed,
		Message:   "Flight search request failed",
		Details:   fmt.Sprintf("route: %s-%s, error: %s", origin, destination, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewHotelSearchFailedError creates a retryable hotel search error.
func NewHotelSearchFailedError(city string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeHotelSearchFailed,
		Message:   "Hotel search request failed",
		Details:   fmt.Sprintf("city: %s, error: %s", city, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogLoadFailedError creates a retryable catalog load error.
func NewCatalogLoadFailedError(source string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogLoadFailed,
		Message:   "Activity catalog could not be loaded",
		Details:   fmt.Sprintf("source: %s, error: %s", source, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchQueryFailed,
		Message:   "Elasticsearch query error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Elasticsearch query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes (same as internal).
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeEmptyGroup:                    "EMPTY_GROUP",
	ErrCodeMissingBudget:                 "MISSING_BUDGET",
	ErrCodeInvalidPlanningRequest:        "INVALID_PLANNING_REQUEST",
	ErrCodeNoCommonWindow:                "NO_COMMON_WINDOW",
	ErrCodeNoCityQualified:               "NO_CITY_QUALIFIED",
	ErrCodeNoQualifyingActivities:        "NO_QUALIFYING_ACTIVITIES",
	ErrCodeRerankTimeout:                 "RERANK_TIMEOUT",
	ErrCodeRerankMalformed:               "RERANK_MALFORMED",
	ErrCodeRerankRequestFailed:           "RERANK_REQUEST_FAILED",
	ErrCodeFlightSearchFailed:            "FLIGHT_SEARCH_FAILED",
	ErrCodeHotelSearchFailed:             "HOTEL_SEARCH_FAILED",
	ErrCodeCatalogLoadFailed:             "CATALOG_LOAD_FAILED",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchQueryFailed:             "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:                 "SEARCH_TIMEOUT",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogLoadFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeFlightSearchFailed,
		ErrCodeHotelSearchFailed,
		ErrCodeNotificationSendFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout:
		return 2 // Partial retry for timeouts

	case ErrCodeRerankTimeout,
		ErrCodeRerankRequestFailed:
		return 1 // Engine-level retry only; handlers never retry internally

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
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
	case strings.Contains(codeStr, "GROUP") || strings.Contains(codeStr, "BUDGET") || strings.Contains(codeStr, "REQUEST"):
		return "INPUT"
	case strings.Contains(codeStr, "WINDOW") || strings.Contains(codeStr, "CITY") || strings.Contains(codeStr, "ACTIVITIES"):
		return "DATA"
	case strings.Contains(codeStr, "RERANK"):
		return "AI"
	case strings.Contains(codeStr, "FLIGHT") || strings.Contains(codeStr, "HOTEL"):
		return "PRICING"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "CATALOG"):
		return "DATABASE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
