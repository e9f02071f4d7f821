package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	// ErrCodeCounterConflict is used when a document number allocation
	// exhausts its retries on a contended counter
	ErrCodeCounterConflict = "ERR_COUNTER_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeAlreadyConverted is used when converting a purchase order that
	// already has an invoice
	ErrCodeAlreadyConverted = "ERR_ALREADY_CONVERTED"
	// ErrCodeImmutableSource is used when editing or converting a closed document
	ErrCodeImmutableSource = "ERR_IMMUTABLE_SOURCE"
	// ErrCodeEmptySelection is used when a conversion selects no items
	ErrCodeEmptySelection = "ERR_EMPTY_SELECTION"
	// ErrCodeInvalidSelection is used when conversion item indexes are out of range
	ErrCodeInvalidSelection = "ERR_INVALID_SELECTION"
	// ErrCodeInvalidQuantity is used when an item quantity is not positive
	ErrCodeInvalidQuantity = "ERR_INVALID_QUANTITY"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeInvalidLegacySource is used when a migration names an unknown
	// legacy billing table
	ErrCodeInvalidLegacySource = "ERR_INVALID_LEGACY_SOURCE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManyRequests is an alias for rate limiting
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeCounterConflict:     http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:     http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:     http.StatusUnprocessableEntity,
	ErrCodeAlreadyConverted: http.StatusUnprocessableEntity,
	ErrCodeImmutableSource:  http.StatusUnprocessableEntity,
	ErrCodeEmptySelection:   http.StatusUnprocessableEntity,
	ErrCodeInvalidSelection: http.StatusUnprocessableEntity,
	ErrCodeInvalidQuantity:  http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidJSON:         http.StatusBadRequest,
	ErrCodeInvalidLegacySource: http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps bare domain error codes to the standardized
// ERR_ format used on the wire
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"INVALID_INPUT":         ErrCodeInvalidInput,
	"INVALID_STATE":         ErrCodeInvalidState,
	"UNAUTHORIZED":          ErrCodeUnauthorized,
	"FORBIDDEN":             ErrCodeForbidden,
	"CONCURRENCY_CONFLICT":  ErrCodeConcurrencyConflict,
	"COUNTER_CONFLICT":      ErrCodeCounterConflict,
	"ALREADY_CONVERTED":     ErrCodeAlreadyConverted,
	"IMMUTABLE_SOURCE":      ErrCodeImmutableSource,
	"EMPTY_SELECTION":       ErrCodeEmptySelection,
	"INVALID_SELECTION":     ErrCodeInvalidSelection,
	"INVALID_QUANTITY":      ErrCodeInvalidQuantity,
	"INVALID_LEGACY_SOURCE": ErrCodeInvalidLegacySource,
	"UNMAPPED_LEGACY_TYPE":  ErrCodeInvalidLegacySource,
	"VALIDATION_ERROR":      ErrCodeValidation,
	"BAD_REQUEST":           ErrCodeBadRequest,
	"INTERNAL_ERROR":        ErrCodeInternal,

	// Lookup failures on nested resources
	"ITEM_NOT_FOUND":   ErrCodeNotFound,
	"ENTRY_NOT_FOUND":  ErrCodeNotFound,
	"TENANT_NOT_FOUND": ErrCodeNotFound,

	// Conflicts
	"IDEMPOTENCY_CONFLICT": ErrCodeConflict,

	// Field-level domain validation -> 400
	"INVALID_DOCUMENT_KIND":   ErrCodeInvalidInput,
	"INVALID_VENDOR":          ErrCodeInvalidInput,
	"INVALID_COMPANY":         ErrCodeInvalidInput,
	"INVALID_BILLING_DETAILS": ErrCodeInvalidInput,
	"INVALID_CURRENCY":        ErrCodeInvalidInput,
	"INVALID_TAX":             ErrCodeInvalidInput,
	"INVALID_TAX_RATE":        ErrCodeInvalidInput,
	"INVALID_UNIT_PRICE":      ErrCodeInvalidInput,
	"INVALID_DESCRIPTION":     ErrCodeInvalidInput,
	"INVALID_DISCOUNT":        ErrCodeInvalidInput,
	"INVALID_PO_NUMBER":       ErrCodeInvalidInput,
	"INVALID_INVOICE_NUMBER":  ErrCodeInvalidInput,
	"INVALID_INVOICE":         ErrCodeInvalidInput,
	"INVALID_TENANT":          ErrCodeInvalidInput,
	"INVALID_ENTRY_TYPE":      ErrCodeInvalidInput,
	"INVALID_REVENUE_SOURCE":  ErrCodeInvalidInput,
	"INVALID_BACKLINK":        ErrCodeInvalidInput,
	"INVALID_COUNTER_VALUE":   ErrCodeInvalidInput,
	"INVALID_LEADING_ZEROS":   ErrCodeInvalidInput,
	"INVALID_NUMBER_FORMAT":   ErrCodeInvalidInput,

	// Infrastructure failures surface as internal errors
	"SAVE_FAILED":    ErrCodeInternal,
	"FETCH_FAILED":   ErrCodeInternal,
	"CLEANUP_FAILED": ErrCodeInternal,
}

// NormalizeErrorCode converts a bare domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
