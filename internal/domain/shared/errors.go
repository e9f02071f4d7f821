package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code, so callers can use errors.Is against
// the sentinel values below regardless of the wrapped message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Not authorized to perform this action")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Financial document engine errors
var (
	ErrAlreadyConverted = NewDomainError("ALREADY_CONVERTED", "Purchase order has already been converted to an invoice")
	ErrImmutableSource  = NewDomainError("IMMUTABLE_SOURCE", "Document is closed and can no longer be modified")
	ErrEmptySelection   = NewDomainError("EMPTY_SELECTION", "At least one line item must be selected")
	ErrInvalidSelection = NewDomainError("INVALID_SELECTION", "Selected line item indexes are invalid")
	ErrInvalidQuantity  = NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	ErrCounterConflict  = NewDomainError("COUNTER_CONFLICT", "Document counter was claimed by a concurrent allocation")
)
