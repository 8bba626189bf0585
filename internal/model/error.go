package model

// ErrorResponse represents the error body returned by the Booksy backend.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for client-side failures
const (
	ErrCodeNotLoggedIn     = "NOT_LOGGED_IN"
	ErrCodeBookNotFound    = "BOOK_NOT_FOUND"
	ErrCodeNoBookLoaded    = "NO_BOOK_LOADED"
	ErrCodeInvalidQuantity = "INVALID_QUANTITY"
	ErrCodeEmptyCart       = "EMPTY_CART"
	ErrCodeValidation      = "VALIDATION_FAILED"
	ErrCodeOrderRejected   = "ORDER_REJECTED"
	ErrCodeCountryNotFound = "COUNTRY_NOT_FOUND"
	ErrCodeNoLocation      = "NO_LOCATION"
)

// Domain errors for business logic
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
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
	ErrNotLoggedIn     = NewDomainError(ErrCodeNotLoggedIn, "No active session")
	ErrBookNotFound    = NewDomainError(ErrCodeBookNotFound, "Book not found")
	ErrNoBookLoaded    = NewDomainError(ErrCodeNoBookLoaded, "No book is loaded")
	ErrInvalidQuantity = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrEmptyCart       = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
	ErrValidation      = NewDomainError(ErrCodeValidation, "Form has invalid fields")
	ErrOrderRejected   = NewDomainError(ErrCodeOrderRejected, "Order was rejected by the server")
	ErrCountryNotFound = NewDomainError(ErrCodeCountryNotFound, "Country not found")
	ErrNoLocation      = NewDomainError(ErrCodeNoLocation, "Location unavailable")
)
