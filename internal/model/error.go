package model

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeEmptyCart       = "EMPTY_CART"
	ErrCodeProductNotFound = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound   = "ORDER_NOT_FOUND"
	ErrCodeOutOfStock      = "OUT_OF_STOCK"
	ErrCodeInvalidQuantity = "INVALID_QUANTITY"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeAlreadyPaid     = "ALREADY_PAID"
	ErrCodeInvalidState    = "INVALID_STATE"
	ErrCodeBadSignature    = "INVALID_SIGNATURE"
	ErrCodeUnauthorised    = "UNAUTHORIZED"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// DomainError carries a stable code alongside a human-readable message so
// handlers can translate business failures to HTTP statuses without string
// matching.
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
	ErrEmptyCart        = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
	ErrProductNotFound  = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrOrderNotFound    = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrOutOfStock       = NewDomainError(ErrCodeOutOfStock, "Insufficient stock for one or more products")
	ErrInvalidQuantity  = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrForbidden        = NewDomainError(ErrCodeForbidden, "Access denied")
	ErrAlreadyPaid      = NewDomainError(ErrCodeAlreadyPaid, "Order has already been paid")
	ErrInvalidState     = NewDomainError(ErrCodeInvalidState, "Cannot cancel shipped or delivered order")
	ErrBadTransition    = NewDomainError(ErrCodeInvalidState, "Illegal order status transition")
	ErrInvalidSignature = NewDomainError(ErrCodeBadSignature, "Invalid webhook signature")
)
