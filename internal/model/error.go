package model

import (
	"errors"
	"fmt"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeMissingField     = "MISSING_FIELD"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeEmptyCart        = "EMPTY_CART"
	ErrCodeNoPaymentMethod  = "NO_PAYMENT_METHOD"
	ErrCodeUnknownMethod    = "UNKNOWN_PAYMENT_METHOD"
	ErrCodeMissingProof     = "MISSING_PROOF"
	ErrCodeInvalidProof     = "INVALID_PROOF"
	ErrCodeInvalidQuantity  = "INVALID_QUANTITY"
	ErrCodeCrossShopItem    = "CROSS_SHOP_ITEM"
	ErrCodeInvalidState     = "INVALID_CHECKOUT_STATE"
	ErrCodeSubmitInFlight   = "SUBMIT_IN_FLIGHT"
	ErrCodeItemNotFound     = "ITEM_NOT_FOUND"
	ErrCodeOrderNotFound    = "ORDER_NOT_FOUND"
	ErrCodeNoPaymentInfo    = "NO_PAYMENT_INFO"
	ErrCodeInvalidStatus    = "INVALID_STATUS"
	ErrCodeNoShopSelected   = "NO_SHOP_SELECTED"
	ErrCodeNotAuthenticated = "NOT_AUTHENTICATED"
	ErrCodeUpload           = "UPLOAD_ERROR"
	ErrCodeSubmission       = "SUBMISSION_ERROR"
	ErrCodeFetch            = "FETCH_ERROR"
	ErrCodeUpdate           = "UPDATE_ERROR"
	ErrCodeNoShops          = "NO_SHOPS"
	ErrCodeChannel          = "CHANNEL_ERROR"
	ErrCodeUnauthorised     = "UNAUTHORIZED"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// DomainError is a local, pre-network failure. It blocks the action that
// raised it and never leaves partial state behind.
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

// Validation errors
var (
	ErrEmptyCart        = NewDomainError(ErrCodeEmptyCart, "Your cart is empty")
	ErrNoPaymentMethod  = NewDomainError(ErrCodeNoPaymentMethod, "Please select a payment method")
	ErrUnknownMethod    = NewDomainError(ErrCodeUnknownMethod, "Payment method is not offered by this shop")
	ErrMissingProof     = NewDomainError(ErrCodeMissingProof, "Please upload a payment screenshot")
	ErrInvalidProof     = NewDomainError(ErrCodeInvalidProof, "Payment screenshot must be an image of at most 10 MiB")
	ErrInvalidQuantity  = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be a whole number")
	ErrCrossShopItem    = NewDomainError(ErrCodeCrossShopItem, "Cart already holds items from another shop")
	ErrNotAwaitingProof = NewDomainError(ErrCodeInvalidState, "Checkout has not been started")
	ErrSubmitInFlight   = NewDomainError(ErrCodeSubmitInFlight, "Order submission already in progress")
	ErrItemNotFound     = NewDomainError(ErrCodeItemNotFound, "Menu item not found in the selected shop")
	ErrOrderNotFound    = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrNoPaymentInfo    = NewDomainError(ErrCodeNoPaymentInfo, "Payment information not found")
	ErrInvalidStatus    = NewDomainError(ErrCodeInvalidStatus, "Unknown status value")
	ErrNoShopSelected   = NewDomainError(ErrCodeNoShopSelected, "No shop selected")
	ErrNotAuthenticated = NewDomainError(ErrCodeNotAuthenticated, "No active session")
	ErrNoShops          = NewDomainError(ErrCodeNoShops, "No shops are registered for this account")
)

// OperationError wraps a network-originated failure with the taxonomy code of
// the operation that failed. The cause stays reachable through errors.Is/As.
type OperationError struct {
	Code string
	Op   string
	Err  error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewUploadError reports a failed proof-image upload.
func NewUploadError(err error) error {
	return &OperationError{Code: ErrCodeUpload, Op: "upload payment screenshot", Err: err}
}

// NewSubmissionError reports a failed or rejected verify-and-create request.
func NewSubmissionError(err error) error {
	return &OperationError{Code: ErrCodeSubmission, Op: "verify payment and create order", Err: err}
}

// NewFetchError reports a failed read of catalog, orders or payment info.
func NewFetchError(what string, err error) error {
	return &OperationError{Code: ErrCodeFetch, Op: "fetch " + what, Err: err}
}

// NewUpdateError reports a rejected owner-side status change.
func NewUpdateError(what string, err error) error {
	return &OperationError{Code: ErrCodeUpdate, Op: "update " + what, Err: err}
}

// NewChannelError reports a push channel failure.
func NewChannelError(err error) error {
	return &OperationError{Code: ErrCodeChannel, Op: "live channel", Err: err}
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// CodeOf returns the taxonomy code carried by err, or ErrCodeInternalError.
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Code
	}
	return ErrCodeInternalError
}
