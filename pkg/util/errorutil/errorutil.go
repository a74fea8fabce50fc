package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes surfaced by the core.
const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeDuplicateEmail       = "DUPLICATE_EMAIL"
	CodeDuplicateName        = "DUPLICATE_NAME"
	CodeAgentNotFound        = "AGENT_NOT_FOUND"
	CodeDepartmentNotFound   = "DEPARTMENT_NOT_FOUND"
	CodePaymentNotFound      = "PAYMENT_NOT_FOUND"
	CodeNegativeOrZeroAmount = "NEGATIVE_OR_ZERO_AMOUNT"
	CodeAmountTooLarge       = "AMOUNT_TOO_LARGE"
	CodeIneligiblePayment    = "INELIGIBLE_PAYMENT"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeNotAuthenticated     = "NOT_AUTHENTICATED"
	CodeInternal             = "INTERNAL_ERROR"
)

// Sentinels for errors.Is; any DomainError carrying the same code matches.
var (
	ErrInvalidInput         = &DomainError{Code: CodeInvalidInput, Message: "invalid input"}
	ErrDuplicateEmail       = &DomainError{Code: CodeDuplicateEmail, Message: "email already used"}
	ErrDuplicateName        = &DomainError{Code: CodeDuplicateName, Message: "name already used"}
	ErrAgentNotFound        = &DomainError{Code: CodeAgentNotFound, Message: "agent not found"}
	ErrDepartmentNotFound   = &DomainError{Code: CodeDepartmentNotFound, Message: "department not found"}
	ErrPaymentNotFound      = &DomainError{Code: CodePaymentNotFound, Message: "payment not found"}
	ErrNegativeOrZeroAmount = &DomainError{Code: CodeNegativeOrZeroAmount, Message: "amount must be positive"}
	ErrAmountTooLarge       = &DomainError{Code: CodeAmountTooLarge, Message: "amount too large"}
	ErrIneligiblePayment    = &DomainError{Code: CodeIneligiblePayment, Message: "payment not eligible"}
	ErrInvalidCredentials   = &DomainError{Code: CodeInvalidCredentials, Message: "invalid email or credential"}
	ErrNotAuthenticated     = &DomainError{Code: CodeNotAuthenticated, Message: "no active session"}
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewInvalidInput reports a field-level validation failure.
func NewInvalidInput(field, reason string) error {
	return NewDomainError(CodeInvalidInput, fmt.Sprintf("%s: %s", field, reason), http.StatusBadRequest,
		map[string]any{"field": field})
}

func NewDuplicateEmail(email string) error {
	return NewDomainError(CodeDuplicateEmail, fmt.Sprintf("email already used: %s", email), http.StatusConflict,
		map[string]any{"email": email})
}

func NewDuplicateName(name string) error {
	return NewDomainError(CodeDuplicateName, fmt.Sprintf("department name already used: %s", name), http.StatusConflict,
		map[string]any{"name": name})
}

func newNotFound(code, resource, id string) error {
	return &DomainError{
		Code:       code,
		Message:    fmt.Sprintf("%s not found (id=%s)", resource, id),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"id": id},
	}
}

func NewAgentNotFound(id string) error {
	return newNotFound(CodeAgentNotFound, "agent", id)
}

func NewDepartmentNotFound(id string) error {
	return newNotFound(CodeDepartmentNotFound, "department", id)
}

func NewPaymentNotFound(id string) error {
	return newNotFound(CodePaymentNotFound, "payment", id)
}

func NewNegativeOrZeroAmount(amount float64) error {
	msg := "amount cannot be negative"
	if amount == 0 {
		msg = "amount cannot be zero"
	}
	return NewDomainError(CodeNegativeOrZeroAmount, msg, http.StatusUnprocessableEntity,
		map[string]any{"amount": amount})
}

func NewAmountTooLarge(amount, ceiling float64) error {
	return NewDomainError(CodeAmountTooLarge, fmt.Sprintf("amount exceeds limit of %.2f", ceiling),
		http.StatusUnprocessableEntity, map[string]any{"amount": amount, "limit": ceiling})
}

// NewIneligiblePayment reports a type/role/condition combination that cannot be paid.
func NewIneligiblePayment(reason string, details map[string]any) error {
	return NewDomainError(CodeIneligiblePayment, reason, http.StatusUnprocessableEntity, details)
}

func NewInvalidCredentials() error {
	return NewDomainError(CodeInvalidCredentials, ErrInvalidCredentials.Message, http.StatusUnauthorized, nil)
}

func NewNotAuthenticated() error {
	return NewDomainError(CodeNotAuthenticated, ErrNotAuthenticated.Message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// FromHTTPStatus wraps a transport-level failure, such as an unmatched route,
// keeping its status. The code is the upper-snake status text, e.g. NOT_FOUND.
func FromHTTPStatus(status int, message string) *DomainError {
	text := http.StatusText(status)
	if text == "" {
		return &DomainError{Code: CodeInternal, Message: "internal server error", HTTPStatus: http.StatusInternalServerError}
	}
	if message == "" {
		message = text
	}
	return &DomainError{
		Code:       strings.ToUpper(strings.ReplaceAll(text, " ", "_")),
		Message:    message,
		HTTPStatus: status,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		if domainErr.HTTPStatus == 0 {
			return &DomainError{
				Code:       domainErr.Code,
				Message:    domainErr.Message,
				HTTPStatus: http.StatusBadRequest,
				Details:    domainErr.Details,
				Err:        domainErr.Err,
			}
		}
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
