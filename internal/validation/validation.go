// Package validation holds the field-level rules applied to agent, department
// and payment input before anything reaches the record store.
package validation

import (
	"math"
	"strings"
	"unicode/utf8"

	apperrors "github.com/spec-kit/paydesk/pkg/util/errorutil"
)

const (
	MaxLastNameLength       = 100
	MaxEmailLength          = 255
	MinCredentialLength     = 4
	MaxDepartmentNameLength = 100

	// MaxAmount is the payment ceiling, inclusive.
	MaxAmount = 9_999_999.0
)

// AgentInput carries the agent fields subject to validation.
type AgentInput struct {
	LastName   string
	FirstName  string
	Email      string
	Credential string
}

// Agent checks the agent fields in declaration order and returns the first failure.
func Agent(in AgentInput) error {
	if err := required("last_name", in.LastName); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.LastName) > MaxLastNameLength {
		return apperrors.NewInvalidInput("last_name", "longer than 100 characters")
	}
	if err := required("first_name", in.FirstName); err != nil {
		return err
	}
	if err := Email(in.Email); err != nil {
		return err
	}
	if err := required("credential", in.Credential); err != nil {
		return err
	}
	if utf8.RuneCountInString(in.Credential) < MinCredentialLength {
		return apperrors.NewInvalidInput("credential", "must be at least 4 characters")
	}
	return nil
}

// Email checks presence, length and the minimal shape of an address.
func Email(email string) error {
	if err := required("email", email); err != nil {
		return err
	}
	if utf8.RuneCountInString(email) > MaxEmailLength {
		return apperrors.NewInvalidInput("email", "longer than 255 characters")
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return apperrors.NewInvalidInput("email", "invalid format")
	}
	return nil
}

// DepartmentName checks a department name.
func DepartmentName(name string) error {
	if err := required("name", name); err != nil {
		return err
	}
	if utf8.RuneCountInString(name) > MaxDepartmentNameLength {
		return apperrors.NewInvalidInput("name", "longer than 100 characters")
	}
	return nil
}

// Amount enforces 0 < amount <= MaxAmount.
func Amount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return apperrors.NewInvalidInput("amount", "not a finite number")
	}
	if amount <= 0 {
		return apperrors.NewNegativeOrZeroAmount(amount)
	}
	if amount > MaxAmount {
		return apperrors.NewAmountTooLarge(amount, MaxAmount)
	}
	return nil
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewInvalidInput(field, "required")
	}
	return nil
}
