package domain

import (
	"strings"
	"time"
)

// PaymentType enumerates disbursement kinds.
type PaymentType string

const (
	PaymentSalary    PaymentType = "SALARY"
	PaymentBonus     PaymentType = "BONUS"
	PaymentIndemnity PaymentType = "INDEMNITY"
)

// PaymentTypes lists every known payment type in display order.
var PaymentTypes = []PaymentType{PaymentSalary, PaymentBonus, PaymentIndemnity}

// ParsePaymentType resolves a payment type name, case-insensitively.
func ParsePaymentType(s string) (PaymentType, bool) {
	t := PaymentType(strings.ToUpper(strings.TrimSpace(s)))
	return t, t.Valid()
}

// Valid reports whether t is a known payment type.
func (t PaymentType) Valid() bool {
	switch t {
	case PaymentSalary, PaymentBonus, PaymentIndemnity:
		return true
	}
	return false
}

// Discretionary reports whether the type requires a supervisory role and an approved condition.
func (t PaymentType) Discretionary() bool {
	return t == PaymentBonus || t == PaymentIndemnity
}

// Payment is a financial disbursement owned by one agent.
type Payment struct {
	ID                 string
	Type               PaymentType
	Amount             float64
	Reason             string
	Date               time.Time
	ConditionValidated bool
	AgentID            string
	CreatedAt          time.Time

	// Agent is resolved on read and never persisted.
	Agent *Agent
}

// CalendarDate truncates t to midnight UTC of its calendar day.
func CalendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
