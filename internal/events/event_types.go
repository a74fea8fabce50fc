package events

import (
	"time"

	"github.com/spec-kit/paydesk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventAgentCreated                 EventType = "agent.created"
	EventAgentUpdated                 EventType = "agent.updated"
	EventAgentDeleted                 EventType = "agent.deleted"
	EventAgentAffiliationChanged      EventType = "agent.affiliation_changed"
	EventDepartmentCreated            EventType = "department.created"
	EventDepartmentUpdated            EventType = "department.updated"
	EventDepartmentDeleted            EventType = "department.deleted"
	EventDepartmentResponsibleChanged EventType = "department.responsible_changed"
	EventPaymentRecorded              EventType = "payment.recorded"
	EventPaymentUpdated               EventType = "payment.updated"
	EventPaymentDeleted               EventType = "payment.deleted"
	EventSessionStarted               EventType = "session.started"
	EventSessionEnded                 EventType = "session.ended"
)

// AllEventTypes lists every type the audit trail subscribes to.
var AllEventTypes = []EventType{
	EventAgentCreated,
	EventAgentUpdated,
	EventAgentDeleted,
	EventAgentAffiliationChanged,
	EventDepartmentCreated,
	EventDepartmentUpdated,
	EventDepartmentDeleted,
	EventDepartmentResponsibleChanged,
	EventPaymentRecorded,
	EventPaymentUpdated,
	EventPaymentDeleted,
	EventSessionStarted,
	EventSessionEnded,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// AffiliationChangedPayload payload.
type AffiliationChangedPayload struct {
	OldDepartmentID *string `json:"old_department_id,omitempty"`
	NewDepartmentID *string `json:"new_department_id,omitempty"`
}

// ResponsibleChangedPayload payload.
type ResponsibleChangedPayload struct {
	OldResponsibleID *string `json:"old_responsible_id,omitempty"`
	NewResponsibleID *string `json:"new_responsible_id,omitempty"`
}

// DepartmentDeletedPayload payload.
type DepartmentDeletedPayload struct {
	DetachedAgentIDs []string `json:"detached_agent_ids,omitempty"`
}

// PaymentPayload payload.
type PaymentPayload struct {
	AgentID string             `json:"agent_id"`
	Type    domain.PaymentType `json:"type"`
	Amount  float64            `json:"amount"`
	Date    time.Time          `json:"date"`
}
