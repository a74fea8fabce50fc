package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/events"
	"github.com/spec-kit/paydesk/internal/repository"
	"github.com/spec-kit/paydesk/internal/validation"
	apperrors "github.com/spec-kit/paydesk/pkg/util/errorutil"
)

// PaymentService owns payment admissibility and payment records.
type PaymentService struct {
	lookups
	publisher
	now func() time.Time
}

// PaymentInput describes payment creation and update payloads. A nil Date
// means today on create and the stored date on update.
type PaymentInput struct {
	Type               domain.PaymentType
	Amount             float64
	Reason             string
	ConditionValidated bool
	Date               *time.Time
}

// NewPaymentService constructs the service.
func NewPaymentService(deps Dependencies) *PaymentService {
	return &PaymentService{
		lookups: lookups{
			agents:      deps.AgentRepo,
			departments: deps.DepartmentRepo,
			payments:    deps.PaymentRepo,
		},
		publisher: newPublisher(deps),
		now:       time.Now,
	}
}

// CheckEligibility applies the payment policy: salaries are always admissible,
// bonuses and indemnities need a supervisory role and a validated condition.
func CheckEligibility(agent *domain.Agent, paymentType domain.PaymentType, conditionValidated bool) error {
	if !paymentType.Discretionary() {
		return nil
	}
	details := map[string]any{
		"agent_id":            agent.ID,
		"role":                agent.Role,
		"type":                paymentType,
		"condition_validated": conditionValidated,
	}
	if !agent.Role.Supervisory() {
		return apperrors.NewIneligiblePayment(
			fmt.Sprintf("%s payments require a department head or director, agent is %s", paymentType, agent.Role), details)
	}
	if !conditionValidated {
		return apperrors.NewIneligiblePayment(
			fmt.Sprintf("%s payments require a validated condition", paymentType), details)
	}
	return nil
}

// CreatePayment records a payment for agentID.
func (s *PaymentService) CreatePayment(ctx context.Context, agentID string, input PaymentInput) (*domain.Payment, error) {
	agent, err := s.agent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if err := s.admit(agent, input); err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		Type:               input.Type,
		Amount:             input.Amount,
		Reason:             strings.TrimSpace(input.Reason),
		Date:               s.effectiveDate(input.Date),
		ConditionValidated: input.ConditionValidated,
		AgentID:            agent.ID,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	payment.Agent = agent

	s.publishEvent(ctx, "payment", "create", events.Event{
		Type:     events.EventPaymentRecorded,
		EntityID: payment.ID,
		Payload:  paymentPayload(payment),
	})
	return payment, nil
}

// UpdatePayment replaces a payment's fields. The owning agent never changes
// and the policy is re-checked against the new values. A nil Date keeps the
// stored date.
func (s *PaymentService) UpdatePayment(ctx context.Context, id string, input PaymentInput) (*domain.Payment, error) {
	payment, err := s.payment(ctx, id)
	if err != nil {
		return nil, err
	}
	agent, err := s.agent(ctx, payment.AgentID)
	if err != nil {
		return nil, err
	}
	if err := s.admit(agent, input); err != nil {
		return nil, err
	}

	payment.Type = input.Type
	payment.Amount = input.Amount
	payment.Reason = strings.TrimSpace(input.Reason)
	if input.Date != nil {
		payment.Date = domain.CalendarDate(*input.Date)
	}
	payment.ConditionValidated = input.ConditionValidated
	if err := s.payments.Update(ctx, payment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewPaymentNotFound(id)
		}
		return nil, fmt.Errorf("update payment %s: %w", id, err)
	}
	payment.Agent = agent

	s.publishEvent(ctx, "payment", "update", events.Event{
		Type:     events.EventPaymentUpdated,
		EntityID: id,
		Payload:  paymentPayload(payment),
	})
	return payment, nil
}

// DeletePayment removes a payment.
func (s *PaymentService) DeletePayment(ctx context.Context, id string) error {
	if _, err := s.payment(ctx, id); err != nil {
		return err
	}
	if err := s.payments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewPaymentNotFound(id)
		}
		return fmt.Errorf("delete payment %s: %w", id, err)
	}
	s.publishEvent(ctx, "payment", "delete", events.Event{Type: events.EventPaymentDeleted, EntityID: id})
	return nil
}

// GetPayment returns a payment with its owning agent resolved.
func (s *PaymentService) GetPayment(ctx context.Context, id string) (*domain.Payment, error) {
	payment, err := s.payment(ctx, id)
	if err != nil {
		return nil, err
	}
	agent, err := s.agent(ctx, payment.AgentID)
	if err != nil {
		return nil, err
	}
	payment.Agent = agent
	return payment, nil
}

// ListPayments returns every payment in creation order.
func (s *PaymentService) ListPayments(ctx context.Context) ([]domain.Payment, error) {
	payments, err := s.payments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// ListByAgent returns an agent's payments.
func (s *PaymentService) ListByAgent(ctx context.Context, agentID string) ([]domain.Payment, error) {
	if _, err := s.agent(ctx, agentID); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("list payments of %s: %w", agentID, err)
	}
	return payments, nil
}

// ListByType returns the payments of one type.
func (s *PaymentService) ListByType(ctx context.Context, paymentType domain.PaymentType) ([]domain.Payment, error) {
	if !paymentType.Valid() {
		return nil, apperrors.NewInvalidInput("type", fmt.Sprintf("unknown payment type %q", paymentType))
	}
	payments, err := s.payments.ListByType(ctx, paymentType)
	if err != nil {
		return nil, fmt.Errorf("list payments by type: %w", err)
	}
	return payments, nil
}

// ListByDateRange returns payments dated within [start, end]. An end before
// start yields an empty result.
func (s *PaymentService) ListByDateRange(ctx context.Context, start, end time.Time) ([]domain.Payment, error) {
	return paymentsBetween(ctx, s.payments, start, end)
}

// TotalByAgent sums an agent's payments.
func (s *PaymentService) TotalByAgent(ctx context.Context, agentID string) (float64, error) {
	payments, err := s.ListByAgent(ctx, agentID)
	if err != nil {
		return 0, err
	}
	return sumAmounts(payments), nil
}

// AverageByAgent averages an agent's payments; 0 when there are none.
func (s *PaymentService) AverageByAgent(ctx context.Context, agentID string) (float64, error) {
	payments, err := s.ListByAgent(ctx, agentID)
	if err != nil {
		return 0, err
	}
	if len(payments) == 0 {
		return 0, nil
	}
	return sumAmounts(payments) / float64(len(payments)), nil
}

// admit runs the amount and eligibility checks shared by create and update.
func (s *PaymentService) admit(agent *domain.Agent, input PaymentInput) error {
	err := s.checkInput(agent, input)
	if err != nil {
		code := apperrors.CodeInternal
		var domainErr *apperrors.DomainError
		if errors.As(err, &domainErr) {
			code = domainErr.Code
		}
		s.metrics.RecordPaymentRejection(code)
	}
	return err
}

func (s *PaymentService) checkInput(agent *domain.Agent, input PaymentInput) error {
	if !input.Type.Valid() {
		return apperrors.NewInvalidInput("type", fmt.Sprintf("unknown payment type %q", input.Type))
	}
	if err := validation.Amount(input.Amount); err != nil {
		return err
	}
	return CheckEligibility(agent, input.Type, input.ConditionValidated)
}

func (s *PaymentService) effectiveDate(date *time.Time) time.Time {
	if date == nil {
		return domain.CalendarDate(s.now())
	}
	return domain.CalendarDate(*date)
}

func paymentsBetween(ctx context.Context, repo repository.PaymentRepository, start, end time.Time) ([]domain.Payment, error) {
	if domain.CalendarDate(end).Before(domain.CalendarDate(start)) {
		return []domain.Payment{}, nil
	}
	payments, err := repo.ListByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list payments by date: %w", err)
	}
	return payments, nil
}

func paymentPayload(p *domain.Payment) events.PaymentPayload {
	return events.PaymentPayload{AgentID: p.AgentID, Type: p.Type, Amount: p.Amount, Date: p.Date}
}
