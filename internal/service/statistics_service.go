package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/observability"
)

// StatisticsService aggregates over the payment history. It never writes.
// Aggregates are built from independent scans and are not snapshot-consistent
// with concurrent writes.
type StatisticsService struct {
	lookups
	metrics *observability.Metrics
	fanout  int
}

// RankedAgent pairs an agent with the sum of its payments.
type RankedAgent struct {
	Agent domain.Agent
	Total float64
}

// NewStatisticsService constructs the service.
func NewStatisticsService(deps Dependencies) *StatisticsService {
	fanout := deps.FanoutConcurrency
	if fanout <= 0 {
		fanout = defaultFanoutConcurrency
	}
	return &StatisticsService{
		lookups: lookups{
			agents:      deps.AgentRepo,
			departments: deps.DepartmentRepo,
			payments:    deps.PaymentRepo,
		},
		metrics: deps.Metrics,
		fanout:  fanout,
	}
}

// AnnualTotal sums an agent's payments dated in year.
func (s *StatisticsService) AnnualTotal(ctx context.Context, agentID string, year int) (float64, error) {
	defer s.observe("annual_total", time.Now())
	payments, err := s.agentPayments(ctx, agentID)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, p := range payments {
		if p.Date.Year() == year {
			total += p.Amount
		}
	}
	return total, nil
}

// CountByType counts an agent's payments of one type.
func (s *StatisticsService) CountByType(ctx context.Context, agentID string, paymentType domain.PaymentType) (int, error) {
	defer s.observe("count_by_type", time.Now())
	payments, err := s.agentPayments(ctx, agentID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, p := range payments {
		if p.Type == paymentType {
			count++
		}
	}
	return count, nil
}

// HighestPayment returns the agent's largest payment, the earliest one on
// ties. ok is false when the agent has no payments.
func (s *StatisticsService) HighestPayment(ctx context.Context, agentID string) (payment domain.Payment, ok bool, err error) {
	defer s.observe("highest_payment", time.Now())
	payments, err := s.agentPayments(ctx, agentID)
	if err != nil {
		return domain.Payment{}, false, err
	}
	for i, p := range payments {
		if i == 0 || p.Amount > payment.Amount {
			payment = p
		}
	}
	return payment, len(payments) > 0, nil
}

// DepartmentTotal sums the payments of every member of a department.
func (s *StatisticsService) DepartmentTotal(ctx context.Context, departmentID string) (float64, error) {
	defer s.observe("department_total", time.Now())
	payments, err := s.departmentPayments(ctx, departmentID)
	if err != nil {
		return 0, err
	}
	return sumAmounts(payments), nil
}

// DepartmentAverageSalary averages the SALARY payments of a department's
// members; 0 when there are none.
func (s *StatisticsService) DepartmentAverageSalary(ctx context.Context, departmentID string) (float64, error) {
	defer s.observe("department_average_salary", time.Now())
	payments, err := s.departmentPayments(ctx, departmentID)
	if err != nil {
		return 0, err
	}
	var total float64
	count := 0
	for _, p := range payments {
		if p.Type == domain.PaymentSalary {
			total += p.Amount
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return total / float64(count), nil
}

// RankAgentsByTotalPayments orders all agents by descending payment total.
// Agents with equal totals keep their creation order.
func (s *StatisticsService) RankAgentsByTotalPayments(ctx context.Context) ([]RankedAgent, error) {
	defer s.observe("rank_agents", time.Now())
	agents, err := s.agents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	payments, err := s.payments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	totals := make(map[string]float64, len(agents))
	for _, p := range payments {
		totals[p.AgentID] += p.Amount
	}
	ranked := make([]RankedAgent, 0, len(agents))
	for _, a := range agents {
		ranked = append(ranked, RankedAgent{Agent: a, Total: totals[a.ID]})
	}
	slices.SortStableFunc(ranked, func(a, b RankedAgent) int {
		switch {
		case a.Total > b.Total:
			return -1
		case a.Total < b.Total:
			return 1
		}
		return 0
	})
	return ranked, nil
}

// PaymentDistribution counts payments per type. Types without payments are absent.
func (s *StatisticsService) PaymentDistribution(ctx context.Context) (map[domain.PaymentType]int, error) {
	defer s.observe("payment_distribution", time.Now())
	payments, err := s.payments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	dist := make(map[domain.PaymentType]int)
	for _, p := range payments {
		dist[p.Type]++
	}
	return dist, nil
}

// GlobalTotal sums every stored payment, including those of deleted agents.
func (s *StatisticsService) GlobalTotal(ctx context.Context) (float64, error) {
	defer s.observe("global_total", time.Now())
	payments, err := s.payments.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list payments: %w", err)
	}
	return sumAmounts(payments), nil
}

// TotalAgents counts agents.
func (s *StatisticsService) TotalAgents(ctx context.Context) (int, error) {
	agents, err := s.agents.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list agents: %w", err)
	}
	return len(agents), nil
}

// TotalDepartments counts departments.
func (s *StatisticsService) TotalDepartments(ctx context.Context) (int, error) {
	depts, err := s.departments.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list departments: %w", err)
	}
	return len(depts), nil
}

// DetectUnusualPayment returns the first payment, in creation order, whose
// amount exceeds threshold. Any threshold is accepted.
func (s *StatisticsService) DetectUnusualPayment(ctx context.Context, threshold float64) (domain.Payment, bool, error) {
	defer s.observe("detect_unusual", time.Now())
	payments, err := s.payments.List(ctx)
	if err != nil {
		return domain.Payment{}, false, fmt.Errorf("list payments: %w", err)
	}
	for _, p := range payments {
		if p.Amount > threshold {
			return p, true, nil
		}
	}
	return domain.Payment{}, false, nil
}

// PaymentsBetween returns payments dated within [start, end].
func (s *StatisticsService) PaymentsBetween(ctx context.Context, start, end time.Time) ([]domain.Payment, error) {
	return paymentsBetween(ctx, s.payments, start, end)
}

func (s *StatisticsService) agentPayments(ctx context.Context, agentID string) ([]domain.Payment, error) {
	if _, err := s.agent(ctx, agentID); err != nil {
		return nil, err
	}
	payments, err := s.payments.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("list payments of %s: %w", agentID, err)
	}
	return payments, nil
}

func (s *StatisticsService) departmentPayments(ctx context.Context, departmentID string) ([]domain.Payment, error) {
	if _, err := s.department(ctx, departmentID); err != nil {
		return nil, err
	}
	members, err := s.agents.ListByDepartment(ctx, departmentID)
	if err != nil {
		return nil, fmt.Errorf("list members of %s: %w", departmentID, err)
	}
	return memberPayments(ctx, s.payments, members, s.fanout)
}

func (s *StatisticsService) observe(query string, start time.Time) {
	s.metrics.ObserveStats(query, time.Since(start))
}
