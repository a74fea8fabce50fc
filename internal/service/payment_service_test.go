package service

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/events"
	apperrors "github.com/spec-kit/paydesk/pkg/util/errorutil"
)

type PaymentServiceSuite struct {
	suite.Suite
	f        *fixture
	ctx      context.Context
	worker   *domain.Agent
	head     *domain.Agent
	director *domain.Agent
}

func TestPaymentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.f = newFixture(s.T())
	s.ctx = context.Background()
	s.worker = s.f.agent(s.T(), "worker@x.io", domain.RoleWorker, nil)
	s.head = s.f.agent(s.T(), "head@x.io", domain.RoleDepartmentHead, nil)
	s.director = s.f.agent(s.T(), "director@x.io", domain.RoleDirector, nil)
}

func (s *PaymentServiceSuite) input(t domain.PaymentType, amount float64, condition bool) PaymentInput {
	return PaymentInput{Type: t, Amount: amount, Reason: "monthly", ConditionValidated: condition}
}

func (s *PaymentServiceSuite) TestEligibility() {
	cases := []struct {
		name      string
		agent     func() *domain.Agent
		typ       domain.PaymentType
		condition bool
		eligible  bool
	}{
		{"salary for worker", func() *domain.Agent { return s.worker }, domain.PaymentSalary, false, true},
		{"salary for director", func() *domain.Agent { return s.director }, domain.PaymentSalary, false, true},
		{"bonus for worker without condition", func() *domain.Agent { return s.worker }, domain.PaymentBonus, false, false},
		{"bonus for worker with condition", func() *domain.Agent { return s.worker }, domain.PaymentBonus, true, false},
		{"bonus for director with condition", func() *domain.Agent { return s.director }, domain.PaymentBonus, true, true},
		{"bonus for director without condition", func() *domain.Agent { return s.director }, domain.PaymentBonus, false, false},
		{"indemnity for head with condition", func() *domain.Agent { return s.head }, domain.PaymentIndemnity, true, true},
		{"indemnity for head without condition", func() *domain.Agent { return s.head }, domain.PaymentIndemnity, false, false},
		{"indemnity for worker with condition", func() *domain.Agent { return s.worker }, domain.PaymentIndemnity, true, false},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.f.payments.CreatePayment(s.ctx, tc.agent().ID, s.input(tc.typ, 100, tc.condition))
			if tc.eligible {
				s.NoError(err)
			} else {
				s.ErrorIs(err, apperrors.ErrIneligiblePayment)
			}
		})
	}
}

func (s *PaymentServiceSuite) TestAmountPolicy() {
	cases := []struct {
		amount float64
		want   error
	}{
		{0, apperrors.ErrNegativeOrZeroAmount},
		{-1, apperrors.ErrNegativeOrZeroAmount},
		{9_999_999.01, apperrors.ErrAmountTooLarge},
		{math.NaN(), apperrors.ErrInvalidInput},
		{9_999_999, nil},
		{0.01, nil},
	}
	for _, tc := range cases {
		_, err := s.f.payments.CreatePayment(s.ctx, s.worker.ID, s.input(domain.PaymentSalary, tc.amount, false))
		if tc.want == nil {
			s.NoError(err, "amount %v", tc.amount)
		} else {
			s.ErrorIs(err, tc.want, "amount %v", tc.amount)
		}
	}
	s.Equal(2.0, testutil.ToFloat64(s.f.metrics.PaymentRejections.WithLabelValues(apperrors.CodeNegativeOrZeroAmount)))
	s.Equal(1.0, testutil.ToFloat64(s.f.metrics.PaymentRejections.WithLabelValues(apperrors.CodeAmountTooLarge)))
}

func (s *PaymentServiceSuite) TestCreatePayment() {
	s.Run("unknown agent", func() {
		_, err := s.f.payments.CreatePayment(s.ctx, "missing", s.input(domain.PaymentSalary, 10, false))
		s.ErrorIs(err, apperrors.ErrAgentNotFound)
	})

	s.Run("unknown type", func() {
		_, err := s.f.payments.CreatePayment(s.ctx, s.worker.ID, s.input(domain.PaymentType("GIFT"), 10, false))
		s.ErrorIs(err, apperrors.ErrInvalidInput)
	})

	s.Run("date defaults to today", func() {
		p, err := s.f.payments.CreatePayment(s.ctx, s.worker.ID, s.input(domain.PaymentSalary, 10, false))
		s.Require().NoError(err)
		s.Equal(day(2024, 6, 15), p.Date)
		s.Equal(s.worker.ID, p.AgentID)
		s.Require().NotNil(p.Agent)
		s.Equal(s.worker.Email, p.Agent.Email)
		s.Equal(events.EventPaymentRecorded, s.f.dispatched[len(s.f.dispatched)-1].Type)
	})

	s.Run("explicit date is kept as a calendar day", func() {
		in := s.input(domain.PaymentSalary, 10, false)
		d := day(2023, 12, 31).Add(15 * time.Hour)
		in.Date = &d
		p, err := s.f.payments.CreatePayment(s.ctx, s.worker.ID, in)
		s.Require().NoError(err)
		s.Equal(day(2023, 12, 31), p.Date)
	})
}

func (s *PaymentServiceSuite) TestUpdatePaymentRechecksPolicy() {
	p, err := s.f.payments.CreatePayment(s.ctx, s.worker.ID, s.input(domain.PaymentSalary, 500, false))
	s.Require().NoError(err)

	s.Run("cannot turn a worker salary into a bonus", func() {
		_, err := s.f.payments.UpdatePayment(s.ctx, p.ID, s.input(domain.PaymentBonus, 500, true))
		s.ErrorIs(err, apperrors.ErrIneligiblePayment)
		stored, err := s.f.payments.GetPayment(s.ctx, p.ID)
		s.Require().NoError(err)
		s.Equal(domain.PaymentSalary, stored.Type)
	})

	s.Run("amount policy applies", func() {
		_, err := s.f.payments.UpdatePayment(s.ctx, p.ID, s.input(domain.PaymentSalary, 0, false))
		s.ErrorIs(err, apperrors.ErrNegativeOrZeroAmount)
	})

	s.Run("valid update keeps the owner", func() {
		updated, err := s.f.payments.UpdatePayment(s.ctx, p.ID, s.input(domain.PaymentSalary, 750, false))
		s.Require().NoError(err)
		s.Equal(750.0, updated.Amount)
		s.Equal(s.worker.ID, updated.AgentID)
	})

	s.Run("omitted date keeps the stored date", func() {
		old := s.f.pay(s.T(), s.worker.ID, domain.PaymentSalary, 100, day(2023, 3, 10))
		before, err := s.f.stats.AnnualTotal(s.ctx, s.worker.ID, 2023)
		s.Require().NoError(err)

		updated, err := s.f.payments.UpdatePayment(s.ctx, old.ID, s.input(domain.PaymentSalary, 150, false))
		s.Require().NoError(err)
		s.Equal(day(2023, 3, 10), updated.Date)

		stored, err := s.f.payments.GetPayment(s.ctx, old.ID)
		s.Require().NoError(err)
		s.Equal(day(2023, 3, 10), stored.Date)
		after, err := s.f.stats.AnnualTotal(s.ctx, s.worker.ID, 2023)
		s.Require().NoError(err)
		s.Equal(before+50, after)
	})

	s.Run("explicit date is truncated to the calendar day", func() {
		moved := time.Date(2022, 12, 31, 18, 45, 0, 0, time.UTC)
		in := s.input(domain.PaymentSalary, 750, false)
		in.Date = &moved
		updated, err := s.f.payments.UpdatePayment(s.ctx, p.ID, in)
		s.Require().NoError(err)
		s.Equal(day(2022, 12, 31), updated.Date)
	})

	s.Run("unknown payment", func() {
		_, err := s.f.payments.UpdatePayment(s.ctx, "missing", s.input(domain.PaymentSalary, 1, false))
		s.ErrorIs(err, apperrors.ErrPaymentNotFound)
	})
}

func (s *PaymentServiceSuite) TestDeletePayment() {
	p := s.f.pay(s.T(), s.worker.ID, domain.PaymentSalary, 10, day(2024, 1, 1))
	s.Require().NoError(s.f.payments.DeletePayment(s.ctx, p.ID))
	_, err := s.f.payments.GetPayment(s.ctx, p.ID)
	s.ErrorIs(err, apperrors.ErrPaymentNotFound)
	s.ErrorIs(s.f.payments.DeletePayment(s.ctx, p.ID), apperrors.ErrPaymentNotFound)
}

func (s *PaymentServiceSuite) TestTotalsFollowListing() {
	a := s.director.ID
	p1 := s.f.pay(s.T(), a, domain.PaymentSalary, 1000, day(2024, 1, 31))
	s.f.pay(s.T(), a, domain.PaymentBonus, 250.5, day(2024, 2, 15))
	p3 := s.f.pay(s.T(), a, domain.PaymentIndemnity, 99.5, day(2024, 3, 1))
	s.f.pay(s.T(), s.worker.ID, domain.PaymentSalary, 42, day(2024, 1, 31))

	check := func() {
		listed, err := s.f.payments.ListByAgent(s.ctx, a)
		s.Require().NoError(err)
		var sum float64
		for _, p := range listed {
			sum += p.Amount
		}
		total, err := s.f.payments.TotalByAgent(s.ctx, a)
		s.Require().NoError(err)
		s.InDelta(sum, total, 1e-9)
	}

	check()
	_, err := s.f.payments.UpdatePayment(s.ctx, p1.ID, s.input(domain.PaymentSalary, 1100, false))
	s.Require().NoError(err)
	check()
	s.Require().NoError(s.f.payments.DeletePayment(s.ctx, p3.ID))
	check()

	avg, err := s.f.payments.AverageByAgent(s.ctx, a)
	s.Require().NoError(err)
	s.InDelta((1100+250.5)/2, avg, 1e-9)

	avg, err = s.f.payments.AverageByAgent(s.ctx, s.head.ID)
	s.Require().NoError(err)
	s.Zero(avg)

	_, err = s.f.payments.TotalByAgent(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrAgentNotFound)
	_, err = s.f.payments.AverageByAgent(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrAgentNotFound)
	_, err = s.f.payments.ListByAgent(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrAgentNotFound)
}

func (s *PaymentServiceSuite) TestListings() {
	s.f.pay(s.T(), s.worker.ID, domain.PaymentSalary, 10, day(2024, 1, 1))
	s.f.pay(s.T(), s.director.ID, domain.PaymentBonus, 20, day(2024, 1, 15))
	s.f.pay(s.T(), s.head.ID, domain.PaymentSalary, 30, day(2024, 2, 1))

	all, err := s.f.payments.ListPayments(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 3)

	salaries, err := s.f.payments.ListByType(s.ctx, domain.PaymentSalary)
	s.Require().NoError(err)
	s.Len(salaries, 2)

	_, err = s.f.payments.ListByType(s.ctx, domain.PaymentType("GIFT"))
	s.ErrorIs(err, apperrors.ErrInvalidInput)

	january, err := s.f.payments.ListByDateRange(s.ctx, day(2024, 1, 1), day(2024, 1, 15))
	s.Require().NoError(err)
	s.Len(january, 2, "bounds are inclusive")

	reversed, err := s.f.payments.ListByDateRange(s.ctx, day(2024, 2, 1), day(2024, 1, 1))
	s.Require().NoError(err)
	s.Empty(reversed)
}
