package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/spec-kit/paydesk/internal/domain"
	apperrors "github.com/spec-kit/paydesk/pkg/util/errorutil"
)

type StatisticsServiceSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func TestStatisticsServiceSuite(t *testing.T) {
	suite.Run(t, new(StatisticsServiceSuite))
}

func (s *StatisticsServiceSuite) SetupTest() {
	s.f = newFixture(s.T())
	s.ctx = context.Background()
}

func (s *StatisticsServiceSuite) TestEmptyStore() {
	total, err := s.f.stats.GlobalTotal(s.ctx)
	s.Require().NoError(err)
	s.Zero(total)

	dist, err := s.f.stats.PaymentDistribution(s.ctx)
	s.Require().NoError(err)
	s.Empty(dist)

	ranked, err := s.f.stats.RankAgentsByTotalPayments(s.ctx)
	s.Require().NoError(err)
	s.Empty(ranked)

	_, found, err := s.f.stats.DetectUnusualPayment(s.ctx, 0)
	s.Require().NoError(err)
	s.False(found)

	agents, err := s.f.stats.TotalAgents(s.ctx)
	s.Require().NoError(err)
	s.Zero(agents)
	depts, err := s.f.stats.TotalDepartments(s.ctx)
	s.Require().NoError(err)
	s.Zero(depts)
}

func (s *StatisticsServiceSuite) TestAgentScopedQueries() {
	a := s.f.agent(s.T(), "a@x.io", domain.RoleDirector, nil)
	s.f.pay(s.T(), a.ID, domain.PaymentSalary, 1000, day(2023, 12, 31))
	first := s.f.pay(s.T(), a.ID, domain.PaymentSalary, 2000, day(2024, 1, 31))
	s.f.pay(s.T(), a.ID, domain.PaymentBonus, 2000, day(2024, 2, 15))
	s.f.pay(s.T(), a.ID, domain.PaymentSalary, 500, day(2024, 3, 31))

	annual, err := s.f.stats.AnnualTotal(s.ctx, a.ID, 2024)
	s.Require().NoError(err)
	s.Equal(4500.0, annual)
	annual, err = s.f.stats.AnnualTotal(s.ctx, a.ID, 2020)
	s.Require().NoError(err)
	s.Zero(annual)

	count, err := s.f.stats.CountByType(s.ctx, a.ID, domain.PaymentSalary)
	s.Require().NoError(err)
	s.Equal(3, count)
	count, err = s.f.stats.CountByType(s.ctx, a.ID, domain.PaymentIndemnity)
	s.Require().NoError(err)
	s.Zero(count)

	highest, found, err := s.f.stats.HighestPayment(s.ctx, a.ID)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(first.ID, highest.ID, "earliest payment wins a tie")

	empty := s.f.agent(s.T(), "b@x.io", domain.RoleWorker, nil)
	_, found, err = s.f.stats.HighestPayment(s.ctx, empty.ID)
	s.Require().NoError(err)
	s.False(found)

	_, err = s.f.stats.AnnualTotal(s.ctx, "missing", 2024)
	s.ErrorIs(err, apperrors.ErrAgentNotFound)
	_, err = s.f.stats.CountByType(s.ctx, "missing", domain.PaymentSalary)
	s.ErrorIs(err, apperrors.ErrAgentNotFound)
	_, _, err = s.f.stats.HighestPayment(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrAgentNotFound)
}

func (s *StatisticsServiceSuite) TestDepartmentAggregates() {
	dept := s.f.department(s.T(), "Finance")
	empty := s.f.department(s.T(), "Empty")
	a := s.f.agent(s.T(), "a@x.io", domain.RoleWorker, ptr(dept.ID))
	b := s.f.agent(s.T(), "b@x.io", domain.RoleDirector, ptr(dept.ID))
	c := s.f.agent(s.T(), "c@x.io", domain.RoleWorker, nil)

	s.f.pay(s.T(), a.ID, domain.PaymentSalary, 1000, day(2024, 1, 31))
	s.f.pay(s.T(), b.ID, domain.PaymentSalary, 3000, day(2024, 1, 31))
	s.f.pay(s.T(), b.ID, domain.PaymentBonus, 500, day(2024, 2, 1))
	s.f.pay(s.T(), c.ID, domain.PaymentSalary, 9000, day(2024, 1, 31))

	total, err := s.f.stats.DepartmentTotal(s.ctx, dept.ID)
	s.Require().NoError(err)
	s.Equal(4500.0, total)

	avg, err := s.f.stats.DepartmentAverageSalary(s.ctx, dept.ID)
	s.Require().NoError(err)
	s.Equal(2000.0, avg)

	avg, err = s.f.stats.DepartmentAverageSalary(s.ctx, empty.ID)
	s.Require().NoError(err)
	s.Zero(avg)

	_, err = s.f.stats.DepartmentTotal(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrDepartmentNotFound)
	_, err = s.f.stats.DepartmentAverageSalary(s.ctx, "missing")
	s.ErrorIs(err, apperrors.ErrDepartmentNotFound)
}

func (s *StatisticsServiceSuite) TestRankingIsStable() {
	a := s.f.agent(s.T(), "a@x.io", domain.RoleWorker, nil)
	b := s.f.agent(s.T(), "b@x.io", domain.RoleWorker, nil)
	c := s.f.agent(s.T(), "c@x.io", domain.RoleWorker, nil)
	d := s.f.agent(s.T(), "d@x.io", domain.RoleWorker, nil)

	s.f.pay(s.T(), a.ID, domain.PaymentSalary, 100, day(2024, 1, 1))
	s.f.pay(s.T(), b.ID, domain.PaymentSalary, 300, day(2024, 1, 1))
	s.f.pay(s.T(), c.ID, domain.PaymentSalary, 60, day(2024, 1, 1))
	s.f.pay(s.T(), c.ID, domain.PaymentSalary, 40, day(2024, 1, 2))

	ranked, err := s.f.stats.RankAgentsByTotalPayments(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(ranked, 4)

	ids := []string{ranked[0].Agent.ID, ranked[1].Agent.ID, ranked[2].Agent.ID, ranked[3].Agent.ID}
	s.Equal([]string{b.ID, a.ID, c.ID, d.ID}, ids)
	s.Equal(300.0, ranked[0].Total)
	s.Equal(100.0, ranked[2].Total)
	s.Zero(ranked[3].Total)
}

func (s *StatisticsServiceSuite) TestDistributionMatchesListing() {
	w := s.f.agent(s.T(), "w@x.io", domain.RoleWorker, nil)
	d := s.f.agent(s.T(), "d@x.io", domain.RoleDirector, nil)
	s.f.pay(s.T(), w.ID, domain.PaymentSalary, 1, day(2024, 1, 1))
	s.f.pay(s.T(), d.ID, domain.PaymentSalary, 2, day(2024, 1, 1))
	s.f.pay(s.T(), d.ID, domain.PaymentBonus, 3, day(2024, 1, 1))

	dist, err := s.f.stats.PaymentDistribution(s.ctx)
	s.Require().NoError(err)
	s.Equal(map[domain.PaymentType]int{domain.PaymentSalary: 2, domain.PaymentBonus: 1}, dist)
	_, hasIndemnity := dist[domain.PaymentIndemnity]
	s.False(hasIndemnity)

	all, err := s.f.payments.ListPayments(s.ctx)
	s.Require().NoError(err)
	sum := 0
	for _, n := range dist {
		sum += n
	}
	s.Equal(len(all), sum)

	global, err := s.f.stats.GlobalTotal(s.ctx)
	s.Require().NoError(err)
	s.Equal(6.0, global)
	agents, err := s.f.stats.TotalAgents(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, agents)
}

func (s *StatisticsServiceSuite) TestDetectUnusualPayment() {
	a := s.f.agent(s.T(), "a@x.io", domain.RoleWorker, nil)
	s.f.pay(s.T(), a.ID, domain.PaymentSalary, 100, day(2024, 1, 1))
	big := s.f.pay(s.T(), a.ID, domain.PaymentSalary, 5000, day(2024, 1, 2))
	s.f.pay(s.T(), a.ID, domain.PaymentSalary, 9000, day(2024, 1, 3))

	hit, found, err := s.f.stats.DetectUnusualPayment(s.ctx, 1000)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(big.ID, hit.ID)

	_, found, err = s.f.stats.DetectUnusualPayment(s.ctx, 9000)
	s.Require().NoError(err)
	s.False(found, "threshold is exclusive")

	hit, found, err = s.f.stats.DetectUnusualPayment(s.ctx, -1)
	s.Require().NoError(err)
	s.True(found)
	s.Equal(100.0, hit.Amount)
}

func (s *StatisticsServiceSuite) TestPaymentsBetween() {
	a := s.f.agent(s.T(), "a@x.io", domain.RoleWorker, nil)
	s.f.pay(s.T(), a.ID, domain.PaymentSalary, 1, day(2024, 1, 1))
	s.f.pay(s.T(), a.ID, domain.PaymentSalary, 2, day(2024, 6, 30))
	s.f.pay(s.T(), a.ID, domain.PaymentSalary, 3, day(2024, 7, 1))

	h1, err := s.f.stats.PaymentsBetween(s.ctx, day(2024, 1, 1), day(2024, 6, 30))
	s.Require().NoError(err)
	s.Len(h1, 2)

	none, err := s.f.stats.PaymentsBetween(s.ctx, day(2024, 12, 31), day(2024, 1, 1))
	s.Require().NoError(err)
	s.Empty(none)
}
