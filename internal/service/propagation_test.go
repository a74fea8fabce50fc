package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/repository"
	"github.com/spec-kit/paydesk/internal/repository/mocks"
	apperrors "github.com/spec-kit/paydesk/pkg/util/errorutil"
)

// Store failures other than a missing row reach the caller untranslated.
type StoreFailureSuite struct {
	suite.Suite
	ctrl        *gomock.Controller
	agents      *mocks.MockAgentRepository
	departments *mocks.MockDepartmentRepository
	payments    *mocks.MockPaymentRepository
	directory   *DirectoryService
	ledger      *PaymentService
	stats       *StatisticsService
	ctx         context.Context
	errDown     error
}

func TestStoreFailureSuite(t *testing.T) {
	suite.Run(t, new(StoreFailureSuite))
}

func (s *StoreFailureSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.agents = mocks.NewMockAgentRepository(s.ctrl)
	s.departments = mocks.NewMockDepartmentRepository(s.ctrl)
	s.payments = mocks.NewMockPaymentRepository(s.ctrl)
	deps := Dependencies{AgentRepo: s.agents, DepartmentRepo: s.departments, PaymentRepo: s.payments}
	s.directory = NewDirectoryService(deps)
	s.ledger = NewPaymentService(deps)
	s.stats = NewStatisticsService(deps)
	s.ctx = context.Background()
	s.errDown = errors.New("connection refused")
}

func (s *StoreFailureSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *StoreFailureSuite) requireOpaque(err error) {
	s.Require().Error(err)
	s.ErrorIs(err, s.errDown)
	var domainErr *apperrors.DomainError
	s.False(errors.As(err, &domainErr), "store failure must not become a domain error")
}

func (s *StoreFailureSuite) TestLookupFailure() {
	s.agents.EXPECT().GetByID(gomock.Any(), "a1").Return(nil, s.errDown)
	_, err := s.directory.GetAgent(s.ctx, "a1")
	s.requireOpaque(err)
}

func (s *StoreFailureSuite) TestMissingRowBecomesNotFound() {
	s.payments.EXPECT().GetByID(gomock.Any(), "p1").Return(nil, repository.ErrNotFound)
	_, err := s.ledger.GetPayment(s.ctx, "p1")
	s.ErrorIs(err, apperrors.ErrPaymentNotFound)
}

func (s *StoreFailureSuite) TestEmailCheckFailure() {
	s.agents.EXPECT().GetByEmail(gomock.Any(), "a@x.io").Return(nil, s.errDown)
	_, err := s.directory.CreateAgent(s.ctx, agentInput("a@x.io", domain.RoleWorker))
	s.requireOpaque(err)
}

func (s *StoreFailureSuite) TestDetachFailureStopsBeforeDelete() {
	dept := &domain.Department{ID: "d1", Name: "Finance"}
	member := domain.Agent{ID: "a1", DepartmentID: ptr("d1")}

	gomock.InOrder(
		s.departments.EXPECT().GetByID(gomock.Any(), "d1").Return(dept, nil),
		s.agents.EXPECT().ListByDepartment(gomock.Any(), "d1").Return([]domain.Agent{member}, nil),
		s.agents.EXPECT().Update(gomock.Any(), gomock.Any()).Return(s.errDown),
	)
	// Delete must never be reached.
	s.departments.EXPECT().Delete(gomock.Any(), gomock.Any()).Times(0)

	s.requireOpaque(s.directory.DeleteDepartment(s.ctx, "d1"))
}

func (s *StoreFailureSuite) TestCreatePaymentWriteFailure() {
	agent := &domain.Agent{ID: "a1", Role: domain.RoleWorker}
	s.agents.EXPECT().GetByID(gomock.Any(), "a1").Return(agent, nil)
	s.payments.EXPECT().Create(gomock.Any(), gomock.Any()).Return(s.errDown)

	_, err := s.ledger.CreatePayment(s.ctx, "a1", PaymentInput{Type: domain.PaymentSalary, Amount: 10})
	s.requireOpaque(err)
}

func (s *StoreFailureSuite) TestIneligiblePaymentNeverReachesStore() {
	agent := &domain.Agent{ID: "a1", Role: domain.RoleWorker}
	s.agents.EXPECT().GetByID(gomock.Any(), "a1").Return(agent, nil)
	s.payments.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	_, err := s.ledger.CreatePayment(s.ctx, "a1", PaymentInput{Type: domain.PaymentBonus, Amount: 10, ConditionValidated: true})
	s.ErrorIs(err, apperrors.ErrIneligiblePayment)
}

func (s *StoreFailureSuite) TestFanoutFailure() {
	dept := &domain.Department{ID: "d1", Name: "Finance"}
	members := []domain.Agent{{ID: "a1"}, {ID: "a2"}}
	s.departments.EXPECT().GetByID(gomock.Any(), "d1").Return(dept, nil)
	s.agents.EXPECT().ListByDepartment(gomock.Any(), "d1").Return(members, nil)
	s.payments.EXPECT().ListByAgent(gomock.Any(), "a1").Return([]domain.Payment{{Amount: 1}}, nil).MaxTimes(1)
	s.payments.EXPECT().ListByAgent(gomock.Any(), "a2").Return(nil, s.errDown)

	_, err := s.stats.DepartmentTotal(s.ctx, "d1")
	s.requireOpaque(err)
}

func (s *StoreFailureSuite) TestScanFailure() {
	s.payments.EXPECT().List(gomock.Any()).Return(nil, s.errDown)
	_, err := s.stats.GlobalTotal(s.ctx)
	s.requireOpaque(err)
}
