package validation

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/paydesk/pkg/util/errorutil"
)

func validAgent() AgentInput {
	return AgentInput{LastName: "Durand", FirstName: "Claire", Email: "claire@corp.io", Credential: "s3cret"}
}

func TestAgent(t *testing.T) {
	require.NoError(t, Agent(validAgent()))

	cases := []struct {
		name  string
		mut   func(*AgentInput)
		field string
	}{
		{"empty last name", func(in *AgentInput) { in.LastName = "" }, "last_name"},
		{"blank last name", func(in *AgentInput) { in.LastName = "   " }, "last_name"},
		{"long last name", func(in *AgentInput) { in.LastName = strings.Repeat("a", 101) }, "last_name"},
		{"empty first name", func(in *AgentInput) { in.FirstName = "" }, "first_name"},
		{"empty email", func(in *AgentInput) { in.Email = "" }, "email"},
		{"email without at", func(in *AgentInput) { in.Email = "claire.corp.io" }, "email"},
		{"email without dot", func(in *AgentInput) { in.Email = "claire@corp" }, "email"},
		{"long email", func(in *AgentInput) { in.Email = strings.Repeat("a", 250) + "@corp.io" }, "email"},
		{"empty credential", func(in *AgentInput) { in.Credential = " " }, "credential"},
		{"short credential", func(in *AgentInput) { in.Credential = "abc" }, "credential"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := validAgent()
			tc.mut(&in)
			err := Agent(in)
			require.ErrorIs(t, err, apperrors.ErrInvalidInput)
			de := apperrors.ToDomainError(err)
			assert.Equal(t, tc.field, de.Details["field"])
		})
	}
}

func TestAgentBoundaryLengths(t *testing.T) {
	in := validAgent()
	in.LastName = strings.Repeat("é", 100)
	in.Credential = "abcd"
	assert.NoError(t, Agent(in))
}

func TestDepartmentName(t *testing.T) {
	assert.NoError(t, DepartmentName("Finance"))
	assert.ErrorIs(t, DepartmentName(""), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, DepartmentName("\t "), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, DepartmentName(strings.Repeat("x", 101)), apperrors.ErrInvalidInput)
	assert.NoError(t, DepartmentName(strings.Repeat("x", 100)))
}

func TestAmount(t *testing.T) {
	assert.NoError(t, Amount(0.01))
	assert.NoError(t, Amount(MaxAmount))
	assert.ErrorIs(t, Amount(0), apperrors.ErrNegativeOrZeroAmount)
	assert.ErrorIs(t, Amount(-1), apperrors.ErrNegativeOrZeroAmount)
	assert.ErrorIs(t, Amount(9_999_999.01), apperrors.ErrAmountTooLarge)
	assert.ErrorIs(t, Amount(math.NaN()), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, Amount(math.Inf(1)), apperrors.ErrInvalidInput)
}
