package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/paydesk/internal/domain"
)

func TestParseRange(t *testing.T) {
	start, end, err := parseRange("2024-02-01", "")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 9999, end.Year())

	_, _, err = parseRange("", "02/01/2024")
	assert.ErrorContains(t, err, "--to")
}

func TestPaymentFlagsInput(t *testing.T) {
	f := paymentFlags{paymentType: "bonus", amount: 120, date: "2024-03-05", condition: true}
	in, err := f.input()
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentBonus, in.Type)
	require.NotNil(t, in.Date)
	assert.Equal(t, 5, in.Date.Day())
	assert.True(t, in.ConditionValidated)

	f.date = "tomorrow"
	_, err = f.input()
	assert.Error(t, err)
}

func TestAgentFlagsInput(t *testing.T) {
	f := agentFlags{lastName: "Doe", firstName: "Jane", email: "j@x.io", credential: "pass", role: "director"}
	in := f.input()
	assert.Equal(t, domain.RoleDirector, in.Role)
	assert.Nil(t, in.DepartmentID)

	f.department = "d-1"
	in = f.input()
	require.NotNil(t, in.DepartmentID)
	assert.Equal(t, "d-1", *in.DepartmentID)
}

func TestCommandTree(t *testing.T) {
	registerCommands()
	for _, path := range [][]string{
		{"serve"}, {"migrate"}, {"report"}, {"login"}, {"whoami"},
		{"agent", "stats"}, {"department", "assign"}, {"dept", "remove"}, {"payment", "list"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
