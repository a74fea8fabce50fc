package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/spec-kit/paydesk/internal/domain"
	"github.com/spec-kit/paydesk/internal/service"
)

// agentJSON is the printed form of an agent; the credential never leaves the process.
type agentJSON struct {
	ID           string           `json:"id"`
	LastName     string           `json:"last_name"`
	FirstName    string           `json:"first_name"`
	Email        string           `json:"email"`
	Role         domain.AgentRole `json:"role"`
	DepartmentID *string          `json:"department_id,omitempty"`
}

func agentView(a domain.Agent) agentJSON {
	return agentJSON{
		ID:           a.ID,
		LastName:     a.LastName,
		FirstName:    a.FirstName,
		Email:        a.Email,
		Role:         a.Role,
		DepartmentID: a.DepartmentID,
	}
}

func agentCmd() *cobra.Command {
	ag := &cobra.Command{Use: "agent", Short: "Manage agents"}
	ag.AddCommand(agentCreateCmd())
	ag.AddCommand(agentUpdateCmd())
	ag.AddCommand(agentDeleteCmd())
	ag.AddCommand(agentGetCmd())
	ag.AddCommand(agentListCmd())
	ag.AddCommand(agentPaymentsCmd())
	ag.AddCommand(agentStatsCmd())
	return ag
}

type agentFlags struct {
	lastName, firstName, email, credential, role, department string
}

func (f *agentFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&f.firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&f.email, "email", "", "email address")
	cmd.Flags().StringVar(&f.credential, "credential", "", "login credential")
	cmd.Flags().StringVar(&f.role, "role", string(domain.RoleWorker), "WORKER, DEPARTMENT_HEAD or DIRECTOR")
	cmd.Flags().StringVar(&f.department, "department", "", "department id")
}

func (f *agentFlags) input() service.AgentInput {
	role, _ := domain.ParseAgentRole(f.role)
	in := service.AgentInput{
		LastName:   f.lastName,
		FirstName:  f.firstName,
		Email:      f.email,
		Credential: f.credential,
		Role:       role,
	}
	if f.department != "" {
		dept := f.department
		in.DepartmentID = &dept
	}
	return in
}

func agentCreateCmd() *cobra.Command {
	var f agentFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				agent, err := a.directory.CreateAgent(ctx, f.input())
				if err != nil {
					return err
				}
				return printAgents([]domain.Agent{*agent})
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func agentUpdateCmd() *cobra.Command {
	var f agentFlags
	cmd := &cobra.Command{
		Use:   "update <agent-id>",
		Short: "Replace an agent's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				agent, err := a.directory.UpdateAgent(ctx, args[0], f.input())
				if err != nil {
					return err
				}
				return printAgents([]domain.Agent{*agent})
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func agentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <agent-id>",
		Short: "Delete an agent; its payments are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return a.directory.DeleteAgent(ctx, args[0])
			})
		},
	}
}

func agentGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <agent-id>",
		Short: "Show one agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				agent, err := a.directory.GetAgent(ctx, args[0])
				if err != nil {
					return err
				}
				return printAgents([]domain.Agent{*agent})
			})
		},
	}
}

func agentListCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				var (
					agents []domain.Agent
					err    error
				)
				if role != "" {
					r, ok := domain.ParseAgentRole(role)
					if !ok {
						return fmt.Errorf("unknown role %q", role)
					}
					agents, err = a.directory.ListAgentsByRole(ctx, r)
				} else {
					agents, err = a.directory.ListAgents(ctx)
				}
				if err != nil {
					return err
				}
				return printAgents(agents)
			})
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "role filter")
	return cmd
}

func agentPaymentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "payments <agent-id>",
		Short: "List an agent's payments with their total",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				payments, err := a.directory.GetPaymentsForAgent(ctx, args[0])
				if err != nil {
					return err
				}
				total, err := a.directory.TotalPaymentsForAgent(ctx, args[0])
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(map[string]any{"payments": paymentViews(payments), "total": total})
				}
				renderPayments(payments, &total)
				return nil
			})
		},
	}
}

func agentStatsCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "stats <agent-id>",
		Short: "Show per-agent payment statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				id := args[0]
				annual, err := a.statistics.AnnualTotal(ctx, id, year)
				if err != nil {
					return err
				}
				average, err := a.payments.AverageByAgent(ctx, id)
				if err != nil {
					return err
				}
				counts := make(map[domain.PaymentType]int, len(domain.PaymentTypes))
				for _, t := range domain.PaymentTypes {
					if counts[t], err = a.statistics.CountByType(ctx, id, t); err != nil {
						return err
					}
				}
				highest, found, err := a.statistics.HighestPayment(ctx, id)
				if err != nil {
					return err
				}

				if outputJSON {
					out := map[string]any{"year": year, "annual_total": annual, "average": average, "counts": counts}
					if found {
						out["highest"] = paymentView(highest)
					}
					return printJSON(out)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Metric", "Value"})
				tw.AppendRow(table.Row{fmt.Sprintf("Total %d", year), money(annual)})
				tw.AppendRow(table.Row{"Average payment", money(average)})
				for _, t := range domain.PaymentTypes {
					tw.AppendRow(table.Row{"Count " + string(t), counts[t]})
				}
				if found {
					tw.AppendRow(table.Row{"Highest payment", fmt.Sprintf("%s %s on %s", highest.Type, money(highest.Amount), highest.Date.Format(time.DateOnly))})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", time.Now().Year(), "calendar year for the annual total")
	return cmd
}

func printAgents(agents []domain.Agent) error {
	if outputJSON {
		views := make([]agentJSON, 0, len(agents))
		for _, a := range agents {
			views = append(views, agentView(a))
		}
		return printJSON(views)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Name", "Email", "Role", "Department"})
	for _, a := range agents {
		dept := ""
		if a.DepartmentID != nil {
			dept = *a.DepartmentID
		}
		tw.AppendRow(table.Row{a.ID, a.FullName(), a.Email, a.Role, dept})
	}
	tw.Render()
	return nil
}
