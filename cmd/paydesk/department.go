package main

import (
	"context"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/spec-kit/paydesk/internal/domain"
)

type departmentJSON struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	ResponsibleID *string `json:"responsible_id,omitempty"`
}

func departmentCmd() *cobra.Command {
	dep := &cobra.Command{Use: "department", Aliases: []string{"dept"}, Short: "Manage departments"}
	dep.AddCommand(departmentCreateCmd())
	dep.AddCommand(departmentUpdateCmd())
	dep.AddCommand(departmentDeleteCmd())
	dep.AddCommand(departmentGetCmd())
	dep.AddCommand(departmentListCmd())
	dep.AddCommand(departmentAssignCmd())
	dep.AddCommand(departmentAddCmd())
	dep.AddCommand(departmentRemoveCmd())
	dep.AddCommand(departmentMembersCmd())
	dep.AddCommand(departmentStatsCmd())
	return dep
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func departmentCreateCmd() *cobra.Command {
	var name, responsible string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a department",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				dept, err := a.directory.CreateDepartment(ctx, name, optional(responsible))
				if err != nil {
					return err
				}
				return printDepartments([]domain.Department{*dept})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "department name")
	cmd.Flags().StringVar(&responsible, "responsible", "", "agent id of the head")
	return cmd
}

func departmentUpdateCmd() *cobra.Command {
	var name, responsible string
	cmd := &cobra.Command{
		Use:   "update <department-id>",
		Short: "Rename a department and set or clear its head",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				dept, err := a.directory.UpdateDepartment(ctx, args[0], name, optional(responsible))
				if err != nil {
					return err
				}
				return printDepartments([]domain.Department{*dept})
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "department name")
	cmd.Flags().StringVar(&responsible, "responsible", "", "agent id of the head; empty clears it")
	return cmd
}

func departmentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <department-id>",
		Short: "Delete a department, detaching its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return a.directory.DeleteDepartment(ctx, args[0])
			})
		},
	}
}

func departmentGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <department-id>",
		Short: "Show one department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				dept, err := a.directory.GetDepartment(ctx, args[0])
				if err != nil {
					return err
				}
				return printDepartments([]domain.Department{*dept})
			})
		},
	}
}

func departmentListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List departments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				depts, err := a.directory.ListDepartments(ctx)
				if err != nil {
					return err
				}
				return printDepartments(depts)
			})
		},
	}
}

func departmentAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <department-id> <agent-id>",
		Short: "Make an agent the department head",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				dept, err := a.directory.AssignResponsible(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printDepartments([]domain.Department{*dept})
			})
		},
	}
}

func departmentAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <department-id> <agent-id>",
		Short: "Move an agent into the department",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				agent, err := a.directory.AddAgentToDepartment(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printAgents([]domain.Agent{*agent})
			})
		},
	}
}

func departmentRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <department-id> <agent-id>",
		Short: "Detach an agent from the department",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				agent, err := a.directory.RemoveAgentFromDepartment(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				return printAgents([]domain.Agent{*agent})
			})
		},
	}
}

func departmentMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members <department-id>",
		Short: "List the agents of a department",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				agents, err := a.directory.GetAgents(ctx, args[0])
				if err != nil {
					return err
				}
				return printAgents(agents)
			})
		},
	}
}

func departmentStatsCmd() *cobra.Command {
	var listPayments bool
	cmd := &cobra.Command{
		Use:   "stats <department-id>",
		Short: "Show payment totals for a department's members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				id := args[0]
				total, err := a.statistics.DepartmentTotal(ctx, id)
				if err != nil {
					return err
				}
				avgSalary, err := a.statistics.DepartmentAverageSalary(ctx, id)
				if err != nil {
					return err
				}
				var payments []domain.Payment
				if listPayments {
					if payments, err = a.directory.GetPaymentsForDepartment(ctx, id); err != nil {
						return err
					}
				}

				if outputJSON {
					out := map[string]any{"total": total, "average_salary": avgSalary}
					if listPayments {
						out["payments"] = paymentViews(payments)
					}
					return printJSON(out)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Metric", "Value"})
				tw.AppendRow(table.Row{"Total paid", money(total)})
				tw.AppendRow(table.Row{"Average salary", money(avgSalary)})
				tw.Render()
				if listPayments {
					renderPayments(payments, nil)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&listPayments, "payments", false, "also list member payments")
	return cmd
}

func printDepartments(depts []domain.Department) error {
	if outputJSON {
		views := make([]departmentJSON, 0, len(depts))
		for _, d := range depts {
			views = append(views, departmentJSON{ID: d.ID, Name: d.Name, ResponsibleID: d.ResponsibleID})
		}
		return printJSON(views)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Name", "Responsible"})
	for _, d := range depts {
		responsible := ""
		if d.ResponsibleID != nil {
			responsible = *d.ResponsibleID
		}
		tw.AppendRow(table.Row{d.ID, d.Name, responsible})
	}
	tw.Render()
	return nil
}
