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

type paymentJSON struct {
	ID                 string             `json:"id"`
	AgentID            string             `json:"agent_id"`
	Type               domain.PaymentType `json:"type"`
	Amount             float64            `json:"amount"`
	Reason             string             `json:"reason"`
	Date               string             `json:"date"`
	ConditionValidated bool               `json:"condition_validated"`
}

func paymentView(p domain.Payment) paymentJSON {
	return paymentJSON{
		ID:                 p.ID,
		AgentID:            p.AgentID,
		Type:               p.Type,
		Amount:             p.Amount,
		Reason:             p.Reason,
		Date:               p.Date.Format(time.DateOnly),
		ConditionValidated: p.ConditionValidated,
	}
}

func paymentViews(payments []domain.Payment) []paymentJSON {
	views := make([]paymentJSON, 0, len(payments))
	for _, p := range payments {
		views = append(views, paymentView(p))
	}
	return views
}

func paymentCmd() *cobra.Command {
	pay := &cobra.Command{Use: "payment", Short: "Manage payments"}
	pay.AddCommand(paymentCreateCmd())
	pay.AddCommand(paymentUpdateCmd())
	pay.AddCommand(paymentDeleteCmd())
	pay.AddCommand(paymentGetCmd())
	pay.AddCommand(paymentListCmd())
	return pay
}

type paymentFlags struct {
	paymentType string
	amount      float64
	reason      string
	condition   bool
	date        string
}

func (f *paymentFlags) bind(cmd *cobra.Command, dateUsage string) {
	cmd.Flags().StringVar(&f.paymentType, "type", string(domain.PaymentSalary), "SALARY, BONUS or INDEMNITY")
	cmd.Flags().Float64Var(&f.amount, "amount", 0, "amount")
	cmd.Flags().StringVar(&f.reason, "reason", "", "free-text reason")
	cmd.Flags().BoolVar(&f.condition, "condition-validated", false, "mark the payment condition as approved")
	cmd.Flags().StringVar(&f.date, "date", "", dateUsage)
}

func (f *paymentFlags) input() (service.PaymentInput, error) {
	t, _ := domain.ParsePaymentType(f.paymentType)
	in := service.PaymentInput{
		Type:               t,
		Amount:             f.amount,
		Reason:             f.reason,
		ConditionValidated: f.condition,
	}
	if f.date != "" {
		d, err := time.Parse(time.DateOnly, f.date)
		if err != nil {
			return in, fmt.Errorf("invalid --date: %w", err)
		}
		in.Date = &d
	}
	return in, nil
}

func paymentCreateCmd() *cobra.Command {
	var (
		f       paymentFlags
		agentID string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a payment for an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.input()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				p, err := a.payments.CreatePayment(ctx, agentID, in)
				if err != nil {
					return err
				}
				return printPayments([]domain.Payment{*p})
			})
		},
	}
	f.bind(cmd, "payment date YYYY-MM-DD (defaults to today)")
	cmd.Flags().StringVar(&agentID, "agent", "", "owning agent id")
	_ = cmd.MarkFlagRequired("agent")
	return cmd
}

func paymentUpdateCmd() *cobra.Command {
	var f paymentFlags
	cmd := &cobra.Command{
		Use:   "update <payment-id>",
		Short: "Replace a payment's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.input()
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				p, err := a.payments.UpdatePayment(ctx, args[0], in)
				if err != nil {
					return err
				}
				return printPayments([]domain.Payment{*p})
			})
		},
	}
	f.bind(cmd, "payment date YYYY-MM-DD (the stored date is kept when omitted)")
	return cmd
}

func paymentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <payment-id>",
		Short: "Delete a payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return a.payments.DeletePayment(ctx, args[0])
			})
		},
	}
}

func paymentGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <payment-id>",
		Short: "Show one payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				p, err := a.payments.GetPayment(ctx, args[0])
				if err != nil {
					return err
				}
				if !outputJSON && p.Agent != nil {
					fmt.Printf("agent: %s <%s>\n", p.Agent.FullName(), p.Agent.Email)
				}
				return printPayments([]domain.Payment{*p})
			})
		},
	}
}

func paymentListCmd() *cobra.Command {
	var agentID, paymentType, from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments, optionally filtered by agent, type or date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				var (
					payments []domain.Payment
					err      error
				)
				switch {
				case agentID != "":
					payments, err = a.payments.ListByAgent(ctx, agentID)
				case paymentType != "":
					t, ok := domain.ParsePaymentType(paymentType)
					if !ok {
						return fmt.Errorf("unknown payment type %q", paymentType)
					}
					payments, err = a.payments.ListByType(ctx, t)
				case from != "" || to != "":
					start, end, perr := parseRange(from, to)
					if perr != nil {
						return perr
					}
					payments, err = a.payments.ListByDateRange(ctx, start, end)
				default:
					payments, err = a.payments.ListPayments(ctx)
				}
				if err != nil {
					return err
				}
				return printPayments(payments)
			})
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "agent filter")
	cmd.Flags().StringVar(&paymentType, "type", "", "payment type filter")
	cmd.Flags().StringVar(&from, "from", "", "first day YYYY-MM-DD, inclusive")
	cmd.Flags().StringVar(&to, "to", "", "last day YYYY-MM-DD, inclusive")
	return cmd
}

// parseRange fills a missing bound with the open end of the calendar.
func parseRange(from, to string) (time.Time, time.Time, error) {
	start := time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
	var err error
	if from != "" {
		if start, err = time.Parse(time.DateOnly, from); err != nil {
			return start, end, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if to != "" {
		if end, err = time.Parse(time.DateOnly, to); err != nil {
			return start, end, fmt.Errorf("invalid --to: %w", err)
		}
	}
	return start, end, nil
}

func printPayments(payments []domain.Payment) error {
	if outputJSON {
		return printJSON(paymentViews(payments))
	}
	renderPayments(payments, nil)
	return nil
}

func renderPayments(payments []domain.Payment, total *float64) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Agent", "Type", "Amount", "Date", "Validated", "Reason"})
	for _, p := range payments {
		tw.AppendRow(table.Row{p.ID, p.AgentID, p.Type, money(p.Amount), p.Date.Format(time.DateOnly), p.ConditionValidated, p.Reason})
	}
	if total != nil {
		tw.AppendFooter(table.Row{"", "", "Total", money(*total)})
	}
	tw.Render()
}
