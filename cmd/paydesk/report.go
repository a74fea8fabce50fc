package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/paydesk/internal/report"
)

func reportCmd() *cobra.Command {
	var (
		threshold float64
		export    bool
		format    string
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print global statistics, optionally exporting them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				r, err := report.Build(ctx, a.statistics, threshold, time.Now())
				if err != nil {
					return err
				}

				if export {
					body, contentType, err := report.Encode(r, format)
					if err != nil {
						return err
					}
					exporter, err := report.NewExporter(ctx, a.cfg.Report)
					if err != nil {
						return err
					}
					name := report.ObjectName(a.cfg.Report.S3Prefix, r.GeneratedAt, format)
					location, err := exporter.Export(ctx, name, body, contentType)
					if err != nil {
						return fmt.Errorf("export report: %w", err)
					}
					a.logger.Info("report exported", zap.String("location", location))
					if !outputJSON {
						fmt.Println("exported:", location)
					}
				}

				if outputJSON {
					return printJSON(r)
				}
				renderReport(r)
				return nil
			})
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", 10000, "amount above which a payment is unusual")
	cmd.Flags().BoolVar(&export, "export", false, "export the report via the configured exporter")
	cmd.Flags().StringVar(&format, "format", report.FormatJSON, "export format (json|yaml)")
	return cmd
}

func renderReport(r *report.Report) {
	summary := table.NewWriter()
	summary.SetOutputMirror(os.Stdout)
	summary.SetTitle("Summary")
	summary.AppendHeader(table.Row{"Metric", "Value"})
	summary.AppendRow(table.Row{"Generated", r.GeneratedAt.Format(time.RFC3339)})
	summary.AppendRow(table.Row{"Agents", r.TotalAgents})
	summary.AppendRow(table.Row{"Departments", r.TotalDepartments})
	summary.AppendRow(table.Row{"Total paid", money(r.GlobalTotal)})
	summary.Render()

	dist := table.NewWriter()
	dist.SetOutputMirror(os.Stdout)
	dist.SetTitle("Payments by type")
	dist.AppendHeader(table.Row{"Type", "Count"})
	for _, tc := range r.Distribution {
		dist.AppendRow(table.Row{tc.Type, tc.Count})
	}
	dist.Render()

	rank := table.NewWriter()
	rank.SetOutputMirror(os.Stdout)
	rank.SetTitle("Ranking")
	rank.AppendHeader(table.Row{"#", "Agent", "Email", "Role", "Total"})
	for _, e := range r.Ranking {
		rank.AppendRow(table.Row{e.Rank, e.Name, e.Email, e.Role, money(e.Total)})
	}
	rank.Render()

	if r.Unusual != nil {
		fmt.Printf("unusual payment above %s: %s %s on %s (agent %s)\n",
			money(r.Threshold), r.Unusual.Type, money(r.Unusual.Amount), r.Unusual.Date, r.Unusual.AgentID)
	} else {
		fmt.Printf("no payment above %s\n", money(r.Threshold))
	}
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
