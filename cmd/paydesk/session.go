package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	var email, credential string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Start a session as an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				agent, err := a.auth.Login(ctx, email, credential)
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(agentView(*agent))
				}
				fmt.Printf("logged in as %s (%s)\n", agent.FullName(), agent.Role)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "agent email")
	cmd.Flags().StringVar(&credential, "credential", "", "agent credential")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("credential")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				return a.auth.Logout(ctx)
			})
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the agent of the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
				current, err := a.auth.CurrentSession(ctx)
				if err != nil {
					return err
				}
				if outputJSON {
					return printJSON(current)
				}
				fmt.Printf("%s <%s> %s since %s\n", current.Agent.FullName(), current.Agent.Email,
					current.Agent.Role, current.StartedAt.Format(time.RFC3339))
				return nil
			})
		},
	}
}
