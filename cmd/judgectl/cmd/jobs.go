package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/openjudge/judgectl/admin"
)

var jobStatus string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Monitor and retry judge jobs",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List judge jobs",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		page, err := a.admin.ListJobs(cmd.Context(), admin.JobQuery{Status: jobStatus})
		if err != nil {
			return err
		}
		printJSON(page)
		return nil
	}),
}

var jobsRetryCmd = &cobra.Command{
	Use:   "retry <id>",
	Short: "Requeue a judge job (requires step-up confirmation)",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		token, err := a.gate.RequestToken(cmd.Context(), fmt.Sprintf("retry judge job %d", id))
		if err != nil {
			return err
		}
		if token == "" {
			fmt.Println("cancelled")
			return nil
		}
		if err := a.admin.RetryJob(cmd.Context(), id, token); err != nil {
			return err
		}
		fmt.Printf("job %d requeued\n", id)
		return nil
	}),
}

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Inspect and revoke issued auth tokens",
}

var tokensListCmd = &cobra.Command{
	Use:   "list",
	Short: "List issued tokens",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		page, err := a.admin.ListTokens(cmd.Context(), admin.ListQuery{})
		if err != nil {
			return err
		}
		printJSON(page)
		return nil
	}),
}

var tokensRevokeCmd = &cobra.Command{
	Use:   "revoke <id>",
	Short: "Revoke an issued token (requires step-up confirmation)",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		token, err := a.gate.RequestToken(cmd.Context(), "revoke auth token "+args[0])
		if err != nil {
			return err
		}
		if token == "" {
			fmt.Println("cancelled")
			return nil
		}
		if err := a.admin.RevokeToken(cmd.Context(), args[0], token); err != nil {
			return err
		}
		fmt.Printf("token %s revoked\n", args[0])
		return nil
	}),
}

func init() {
	jobsListCmd.Flags().StringVar(&jobStatus, "status", "", "filter by status")
	jobsCmd.AddCommand(jobsListCmd, jobsRetryCmd)
	tokensCmd.AddCommand(tokensListCmd, tokensRevokeCmd)
	rootCmd.AddCommand(jobsCmd, tokensCmd)
}
