package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/openjudge/judgectl/admin"
)

var (
	problemKeyword    string
	problemDifficulty string
	problemPage       int
)

var problemsCmd = &cobra.Command{
	Use:   "problems",
	Short: "Manage problems",
}

var problemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List problems",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		page, err := a.admin.ListProblems(cmd.Context(), admin.ProblemQuery{
			ListQuery:  admin.ListQuery{Page: problemPage, Keyword: problemKeyword},
			Difficulty: problemDifficulty,
		})
		if err != nil {
			return err
		}
		printJSON(page)
		return nil
	}),
}

var problemsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one problem",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		p, err := a.admin.GetProblem(cmd.Context(), id)
		if err != nil {
			return err
		}
		printJSON(p)
		return nil
	}),
}

var problemsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a problem",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return err
		}
		return a.admin.DeleteProblem(cmd.Context(), id)
	}),
}

func init() {
	problemsListCmd.Flags().StringVar(&problemKeyword, "keyword", "", "filter by keyword")
	problemsListCmd.Flags().StringVar(&problemDifficulty, "difficulty", "", "filter by difficulty")
	problemsListCmd.Flags().IntVar(&problemPage, "page", 0, "page number")
	problemsCmd.AddCommand(problemsListCmd, problemsGetCmd, problemsDeleteCmd)
	rootCmd.AddCommand(problemsCmd)
}
