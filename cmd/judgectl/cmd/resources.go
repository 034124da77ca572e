package cmd

import (
	"github.com/spf13/cobra"

	"github.com/openjudge/judgectl/admin"
)

var listKeyword string

var contestsCmd = &cobra.Command{
	Use:   "contests",
	Short: "Manage contests",
}

var contestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List contests",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		page, err := a.admin.ListContests(cmd.Context(), admin.ListQuery{Keyword: listKeyword})
		if err != nil {
			return err
		}
		printJSON(page)
		return nil
	}),
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		page, err := a.admin.ListUsers(cmd.Context(), admin.UserQuery{
			ListQuery: admin.ListQuery{Keyword: listKeyword},
		})
		if err != nil {
			return err
		}
		printJSON(page)
		return nil
	}),
}

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage problem tags",
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tags",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		page, err := a.admin.ListTags(cmd.Context(), admin.ListQuery{Keyword: listKeyword})
		if err != nil {
			return err
		}
		printJSON(page)
		return nil
	}),
}

var wordsCmd = &cobra.Command{
	Use:   "words",
	Short: "Manage the sensitive-word filter",
}

var wordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sensitive words",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		page, err := a.admin.ListWords(cmd.Context(), admin.ListQuery{Keyword: listKeyword})
		if err != nil {
			return err
		}
		printJSON(page)
		return nil
	}),
}

var wordsAddCmd = &cobra.Command{
	Use:   "add <word>",
	Short: "Add a sensitive word",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		word, err := a.admin.AddWord(cmd.Context(), args[0], "")
		if err != nil {
			return err
		}
		printJSON(word)
		return nil
	}),
}

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List judge nodes",
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		nodes, err := a.admin.ListNodes(cmd.Context())
		if err != nil {
			return err
		}
		printJSON(nodes)
		return nil
	}),
}

func init() {
	for _, c := range []*cobra.Command{contestsListCmd, usersListCmd, tagsListCmd, wordsListCmd} {
		c.Flags().StringVar(&listKeyword, "keyword", "", "filter by keyword")
	}
	contestsCmd.AddCommand(contestsListCmd)
	usersCmd.AddCommand(usersListCmd)
	tagsCmd.AddCommand(tagsListCmd)
	wordsCmd.AddCommand(wordsListCmd, wordsAddCmd)
	rootCmd.AddCommand(contestsCmd, usersCmd, tagsCmd, wordsCmd, nodesCmd)
}
