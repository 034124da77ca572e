package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/openjudge/judgectl/admin"
	"github.com/openjudge/judgectl/debounce"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Interactively search problems as you type",
	Long: `Reads queries from stdin line by line. Input is debounced: rapid lines
coalesce into one request, and a newer query aborts the previous one so
stale results are never shown.`,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		searcher := debounce.New(
			func(ctx context.Context, query string) (*admin.ProblemPage, error) {
				return a.admin.ListProblems(ctx, admin.ProblemQuery{
					ListQuery: admin.ListQuery{Keyword: query},
				})
			},
			func(query string, page *admin.ProblemPage) {
				fmt.Printf("\n%d problems for %q:\n", page.Meta.Total, query)
				for _, p := range page.Problems {
					fmt.Printf("  %4d  %-10s %s\n", p.ID, p.Difficulty, p.Title)
				}
			},
			debounce.WithReject[*admin.ProblemPage](func(query string, err error) {
				fmt.Fprintf(os.Stderr, "search %q: %v\n", query, err)
			}),
		)
		defer searcher.Close()

		fmt.Fprintln(os.Stderr, "type to search, empty line to quit")
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				break
			}
			searcher.Query(line)
		}
		return scanner.Err()
	}),
}

func init() {
	rootCmd.AddCommand(searchCmd)
}
