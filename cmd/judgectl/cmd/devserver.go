package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/openjudge/judgectl/internal/judgetest"
)

var devserverPort int

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run an in-memory fake of the admin API for local development",
	Long: `Serves the fake backend used by the test suite on a local port. One
account is seeded: admin / open-sesame. One-time codes are printed to
stdout instead of being emailed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fake := judgetest.New()
		handler := fake.Handler()

		// Surface "delivered" codes on stdout so the step-up flow is usable.
		mux := http.NewServeMux()
		mux.HandleFunc("/auth/sensitive/send-code", func(w http.ResponseWriter, r *http.Request) {
			handler.ServeHTTP(w, r)
			if r.Method == http.MethodPost {
				fmt.Printf("one-time code: %s\n", fake.LastCode())
			}
		})
		mux.Handle("/", handler)

		addr := fmt.Sprintf(":%d", devserverPort)
		fmt.Printf("fake admin API listening on %s (admin / open-sesame)\n", addr)
		server := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
		return server.ListenAndServe()
	},
}

func init() {
	devserverCmd.Flags().IntVar(&devserverPort, "port", 8750, "listen port")
	rootCmd.AddCommand(devserverCmd)
}
