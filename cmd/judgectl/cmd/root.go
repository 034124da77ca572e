package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openjudge/judgectl/admin"
	"github.com/openjudge/judgectl/auth"
	"github.com/openjudge/judgectl/client"
	"github.com/openjudge/judgectl/internal/config"
	"github.com/openjudge/judgectl/session"
	"github.com/openjudge/judgectl/stepup"
	bboltstorage "github.com/openjudge/judgectl/storage/bbolt"
)

var (
	cfgFile   string
	serverURL string
	dataDir   string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "judgectl",
	Short: "judgectl administers an online-judge platform",
	Long: `judgectl is the admin client for the judge platform: problems, contests,
users, roles, tags, datasets, comment moderation, sensitive words, judge
nodes and jobs. Destructive operations are gated behind a one-time-code
confirmation sent to your registered address.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath(), "config file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "admin API root URL")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding the session database")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// app is the wired-up service graph behind every command.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	backing *bboltstorage.Store
	store   *session.Store
	client  *client.Client
	auth    *auth.Service
	admin   *admin.Service
	gate    *stepup.Gate
}

func newApp() (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	level := parseLevel(cfg.LogLevel)
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	backing, err := bboltstorage.NewStoreFromFile(filepath.Join(cfg.DataDir, "session.db"), nil)
	if err != nil {
		return nil, fmt.Errorf("opening session storage: %w", err)
	}

	store := session.NewStore(backing, session.WithLogger(logger))
	c := client.New(cfg.ServerURL,
		client.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		client.WithCredentialSource(store),
		client.WithLogger(logger),
		client.WithUnauthorizedHook(func(returnTo string) {
			fmt.Fprintf(os.Stderr, "session expired; run `judgectl login` and retry %s\n", returnTo)
		}),
	)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		backing: backing,
		store:   store,
		client:  c,
		auth:    auth.NewService(c, store),
		admin:   admin.NewService(c),
	}
	a.gate = stepup.NewGate(c, store, newTerminalPrompter(), stepup.WithNotifier(stderrNotifier{}))
	return a, nil
}

func (a *app) Close() {
	if err := a.backing.Close(); err != nil {
		a.logger.Warn("closing session storage", slog.Any("error", err))
	}
}

// withApp wires the service graph, runs fn and tears down afterwards.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
