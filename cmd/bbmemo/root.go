package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonyski/bbmemo/internal/config"
	"github.com/tonyski/bbmemo/internal/memo"
	"github.com/tonyski/bbmemo/internal/obs"
	"github.com/tonyski/bbmemo/internal/store"
)

var (
	dbPath   string
	logLevel string

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bbmemo",
	Short: "A hashtag-indexed note store with dedup-safe imports",
	Long: `bbmemo keeps short notes in a local SQLite database, indexes them by
inline #hashtags, and imports external exports idempotently.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(dbPath, logLevel)
		if err != nil {
			return err
		}
		cfg = c
		obs.InitWithLevel(obs.ParseLevel(cfg.LogLevel))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the database file (default $BBMEMO_DB_PATH or ~/.bbmemo/bbmemo.db)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default info)")
}

// openService opens the store and wraps it in a note service. The returned
// close function must be called when the command is done.
func openService() (*memo.Service, func(), error) {
	st, err := store.Open(cfg.DatabasePath, cfg.KeyBytes())
	if err != nil {
		return nil, nil, err
	}
	svc := memo.NewService(st)
	return svc, func() { _ = st.Close() }, nil
}
