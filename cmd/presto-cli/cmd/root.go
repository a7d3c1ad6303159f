package cmd

import (
	"fmt"
	"os"

	configsqlite "prestoassist-backend/lib/configutil/sqlite"
	"prestoassist-backend/lib/telemetry"
	"prestoassist-backend/services/prestosync"
	"prestoassist-backend/services/transactions"
	transactionsdb "prestoassist-backend/services/transactions/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	dbPath  string
	baseUrl string
	userId  string

	store   transactions.Store
	service *prestosync.Service
)

var rootCmd = &cobra.Command{
	Use:   "presto-cli",
	Short: "presto-cli is an operator interface for the card activity sync service.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(false)

		database, err := configsqlite.Struct{File: dbPath}.OpenDB(transactionsdb.Schema)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		store = transactions.NewStore(database)
		service = prestosync.NewService(store, prestosync.Options{BaseUrl: baseUrl})
		return nil
	},
}

func Execute() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "presto.db", "path to the sqlite database")
	rootCmd.PersistentFlags().StringVar(&baseUrl, "base-url", "", "portal base url, defaults to the live portal")
	rootCmd.PersistentFlags().StringVar(&userId, "user", "default", "the local user id sessions and transactions are stored under")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
