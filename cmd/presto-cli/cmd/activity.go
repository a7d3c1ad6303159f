package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(activityCmd)
}

var activityCmd = &cobra.Command{
	Use:   "activity <card>",
	Short: "Show the synced transactions stored for a card, newest first.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		records, err := store.ListByCard(cmd.Context(), userId, args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Date", "Agency", "Location", "Type", "Class", "Discount", "Amount", "Balance"})
		for _, record := range records {
			t.AppendRow(table.Row{
				record.DateRaw,
				record.Agency,
				record.Location,
				record.Type,
				record.ServiceClass,
				record.Discount,
				record.Amount,
				record.Balance,
			})
		}
		t.Render()
	},
}
