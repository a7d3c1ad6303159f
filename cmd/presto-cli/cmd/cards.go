package cmd

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(cardsCmd)
}

var cardsCmd = &cobra.Command{
	Use:   "cards",
	Short: "List the account's cards and balances from the dashboard.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		loggedIn, err := service.CheckLogin(cmd.Context(), userId)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		if !loggedIn {
			fmt.Fprintln(os.Stderr, "not signed in, run `presto-cli login` first.")
			os.Exit(1)
		}

		cards, err := service.Cards(cmd.Context(), userId)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Card", "Balance"})
		for _, card := range cards {
			t.AppendRow(table.Row{card.Number, card.Balance})
		}
		t.Render()
	},
}
