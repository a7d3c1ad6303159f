package cmd

import (
	"fmt"
	"os"
	"time"

	"prestoassist-backend/lib/scrapers/presto"
	"prestoassist-backend/lib/timezone"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	syncFrom string
	syncTo   string
)

func init() {
	syncCmd.Flags().StringVar(&syncFrom, "from", "", "lower date bound (MM/DD/YYYY), ignored once a card has a cursor")
	syncCmd.Flags().StringVar(&syncTo, "to", "", "upper date bound (MM/DD/YYYY), defaults to today")
	rootCmd.AddCommand(syncCmd)
}

func parseRangeFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(presto.ActivityRangeLayout, value, timezone.Location)
}

var syncCmd = &cobra.Command{
	Use:   "sync [card...]",
	Short: "Incrementally pull card activity into the local database.",
	Run: func(cmd *cobra.Command, args []string) {
		from, err := parseRangeFlag(syncFrom)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid --from:", err.Error())
			os.Exit(1)
		}
		to, err := parseRangeFlag(syncTo)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid --to:", err.Error())
			os.Exit(1)
		}

		cards := args
		if len(cards) == 0 {
			dashboard, err := service.Cards(cmd.Context(), userId)
			if err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				os.Exit(1)
			}
			for _, card := range dashboard {
				cards = append(cards, card.Number)
			}
		}

		result, err := service.Sync(cmd.Context(), userId, cards, from, to)
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Card", "Fetched", "Inserted", "Error"})
		for _, outcome := range result.Outcomes {
			errText := ""
			if outcome.Err != nil {
				errText = outcome.Err.Error()
			}
			t.AppendRow(table.Row{outcome.CardNumber, outcome.Fetched, outcome.Inserted, errText})
		}
		t.Render()
	},
}
