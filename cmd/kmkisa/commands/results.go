package commands

import (
	"fmt"
	"kilometrikisa/lib/timezone"
	"kilometrikisa/lib/util/serviceutil"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	resultsContestId *string
	resultsYear      *int
	resultsAll       *bool

	logContestId *string
	logDate      *string
	logKm        *float64
)

func init() {
	resultsContestId = resultsCmd.Flags().String("contest-id", "", "The contest to read, the latest contest by default.")
	resultsYear = resultsCmd.Flags().Int("year", timezone.Now().Year(), "The year of the contest.")
	resultsAll = resultsCmd.Flags().Bool("all", false, "Also list days without kilometers.")

	logContestId = logCmd.Flags().String("contest-id", "", "The contest to log to, the latest contest by default.")
	logDate = logCmd.Flags().String("date", "", "The day to log (YYYY-MM-DD), today by default.")
	logKm = logCmd.Flags().Float64("km", 0, "The kilometers ridden that day, replaces what was logged before.")
	logCmd.MarkFlagRequired("km")

	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(logCmd)
}

var resultsCmd = &cobra.Command{
	Use:   "results [--contest-id <id>] [--year <year>] [--all]",
	Short: "Prints your logged kilometers in a contest.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client, _, err := loggedIn(ctx)
		if err != nil {
			serviceutil.Fatal("failed to login", err)
		}

		contestId := *resultsContestId
		if contestId == "" {
			contestId, err = client.LatestContestId(ctx)
			if err != nil {
				serviceutil.Fatal("failed to resolve latest contest", err)
			}
		}

		results, err := client.UserResults(ctx, contestId, *resultsYear)
		if err != nil {
			serviceutil.Fatal("failed to fetch results", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Date", "Km"})
		var total float64
		var days int
		for _, result := range results {
			total += result.Km
			if result.Km > 0 {
				days++
			} else if !*resultsAll {
				continue
			}
			t.AppendRow(table.Row{result.Day(client.Location).Format(time.DateOnly), result.Km})
		}
		t.AppendFooter(table.Row{fmt.Sprintf("%d days", days), fmt.Sprintf("%.1f", total)})
		t.Render()
	},
}

var logCmd = &cobra.Command{
	Use:   "log --km <km> [--contest-id <id>] [--date <YYYY-MM-DD>]",
	Short: "Logs the kilometers of a day.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		date := timezone.Today()
		if *logDate != "" {
			var err error
			date, err = timezone.ParseDate(*logDate)
			if err != nil {
				serviceutil.Fatal("failed to parse date", err)
			}
		}

		client, _, err := loggedIn(ctx)
		if err != nil {
			serviceutil.Fatal("failed to login", err)
		}

		contestId := *logContestId
		if contestId == "" {
			contestId, err = client.LatestContestId(ctx)
			if err != nil {
				serviceutil.Fatal("failed to resolve latest contest", err)
			}
		}

		_, err = client.UpdateLog(ctx, contestId, date, *logKm)
		if err != nil {
			serviceutil.Fatal("failed to update log", err)
		}
		fmt.Printf("logged %g km on %s\n", *logKm, date.Format(time.DateOnly))
	},
}
