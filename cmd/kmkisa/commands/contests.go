package commands

import (
	"fmt"
	"kilometrikisa/lib/util/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	contestName *string
	contestLink *string
)

func init() {
	contestName = contestIdCmd.Flags().String("name", "", "Resolve the contest with this name (closest match).")
	contestLink = contestIdCmd.Flags().String("link", "", "Resolve the contest whose team listing is at this link.")

	rootCmd.AddCommand(contestsCmd)
	rootCmd.AddCommand(contestIdCmd)
	rootCmd.AddCommand(myContestsCmd)
}

var contestsCmd = &cobra.Command{
	Use:   "contests",
	Short: "Lists all contests, newest first.",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := anonymous()
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}
		contests, err := client.AllContests(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list contests", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"Contest", "Link"})
		for _, contest := range contests {
			t.AppendRow(table.Row{contest.Name, contest.Link})
		}
		t.Render()
	},
}

var contestIdCmd = &cobra.Command{
	Use:   "contest-id [--name <contest name>] [--link <contest link>]",
	Short: "Prints the internal id of a contest, the latest contest by default.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client, err := anonymous()
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}

		var id string
		switch {
		case *contestLink != "":
			id, err = client.ContestId(ctx, *contestLink)
		case *contestName != "":
			contest, findErr := client.FindContest(ctx, *contestName)
			if findErr != nil {
				serviceutil.Fatal("failed to find contest", findErr)
			}
			id, err = client.ContestId(ctx, contest.Link)
		default:
			id, err = client.LatestContestId(ctx)
		}
		if err != nil {
			serviceutil.Fatal("failed to resolve contest id", err)
		}
		fmt.Println(id)
	},
}

var myContestsCmd = &cobra.Command{
	Use:   "my-contests",
	Short: "Lists the contests your teams took part in.",
	Run: func(cmd *cobra.Command, args []string) {
		client, _, err := loggedIn(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to login", err)
		}
		contests, err := client.MyContests(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to list your contests", err)
		}

		t := newTable()
		t.AppendHeader(table.Row{"#", "Team", "Contest", "Id", "Year", "Time"})
		for i, contest := range contests {
			t.AppendRow(table.Row{i, contest.TeamName, contest.Contest, contest.ContestId, contest.Year, contest.Time})
		}
		t.Render()
	},
}
