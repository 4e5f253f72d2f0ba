package commands

import (
	"errors"
	"fmt"
	devenv "kilometrikisa/dev/env"
	"kilometrikisa/lib/leaderboardstore"
	"kilometrikisa/lib/scrapers/kilometrikisa"
	"kilometrikisa/lib/timezone"
	"kilometrikisa/lib/util/serviceutil"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	teamIndex *int

	leaderboardList  *string
	leaderboardPages *int
	leaderboardDb    *string
)

func init() {
	teamIndex = teamCmd.Flags().Int("index", 0, "The row of my-contests to show, the first by default.")

	leaderboardList = leaderboardCmd.Flags().String("list", "all", "The leaderboard to read: all, large, power or small.")
	leaderboardPages = leaderboardCmd.Flags().Int("pages", 1, "How many pages of the leaderboard to read.")
	leaderboardDb = leaderboardCmd.Flags().String("db", "", "A sqlite database to store the leaderboard in (\"<dev_state>/leaderboard.db\" works), rank changes are shown against the previous snapshot.")

	rootCmd.AddCommand(teamCmd)
	rootCmd.AddCommand(leaderboardCmd)
}

var teamCmd = &cobra.Command{
	Use:   "team [--index <n>]",
	Short: "Prints the standings of your team in one of your contests.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		client, _, err := loggedIn(ctx)
		if err != nil {
			serviceutil.Fatal("failed to login", err)
		}
		contests, err := client.MyContests(ctx)
		if err != nil {
			serviceutil.Fatal("failed to list your contests", err)
		}
		if *teamIndex < 0 || *teamIndex >= len(contests) {
			serviceutil.Fatal("no such contest", fmt.Errorf("index %d, you have %d contests", *teamIndex, len(contests)))
		}
		contest := contests[*teamIndex]

		result, err := client.TeamResults(ctx, contest)
		if err != nil {
			serviceutil.Fatal("failed to fetch team results", err)
		}

		fmt.Printf("%s, %s: rank %d\n", result.Name, contest.Contest, result.Rank)
		t := newTable()
		t.AppendHeader(table.Row{"Rank", "Name", "Km", "Days"})
		for _, member := range result.Results {
			t.AppendRow(table.Row{member.Rank, member.Name, member.Km, member.Days})
		}
		t.Render()
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard [--list all|large|power|small] [--pages <n>] [--db <path>]",
	Short: "Prints the team leaderboard of the latest contest.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		list, err := kilometrikisa.ParseTopList(*leaderboardList)
		if err != nil {
			serviceutil.Fatal("invalid --list", err)
		}

		client, err := anonymous()
		if err != nil {
			serviceutil.Fatal("failed to create client", err)
		}
		latest, err := client.LatestContest(ctx)
		if err != nil {
			serviceutil.Fatal("failed to get latest contest", err)
		}
		pageUrl := client.TopListUrl(latest, list)
		teams := client.TeamInfoPages(ctx, pageUrl, *leaderboardPages)

		current := leaderboardstore.Snapshot{
			ContestLink: latest.Link,
			List:        list.String(),
			TakenAt:     timezone.Now(),
			Teams:       teams,
		}

		var changes map[string]int
		if *leaderboardDb != "" {
			changes = storeSnapshot(cmd, current)
		}

		fmt.Printf("%s (%s)\n", latest.Name, list)
		t := newTable()
		header := table.Row{"Rank", "Team", "Km/person", "Km", "Days"}
		if changes != nil {
			header = append(header, "Change")
		}
		t.AppendHeader(header)
		for _, team := range teams {
			row := table.Row{team.Rank, team.Name, team.Kmpp, team.KmTotal, team.Days}
			if changes != nil {
				change, ok := changes[team.Name]
				switch {
				case !ok:
					row = append(row, "new")
				case change > 0:
					row = append(row, fmt.Sprintf("+%d", change))
				default:
					row = append(row, change)
				}
			}
			t.AppendRow(row)
		}
		t.Render()
	},
}

// storeSnapshot saves the leaderboard and returns the rank changes since the
// previous stored snapshot, nil when there is none.
func storeSnapshot(cmd *cobra.Command, current leaderboardstore.Snapshot) map[string]int {
	ctx := cmd.Context()

	path, err := devenv.ResolvePath(*leaderboardDb)
	if err != nil {
		serviceutil.Fatal("failed to resolve db path", err)
	}
	store, database, err := leaderboardstore.Open(ctx, path)
	if err != nil {
		serviceutil.Fatal("failed to open db", err)
	}
	defer database.Close()

	var changes map[string]int
	previous, err := store.Latest(ctx, current.ContestLink, current.List, current.TakenAt)
	switch {
	case errors.Is(err, leaderboardstore.ErrNoSnapshot):
	case err != nil:
		serviceutil.Fatal("failed to read previous snapshot", err)
	default:
		changes = leaderboardstore.RankChanges(previous, current)
		slog.Debug("comparing against snapshot", "taken_at", previous.TakenAt)
	}

	err = store.Push(ctx, current)
	if err != nil {
		serviceutil.Fatal("failed to store snapshot", err)
	}
	return changes
}
