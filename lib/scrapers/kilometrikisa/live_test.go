package kilometrikisa

import (
	"context"
	"errors"
	"io/fs"
	devenv "kilometrikisa/dev/env"
	"kilometrikisa/lib/telemetry"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestLiveSite runs against the real site with the account in
// dev/.state/kilometrikisa_config.json5.
func TestLiveSite(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/kilometrikisa")
	defer cleanup()

	config, err := devenv.GetStateConfig[devenv.KilometrikisaTestConfig]("kilometrikisa_config.json5")
	if errors.Is(err, fs.ErrNotExist) {
		t.Skip("no kilometrikisa_config.json5 in dev state")
	}
	if err != nil {
		t.Fatal(err)
	}

	ctx, span := tracer.Start(context.Background(), "TestLiveSite")
	defer span.End()

	client, err := NewClient(ClientOptions{BaseUrl: config.BaseUrl})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("WrongPassword", func(t *testing.T) {
		other, err := NewClient(ClientOptions{BaseUrl: config.BaseUrl})
		if err != nil {
			t.Fatal(err)
		}
		_, err = other.Login(ctx, config.Username, config.Password+"x")
		require.ErrorIs(t, err, ErrLoginFailed)
	})

	user, err := client.Login(ctx, config.Username, config.Password)
	if err != nil {
		t.Fatal(err)
	}
	require.NotEmpty(t, user.Nickname)

	t.Run("Contests", func(t *testing.T) {
		contests, err := client.AllContests(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, contests)

		id, err := client.LatestContestId(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, id)
	})

	t.Run("MyContests", func(t *testing.T) {
		contests, err := client.MyContests(ctx)
		require.NoError(t, err)
		for _, contest := range contests {
			require.NotEmpty(t, contest.ContestId, contest.Contest)
		}
		if len(contests) == 0 {
			return
		}

		result, err := client.TeamResults(ctx, contests[0])
		require.NoError(t, err)
		require.NotEmpty(t, result.Results)
	})

	t.Run("UserResults", func(t *testing.T) {
		if config.EmptyContestId == "" {
			t.Skip("no empty contest configured")
		}
		results, err := client.UserResults(ctx, config.EmptyContestId, config.EmptyYear)
		require.NoError(t, err)
		require.Greater(t, len(results), 50)
		for _, result := range results {
			require.Equal(t, float64(0), result.Km)
		}
	})

	t.Run("Leaderboard", func(t *testing.T) {
		pageUrl, err := client.AllTeamsTopListPage(ctx)
		require.NoError(t, err)
		teams := client.TeamInfoPages(ctx, pageUrl, 2)
		require.NotEmpty(t, teams)
		require.Equal(t, 1, teams[0].Rank)
	})
}
