package kilometrikisa

import (
	"context"
	"fmt"
	"kilometrikisa/lib/htmlutil"
	"kilometrikisa/lib/textutil"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
)

// TeamInfo is a row of a contest leaderboard.
type TeamInfo struct {
	Rank int
	Name string
	// Kmpp is the team's kilometers per member.
	Kmpp    float64
	KmTotal float64
	Days    int
}

type MemberResult struct {
	Rank int
	Name string
	Km   float64
	Days int
}

type TeamResult struct {
	Name    string
	Rank    int
	Results []MemberResult
}

// TeamResults reads the team page of one of the account's contests. Team
// admins see an extra email column, it is dropped before the rows are read.
func (c *Client) TeamResults(ctx context.Context, contest MyContest) (TeamResult, error) {
	ctx, span := tracer.Start(ctx, "client:TeamResults")
	defer span.End()

	doc, _, err := c.getDocument(ctx, contest.Link)
	if err != nil {
		return TeamResult{}, fail(span, err, "failed to fetch team page")
	}

	teamName := strings.TrimSpace(doc.Find(".widget").Find("h4").First().Text())
	rank, err := textutil.ParseInteger(doc.Find(".team-contest-table").Find("strong").First().Text())
	if err != nil {
		err = fmt.Errorf("%w: team rank: %w", ErrUnexpectedStructure, err)
		return TeamResult{}, fail(span, err, "failed to read team rank")
	}

	rows, err := htmlutil.ExtractTable(doc.Find(`div[data-slug="my-team"]`), htmlutil.TableOptions{
		Hooks:      []string{".memberEmail"},
		MinColumns: 4,
	})
	if err != nil {
		err = fmt.Errorf("%w: member table: %w", ErrUnexpectedStructure, err)
		return TeamResult{}, fail(span, err, "failed to read member table")
	}

	members := make([]MemberResult, len(rows))
	for i, row := range rows {
		member, err := parseMemberRow(row.Cells)
		if err != nil {
			err = fmt.Errorf("%w: member row %d: %w", ErrUnexpectedStructure, i, err)
			return TeamResult{}, fail(span, err, "failed to read member table")
		}
		members[i] = member
	}

	return TeamResult{
		Name:    teamName,
		Rank:    rank,
		Results: members,
	}, nil
}

func parseMemberRow(cells []string) (MemberResult, error) {
	rank, err := textutil.ParseLeadingInt(cells[0])
	if err != nil {
		return MemberResult{}, err
	}
	km, err := textutil.ParseNumber(cells[2])
	if err != nil {
		return MemberResult{}, err
	}
	days, err := textutil.ParseInteger(cells[3])
	if err != nil {
		return MemberResult{}, err
	}
	return MemberResult{
		Rank: rank,
		Name: textutil.TrimPersonName(cells[1]),
		Km:   km,
		Days: days,
	}, nil
}

// TeamInfoPage reads page pageIndex (zero based) of a leaderboard,
// pageUrlBase already carries a query string, see TopListPage.
func (c *Client) TeamInfoPage(ctx context.Context, pageUrlBase string, pageIndex int) ([]TeamInfo, error) {
	ctx, span := tracer.Start(ctx, "client:TeamInfoPage")
	defer span.End()
	span.SetAttributes(attribute.Int("page_index", pageIndex))

	pageUrl := fmt.Sprintf("%s&page=%d", pageUrlBase, pageIndex+1)
	doc, _, err := c.getDocument(ctx, pageUrl)
	if err != nil {
		return nil, fail(span, err, "failed to fetch leaderboard page")
	}

	// logged in users get a favorite toggle as the first column
	rows, err := htmlutil.ExtractTable(doc.Find(".result-table"), htmlutil.TableOptions{
		Hooks:              []string{"td > .favorite-form"},
		CollapseWhitespace: true,
		MinColumns:         5,
	})
	if err != nil {
		err = fmt.Errorf("%w: leaderboard: %w", ErrUnexpectedStructure, err)
		return nil, fail(span, err, "failed to read leaderboard")
	}

	teams := make([]TeamInfo, len(rows))
	for i, row := range rows {
		team, err := parseTeamRow(row.Cells)
		if err != nil {
			err = fmt.Errorf("%w: leaderboard row %d: %w", ErrUnexpectedStructure, i, err)
			return nil, fail(span, err, "failed to read leaderboard")
		}
		teams[i] = team
	}
	return teams, nil
}

func parseTeamRow(cells []string) (TeamInfo, error) {
	rank, err := textutil.ParseLeadingInt(cells[0])
	if err != nil {
		return TeamInfo{}, err
	}
	kmpp, err := textutil.ParseNumber(cells[2])
	if err != nil {
		return TeamInfo{}, err
	}
	kmTotal, err := textutil.ParseNumber(cells[3])
	if err != nil {
		return TeamInfo{}, err
	}
	days, err := textutil.ParseInteger(cells[4])
	if err != nil {
		return TeamInfo{}, err
	}
	return TeamInfo{
		Rank:    rank,
		Name:    textutil.CleanTeamName(cells[1]),
		Kmpp:    kmpp,
		KmTotal: kmTotal,
		Days:    days,
	}, nil
}

// TeamInfoPages fetches the first pageCount leaderboard pages concurrently
// and returns their rows in page order. A page that fails is logged and
// contributes no rows.
func (c *Client) TeamInfoPages(ctx context.Context, pageUrlBase string, pageCount int) []TeamInfo {
	ctx, span := tracer.Start(ctx, "client:TeamInfoPages")
	defer span.End()

	if pageCount <= 0 {
		return []TeamInfo{}
	}

	pages := make([][]TeamInfo, pageCount)
	wg := sync.WaitGroup{}
	for i := 0; i < pageCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			teams, err := c.TeamInfoPage(ctx, pageUrlBase, i)
			if err != nil {
				slog.WarnContext(ctx, "failed to read leaderboard page", "page", i+1, "err", err)
				return
			}
			pages[i] = teams
		}()
	}
	wg.Wait()

	result := []TeamInfo{}
	for _, teams := range pages {
		result = append(result, teams...)
	}
	return result
}
