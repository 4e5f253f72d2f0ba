package kilometrikisa

import (
	"context"
	"errors"
	"fmt"
	"kilometrikisa/lib/htmlutil"
	"kilometrikisa/lib/textutil"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

type Contest struct {
	Name string
	// Link is the site relative path of the contest's team leaderboard.
	Link string
}

// MyContest is a contest the account's team took part in.
type MyContest struct {
	TeamName  string
	Contest   string
	ContestId string
	Time      string
	Year      string
	// Link is the site relative path of the team's page in the contest.
	Link string
}

// names closer than this are considered the same contest
const contestMatchThreshold = 0.8

// AllContests lists the contests in the results menu of the front page,
// newest first.
func (c *Client) AllContests(ctx context.Context) ([]Contest, error) {
	ctx, span := tracer.Start(ctx, "client:AllContests")
	defer span.End()

	doc, _, err := c.getDocument(ctx, "/")
	if err != nil {
		return nil, fail(span, err, "failed to fetch front page")
	}

	menu := doc.Find(".top-bar-section").
		Find("ul").
		Children().
		Find("ul").
		Last()
	if menu.Length() == 0 {
		err := fmt.Errorf("%w: no contest menu on front page", ErrUnexpectedStructure)
		return nil, fail(span, err, "failed to find contest menu")
	}

	var contests []Contest
	menu.Children().Each(func(_ int, item *goquery.Selection) {
		link := item.Children().First()
		href, ok := link.Attr("href")
		if !ok {
			slog.DebugContext(ctx, "skipping contest menu entry without a link", "text", item.Text())
			return
		}
		contests = append(contests, Contest{
			Name: strings.TrimSpace(htmlutil.CollapseWhitespace(link.Text())),
			Link: href,
		})
	})
	return contests, nil
}

// LatestContest is the first entry of the contest menu.
func (c *Client) LatestContest(ctx context.Context) (Contest, error) {
	ctx, span := tracer.Start(ctx, "client:LatestContest")
	defer span.End()

	contests, err := c.AllContests(ctx)
	if err != nil {
		return Contest{}, fail(span, err, "failed to list contests")
	}
	if len(contests) == 0 {
		return Contest{}, fail(span, ErrNoContests, ErrNoContests.Error())
	}
	return contests[0], nil
}

// FindContest returns the contest named name, an exact match wins, otherwise
// the most similar name is accepted if it is close enough.
func (c *Client) FindContest(ctx context.Context, name string) (Contest, error) {
	ctx, span := tracer.Start(ctx, "client:FindContest")
	defer span.End()

	contests, err := c.AllContests(ctx)
	if err != nil {
		return Contest{}, fail(span, err, "failed to list contests")
	}
	names := make([]string, len(contests))
	for i, contest := range contests {
		names[i] = contest.Name
	}

	idx, score := textutil.ClosestMatch(name, names)
	if idx < 0 || score <= contestMatchThreshold {
		err := fmt.Errorf("%w: no contest named '%s'", ErrNoContests, name)
		return Contest{}, fail(span, err, "failed to find contest")
	}
	slog.DebugContext(ctx, "matched contest", "name", name, "contest", contests[idx].Name, "score", score)
	return contests[idx], nil
}

var contestIdRegex = regexp.MustCompile(`json-search/(\d+)/`)

// ContestId reads the numeric id of a contest from the autocomplete setup
// script on the contest's team page, contestUrl is that page.
func (c *Client) ContestId(ctx context.Context, contestUrl string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:ContestId")
	defer span.End()

	doc, _, err := c.getDocument(ctx, contestUrl)
	if err != nil {
		return "", fail(span, err, "failed to fetch contest page")
	}

	for _, script := range htmlutil.InlineScripts(doc.Find("body")) {
		groups := contestIdRegex.FindStringSubmatch(script)
		if len(groups) < 2 {
			continue
		}
		return groups[1], nil
	}

	err = fmt.Errorf("%w: %s", ErrContestIdNotFound, contestUrl)
	return "", fail(span, err, "failed to find contest id")
}

func (c *Client) LatestContestId(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "client:LatestContestId")
	defer span.End()

	latest, err := c.LatestContest(ctx)
	if err != nil {
		return "", fail(span, err, "failed to get latest contest")
	}
	id, err := c.ContestId(ctx, latest.Link)
	if err != nil {
		return "", fail(span, err, "failed to resolve latest contest id")
	}
	return id, nil
}

// contestTeamsPath maps the link of a team's contest page,
// /teams/<team>/<contest>/, to the contest's team leaderboard.
func contestTeamsPath(teamLink string) string {
	trimmed := strings.TrimSuffix(teamLink, "/")
	slug := trimmed[strings.LastIndex(trimmed, "/")+1:]
	return "/contests/" + slug + "/teams/"
}

// contestYear is the trailing four characters of a contest name.
func contestYear(contest string) string {
	runes := []rune(contest)
	if len(runes) <= 4 {
		return contest
	}
	return string(runes[len(runes)-4:])
}

// MyContests lists the contests the account's teams took part in. Contest
// ids are resolved concurrently, the call fails if any of them fails.
func (c *Client) MyContests(ctx context.Context) ([]MyContest, error) {
	ctx, span := tracer.Start(ctx, "client:MyContests")
	defer span.End()

	doc, _, err := c.getDocument(ctx, myTeamsPath)
	if err != nil {
		return nil, fail(span, err, "failed to fetch team list")
	}
	if doc.Find("#signup").Length() > 0 {
		return nil, fail(span, ErrNotAuthenticated, ErrNotAuthenticated.Error())
	}

	rows, err := htmlutil.ExtractTable(doc.Find("#teams"), htmlutil.TableOptions{
		MinColumns: 3,
	})
	if err != nil {
		err = fmt.Errorf("%w: team list: %w", ErrUnexpectedStructure, err)
		return nil, fail(span, err, "failed to read team list")
	}

	contests := make([]MyContest, len(rows))
	for i, row := range rows {
		if row.Href == "" {
			err := fmt.Errorf("%w: team list row %d has no link", ErrUnexpectedStructure, i)
			return nil, fail(span, err, "failed to read team list")
		}
		contest := strings.TrimSpace(row.Cells[1])
		contests[i] = MyContest{
			TeamName: strings.TrimSpace(row.Cells[0]),
			Contest:  contest,
			Time:     strings.TrimSpace(row.Cells[2]),
			Year:     contestYear(contest),
			Link:     row.Href,
		}
	}

	errs := make([]error, len(contests))
	wg := sync.WaitGroup{}
	for i := range contests {
		wg.Add(1)
		go func() {
			defer wg.Done()

			id, err := c.ContestId(ctx, contestTeamsPath(contests[i].Link))
			if err != nil {
				errs[i] = fmt.Errorf("contest '%s': %w", contests[i].Contest, err)
				return
			}
			contests[i].ContestId = id
		}()
	}
	wg.Wait()

	err = errors.Join(errs...)
	if err != nil {
		return nil, fail(span, err, "failed to resolve contest ids")
	}
	return contests, nil
}

type TopList int

const (
	AllTeams TopList = iota
	LargeTeams
	PowerTeams
	SmallTeams
)

var topLists = []TopList{AllTeams, LargeTeams, PowerTeams, SmallTeams}

func (l TopList) String() string {
	switch l {
	case AllTeams:
		return "all"
	case LargeTeams:
		return "large"
	case PowerTeams:
		return "power"
	case SmallTeams:
		return "small"
	}
	return fmt.Sprintf("TopList(%d)", int(l))
}

// PathSuffix is appended to a contest's leaderboard link to select the list.
func (l TopList) PathSuffix() string {
	switch l {
	case LargeTeams:
		return "large/"
	case PowerTeams:
		return "power/"
	case SmallTeams:
		return "small/"
	}
	return ""
}

func ParseTopList(name string) (TopList, error) {
	for _, l := range topLists {
		if l.String() == name {
			return l, nil
		}
	}
	return AllTeams, fmt.Errorf("unknown top list '%s'", name)
}

// TopListPage returns the rank sorted leaderboard of the latest contest.
// Page numbers are appended to it with "&page=n".
func (c *Client) TopListPage(ctx context.Context, list TopList) (string, error) {
	ctx, span := tracer.Start(ctx, "client:TopListPage")
	defer span.End()

	latest, err := c.LatestContest(ctx)
	if err != nil {
		return "", fail(span, err, "failed to get latest contest")
	}
	return c.TopListUrl(latest, list), nil
}

// TopListUrl is TopListPage for an already resolved contest.
func (c *Client) TopListUrl(contest Contest, list TopList) string {
	return c.Url(contest.Link+list.PathSuffix()) + "?sort=rank&order=asc"
}

func (c *Client) AllTeamsTopListPage(ctx context.Context) (string, error) {
	return c.TopListPage(ctx, AllTeams)
}

func (c *Client) LargeTeamsTopListPage(ctx context.Context) (string, error) {
	return c.TopListPage(ctx, LargeTeams)
}

func (c *Client) PowerTeamsTopListPage(ctx context.Context) (string, error) {
	return c.TopListPage(ctx, PowerTeams)
}

func (c *Client) SmallTeamsTopListPage(ctx context.Context) (string, error) {
	return c.TopListPage(ctx, SmallTeams)
}
