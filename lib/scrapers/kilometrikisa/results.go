package kilometrikisa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"kilometrikisa/lib/textutil"
	"net/url"
	"strconv"
	"time"
)

type SingleResult struct {
	// Date is the day's start in unix seconds, as the site reports it.
	Date int64
	Km   float64
}

// Day returns the result's date in loc.
func (r SingleResult) Day(loc *time.Location) time.Time {
	return time.Unix(r.Date, 0).In(loc)
}

// looseValue accepts a json number or string and keeps its text.
type looseValue string

func (v *looseValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		err := json.Unmarshal(data, &s)
		if err != nil {
			return err
		}
		*v = looseValue(s)
		return nil
	}
	var n json.Number
	err := json.Unmarshal(data, &n)
	if err != nil {
		return err
	}
	*v = looseValue(n.String())
	return nil
}

type logEntry struct {
	Start looseValue `json:"start"`
	Title looseValue `json:"title"`
}

// SeasonWindow is the range of days UserResults asks for in a year, it runs
// from February 1st to January 30th of the following year.
func SeasonWindow(year int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, time.February, 1, 0, 0, 0, 0, loc)
	// month 13 normalizes to January of the next year
	end := time.Date(year, 13, 30, 0, 0, 0, 0, loc)
	return start, end
}

// UserResults returns the logged kilometers of the account in a contest,
// one entry per calendar day the site reports.
func (c *Client) UserResults(ctx context.Context, contestId string, year int) ([]SingleResult, error) {
	ctx, span := tracer.Start(ctx, "client:UserResults")
	defer span.End()

	start, end := SeasonWindow(year, c.Location)
	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParam("start", strconv.FormatInt(start.Unix(), 10)).
		SetQueryParam("end", strconv.FormatInt(end.Unix(), 10)).
		Get(fmt.Sprintf(logListPath, url.PathEscape(contestId)))
	if err != nil {
		return nil, fail(span, err, "failed to fetch results")
	}
	err = checkStatus(res)
	if err != nil {
		return nil, fail(span, err, "failed to fetch results")
	}

	var entries []logEntry
	err = json.Unmarshal(res.Body(), &entries)
	if err != nil {
		err = fmt.Errorf("%w: results: %w", ErrUnexpectedStructure, err)
		return nil, fail(span, err, "failed to decode results")
	}

	results := make([]SingleResult, len(entries))
	for i, entry := range entries {
		seconds, err := strconv.ParseFloat(string(entry.Start), 64)
		if err != nil {
			err = fmt.Errorf("%w: result %d start '%s'", ErrUnexpectedStructure, i, entry.Start)
			return nil, fail(span, err, "failed to decode results")
		}
		km, err := textutil.ParseLeadingFloat(string(entry.Title))
		if err != nil {
			err = fmt.Errorf("%w: result %d: %w", ErrUnexpectedStructure, i, err)
			return nil, fail(span, err, "failed to decode results")
		}
		results[i] = SingleResult{
			Date: int64(seconds),
			Km:   km,
		}
	}
	return results, nil
}

// UpdateLog sets the kilometers of a single day, it returns the status code
// the site replied with.
func (c *Client) UpdateLog(ctx context.Context, contestId string, date time.Time, km float64) (int, error) {
	ctx, span := tracer.Start(ctx, "client:UpdateLog")
	defer span.End()

	// the save endpoint wants a token from a fresh form
	token, err := c.LoginToken(ctx)
	if err != nil {
		return 0, fail(span, err, "failed to get form token")
	}

	res, err := c.postForm(ctx, logSavePath, map[string]string{
		"contest_id":          contestId,
		"km_date":             date.Format(time.DateOnly),
		"km_amount":           strconv.FormatFloat(km, 'f', -1, 64),
		"csrfmiddlewaretoken": token,
	})
	if err != nil {
		return 0, fail(span, err, "failed to save log")
	}

	var reply struct {
		Status looseValue `json:"status"`
	}
	err = json.Unmarshal(res.Body(), &reply)
	if err != nil {
		err = fmt.Errorf("%w: log save reply: %w", ErrUnexpectedStructure, err)
		return 0, fail(span, err, "failed to decode log save reply")
	}
	status, err := strconv.Atoi(string(reply.Status))
	if err != nil {
		err = fmt.Errorf("%w: log save status '%s'", ErrLogUpdateRejected, reply.Status)
		return 0, fail(span, err, "failed to decode log save reply")
	}
	if status != 200 {
		err = fmt.Errorf("%w: status %d", ErrLogUpdateRejected, status)
		return status, fail(span, err, "log save rejected")
	}
	return status, nil
}
