package kilometrikisa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"kilometrikisa/lib/telemetry"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultBaseUrl = "https://www.kilometrikisa.fi"

const (
	loginPath   = "/accounts/login/"
	profilePath = "/accounts/profile/"
	myTeamsPath = "/accounts/myteams/"
	logSavePath = "/contest/log-save/"
	logListPath = "/contest/log_list_json/%s/"
)

var (
	ErrUnexpectedStatus    = errors.New("unexpected response status")
	ErrLoginFailed         = errors.New("login failed, check your username and password")
	ErrNotAuthenticated    = errors.New("session is not authenticated")
	ErrUnexpectedStructure = errors.New("unexpected page structure")
	ErrContestIdNotFound   = fmt.Errorf("%w: contest id not found", ErrUnexpectedStructure)
	ErrNoContests          = errors.New("no contests listed")
	ErrLogUpdateRejected   = errors.New("log update rejected")
)

// Client is a single kilometrikisa.fi session, cookies set by the site
// (csrftoken, sessionid) persist in its jar across calls.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	// Location is the timezone result dates are computed in.
	Location *time.Location
}

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// Location defaults to time.Local.
	Location *time.Location
	// Timeout defaults to 30 seconds.
	Timeout time.Duration
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	opts.BaseUrl = strings.TrimSuffix(opts.BaseUrl, "/")
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Timeout <= 0 {
		opts.Timeout = time.Second * 30
	}

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(opts.Timeout)

	telemetry.InstrumentResty(client, "kilometrikisa.lib.scrapers.kilometrikisa.http")

	c := &Client{
		BaseUrl:  baseUrl,
		Http:     client,
		Location: opts.Location,
	}
	return c, nil
}

// Url resolves a site relative path to an absolute url, absolute urls are
// returned unchanged.
func (c *Client) Url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(c.BaseUrl.String(), "/") + path
}

func fail(span trace.Span, err error, msg string) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	return err
}

func checkStatus(res *resty.Response) error {
	if res.IsError() {
		return fmt.Errorf(
			"%w: %s %s: %s",
			ErrUnexpectedStatus,
			res.Request.Method,
			res.Request.URL,
			res.Status(),
		)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string) (*resty.Response, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return nil, err
	}
	return res, checkStatus(res)
}

func (c *Client) getDocument(ctx context.Context, path string) (*goquery.Document, *resty.Response, error) {
	res, err := c.get(ctx, path)
	if err != nil {
		return nil, res, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, res, err
	}
	return doc, res, nil
}

func (c *Client) postForm(ctx context.Context, path string, form map[string]string) (*resty.Response, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		SetHeader("referer", c.Url(loginPath)).
		SetFormData(form).
		Post(path)
	if err != nil {
		return nil, err
	}
	return res, checkStatus(res)
}
