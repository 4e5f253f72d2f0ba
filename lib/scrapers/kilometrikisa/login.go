package kilometrikisa

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
)

// the site answers a failed login with the login page and this message
const loginFailedReply = "Antamasi tunnus tai salasana oli väärä"

const tokenLength = 32

type User struct {
	Nickname  string
	Firstname string
	Lastname  string
	Email     string
	// Municipality is empty when the account has not selected one.
	Municipality string
}

// formMarkup returns the inner markup of the first <form> element in body.
// The tokenizer only locates the start tag, so comments and script text are
// skipped, the markup itself is sliced from the raw response so attribute
// quoting stays exactly as the site sent it.
func formMarkup(body string) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(body))
	offset := 0
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return "", false
		}
		offset += len(z.Raw())
		if tt != html.StartTagToken {
			continue
		}
		name, _ := z.TagName()
		if string(name) != "form" {
			continue
		}
		inner := body[offset:]
		if end := strings.Index(inner, "</form>"); end >= 0 {
			inner = inner[:end]
		}
		return inner, true
	}
}

// tokenFromForm takes the first value="..."> attribute in the form markup,
// which is the hidden csrfmiddlewaretoken input on every form of the site.
func tokenFromForm(markup string) (string, error) {
	const startMarker = `value="`
	const endMarker = `">`

	start := strings.Index(markup, startMarker)
	if start < 0 {
		return "", fmt.Errorf("%w: no token value in form", ErrUnexpectedStructure)
	}
	start += len(startMarker)
	end := strings.Index(markup[start:], endMarker)
	if end < 0 {
		return "", fmt.Errorf("%w: unterminated token value in form", ErrUnexpectedStructure)
	}
	return markup[start : start+end], nil
}

// LoginToken fetches the login page and returns the csrf token of its form.
// The request also stores the csrftoken cookie the token is checked against.
func (c *Client) LoginToken(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "client:LoginToken")
	defer span.End()

	res, err := c.get(ctx, loginPath)
	if err != nil {
		return "", fail(span, err, "failed to fetch login page")
	}

	markup, ok := formMarkup(res.String())
	if !ok {
		err := fmt.Errorf("%w: no form on login page", ErrUnexpectedStructure)
		return "", fail(span, err, "failed to find login form")
	}
	token, err := tokenFromForm(markup)
	if err != nil {
		return "", fail(span, err, "failed to find login token")
	}
	if len(token) != tokenLength {
		slog.WarnContext(ctx, "login token has an unexpected length", "length", len(token))
	}
	return token, nil
}

// Login authenticates the session and returns the profile of the account.
func (c *Client) Login(ctx context.Context, username, password string) (User, error) {
	ctx, span := tracer.Start(ctx, "client:Login")
	defer span.End()

	token, err := c.LoginToken(ctx)
	if err != nil {
		return User{}, fail(span, err, "failed to get login token")
	}

	res, err := c.postForm(ctx, loginPath, map[string]string{
		"username":            username,
		"password":            password,
		"csrfmiddlewaretoken": token,
		"next":                "",
	})
	if err != nil {
		return User{}, fail(span, err, "failed to make login request")
	}
	if strings.Contains(res.String(), loginFailedReply) {
		return User{}, fail(span, ErrLoginFailed, ErrLoginFailed.Error())
	}

	user, err := c.Profile(ctx)
	if err != nil {
		return User{}, fail(span, err, "failed to fetch profile after login")
	}
	slog.DebugContext(ctx, "logged in", "nickname", user.Nickname)
	return user, nil
}

// Profile reads the account settings page, which only renders for an
// authenticated session.
func (c *Client) Profile(ctx context.Context) (User, error) {
	ctx, span := tracer.Start(ctx, "client:Profile")
	defer span.End()

	doc, _, err := c.getDocument(ctx, profilePath)
	if err != nil {
		return User{}, fail(span, err, "failed to fetch profile page")
	}

	if doc.Find("#signup").Length() > 0 {
		return User{}, fail(span, ErrNotAuthenticated, ErrNotAuthenticated.Error())
	}

	input := func(name string) string {
		return strings.TrimSpace(doc.Find(fmt.Sprintf("input[name=%s]", name)).First().AttrOr("value", ""))
	}
	user := User{
		Nickname:  input("nickname"),
		Firstname: input("first_name"),
		Lastname:  input("last_name"),
		Email:     input("email"),
		Municipality: strings.TrimSpace(
			doc.Find("select[name=municipality] option[selected]").First().Text(),
		),
	}
	return user, nil
}
