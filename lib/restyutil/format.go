package restyutil

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
)

const redacted = "<redacted>"

var redactedHeaders = map[string]bool{
	"Cookie":        true,
	"Set-Cookie":    true,
	"Authorization": true,
}

var redactedFields = map[string]bool{
	"password": true,
}

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out strings.Builder
	for _, k := range keys {
		for _, v := range headers[k] {
			if redactedHeaders[http.CanonicalHeaderKey(k)] {
				v = redacted
			}
			out.WriteString(fmt.Sprintf("%s: %s\n", k, v))
		}
	}
	return strings.TrimSuffix(out.String(), "\n")
}

func formatForm(form url.Values) string {
	safe := url.Values{}
	for k, vals := range form {
		for _, v := range vals {
			if redactedFields[k] {
				v = redacted
			}
			safe.Add(k, v)
		}
	}
	// Encode sorts by key
	return safe.Encode()
}

func formatRequestBody(req *resty.Request) string {
	if len(req.FormData) > 0 {
		return formatForm(req.FormData)
	}
	switch body := req.Body.(type) {
	case string:
		return body
	case []byte:
		return string(body)
	case nil:
		return ""
	}
	return fmt.Sprintf("<%T body>", req.Body)
}

const exchangeTemplate = `---- REQUEST ----

%s %s

%s

%s

---- RESPONSE ----

%s %s

%s

%s`

func formatExchange(res *resty.Response) string {
	var requestHeaders string
	requestUrl := res.Request.URL
	if res.Request.RawRequest != nil {
		requestHeaders = formatHeaders(res.Request.RawRequest.Header)
		requestUrl = res.Request.RawRequest.URL.String()
	}

	responseUrl := requestUrl
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		// the final url after redirects
		responseUrl = res.RawResponse.Request.URL.String()
	}

	return fmt.Sprintf(
		exchangeTemplate,

		res.Request.Method, requestUrl,
		requestHeaders,
		formatRequestBody(res.Request),

		strconv.Itoa(res.StatusCode()), responseUrl,
		formatHeaders(res.Header()),
		res.String(),
	)
}
