package restyutil

import (
	"fmt"
	devenv "kilometrikisa/dev/env"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

type DumpOutput interface {
	Write(id string, contents string)
}

type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput writes dumps into dir ("<dev_state>" is expanded),
// anything already in dir is removed.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	dir, err := devenv.ResolvePath(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, err
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	err := os.WriteFile(filepath.Join(o.directory, id), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write exchange dump", "id", id, "err", err)
	}
}

var unsafePathChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// dumpId names the nth exchange after its method and path so dumps sort in
// request order, "0003-POST-accounts-login.txt".
func dumpId(n uint64, method, rawUrl string) string {
	path := rawUrl
	if idx := strings.Index(path, "://"); idx >= 0 {
		path = path[idx+3:]
		if slash := strings.Index(path, "/"); slash >= 0 {
			path = path[slash:]
		} else {
			path = "/"
		}
	}
	path, _, _ = strings.Cut(path, "?")
	name := strings.Trim(unsafePathChars.ReplaceAllString(path, "-"), "-")
	if name == "" {
		name = "root"
	}
	return fmt.Sprintf("%04d-%s-%s.txt", n, method, name)
}

// DumpExchanges writes every completed request and its response to out.
// Form fields that carry credentials are redacted.
func DumpExchanges(client *resty.Client, out DumpOutput) {
	var counter uint64
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		n := atomic.AddUint64(&counter, 1)
		rawUrl := res.Request.URL
		if res.Request.RawRequest != nil {
			rawUrl = res.Request.RawRequest.URL.String()
		}
		out.Write(dumpId(n, res.Request.Method, rawUrl), formatExchange(res))
		return nil
	})
}
