package commands

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"kilometrikisa/lib/configutil"
	"kilometrikisa/lib/restyutil"
	"kilometrikisa/lib/scrapers/kilometrikisa"
	"kilometrikisa/lib/timezone"
	"log/slog"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

const (
	usernameEnv = "KILOMETRIKISA_USERNAME"
	passwordEnv = "KILOMETRIKISA_PASSWORD"
)

type Config struct {
	BaseUrl  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
	// Timezone is an IANA name, results are bucketed into days in it.
	Timezone       string `json:"timezone"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// readConfig reads the config file if there is one, credentials in the
// environment take priority over it.
func readConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("no config file, using defaults", "path", *configPath)
		err = nil
	}
	if err != nil {
		return Config{}, err
	}

	cfg.Username = configutil.StringFromEnv(usernameEnv, cfg.Username)
	cfg.Password = configutil.StringFromEnv(passwordEnv, cfg.Password)
	return cfg, nil
}

func (cfg Config) location() (*time.Location, error) {
	if cfg.Timezone == "" {
		return timezone.Location, nil
	}
	return time.LoadLocation(cfg.Timezone)
}

func newClient(cfg Config) (*kilometrikisa.Client, error) {
	loc, err := cfg.location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	client, err := kilometrikisa.NewClient(kilometrikisa.ClientOptions{
		BaseUrl:  cfg.BaseUrl,
		Location: loc,
		Timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	if *dumpDir != "" {
		out, err := restyutil.NewFilesystemOutput(*dumpDir)
		if err != nil {
			return nil, fmt.Errorf("dump directory: %w", err)
		}
		restyutil.DumpExchanges(client.Http, out)
		slog.Info("dumping requests", "dir", *dumpDir)
	}
	return client, nil
}

func promptPassword(username string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("no password for '%s', set %s or the config's password", username, passwordEnv)
	}
	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(password), nil
}

// loggedIn returns a client with an authenticated session.
func loggedIn(ctx context.Context) (*kilometrikisa.Client, kilometrikisa.User, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, kilometrikisa.User{}, err
	}
	if cfg.Username == "" {
		return nil, kilometrikisa.User{}, fmt.Errorf("no username, set %s or the config's username", usernameEnv)
	}
	if cfg.Password == "" {
		cfg.Password, err = promptPassword(cfg.Username)
		if err != nil {
			return nil, kilometrikisa.User{}, err
		}
	}

	client, err := newClient(cfg)
	if err != nil {
		return nil, kilometrikisa.User{}, err
	}
	user, err := client.Login(ctx, cfg.Username, cfg.Password)
	if err != nil {
		return nil, kilometrikisa.User{}, err
	}
	return client, user, nil
}

// anonymous returns a client without logging in.
func anonymous() (*kilometrikisa.Client, error) {
	cfg, err := readConfig()
	if err != nil {
		return nil, err
	}
	return newClient(cfg)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}
