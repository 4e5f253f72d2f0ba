package testutil

import (
	"database/sql"
	"fmt"
	devenv "kilometrikisa/dev/env"
	"kilometrikisa/lib/telemetry"
	"testing"

	_ "modernc.org/sqlite"
)

type DbParams struct {
	// Name is the telemetry service name, prefixed with "test:".
	Name   string
	Schema string
	// DbPath defaults to `:memory:`, "<dev_state>" is expanded.
	DbPath string
}

// SetupDb sets up test telemetry and opens a sqlite database with the schema
// applied, both are torn down when the test ends.
func SetupDb(t testing.TB, params DbParams) *sql.DB {
	cleanup := telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", params.Name))
	t.Cleanup(cleanup)

	dbpath := ":memory:"
	if params.DbPath != "" && params.DbPath != ":memory:" {
		var err error
		dbpath, err = devenv.ResolvePath(params.DbPath)
		if err != nil {
			t.Fatal(err)
		}
	}
	sqlite, err := sql.Open("sqlite", dbpath)
	if err != nil {
		t.Fatal(err)
	}
	if dbpath == ":memory:" {
		// every connection to :memory: is its own database
		sqlite.SetMaxOpenConns(1)
	}
	t.Cleanup(func() { sqlite.Close() })

	_, err = sqlite.Exec(params.Schema)
	if err != nil {
		t.Fatal(err)
	}
	return sqlite
}
