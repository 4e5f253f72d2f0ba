package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	date, err := ParseDate("2021-07-17")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, time.Date(2021, time.July, 17, 0, 0, 0, 0, Location), date)
	require.Equal(t, "2021-07-17", date.Format(time.DateOnly))

	_, err = ParseDate("17.07.2021")
	require.Error(t, err)
}

func TestToday(t *testing.T) {
	today := Today()
	require.Equal(t, 0, today.Hour())
	require.Equal(t, Location, today.Location())
	require.Equal(t, Now().Day(), today.Day())
}
