package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Helsinki")
	if err != nil {
		panic(err)
	}
}

// Now returns the current time in Finland, contest days are Finnish
// calendar days regardless of where the process runs.
func Now() time.Time {
	return time.Now().In(Location)
}

// Today returns midnight of the current Finnish calendar day.
func Today() time.Time {
	now := Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Location)
}

// ParseDate parses a YYYY-MM-DD date as midnight in Finland.
func ParseDate(value string) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly, value, Location)
}
