package conversation

import (
	"fmt"
	"time"
)

// RelativeLabel buckets a message timestamp for display: under a minute is
// "just now", then minutes, hours and days, and anything a week or older
// gets an absolute date.
func RelativeLabel(at, now time.Time) string {
	elapsed := now.Sub(at)

	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute")
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour")
	case elapsed < 7*24*time.Hour:
		return plural(int(elapsed.Hours()/24), "day")
	default:
		return at.Format("Jan 2, 2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
