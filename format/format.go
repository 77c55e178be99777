// Package format renders the relative-time and mention strings the UI
// shows next to goals, comments, and deadlines.
package format

import (
	"fmt"
	"time"
)

type interval struct {
	name    string
	seconds int64
}

// largest first; month and year are the UI's coarse 30/365-day buckets
var intervals = []interval{
	{"year", 31536000},
	{"month", 2592000},
	{"week", 604800},
	{"day", 86400},
	{"hour", 3600},
	{"minute", 60},
	{"second", 1},
}

func plural(value int64, name string) string {
	if value == 1 {
		return name
	}
	return name + "s"
}

// TimeLeft renders the remaining time until a deadline, e.g.
// "1 minute left". A zero target renders empty; a passed deadline renders
// "no time left".
func TimeLeft(target time.Time) string {
	if target.IsZero() {
		return ""
	}

	seconds := int64(time.Until(target) / time.Second)
	if seconds <= 0 {
		return "no time left"
	}

	for _, interval := range intervals {
		if value := seconds / interval.seconds; 1 <= value {
			return fmt.Sprintf("%d %s left", value, plural(value, interval.name))
		}
	}
	return "no time left"
}

// TimeAgo renders the elapsed time since an event, e.g. "1 hour ago";
// under one second it renders "just now".
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	seconds := int64(time.Since(t) / time.Second)
	for _, interval := range intervals {
		if value := seconds / interval.seconds; 1 <= value {
			return fmt.Sprintf("%d %s ago", value, plural(value, interval.name))
		}
	}
	return "just now"
}

// DateLeft renders whole days until a deadline, rounding up, e.g.
// "3 days left". A passed deadline renders "0 days left".
func DateLeft(target time.Time) string {
	if target.IsZero() {
		return ""
	}

	seconds := int64(time.Until(target) / time.Second)
	if seconds <= 0 {
		return "0 days left"
	}

	days := (seconds + 86400 - 1) / 86400
	return fmt.Sprintf("%d %s left", days, plural(days, "day"))
}

var progressMonths = []string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// DateProgress renders a progress entry's date marker, e.g. "JAN 2".
func DateProgress(createdAt time.Time) string {
	if createdAt.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s %d", progressMonths[createdAt.Month()-1], createdAt.Day())
}
