package news

import (
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the ISO date format used for all persisted dates.
const DateLayout = "2006-01-02"

var (
	fullDatePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	shortDatePattern = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})$`)
	embeddedDate     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// ResolveTarget normalizes a caller-supplied target date to a full ISO date.
// Accepted inputs: "" (yesterday), "today", "YYYY-MM-DD", and "MM-DD"
// (current year assumed). Malformed input falls back to yesterday rather
// than failing: a bad date should never abort a daily job.
func ResolveTarget(raw string, now time.Time) string {
	switch {
	case raw == "":
		return now.AddDate(0, 0, -1).Format(DateLayout)
	case raw == "today":
		return now.Format(DateLayout)
	case fullDatePattern.MatchString(raw):
		if _, err := time.Parse(DateLayout, raw); err == nil {
			return raw
		}
		return now.AddDate(0, 0, -1).Format(DateLayout)
	}
	if m := shortDatePattern.FindStringSubmatch(raw); m != nil {
		candidate := fmt.Sprintf("%d-%s-%s", now.Year(), pad(m[1]), pad(m[2]))
		if _, err := time.Parse(DateLayout, candidate); err == nil {
			return candidate
		}
	}
	return now.AddDate(0, 0, -1).Format(DateLayout)
}

func pad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// MatchesDate reports whether a resolved publish time names the target date.
// Both sides are parsed to a structured year-month-day and compared exactly.
// A publish time with no year ("MM-DD") is completed with the current year;
// the caller is expected to log that inference. Unparseable input never
// matches.
func MatchesDate(publishTime, target string, now time.Time) bool {
	pt, ok := normalizeDate(publishTime, now)
	if !ok {
		return false
	}
	tg, ok := normalizeDate(target, now)
	if !ok {
		return false
	}
	return pt == tg
}

func normalizeDate(raw string, now time.Time) (string, bool) {
	if m := embeddedDate.FindString(raw); m != "" {
		if _, err := time.Parse(DateLayout, m); err == nil {
			return m, true
		}
	}
	if m := shortDatePattern.FindStringSubmatch(raw); m != nil {
		candidate := fmt.Sprintf("%d-%s-%s", now.Year(), pad(m[1]), pad(m[2]))
		if _, err := time.Parse(DateLayout, candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// CompleteYear turns a list-page "MM-DD" hint into a full ISO date using the
// current year. Returns "" when the hint is not a month-day pair.
func CompleteYear(hint string, now time.Time) string {
	if m := shortDatePattern.FindStringSubmatch(hint); m != nil {
		candidate := fmt.Sprintf("%d-%s-%s", now.Year(), pad(m[1]), pad(m[2]))
		if _, err := time.Parse(DateLayout, candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// MonthDay extracts the "MM-DD" portion of a full ISO date.
func MonthDay(date string) string {
	if fullDatePattern.MatchString(date) {
		return date[5:]
	}
	return date
}

// WeekWindow returns the seven consecutive dates ending at end, inclusive,
// oldest first. End must be a full ISO date; a bad date yields the window
// ending yesterday.
func WeekWindow(end string, now time.Time) []string {
	endDay, err := time.Parse(DateLayout, end)
	if err != nil {
		endDay = now.AddDate(0, 0, -1)
	}
	dates := make([]string, 0, 7)
	for i := 6; i >= 0; i-- {
		dates = append(dates, endDay.AddDate(0, 0, -i).Format(DateLayout))
	}
	return dates
}
