package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MinLeadTime is how far in the future an appointment must be to be accepted.
const MinLeadTime = 5 * time.Minute

var (
	timeTokenRe = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	dateTokenRe = regexp.MustCompile(`(\d{1,2})[./-](\d{1,2})(?:[./-](\d{2,4}))?`)
)

// relative day keywords, longest first so "послезавтра" wins over "завтра".
var relativeDays = []struct {
	word   string
	offset int
}{
	{"послезавтра", 2},
	{"завтра", 1},
	{"сегодня", 0},
}

// When parses a free-text appointment time: a relative-day keyword
// (сегодня/завтра/послезавтра) with a mandatory HH:MM token, or an absolute
// DD.MM[.YYYY] HH:MM date (dot, slash or dash separators). A date without a
// year that already passed rolls forward one year. Results closer than
// MinLeadTime to now are rejected. Returns false on any unparseable or
// rejected input.
func When(raw string, now time.Time) (time.Time, bool) {
	text := strings.ToLower(strings.TrimSpace(raw))
	if text == "" {
		return time.Time{}, false
	}

	tm := timeTokenRe.FindStringSubmatch(text)
	if tm == nil {
		return time.Time{}, false
	}
	hour, _ := strconv.Atoi(tm[1])
	minute, _ := strconv.Atoi(tm[2])
	if hour > 23 || minute > 59 {
		return time.Time{}, false
	}

	loc := now.Location()

	for _, rel := range relativeDays {
		if strings.Contains(text, rel.word) {
			day := now.AddDate(0, 0, rel.offset)
			at := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
			return accept(at, now)
		}
	}

	// Strip the time token so "18:00" digits are not mistaken for a date.
	rest := strings.Replace(text, tm[0], "", 1)
	dm := dateTokenRe.FindStringSubmatch(rest)
	if dm == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(dm[1])
	month, _ := strconv.Atoi(dm[2])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	year := now.Year()
	explicitYear := dm[3] != ""
	if explicitYear {
		year, _ = strconv.Atoi(dm[3])
		if year < 100 {
			year += 2000
		}
	}

	at := time.Date(year, time.Month(month), day, hour, minute, 0, 0, loc)
	// time.Date normalizes overflow (e.g. 31.02 -> 02.03 or 03.03); treat
	// that as an invalid calendar date rather than silently shifting.
	if at.Day() != day || at.Month() != time.Month(month) {
		return time.Time{}, false
	}

	if !explicitYear && at.Before(now) {
		at = at.AddDate(1, 0, 0)
	}

	return accept(at, now)
}

func accept(at, now time.Time) (time.Time, bool) {
	if at.Before(now.Add(MinLeadTime)) {
		return time.Time{}, false
	}
	return at, true
}
