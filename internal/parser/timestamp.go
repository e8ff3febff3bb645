package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/intake-tracker/backend/internal/models"
)

var (
	// Bare digit strings this short are clock times or noise, never dates.
	shortDigitsRegex = regexp.MustCompile(`^\d{1,4}$`)
	clockDigitsRegex = regexp.MustCompile(`^\d{3,4}$`)

	// day/month or month/day with any of the / . - separators, an optional
	// 2 or 4 digit year and an optional clock part.
	numericDateRegex = regexp.MustCompile(`^(\d{1,2})[./-](\d{1,2})(?:[./-](\d{4}|\d{2}))?(?:[ T]+(.+))?$`)

	clockHintRegex = regexp.MustCompile(`\d{1,2}:\d{2}`)

	// Time-of-day layouts, tried against the upper-cased cell.
	clockLayouts = []string{
		"15:04",
		"15:04:05",
		"15.04",
		"15.04.05",
		"3:04 PM",
		"3:04PM",
		"3:04:05 PM",
		"3:04:05PM",
		"3 PM",
		"3PM",
	}

	textDateLayouts = textLayouts(
		[]string{
			"Jan 2", "January 2", "2 Jan", "2 January",
			"Jan 2 2006", "January 2 2006", "Jan 2, 2006", "January 2, 2006",
			"2 Jan 2006", "2 January 2006",
		},
		[]string{"", " 15:04", " 15:04:05", " 3:04 PM", " 3:04PM", " 3 PM", " 3PM"},
	)
)

func textLayouts(dates, clocks []string) []string {
	out := make([]string, 0, len(dates)*len(clocks))
	for _, d := range dates {
		for _, c := range clocks {
			out = append(out, d+c)
		}
	}
	return out
}

// TimestampResolver turns free-form time cells into absolute times.
//
// A cell is first parsed as a calendar date/time. Ambiguous numeric dates
// are read day-first when DayFirst is set ("03/04" and "03.04.2024" are the
// 3rd of April); the other order is used only when the preferred one is not
// a calendar date. A date without a year falls in the current year. A bare
// time of day ("21:40", "12.30") is anchored to the current date. Failing
// that, a cell of exactly 3 or 4 digits is read as a 24-hour HHMM clock time
// on the current date ("900" and "0900" are 09:00). Anything else is
// unresolved.
//
// Clock times re-anchor to the date of the render pass, so the same row
// moves to a new day when the sheet is viewed on a later date.
type TimestampResolver struct {
	DayFirst bool
	Location *time.Location
	// Now returns the current instant; it defaults to time.Now.
	Now func() time.Time
}

// NewTimestampResolver creates a resolver for the given location.
// A nil location means time.Local.
func NewTimestampResolver(dayFirst bool, loc *time.Location) *TimestampResolver {
	if loc == nil {
		loc = time.Local
	}
	return &TimestampResolver{
		DayFirst: dayFirst,
		Location: loc,
		Now:      time.Now,
	}
}

// Resolve parses a single cell using the current instant as "today".
func (r *TimestampResolver) Resolve(raw string) (time.Time, bool) {
	return r.resolveAt(raw, r.now())
}

// ResolveAll resolves every cell of a time column. All cells share one
// "today" so a single render pass is consistent.
func (r *TimestampResolver) ResolveAll(cells []any) []models.Resolution {
	now := r.now()
	out := make([]models.Resolution, len(cells))
	for i, cell := range cells {
		ts, ok := r.resolveAt(models.CellText(cell), now)
		out[i] = models.Resolution{Row: i, Time: ts, OK: ok}
	}
	return out
}

func (r *TimestampResolver) resolveAt(raw string, now time.Time) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if ts, ok := r.parseCalendar(s, now); ok {
		return ts, true
	}

	return r.parseClockDigits(s, now)
}

func (r *TimestampResolver) parseCalendar(s string, now time.Time) (time.Time, bool) {
	if shortDigitsRegex.MatchString(s) {
		return time.Time{}, false
	}

	upper := strings.ToUpper(s)
	if t, ok := parseClock(upper); ok {
		return atDate(now, now.Month(), now.Day(), t), true
	}

	if m := numericDateRegex.FindStringSubmatch(upper); m != nil {
		return r.parseNumericDate(m, now)
	}

	// Month names match case-insensitively.
	for _, layout := range textDateLayouts {
		if t, err := time.ParseInLocation(layout, upper, r.loc()); err == nil {
			return anchorYear(t, now)
		}
	}

	t, err := dateparse.ParseIn(s, r.loc(),
		dateparse.PreferMonthFirst(!r.DayFirst),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
	if err != nil || !keepsClock(s, t) {
		return time.Time{}, false
	}
	return anchorYear(t, now)
}

// parseNumericDate reads the groups of numericDateRegex. The preferred
// day/month order is tried first, then the swapped one; the cell is
// unresolved only when neither is a calendar date.
func (r *TimestampResolver) parseNumericDate(m []string, now time.Time) (time.Time, bool) {
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])

	year := now.Year()
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
	}

	var clock time.Time
	if m[4] != "" {
		c, ok := parseClock(strings.TrimSpace(m[4]))
		if !ok {
			return time.Time{}, false
		}
		clock = c
	}

	day, month := a, b
	if !r.DayFirst {
		day, month = b, a
	}
	if t, ok := calendarDate(year, month, day, clock, now.Location()); ok {
		return t, true
	}
	return calendarDate(year, day, month, clock, now.Location())
}

func parseClock(upper string) (time.Time, bool) {
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, upper); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func calendarDate(year, month, day int, clock time.Time, loc *time.Location) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, clock.Hour(), clock.Minute(), clock.Second(), 0, loc)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// anchorYear moves a date parsed without a year into the current year.
func anchorYear(t, now time.Time) (time.Time, bool) {
	if t.Year() != 0 {
		return t, true
	}
	d := atDate(now, t.Month(), t.Day(), t)
	if d.Month() != t.Month() || d.Day() != t.Day() {
		return time.Time{}, false
	}
	return d, true
}

// keepsClock rejects a parse that dropped the clock written in the cell.
func keepsClock(s string, t time.Time) bool {
	hint := clockHintRegex.FindString(s)
	if hint == "" {
		return true
	}
	c, err := time.Parse("15:04", hint)
	if err != nil {
		return false
	}
	return t.Hour()%12 == c.Hour()%12 && t.Minute() == c.Minute()
}

// parseClockDigits reads "930" or "0930" as 09:30 on the current date.
func (r *TimestampResolver) parseClockDigits(s string, now time.Time) (time.Time, bool) {
	if !clockDigitsRegex.MatchString(s) {
		return time.Time{}, false
	}
	if len(s) == 3 {
		s = "0" + s
	}

	hour := parseInt2(s[0:2])
	minute := parseInt2(s[2:4])
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, false
	}

	return time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location()), true
}

func (r *TimestampResolver) now() time.Time {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return now().In(r.loc())
}

func (r *TimestampResolver) loc() *time.Location {
	if r.Location == nil {
		return time.Local
	}
	return r.Location
}

// atDate places the clock part of t on the given month/day of now's year.
func atDate(now time.Time, month time.Month, day int, t time.Time) time.Time {
	return time.Date(now.Year(), month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), now.Location())
}

// parseInt2 parses a 2-digit decimal string. Returns -1 on error.
func parseInt2(s string) int {
	if len(s) != 2 {
		return -1
	}
	d1, d2 := s[0]-'0', s[1]-'0'
	if d1 > 9 || d2 > 9 {
		return -1
	}
	return int(d1)*10 + int(d2)
}
