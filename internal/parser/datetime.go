package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// dateRule shifts the reference date by days when pattern matches.
type dateRule struct {
	pattern *regexp.Regexp
	days    int
}

// Order matters: the first rule that matches wins.
var dateRules = []dateRule{
	{pattern: regexp.MustCompile(`(?i)\btoday\b`), days: 0},
	{pattern: regexp.MustCompile(`(?i)\btomorrow\b`), days: 1},
	{pattern: regexp.MustCompile(`(?i)\bnext\s+week\b`), days: 7},
}

// timePattern groups: 1 lead-in, 2 hour, 3 minutes, 4 meridiem.
var timePattern = regexp.MustCompile(`(?i)(?:\b(at|by)\s+)?\b(\d{1,2})(?::(\d{2}))?(?:\s*(am|pm))?\b`)

// Clock is a time of day in 24-hour form.
type Clock struct {
	Hour   int
	Minute int
}

// On returns day's calendar date at the clock time, in day's location.
// Seconds and sub-second fields are zero.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, c.Hour, c.Minute, 0, 0, day.Location())
}

func (c Clock) valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}

// DateTimeMatch is the outcome of ResolveDateTime. Due is nil when no
// date phrase was recognised.
type DateTimeMatch struct {
	Due   *time.Time
	Spans []Span
}

// ResolveDateTime finds a relative date phrase in text and, when one is
// present, an optional time phrase to go with it. The result is in now's
// location. A time phrase alone never produces a due date.
func ResolveDateTime(text string, now time.Time) DateTimeMatch {
	for _, rule := range dateRules {
		loc := rule.pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}

		due := now.AddDate(0, 0, rule.days)
		match := DateTimeMatch{Spans: []Span{{Start: loc[0], End: loc[1]}}}

		if clock, span, ok := findClock(text); ok {
			due = clock.On(due)
			match.Spans = append(match.Spans, span)
		}

		match.Due = &due
		return match
	}
	return DateTimeMatch{}
}

// findClock returns the first time phrase in text. A bare number is not a
// time phrase: it needs a lead-in, minutes or a meridiem. A malformed
// phrase reports ok=false.
func findClock(text string) (Clock, Span, bool) {
	for _, idx := range timePattern.FindAllStringSubmatchIndex(text, -1) {
		hasLeadIn := idx[2] >= 0
		hasMinutes := idx[6] >= 0
		hasMeridiem := idx[8] >= 0
		if !hasLeadIn && !hasMinutes && !hasMeridiem {
			continue
		}

		hour, err := strconv.Atoi(text[idx[4]:idx[5]])
		if err != nil {
			return Clock{}, Span{}, false
		}
		minute := 0
		if hasMinutes {
			if minute, err = strconv.Atoi(text[idx[6]:idx[7]]); err != nil {
				return Clock{}, Span{}, false
			}
		}
		if hasMeridiem {
			switch strings.ToLower(text[idx[8]:idx[9]]) {
			case "pm":
				if hour < 12 {
					hour += 12
				}
			case "am":
				if hour == 12 {
					hour = 0
				}
			}
		}

		clock := Clock{Hour: hour, Minute: minute}
		if !clock.valid() {
			return Clock{}, Span{}, false
		}
		return clock, Span{Start: idx[0], End: idx[1]}, true
	}
	return Clock{}, Span{}, false
}
