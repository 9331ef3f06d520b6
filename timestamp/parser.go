// Package timestamp parses the loosely ISO-8601 timestamps returned by the
// time and transit providers. The device has no timezone database, so offsets
// are stripped and never applied: every parsed value is treated as already
// being in the device's local reference.
package timestamp

import (
	"strconv"
	"strings"
	"time"
)

// Fields holds the calendar fields of a parsed timestamp.
type Fields struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

// FromTime converts a device-clock reading into calendar fields.
func FromTime(t time.Time) Fields {
	return Fields{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Parse parses strings of the general shape
// "YYYY-MM-DDTHH:MM:SS[.ffffff][(+|-)HH:MM|Z]". A trailing "Z" is treated as
// "+00:00". Fractional seconds are discarded. Returns false when the date or
// time portion cannot be parsed, or fewer than two colon-separated time
// components are present.
func Parse(s string) (Fields, bool) {
	if strings.HasSuffix(s, "Z") {
		s = s[:len(s)-1] + "+00:00"
	}

	var datePart, timePart string
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		datePart, timePart = s[:i], s[i+1:]
	} else if i := strings.IndexByte(s, ' '); i >= 0 {
		datePart, timePart = s[:i], s[i+1:]
	} else {
		return Fields{}, false
	}

	year, month, day, ok := parseDate(datePart)
	if !ok {
		return Fields{}, false
	}

	timePart = stripOffset(timePart)

	// Drop fractional seconds.
	if i := strings.IndexByte(timePart, '.'); i >= 0 {
		timePart = timePart[:i]
	}

	parts := strings.Split(timePart, ":")
	if len(parts) < 2 {
		return Fields{}, false
	}
	hour, err1 := strconv.Atoi(parts[0])
	minute, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return Fields{}, false
	}
	second := 0
	if len(parts) > 2 {
		if v, err := strconv.Atoi(parts[2]); err == nil {
			second = v
		} else {
			return Fields{}, false
		}
	}

	return Fields{Year: year, Month: month, Day: day, Hour: hour, Minute: minute, Second: second}, true
}

// stripOffset removes a trailing timezone offset from the time portion.
// A "+HH:MM" suffix is always an offset. A "-HH:MM" suffix is an offset only
// when the two components after the last '-' are both two-digit numerics;
// anything else is left alone. The offset value is discarded, not applied.
func stripOffset(timePart string) string {
	if i := strings.IndexByte(timePart, '+'); i >= 0 {
		if strings.Contains(timePart[i+1:], ":") {
			return timePart[:i]
		}
		return timePart
	}
	i := strings.LastIndexByte(timePart, '-')
	if i <= 0 {
		return timePart
	}
	tz := strings.Split(timePart[i+1:], ":")
	if len(tz) != 2 {
		return timePart
	}
	if isTwoDigit(tz[0]) && isTwoDigit(tz[1]) {
		return timePart[:i]
	}
	return timePart
}

func isTwoDigit(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}

func parseDate(s string) (year, month, day int, ok bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var err error
	if year, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, false
	}
	if month, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, false
	}
	if day, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, false
	}
	return year, month, day, true
}

// MinutesUntil computes minutes from now until arrival using minute-of-day
// arithmetic, adding a day's worth of minutes when the arrival's calendar date
// is strictly later than today's. A same-day arrival in the past yields a
// negative result, which callers surface rather than clamp.
func MinutesUntil(arrival, now Fields) int {
	arrivalMinutes := arrival.Hour*60 + arrival.Minute
	nowMinutes := now.Hour*60 + now.Minute

	if dateAfter(arrival, now) {
		arrivalMinutes += 24 * 60
	}
	return arrivalMinutes - nowMinutes
}

func dateAfter(a, b Fields) bool {
	if a.Year != b.Year {
		return a.Year > b.Year
	}
	if a.Month != b.Month {
		return a.Month > b.Month
	}
	return a.Day > b.Day
}
