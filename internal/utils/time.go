package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidFormat is returned for malformed time input.
var ErrInvalidFormat = errors.New("invalid time format")

// TimeOfDay is an hour/minute pair on a 24-hour clock.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// String renders the time as "HH:MM".
func (t TimeOfDay) String() string {
	return FormatTimeOfDay(t.Hour, t.Minute, false)
}

// ParseLocalTime parses a 12-hour clock string such as "2:55 pm".
func ParseLocalTime(text string) (TimeOfDay, error) {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(text)))
	if len(fields) != 2 {
		return TimeOfDay{}, fmt.Errorf("%w: %q, expected e.g. \"2:55 pm\"", ErrInvalidFormat, text)
	}
	clock, period := fields[0], fields[1]
	if period != "am" && period != "pm" {
		return TimeOfDay{}, fmt.Errorf("%w: period must be am or pm", ErrInvalidFormat)
	}

	hs, ms, ok := strings.Cut(clock, ":")
	if !ok {
		return TimeOfDay{}, fmt.Errorf("%w: %q, expected H:MM", ErrInvalidFormat, clock)
	}
	hour, err := strconv.Atoi(hs)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: hour %q", ErrInvalidFormat, hs)
	}
	minute, err := strconv.Atoi(ms)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: minute %q", ErrInvalidFormat, ms)
	}
	if hour < 1 || hour > 12 || minute < 0 || minute > 59 {
		return TimeOfDay{}, fmt.Errorf("%w: hours 1-12, minutes 0-59", ErrInvalidFormat)
	}

	switch {
	case period == "pm" && hour != 12:
		hour += 12
	case period == "am" && hour == 12:
		hour = 0
	}
	return TimeOfDay{Hour: hour, Minute: minute}, nil
}

// ConvertToUTC converts desired local time to UTC. The user's offset is
// derived from their stated current local time against nowUTC, so it only has
// whole-hour precision and is off by one around an hour boundary.
func ConvertToUTC(desired, current string, nowUTC time.Time) (TimeOfDay, error) {
	cur, err := ParseLocalTime(current)
	if err != nil {
		return TimeOfDay{}, err
	}
	want, err := ParseLocalTime(desired)
	if err != nil {
		return TimeOfDay{}, err
	}

	offset := UTCOffset(cur.Hour, nowUTC.UTC().Hour())
	return TimeOfDay{Hour: wrapHour(want.Hour - offset), Minute: want.Minute}, nil
}

// UTCOffset returns localHour-utcHour normalized into [-12, 12].
func UTCOffset(localHour, utcHour int) int {
	offset := localHour - utcHour
	if offset > 12 {
		offset -= 24
	}
	if offset < -12 {
		offset += 24
	}
	return offset
}

func wrapHour(h int) int {
	return ((h % 24) + 24) % 24
}

// ParseClock parses a stored "HH:MM" 24-hour value.
func ParseClock(hm string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", hm)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidFormat, hm)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// FormatTimeOfDay renders "HH:MM", or "H:MM AM" when withPeriod is set.
func FormatTimeOfDay(hour, minute int, withPeriod bool) string {
	if !withPeriod {
		return fmt.Sprintf("%02d:%02d", hour, minute)
	}
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, period)
}
