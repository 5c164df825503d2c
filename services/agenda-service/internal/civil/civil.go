// Package civil converts between absolute instants and the clinic's civil
// calendar date and time-of-day. Every "same day" decision in the service
// goes through Zone.Localize; raw instants are never compared for that.
package civil

import (
	"fmt"
	"time"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Zone is a fixed UTC offset with no daylight saving rules.
type Zone struct {
	loc *time.Location
}

// Clinic is the zone every civil value in the service is expressed in.
var Clinic = FixedZone("UTC-03", -3*time.Hour)

func FixedZone(name string, offset time.Duration) Zone {
	return Zone{loc: time.FixedZone(name, int(offset/time.Second))}
}

func (z Zone) Location() *time.Location {
	if z.loc == nil {
		return time.UTC
	}
	return z.loc
}

// Localize splits an instant into civil date and time-of-day. Sub-second
// precision is dropped.
func (z Zone) Localize(instant time.Time) (Date, Time) {
	t := instant.In(z.Location())
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()},
		Time{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// Instant is the inverse of Localize.
func (z Zone) Instant(d Date, t Time) time.Time {
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, t.Second, 0, z.Location())
}

// DayBounds returns the half-open instant range [start, end) covering d.
func (z Zone) DayBounds(d Date) (time.Time, time.Time) {
	start := z.Instant(d, Time{})
	return start, z.Instant(d.AddDays(1), Time{})
}

// Today is the civil date of now.
func (z Zone) Today(now time.Time) Date {
	d, _ := z.Localize(now)
	return d
}

// Date is a calendar date without a time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Weekday returns 0 for Sunday through 6 for Saturday.
func (d Date) Weekday() int {
	return int(d.midnightUTC().Weekday())
}

func (d Date) AddDays(n int) Date {
	t := d.midnightUTC().AddDate(0, 0, n)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func (d Date) Before(other Date) bool {
	return d.midnightUTC().Before(other.midnightUTC())
}

func (d Date) midnightUTC() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// Time is a civil time-of-day.
type Time struct {
	Hour   int
	Minute int
	Second int
}

// ParseTime accepts "HH:MM:SS" or "HH:MM".
func ParseTime(s string) (Time, error) {
	layout := timeLayout
	if len(s) == len("15:04") {
		layout = "15:04"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Time{}, fmt.Errorf("invalid time %q: want HH:MM:SS", s)
	}
	return Time{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

// String is the fixed-width "HH:MM:SS" form; lexicographic order on it
// matches chronological order.
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Label is the "HH:MM" form shown to users.
func (t Time) Label() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Label converts an "HH:MM:SS" string to "HH:MM", returning it unchanged
// when it is not in that form.
func Label(hhmmss string) string {
	if len(hhmmss) == len(timeLayout) {
		return hhmmss[:5]
	}
	return hhmmss
}
