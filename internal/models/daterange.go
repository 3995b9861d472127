package models

import (
	"fmt"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// DateRange is a half-open range of nights [CheckIn, CheckOut).
type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// NewDateRange normalizes both ends to UTC midnight.
func NewDateRange(checkIn, checkOut time.Time) DateRange {
	return DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
}

// ParseDateRange parses both ends of a range from YYYY-MM-DD strings.
func ParseDateRange(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return DateRange{CheckIn: in, CheckOut: out}, nil
}

// Valid reports whether CheckIn is strictly before CheckOut.
func (r DateRange) Valid() bool {
	return r.CheckIn.Before(r.CheckOut)
}

// Nights returns the number of nights in the range, 0 for an invalid range.
func (r DateRange) Nights() int {
	if !r.Valid() {
		return 0
	}
	return int(dayNumber(r.CheckOut) - dayNumber(r.CheckIn))
}

// dayNumber counts calendar days since the Unix epoch.
func dayNumber(t time.Time) int64 {
	return Day(t).Unix() / secondsPerDay
}

// Dates lists every night of the range in order.
func (r DateRange) Dates() []time.Time {
	n := r.Nights()
	out := make([]time.Time, 0, n)
	start := Day(r.CheckIn)
	for i := 0; i < n; i++ {
		out = append(out, start.AddDate(0, 0, i))
	}
	return out
}

// Overlaps reports whether the two ranges share at least one night.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.CheckIn.Before(o.CheckOut) && o.CheckIn.Before(r.CheckOut)
}

func (r DateRange) String() string {
	return FormatDate(r.CheckIn) + ".." + FormatDate(r.CheckOut)
}
