// Package days models calendar days in UTC and half-open day ranges.
package days

import (
	"encoding/json"
	"fmt"
	"time"
)

const Layout = "2006-01-02"

// Day is a calendar day, always held as midnight UTC.
type Day struct {
	t time.Time
}

func New(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Of truncates t to its UTC calendar day.
func Of(t time.Time) Day {
	u := t.UTC()
	return New(u.Year(), u.Month(), u.Day())
}

func Today() Day {
	return Of(time.Now())
}

func Parse(s string) (Day, error) {
	if s == "" {
		return Day{}, fmt.Errorf("empty date")
	}
	t, err := time.ParseInLocation(Layout, s, time.UTC)
	if err != nil {
		return Day{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Day{t: t}, nil
}

func (d Day) Time() time.Time { return d.t }

func (d Day) IsZero() bool { return d.t.IsZero() }

func (d Day) String() string { return d.t.Format(Layout) }

func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

func (d Day) Before(o Day) bool { return d.t.Before(o.t) }

func (d Day) After(o Day) bool { return d.t.After(o.t) }

func (d Day) Equal(o Day) bool { return d.t.Equal(o.t) }

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Between returns the number of whole days from a to b. It is negative when
// b is before a.
func Between(a, b Day) int {
	return int(b.t.Sub(a.t).Hours() / 24)
}

// Range is the half-open interval [From, To).
type Range struct {
	From Day `json:"from" bson:"from"`
	To   Day `json:"to" bson:"to"`
}

func NewRange(from, to Day) Range {
	return Range{From: from, To: to}
}

func (r Range) Valid() bool {
	return !r.From.IsZero() && !r.To.IsZero() && r.To.After(r.From)
}

func (r Range) Nights() int {
	return Between(r.From, r.To)
}

// Days expands the range into each day it covers, excluding To.
func (r Range) Days() []Day {
	n := r.Nights()
	if n <= 0 {
		return nil
	}
	out := make([]Day, 0, n)
	for d := r.From; d.Before(r.To); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

func (r Range) Contains(d Day) bool {
	return !d.Before(r.From) && d.Before(r.To)
}

// Overlaps reports whether the two ranges share at least one day. Ranges that
// only touch at a boundary do not overlap.
func (r Range) Overlaps(o Range) bool {
	return r.From.Before(o.To) && o.From.Before(r.To)
}

func (r Range) Equal(o Range) bool {
	return r.From.Equal(o.From) && r.To.Equal(o.To)
}

func (r Range) String() string {
	return fmt.Sprintf("[%s, %s)", r.From, r.To)
}

// Difference returns the days of a that are not in b, preserving order.
func Difference(a, b []Day) []Day {
	seen := make(map[Day]struct{}, len(b))
	for _, d := range b {
		seen[d] = struct{}{}
	}
	var out []Day
	for _, d := range a {
		if _, ok := seen[d]; !ok {
			out = append(out, d)
		}
	}
	return out
}
