package availability

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date without time of day or zone. The zero Date is
// "unset".
type Date struct {
	t time.Time
}

// NewDate returns the calendar date y-m-d.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date in the timestamp's own
// location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate normalizes s to a calendar date. Accepted forms are YYYY-MM-DD,
// an RFC 3339 timestamp, and the ranged "≤YYYY-MM-DD" form found in
// compatibility datasets, where the bound is used.
func ParseDate(s string) (Date, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "≤")
	raw = strings.TrimPrefix(raw, "<=")
	if raw == "" {
		return Date{}, fmt.Errorf("empty date")
	}

	if t, err := time.Parse(dateLayout, raw); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("invalid calendar date %q, expected YYYY-MM-DD", s)
}

// MustParseDate is ParseDate for static tables; it panics on bad input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

// AtLeast reports d >= o.
func (d Date) AtLeast(o Date) bool { return !d.t.Before(o.t) }

func (d Date) Time() time.Time { return d.t }

// String renders the normalized YYYY-MM-DD form, or "" when unset.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
