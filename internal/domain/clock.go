package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04:05"
)

// Date is a calendar date without a time zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}


func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("domain.Date: cannot scan %T", src)
	}
}

func (d *Date) scanString(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ClockTime is a wall-clock time of day with second precision.
type ClockTime struct {
	Hour   int
	Minute int
	Second int
}

// ParseClockTime accepts "15:04:05" and the shorter "15:04".
func ParseClockTime(s string) (ClockTime, error) {
	s = strings.TrimSpace(s)
	layout := ClockLayout
	if strings.Count(s, ":") == 1 {
		layout = "15:04"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return ClockTime{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

// Seconds returns the number of seconds since midnight.
func (c ClockTime) Seconds() int {
	return c.Hour*3600 + c.Minute*60 + c.Second
}

func (c ClockTime) Before(other ClockTime) bool {
	return c.Seconds() < other.Seconds()
}

func (c ClockTime) Value() (driver.Value, error) {
	return c.String(), nil
}

func (c *ClockTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*c = ClockTime{Hour: v.Hour(), Minute: v.Minute(), Second: v.Second()}
		return nil
	case string:
		return c.scanString(v)
	case []byte:
		return c.scanString(string(v))
	case nil:
		*c = ClockTime{}
		return nil
	default:
		return fmt.Errorf("domain.ClockTime: cannot scan %T", src)
	}
}

// scanString drops fractional seconds, which postgres renders for time columns with precision.
func (c *ClockTime) scanString(s string) error {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
