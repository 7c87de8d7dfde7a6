package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date layout used on the wire and in storage.
const DateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day component. The zero value means
// "absent".
type Date struct {
	t time.Time
}

// NewDate builds a Date from its calendar parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf drops the time-of-day of t after converting it to UTC.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

// CalendarDate returns the date t shows on its own clock, in t's location.
// time.Now() yields the host's local calendar date.
func CalendarDate(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses a strict YYYY-MM-DD string.
func ParseDate(raw string) (Date, error) {
	parsed, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return Date{}, err
	}
	return DateOf(parsed), nil
}

// MustParseDate is ParseDate that panics; meant for tests and constants.
func MustParseDate(raw string) Date {
	d, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) IsZero() bool { return d.t.IsZero() }

// Time returns the date at UTC midnight.
func (d Date) Time() time.Time { return d.t }

func (d Date) AddDays(n int) Date {
	if d.IsZero() {
		return d
	}
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) AddYears(n int) Date {
	if d.IsZero() {
		return d
	}
	return Date{t: d.t.AddDate(n, 0, 0)}
}

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

func (d Date) After(other Date) bool { return d.t.After(other.t) }

func (d Date) Equal(other Date) bool { return d.t.Equal(other.t) }

// Within reports whether d lies in the inclusive window [start, end].
func (d Date) Within(start, end Date) bool {
	return !d.Before(start) && !d.After(end)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if strings.TrimSpace(raw) == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return fmt.Errorf("date %q must use format YYYY-MM-DD", raw)
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer. Dates are bound as ISO strings so equality
// works the same against Postgres DATE and SQLite TEXT columns.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case string:
		return d.scanString(v)
	case []byte:
		return d.scanString(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
}

func (d *Date) scanString(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*d = Date{}
		return nil
	}
	if len(raw) > len(DateLayout) {
		raw = raw[:len(DateLayout)]
	}
	parsed, err := ParseDate(raw)
	if err != nil {
		return fmt.Errorf("scan date %q: %w", raw, err)
	}
	*d = parsed
	return nil
}

// GormDataType tells GORM which column type to use for AutoMigrate.
func (Date) GormDataType() string {
	return "date"
}
