package core

import (
	"bytes"
	"errors"
	"strings"
	"time"
)

// isoLayout matches the millisecond ISO-8601 form produced by browsers.
const isoLayout = "2006-01-02T15:04:05.000Z07:00"

var ErrInvalidDate = errors.New("invalid date")

// Date is a point in time that decodes from RFC 3339 timestamps or plain
// YYYY-MM-DD dates and always encodes as an ISO-8601 UTC timestamp.
type Date struct {
	time.Time
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts RFC 3339 (with or without fractional seconds) and YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t.UTC()}, nil
		}
	}
	return Date{}, ErrInvalidDate
}

// MonthKey returns the calendar month as "YYYY-MM".
func (d Date) MonthKey() string {
	return d.UTC().Format("2006-01")
}

func (d Date) String() string {
	return d.UTC().Format(isoLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		d.Time = time.Time{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
